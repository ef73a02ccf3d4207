package futures

import (
	"fmt"
	"math/big"
	"strings"
)

// NativeToken is the sentinel symbol denoting the chain-native asset. Futures
// may be priced in the native asset; deliverables must be token-denominated.
const NativeToken = "FUT"

// Future captures one forward-delivery agreement: the immutable terms fixed at
// creation and the mutable accounting state the engine advances through
// deposit, mint, deliver, delivery-claim, claim and refund transitions.
// Identifiers are assigned monotonically starting at 1 and never reused.
type Future struct {
	ID    uint64
	Owner [20]byte

	Deliverable         string
	DeliverableQuantity *big.Int
	TotalSupply         *big.Int
	PayToken            string
	Price               *big.Int
	SecurityDeposit     *big.Int
	FeeRate             uint32
	StartTime           int64
	StartDeliveryTime   int64
	EndTime             int64
	CreatedAt           int64

	TotalDelivered *big.Int
	TotalClaimed   *big.Int
	MintedCount    *big.Int
	HasDeposit     bool
}

// Clone returns a deep copy of the future so callers can safely mutate the
// copy without affecting the stored instance.
func (f *Future) Clone() *Future {
	if f == nil {
		return nil
	}
	clone := *f
	clone.DeliverableQuantity = cloneBigInt(f.DeliverableQuantity)
	clone.TotalSupply = cloneBigInt(f.TotalSupply)
	clone.Price = cloneBigInt(f.Price)
	clone.SecurityDeposit = cloneBigInt(f.SecurityDeposit)
	clone.TotalDelivered = cloneBigInt(f.TotalDelivered)
	clone.TotalClaimed = cloneBigInt(f.TotalClaimed)
	clone.MintedCount = cloneBigInt(f.MintedCount)
	return &clone
}

// Obligation returns the total deliverable quantity owed against minted
// claims, DeliverableQuantity * MintedCount.
func (f *Future) Obligation() *big.Int {
	if f == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(cloneBigInt(f.DeliverableQuantity), cloneBigInt(f.MintedCount))
}

// FullyDelivered reports whether cumulative delivery meets the obligation
// against minted claims.
func (f *Future) FullyDelivered() bool {
	if f == nil {
		return false
	}
	return cloneBigInt(f.TotalDelivered).Cmp(f.Obligation()) >= 0
}

// Phase is a human-readable composite of the mutable state, used by the RPC
// surface. It is derived, never stored.
func (f *Future) Phase(now int64) string {
	switch {
	case f == nil:
		return ""
	case !f.HasDeposit && now > f.EndTime:
		return "settled"
	case !f.HasDeposit:
		return "created"
	case now > f.EndTime:
		return "matured"
	case now >= f.StartTime && now <= f.StartDeliveryTime:
		return "minting"
	case now > f.StartDeliveryTime:
		return "delivery"
	default:
		return "deposited"
	}
}

// NormalizeToken canonicalises a token symbol: trimmed, uppercase, 1-12
// characters from [A-Z0-9].
func NormalizeToken(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if len(trimmed) == 0 || len(trimmed) > 12 {
		return "", fmt.Errorf("%w: %q", ErrInvalidToken, symbol)
	}
	for _, r := range trimmed {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("%w: %q", ErrInvalidToken, symbol)
		}
	}
	return trimmed, nil
}

// SanitizeFuture validates and normalises the supplied future, returning a
// cloned instance with canonical token casing and non-nil numeric fields. The
// original value is not mutated.
func SanitizeFuture(f *Future) (*Future, error) {
	if f == nil {
		return nil, fmt.Errorf("nil future")
	}
	clone := f.Clone()
	deliverable, err := NormalizeToken(clone.Deliverable)
	if err != nil {
		return nil, err
	}
	if deliverable == NativeToken {
		return nil, fmt.Errorf("%w: deliverable cannot be the native asset", ErrInvalidToken)
	}
	payToken, err := NormalizeToken(clone.PayToken)
	if err != nil {
		return nil, err
	}
	clone.Deliverable = deliverable
	clone.PayToken = payToken
	if clone.FeeRate > 100 {
		return nil, fmt.Errorf("future fee rate out of range: %d", clone.FeeRate)
	}
	for name, v := range map[string]*big.Int{
		"deliverableQuantity": clone.DeliverableQuantity,
		"totalSupply":         clone.TotalSupply,
		"price":               clone.Price,
		"securityDeposit":     clone.SecurityDeposit,
	} {
		if v.Sign() <= 0 {
			return nil, fmt.Errorf("future %s must be positive", name)
		}
	}
	for name, v := range map[string]*big.Int{
		"totalDelivered": clone.TotalDelivered,
		"totalClaimed":   clone.TotalClaimed,
		"mintedCount":    clone.MintedCount,
	} {
		if v.Sign() < 0 {
			return nil, fmt.Errorf("future %s must be non-negative", name)
		}
	}
	if clone.MintedCount.Cmp(clone.TotalSupply) > 0 {
		return nil, fmt.Errorf("future minted count exceeds total supply")
	}
	if clone.StartTime > clone.StartDeliveryTime || clone.StartDeliveryTime >= clone.EndTime {
		return nil, fmt.Errorf("%w: start=%d startDelivery=%d end=%d", ErrInvalidFutureTime,
			clone.StartTime, clone.StartDeliveryTime, clone.EndTime)
	}
	return clone, nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
