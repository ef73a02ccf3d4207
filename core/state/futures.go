package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"futurechain/native/futures"
)

func futureRecordKey(id uint64) []byte {
	buf := make([]byte, len(futureRecordPrefix)+8)
	copy(buf, futureRecordPrefix)
	binary.BigEndian.PutUint64(buf[len(futureRecordPrefix):], id)
	return ethcrypto.Keccak256(buf)
}

func futureSequenceStorageKey() []byte {
	return ethcrypto.Keccak256(futureSequenceKey)
}

// storedFuture mirrors futures.Future with RLP-friendly field types; signed
// timestamps are widened to big integers.
type storedFuture struct {
	ID                  uint64
	Owner               [20]byte
	Deliverable         string
	DeliverableQuantity *big.Int
	TotalSupply         *big.Int
	PayToken            string
	Price               *big.Int
	SecurityDeposit     *big.Int
	FeeRate             uint32
	StartTime           *big.Int
	StartDeliveryTime   *big.Int
	EndTime             *big.Int
	CreatedAt           *big.Int
	TotalDelivered      *big.Int
	TotalClaimed        *big.Int
	MintedCount         *big.Int
	HasDeposit          bool
}

func newStoredFuture(f *futures.Future) *storedFuture {
	return &storedFuture{
		ID:                  f.ID,
		Owner:               f.Owner,
		Deliverable:         f.Deliverable,
		DeliverableQuantity: f.DeliverableQuantity,
		TotalSupply:         f.TotalSupply,
		PayToken:            f.PayToken,
		Price:               f.Price,
		SecurityDeposit:     f.SecurityDeposit,
		FeeRate:             f.FeeRate,
		StartTime:           big.NewInt(f.StartTime),
		StartDeliveryTime:   big.NewInt(f.StartDeliveryTime),
		EndTime:             big.NewInt(f.EndTime),
		CreatedAt:           big.NewInt(f.CreatedAt),
		TotalDelivered:      f.TotalDelivered,
		TotalClaimed:        f.TotalClaimed,
		MintedCount:         f.MintedCount,
		HasDeposit:          f.HasDeposit,
	}
}

func (s *storedFuture) toFuture() (*futures.Future, error) {
	if s == nil {
		return nil, fmt.Errorf("state: nil future record")
	}
	out := &futures.Future{
		ID:                  s.ID,
		Owner:               s.Owner,
		Deliverable:         s.Deliverable,
		DeliverableQuantity: s.DeliverableQuantity,
		TotalSupply:         s.TotalSupply,
		PayToken:            s.PayToken,
		Price:               s.Price,
		SecurityDeposit:     s.SecurityDeposit,
		FeeRate:             s.FeeRate,
		StartTime:           s.StartTime.Int64(),
		StartDeliveryTime:   s.StartDeliveryTime.Int64(),
		EndTime:             s.EndTime.Int64(),
		CreatedAt:           s.CreatedAt.Int64(),
		TotalDelivered:      s.TotalDelivered,
		TotalClaimed:        s.TotalClaimed,
		MintedCount:         s.MintedCount,
		HasDeposit:          s.HasDeposit,
	}
	return futures.SanitizeFuture(out)
}

// FuturesPut validates and persists a future record.
func (m *Manager) FuturesPut(f *futures.Future) error {
	sanitized, err := futures.SanitizeFuture(f)
	if err != nil {
		return err
	}
	return m.put(futureRecordKey(sanitized.ID), newStoredFuture(sanitized))
}

// FuturesGet loads a future record by ID.
func (m *Manager) FuturesGet(id uint64) (*futures.Future, bool) {
	stored := new(storedFuture)
	ok, err := m.get(futureRecordKey(id), stored)
	if err != nil || !ok {
		return nil, false
	}
	future, err := stored.toFuture()
	if err != nil {
		return nil, false
	}
	return future, true
}

// FuturesNextID atomically advances and returns the future identifier
// sequence. The first issued identifier is 1; identifiers are never reused.
func (m *Manager) FuturesNextID() (uint64, error) {
	key := futureSequenceStorageKey()
	var current uint64
	ok, err := m.get(key, &current)
	if err != nil {
		return 0, err
	}
	if !ok {
		current = 0
	}
	next := current + 1
	if err := m.put(key, next); err != nil {
		return 0, err
	}
	return next, nil
}

// FuturesVaultAddress derives the deterministic module vault address holding
// custody of the supplied asset.
func (m *Manager) FuturesVaultAddress(token string) ([20]byte, error) {
	normalized, err := futures.NormalizeToken(token)
	if err != nil {
		return [20]byte{}, err
	}
	buf := make([]byte, len(vaultPrefix)+len(normalized))
	copy(buf, vaultPrefix)
	copy(buf[len(vaultPrefix):], normalized)
	digest := ethcrypto.Keccak256(buf)
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr, nil
}
