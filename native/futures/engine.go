package futures

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"futurechain/core/events"
	"futurechain/core/types"
	"futurechain/native/common"
)

var (
	errNilState     = errors.New("futures engine: state not configured")
	errNilCollector = errors.New("futures engine: fee collector not configured")
)

const pauseModule = "futures"

// engineState is the storage contract the engine settles against. Account
// movements double as the pay and deliverable rails; the claim methods form
// the per-future claim-unit ledger.
type engineState interface {
	FuturesPut(*Future) error
	FuturesGet(id uint64) (*Future, bool)
	FuturesNextID() (uint64, error)
	FuturesVaultAddress(token string) ([20]byte, error)
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
	ClaimMint(to [20]byte, futureID uint64, quantity *big.Int) error
	ClaimBurn(from [20]byte, futureID uint64, quantity *big.Int) error
	ClaimBalance(holder [20]byte, futureID uint64) (*big.Int, error)
}

// Authority answers operator capability checks for the administrative
// surface. It is injected rather than baked into the engine.
type Authority interface {
	IsOperator(addr [20]byte) bool
}

// CreateParams carries the immutable terms of a new future.
type CreateParams struct {
	Deliverable         string
	DeliverableQuantity *big.Int
	TotalSupply         *big.Int
	PayToken            string
	Price               *big.Int
	SecurityDeposit     *big.Int
	StartTime           int64
	StartDeliveryTime   int64
	EndTime             int64
}

// DeliveryProceeds summarises a delivery-claim settlement: the gross amount
// newly claimable, the platform fee deducted, and the net paid to the owner.
// Claimed == Fee + Net always holds.
type DeliveryProceeds struct {
	Claimed *big.Int
	Fee     *big.Int
	Net     *big.Int
}

// ClaimResult summarises a holder redemption after maturity.
type ClaimResult struct {
	ClaimCount    *big.Int
	Deliverable   *big.Int
	DepositRefund *big.Int
	CostRefund    *big.Int
}

// RefundResult summarises the owner's post-maturity refund.
type RefundResult struct {
	DepositReturned    *big.Int
	DeliverableSurplus *big.Int
}

// Engine owns the lifecycle of every future: creation, deposit, mint,
// delivery, delivery-claims, holder claims and the owner refund, together
// with all proportional settlement arithmetic. A single mutex serialises
// every state-mutating operation; the critical section spans the state read,
// all balance movements and the state write, so no caller can observe a
// half-settled future.
type Engine struct {
	mu        sync.Mutex
	state     engineState
	emitter   events.Emitter
	authority Authority
	pauses    common.PauseView
	collector [20]byte
	feeRate   uint32
	nowFn     func() int64
}

type futuresEvent struct {
	evt *types.Event
}

func (e futuresEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e futuresEvent) Event() *types.Event { return e.evt }

// NewEngine creates a futures engine with a no-op emitter and a zero platform
// fee rate. Callers wire state, emitter, authority and collector before use.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCollector configures the address that receives platform fees.
func (e *Engine) SetCollector(addr [20]byte) { e.collector = addr }

// SetAuthority configures the operator capability check used by the
// administrative surface. A nil authority rejects every operator action.
func (e *Engine) SetAuthority(authority Authority) { e.authority = authority }

// SetPauses configures the module pause view consulted before every
// state-mutating operation.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetFeeRate configures the global platform fee percentage snapshotted into
// new futures. Rates above 100 are rejected.
func (e *Engine) SetFeeRate(rate uint32) error {
	if rate > 100 {
		return fmt.Errorf("futures: fee rate out of range: %d", rate)
	}
	e.feeRate = rate
	return nil
}

// FeeRate returns the current global platform fee percentage.
func (e *Engine) FeeRate() uint32 { return e.feeRate }

// Collector returns the configured platform fee collector address.
func (e *Engine) Collector() [20]byte { return e.collector }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(futuresEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) guard() error {
	return common.Guard(e.pauses, pauseModule)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{BalanceFUT: big.NewInt(0)}
	}
	if acc.BalanceFUT == nil {
		acc.BalanceFUT = big.NewInt(0)
	}
	return acc
}

func (e *Engine) loadFuture(id uint64) (*Future, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	future, ok := e.state.FuturesGet(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrFutureNotFound, id)
	}
	return future, nil
}

func (e *Engine) storeFuture(f *Future) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.state.FuturesPut(f)
}

// ledger stages account movements in memory. A settlement made of several
// transfer legs debits and credits cached copies only; nothing reaches state
// until Commit, so a failing leg leaves no partial effects behind.
type ledger struct {
	state    engineState
	accounts map[[20]byte]*types.Account
	touched  [][20]byte
}

func newLedger(state engineState) *ledger {
	return &ledger{state: state, accounts: make(map[[20]byte]*types.Account)}
}

func (l *ledger) account(addr [20]byte) (*types.Account, error) {
	if acc, ok := l.accounts[addr]; ok {
		return acc, nil
	}
	acc, err := l.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	acc = ensureAccount(acc)
	l.accounts[addr] = acc
	l.touched = append(l.touched, addr)
	return acc, nil
}

// transfer moves an asset between two staged accounts. The native sentinel
// routes through BalanceFUT, every other symbol through the token balance
// map. A zero amount is a no-op.
func (l *ledger) transfer(from, to [20]byte, token string, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("%w: negative amount", ErrTransferFailed)
	}
	normalized, err := NormalizeToken(token)
	if err != nil {
		return err
	}
	fromAcc, err := l.account(from)
	if err != nil {
		return err
	}
	toAcc, err := l.account(to)
	if err != nil {
		return err
	}
	if normalized == NativeToken {
		if fromAcc.BalanceFUT.Cmp(amt) < 0 {
			return fmt.Errorf("%w: insufficient balance", ErrTransferFailed)
		}
		fromAcc.BalanceFUT = new(big.Int).Sub(fromAcc.BalanceFUT, amt)
		toAcc.BalanceFUT = new(big.Int).Add(toAcc.BalanceFUT, amt)
		return nil
	}
	fromBal := fromAcc.TokenBalance(normalized)
	if fromBal.Cmp(amt) < 0 {
		return fmt.Errorf("%w: insufficient balance", ErrTransferFailed)
	}
	fromAcc.SetTokenBalance(normalized, new(big.Int).Sub(fromBal, amt))
	toAcc.SetTokenBalance(normalized, new(big.Int).Add(toAcc.TokenBalance(normalized), amt))
	return nil
}

// commit writes every touched account back to state in load order.
func (l *ledger) commit() error {
	for _, addr := range l.touched {
		if err := l.state.PutAccount(addr[:], l.accounts[addr]); err != nil {
			return err
		}
	}
	return nil
}

// transferToken moves an asset between two accounts and persists immediately.
// Single-leg operations use it directly; multi-leg settlements build their own
// ledger so all of the legs land together.
func (e *Engine) transferToken(from, to [20]byte, token string, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	l := newLedger(e.state)
	if err := l.transfer(from, to, token, amount); err != nil {
		return err
	}
	return l.commit()
}

func (e *Engine) ensureCollectorConfigured() error {
	if e == nil {
		return errNilCollector
	}
	if e.collector == ([20]byte{}) {
		return errNilCollector
	}
	return nil
}

// mulDiv computes a*b/den with truncation toward zero. Multiplication happens
// before division; the ordering decides where truncation dust lands, so every
// settlement ratio goes through here.
func mulDiv(a, b, den *big.Int) *big.Int {
	product := new(big.Int).Mul(cloneBigInt(a), cloneBigInt(b))
	return product.Div(product, den)
}

// Create validates the supplied terms and persists a new future with the
// platform fee rate snapshotted. No value moves.
func (e *Engine) Create(owner [20]byte, params CreateParams) (*Future, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, errNilState
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if owner == ([20]byte{}) {
		return nil, fmt.Errorf("%w: zero owner", ErrInvalidAddress)
	}
	now := e.now()
	if params.StartTime < now {
		return nil, fmt.Errorf("%w: start time in the past", ErrInvalidFutureTime)
	}
	id, err := e.state.FuturesNextID()
	if err != nil {
		return nil, err
	}
	future := &Future{
		ID:                  id,
		Owner:               owner,
		Deliverable:         params.Deliverable,
		DeliverableQuantity: cloneBigInt(params.DeliverableQuantity),
		TotalSupply:         cloneBigInt(params.TotalSupply),
		PayToken:            params.PayToken,
		Price:               cloneBigInt(params.Price),
		SecurityDeposit:     cloneBigInt(params.SecurityDeposit),
		FeeRate:             e.feeRate,
		StartTime:           params.StartTime,
		StartDeliveryTime:   params.StartDeliveryTime,
		EndTime:             params.EndTime,
		CreatedAt:           now,
		TotalDelivered:      big.NewInt(0),
		TotalClaimed:        big.NewInt(0),
		MintedCount:         big.NewInt(0),
	}
	sanitized, err := SanitizeFuture(future)
	if err != nil {
		return nil, err
	}
	if err := e.storeFuture(sanitized); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(sanitized))
	return sanitized.Clone(), nil
}

// Deposit pulls the security deposit from the caller into the pay-token
// vault. A deposit can be posted at most once per lifecycle.
func (e *Engine) Deposit(id uint64, from [20]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	future, err := e.loadFuture(id)
	if err != nil {
		return err
	}
	if e.now() > future.EndTime {
		return fmt.Errorf("%w: past end time", ErrFutureNotActive)
	}
	if future.HasDeposit {
		return ErrDepositAlreadyPaid
	}
	vault, err := e.state.FuturesVaultAddress(future.PayToken)
	if err != nil {
		return err
	}
	if err := e.transferToken(from, vault, future.PayToken, future.SecurityDeposit); err != nil {
		return fmt.Errorf("%w: %v", ErrDepositNotPaid, err)
	}
	future.HasDeposit = true
	if err := e.storeFuture(future); err != nil {
		return err
	}
	e.emit(NewDepositedEvent(future, from))
	return nil
}

// Mint charges price*quantity in the pay token from the buyer and mints the
// corresponding claim units. Only valid inside the minting window, after the
// deposit is posted, and while supply remains.
func (e *Engine) Mint(id uint64, buyer [20]byte, quantity *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	qty := cloneBigInt(quantity)
	if qty.Sign() <= 0 {
		return fmt.Errorf("futures: mint quantity must be positive")
	}
	future, err := e.loadFuture(id)
	if err != nil {
		return err
	}
	now := e.now()
	if now < future.StartTime || now > future.StartDeliveryTime {
		return fmt.Errorf("%w: outside minting window", ErrFutureNotActive)
	}
	if !future.HasDeposit {
		return ErrDepositNotPaid
	}
	minted := new(big.Int).Add(future.MintedCount, qty)
	if minted.Cmp(future.TotalSupply) > 0 {
		return fmt.Errorf("%w: %s of %s remaining", ErrInsufficientFuture,
			new(big.Int).Sub(future.TotalSupply, future.MintedCount), future.TotalSupply)
	}
	cost := new(big.Int).Mul(future.Price, qty)
	vault, err := e.state.FuturesVaultAddress(future.PayToken)
	if err != nil {
		return err
	}
	if err := e.transferToken(buyer, vault, future.PayToken, cost); err != nil {
		return fmt.Errorf("%w: %v", ErrMintingNotEnoughPayToken, err)
	}
	if err := e.state.ClaimMint(buyer, id, qty); err != nil {
		return err
	}
	future.MintedCount = minted
	if err := e.storeFuture(future); err != nil {
		return err
	}
	e.emit(NewMintedEvent(future, buyer, qty, cost))
	return nil
}

// Deliver pulls quantity of the deliverable asset into vault custody and
// advances the cumulative delivered counter. Repeatable inside the delivery
// window.
func (e *Engine) Deliver(id uint64, from [20]byte, quantity *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	qty := cloneBigInt(quantity)
	if qty.Sign() <= 0 {
		return fmt.Errorf("futures: delivery quantity must be positive")
	}
	future, err := e.loadFuture(id)
	if err != nil {
		return err
	}
	now := e.now()
	if now < future.StartTime || now > future.EndTime {
		return fmt.Errorf("%w: outside delivery window", ErrFutureNotActive)
	}
	vault, err := e.state.FuturesVaultAddress(future.Deliverable)
	if err != nil {
		return err
	}
	if err := e.transferToken(from, vault, future.Deliverable, qty); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	future.TotalDelivered = new(big.Int).Add(future.TotalDelivered, qty)
	if err := e.storeFuture(future); err != nil {
		return err
	}
	e.emit(NewDeliveredEvent(future, from, qty))
	return nil
}

// DeliverClaim pays the owner the payment-side proceeds earned by delivery so
// far, net of the platform fee. Each call settles only the delta since the
// previous call: a repeat invocation with no new delivery yields zero and
// moves nothing.
func (e *Engine) DeliverClaim(id uint64, caller [20]byte) (*DeliveryProceeds, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return nil, err
	}
	future, err := e.loadFuture(id)
	if err != nil {
		return nil, err
	}
	if caller != future.Owner {
		return nil, fmt.Errorf("%w: owner only", ErrUnauthorized)
	}
	// Entitlement is capped at the value of all minted claims: delivering
	// more than was minted earns nothing extra.
	deliveredValue := mulDiv(future.Price, future.TotalDelivered, future.DeliverableQuantity)
	mintedValue := new(big.Int).Mul(future.Price, future.MintedCount)
	totalCanClaim := deliveredValue
	if mintedValue.Cmp(totalCanClaim) < 0 {
		totalCanClaim = mintedValue
	}
	canClaim := new(big.Int).Sub(totalCanClaim, future.TotalClaimed)
	if canClaim.Sign() < 0 {
		return nil, fmt.Errorf("%w: claimed exceeds entitlement", ErrInvalidFutureClaim)
	}
	if canClaim.Sign() == 0 {
		return &DeliveryProceeds{Claimed: big.NewInt(0), Fee: big.NewInt(0), Net: big.NewInt(0)}, nil
	}
	fee := mulDiv(big.NewInt(int64(future.FeeRate)), canClaim, big.NewInt(100))
	net := new(big.Int).Sub(canClaim, fee)
	// The collector check precedes both payout legs; a due fee with nowhere
	// to go must abort before the owner is paid.
	if fee.Sign() > 0 {
		if err := e.ensureCollectorConfigured(); err != nil {
			return nil, err
		}
	}
	vault, err := e.state.FuturesVaultAddress(future.PayToken)
	if err != nil {
		return nil, err
	}
	l := newLedger(e.state)
	if net.Sign() > 0 {
		if err := l.transfer(vault, future.Owner, future.PayToken, net); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}
	if fee.Sign() > 0 {
		if err := l.transfer(vault, e.collector, future.PayToken, fee); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}
	if err := l.commit(); err != nil {
		return nil, err
	}
	future.TotalClaimed = new(big.Int).Add(future.TotalClaimed, canClaim)
	if err := e.storeFuture(future); err != nil {
		return nil, err
	}
	e.emit(NewDeliveryClaimedEvent(future, canClaim, fee))
	return &DeliveryProceeds{Claimed: canClaim, Fee: fee, Net: net}, nil
}

// Claim redeems claim units after maturity. Under partial delivery the holder
// receives the delivered share of the deliverable plus pro-rated slices of
// the security deposit and of the unmet payment; under full delivery the
// whole deliverable entitlement and nothing else. The claim units are burned
// afterwards. All sub-transfers succeed or the whole call fails.
func (e *Engine) Claim(id uint64, caller [20]byte, claimCount *big.Int) (*ClaimResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return nil, err
	}
	count := cloneBigInt(claimCount)
	if count.Sign() <= 0 {
		return nil, fmt.Errorf("futures: claim count must be positive")
	}
	future, err := e.loadFuture(id)
	if err != nil {
		return nil, err
	}
	if e.now() <= future.EndTime {
		return nil, fmt.Errorf("%w: future not matured", ErrFutureNotActive)
	}
	balance, err := e.state.ClaimBalance(caller, id)
	if err != nil {
		return nil, err
	}
	if cloneBigInt(balance).Cmp(count) < 0 {
		return nil, fmt.Errorf("%w: claim count exceeds balance", ErrInvalidFutureClaim)
	}
	result := &ClaimResult{
		ClaimCount:    count,
		Deliverable:   big.NewInt(0),
		DepositRefund: big.NewInt(0),
		CostRefund:    big.NewInt(0),
	}
	hundred := big.NewInt(100)
	if future.FullyDelivered() {
		result.Deliverable = new(big.Int).Mul(count, future.DeliverableQuantity)
	} else {
		// deliveryRate is an integer percentage in [0, 100), truncated.
		obligation := future.Obligation()
		deliveryRate := mulDiv(future.TotalDelivered, hundred, obligation)
		entitlement := new(big.Int).Mul(count, future.DeliverableQuantity)
		result.Deliverable = mulDiv(entitlement, deliveryRate, hundred)
		result.DepositRefund = mulDiv(count, future.SecurityDeposit, future.TotalSupply)
		unmetRate := new(big.Int).Sub(hundred, deliveryRate)
		cost := new(big.Int).Mul(count, future.Price)
		result.CostRefund = mulDiv(cost, unmetRate, hundred)
	}
	l := newLedger(e.state)
	if result.Deliverable.Sign() > 0 {
		vault, err := e.state.FuturesVaultAddress(future.Deliverable)
		if err != nil {
			return nil, err
		}
		if err := l.transfer(vault, caller, future.Deliverable, result.Deliverable); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}
	if result.DepositRefund.Sign() > 0 || result.CostRefund.Sign() > 0 {
		vault, err := e.state.FuturesVaultAddress(future.PayToken)
		if err != nil {
			return nil, err
		}
		if err := l.transfer(vault, caller, future.PayToken, result.DepositRefund); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		if err := l.transfer(vault, caller, future.PayToken, result.CostRefund); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}
	// All legs are staged; a failure above leaves balances and claim units
	// untouched. The burn precedes the commit so a settled payout can never
	// coexist with still-spendable units.
	if err := e.state.ClaimBurn(caller, id, count); err != nil {
		return nil, err
	}
	if err := l.commit(); err != nil {
		return nil, err
	}
	e.emit(NewClaimedEvent(future, caller, result))
	return result, nil
}

// Refund returns the unused security deposit, and any deliverable surplus
// beyond the minted obligation, to the owner after maturity. The deposit flag
// is cleared so a second refund fails its precondition.
func (e *Engine) Refund(id uint64, caller [20]byte) (*RefundResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return nil, err
	}
	future, err := e.loadFuture(id)
	if err != nil {
		return nil, err
	}
	if e.now() <= future.EndTime {
		return nil, fmt.Errorf("%w: future not matured", ErrFutureNotActive)
	}
	if caller != future.Owner {
		return nil, fmt.Errorf("%w: owner only", ErrUnauthorized)
	}
	if !future.HasDeposit {
		return nil, ErrDepositNotPaid
	}
	result := &RefundResult{
		DepositReturned:    cloneBigInt(future.SecurityDeposit),
		DeliverableSurplus: big.NewInt(0),
	}
	obligation := future.Obligation()
	if !future.FullyDelivered() {
		forfeited := mulDiv(future.SecurityDeposit, future.MintedCount, future.TotalSupply)
		result.DepositReturned = new(big.Int).Sub(future.SecurityDeposit, forfeited)
	} else if future.TotalDelivered.Cmp(obligation) > 0 {
		result.DeliverableSurplus = new(big.Int).Sub(future.TotalDelivered, obligation)
	}
	l := newLedger(e.state)
	if result.DepositReturned.Sign() > 0 {
		vault, err := e.state.FuturesVaultAddress(future.PayToken)
		if err != nil {
			return nil, err
		}
		if err := l.transfer(vault, future.Owner, future.PayToken, result.DepositReturned); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}
	if result.DeliverableSurplus.Sign() > 0 {
		vault, err := e.state.FuturesVaultAddress(future.Deliverable)
		if err != nil {
			return nil, err
		}
		if err := l.transfer(vault, future.Owner, future.Deliverable, result.DeliverableSurplus); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		future.TotalDelivered = obligation
	}
	if err := l.commit(); err != nil {
		return nil, err
	}
	future.HasDeposit = false
	if err := e.storeFuture(future); err != nil {
		return nil, err
	}
	e.emit(NewRefundedEvent(future, result))
	return result, nil
}

// UpdateFeeRate changes the global platform fee percentage. Operator only;
// existing futures keep their snapshotted rate.
func (e *Engine) UpdateFeeRate(caller [20]byte, rate uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.authority == nil || !e.authority.IsOperator(caller) {
		return fmt.Errorf("%w: operator only", ErrUnauthorized)
	}
	if err := e.SetFeeRate(rate); err != nil {
		return err
	}
	e.emit(NewFeeRateUpdatedEvent(caller, rate))
	return nil
}

// UpdateCollector changes the platform fee collector address. Operator only.
func (e *Engine) UpdateCollector(caller [20]byte, addr [20]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.authority == nil || !e.authority.IsOperator(caller) {
		return fmt.Errorf("%w: operator only", ErrUnauthorized)
	}
	if addr == ([20]byte{}) {
		return fmt.Errorf("%w: zero collector", ErrInvalidAddress)
	}
	e.collector = addr
	e.emit(NewCollectorUpdatedEvent(caller, addr))
	return nil
}

// Get returns a copy of the stored future. The lock keeps reads from
// observing a settlement mid-flight.
func (e *Engine) Get(id uint64) (*Future, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	future, err := e.loadFuture(id)
	if err != nil {
		return nil, err
	}
	return future.Clone(), nil
}

// ClaimBalanceOf reports the caller's claim-unit balance for a future.
func (e *Engine) ClaimBalanceOf(holder [20]byte, id uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	balance, err := e.state.ClaimBalance(holder, id)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(balance), nil
}
