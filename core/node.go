package core

import (
	"fmt"
	"math/big"
	"sync"

	"futurechain/core/events"
	"futurechain/core/state"
	"futurechain/core/types"
	"futurechain/native/futures"
	"futurechain/observability/metrics"
	"futurechain/storage"
)

// PausedModules is a static pause view built from configuration.
type PausedModules map[string]struct{}

func (p PausedModules) IsPaused(module string) bool {
	_, ok := p[module]
	return ok
}

// OperatorSet answers the engine's operator capability checks from a fixed
// address set.
type OperatorSet map[[20]byte]struct{}

func (o OperatorSet) IsOperator(addr [20]byte) bool {
	_, ok := o[addr]
	return ok
}

// eventFeed retains the most recent events for the RPC audit surface.
type eventFeed struct {
	mu     sync.Mutex
	buffer []types.Event
	limit  int
}

func newEventFeed(limit int) *eventFeed {
	if limit <= 0 {
		limit = 256
	}
	return &eventFeed{limit: limit}
}

// Emit implements events.Emitter.
func (f *eventFeed) Emit(evt events.Event) {
	carrier, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	payload := carrier.Event()
	if payload == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffer = append(f.buffer, *payload)
	if len(f.buffer) > f.limit {
		f.buffer = f.buffer[len(f.buffer)-f.limit:]
	}
}

func (f *eventFeed) Recent(limit int) []types.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit <= 0 || limit > len(f.buffer) {
		limit = len(f.buffer)
	}
	out := make([]types.Event, limit)
	copy(out, f.buffer[len(f.buffer)-limit:])
	return out
}

// NodeConfig carries the settlement parameters the node wires into the
// engine at startup.
type NodeConfig struct {
	FeeRate      uint32
	FeeCollector [20]byte
	Operators    [][20]byte
	Paused       []string
}

// Node wires storage, state, the futures engine, metrics and the event feed
// together and exposes the operations the RPC surface calls.
type Node struct {
	db      storage.Database
	manager *state.Manager
	engine  *futures.Engine
	feed    *eventFeed
	metrics *metrics.FuturesMetrics
}

// NewNode builds a node on the supplied database.
func NewNode(db storage.Database, cfg NodeConfig) (*Node, error) {
	manager := state.NewManager(db)
	feed := newEventFeed(0)

	engine := futures.NewEngine()
	engine.SetState(manager)
	engine.SetEmitter(feed)
	if err := engine.SetFeeRate(cfg.FeeRate); err != nil {
		return nil, err
	}
	if cfg.FeeCollector != ([20]byte{}) {
		engine.SetCollector(cfg.FeeCollector)
	}
	operators := make(OperatorSet, len(cfg.Operators))
	for _, op := range cfg.Operators {
		operators[op] = struct{}{}
	}
	engine.SetAuthority(operators)
	paused := make(PausedModules, len(cfg.Paused))
	for _, module := range cfg.Paused {
		paused[module] = struct{}{}
	}
	engine.SetPauses(paused)

	return &Node{
		db:      db,
		manager: manager,
		engine:  engine,
		feed:    feed,
		metrics: metrics.Futures(),
	}, nil
}

// GenesisAlloc seeds one balance during ApplyGenesis.
type GenesisAlloc struct {
	Address [20]byte
	Token   string
	Amount  *big.Int
}

var genesisAppliedKey = []byte("futures/genesis-applied")

// ApplyGenesis credits the configured allocations exactly once per database.
func (n *Node) ApplyGenesis(allocs []GenesisAlloc) error {
	applied, err := n.db.Has(genesisAppliedKey)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	for _, alloc := range allocs {
		if alloc.Amount == nil || alloc.Amount.Sign() <= 0 {
			return fmt.Errorf("core: genesis allocation must be positive")
		}
		token, err := futures.NormalizeToken(alloc.Token)
		if err != nil {
			return err
		}
		account, err := n.manager.GetAccount(alloc.Address[:])
		if err != nil {
			return err
		}
		if account == nil {
			account = &types.Account{BalanceFUT: big.NewInt(0)}
		}
		if token == futures.NativeToken {
			account.BalanceFUT = new(big.Int).Add(account.BalanceFUT, alloc.Amount)
		} else {
			account.SetTokenBalance(token, new(big.Int).Add(account.TokenBalance(token), alloc.Amount))
		}
		if err := n.manager.PutAccount(alloc.Address[:], account); err != nil {
			return err
		}
	}
	return n.db.Put(genesisAppliedKey, []byte{0x01})
}

// Engine exposes the settlement engine, primarily for tests.
func (n *Node) Engine() *futures.Engine { return n.engine }

// FuturesCreate registers a new future owned by the caller.
func (n *Node) FuturesCreate(owner [20]byte, params futures.CreateParams) (*futures.Future, error) {
	future, err := n.engine.Create(owner, params)
	if err != nil {
		n.metrics.IncOperationError("create")
		return nil, err
	}
	n.metrics.IncCreated()
	return future, nil
}

// FuturesGet returns the stored future.
func (n *Node) FuturesGet(id uint64) (*futures.Future, error) {
	return n.engine.Get(id)
}

// FuturesDeposit posts the security deposit from the caller.
func (n *Node) FuturesDeposit(id uint64, from [20]byte) error {
	if err := n.engine.Deposit(id, from); err != nil {
		n.metrics.IncOperationError("deposit")
		return err
	}
	n.metrics.IncDeposits()
	return nil
}

// FuturesMint purchases claim units for the buyer.
func (n *Node) FuturesMint(id uint64, buyer [20]byte, quantity *big.Int) error {
	if err := n.engine.Mint(id, buyer, quantity); err != nil {
		n.metrics.IncOperationError("mint")
		return err
	}
	n.metrics.IncMints()
	return nil
}

// FuturesDeliver submits deliverable quantity into vault custody.
func (n *Node) FuturesDeliver(id uint64, from [20]byte, quantity *big.Int) error {
	if err := n.engine.Deliver(id, from, quantity); err != nil {
		n.metrics.IncOperationError("deliver")
		return err
	}
	n.metrics.IncDeliveries()
	return nil
}

// FuturesDeliverClaim settles the owner's accrued delivery proceeds.
func (n *Node) FuturesDeliverClaim(id uint64, caller [20]byte) (*futures.DeliveryProceeds, error) {
	proceeds, err := n.engine.DeliverClaim(id, caller)
	if err != nil {
		n.metrics.IncOperationError("deliverClaim")
		return nil, err
	}
	n.metrics.IncDeliveryClaims()
	return proceeds, nil
}

// FuturesClaim redeems matured claim units for the caller.
func (n *Node) FuturesClaim(id uint64, caller [20]byte, claimCount *big.Int) (*futures.ClaimResult, error) {
	result, err := n.engine.Claim(id, caller, claimCount)
	if err != nil {
		n.metrics.IncOperationError("claim")
		return nil, err
	}
	n.metrics.IncClaims()
	return result, nil
}

// FuturesRefund returns the unused deposit and surplus to the owner.
func (n *Node) FuturesRefund(id uint64, caller [20]byte) (*futures.RefundResult, error) {
	result, err := n.engine.Refund(id, caller)
	if err != nil {
		n.metrics.IncOperationError("refund")
		return nil, err
	}
	n.metrics.IncRefunds()
	return result, nil
}

// FuturesClaimBalance reports the holder's claim-unit balance.
func (n *Node) FuturesClaimBalance(holder [20]byte, id uint64) (*big.Int, error) {
	return n.engine.ClaimBalanceOf(holder, id)
}

// FuturesSetFeeRate updates the global platform fee rate, operator only.
func (n *Node) FuturesSetFeeRate(caller [20]byte, rate uint32) error {
	return n.engine.UpdateFeeRate(caller, rate)
}

// FuturesSetCollector updates the platform fee collector, operator only.
func (n *Node) FuturesSetCollector(caller [20]byte, collector [20]byte) error {
	return n.engine.UpdateCollector(caller, collector)
}

// GetBalance reports an account balance for the supplied asset symbol.
func (n *Node) GetBalance(addr [20]byte, token string) (*big.Int, error) {
	normalized, err := futures.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	account, err := n.manager.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	if account == nil {
		return big.NewInt(0), nil
	}
	if normalized == futures.NativeToken {
		if account.BalanceFUT == nil {
			return big.NewInt(0), nil
		}
		return new(big.Int).Set(account.BalanceFUT), nil
	}
	return account.TokenBalance(normalized), nil
}

// Events returns up to limit of the most recent settlement events.
func (n *Node) Events(limit int) []types.Event {
	return n.feed.Recent(limit)
}
