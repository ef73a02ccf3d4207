package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"futurechain/native/futures"
	"futurechain/storage"
)

func nodeAddr(suffix byte) [20]byte {
	var addr [20]byte
	addr[19] = suffix
	return addr
}

func newTestNode(t *testing.T) *Node {
	t.Helper()
	node, err := NewNode(storage.NewMemDB(), NodeConfig{
		FeeRate:      10,
		FeeCollector: nodeAddr(0xFE),
		Operators:    [][20]byte{nodeAddr(0x0A)},
	})
	require.NoError(t, err)
	return node
}

func TestApplyGenesisOnce(t *testing.T) {
	node := newTestNode(t)
	allocs := []GenesisAlloc{
		{Address: nodeAddr(0x01), Token: futures.NativeToken, Amount: big.NewInt(1_000)},
		{Address: nodeAddr(0x01), Token: "WHT", Amount: big.NewInt(500)},
	}
	require.NoError(t, node.ApplyGenesis(allocs))
	// The second pass is a no-op, not a double credit.
	require.NoError(t, node.ApplyGenesis(allocs))

	native, err := node.GetBalance(nodeAddr(0x01), futures.NativeToken)
	require.NoError(t, err)
	require.Zero(t, native.Cmp(big.NewInt(1_000)))
	wht, err := node.GetBalance(nodeAddr(0x01), "WHT")
	require.NoError(t, err)
	require.Zero(t, wht.Cmp(big.NewInt(500)))
}

func TestApplyGenesisRejectsNonPositive(t *testing.T) {
	node := newTestNode(t)
	err := node.ApplyGenesis([]GenesisAlloc{
		{Address: nodeAddr(0x01), Token: "WHT", Amount: big.NewInt(0)},
	})
	require.Error(t, err)
}

func TestFullSettlementLifecycle(t *testing.T) {
	node := newTestNode(t)
	owner := nodeAddr(0x01)
	buyer := nodeAddr(0x02)
	require.NoError(t, node.ApplyGenesis([]GenesisAlloc{
		{Address: owner, Token: futures.NativeToken, Amount: big.NewInt(1_000)},
		{Address: owner, Token: "WHT", Amount: big.NewInt(200)},
		{Address: buyer, Token: futures.NativeToken, Amount: big.NewInt(1_000)},
	}))

	now := int64(1_000)
	node.Engine().SetNowFunc(func() int64 { return now })

	future, err := node.FuturesCreate(owner, futures.CreateParams{
		Deliverable:         "WHT",
		DeliverableQuantity: big.NewInt(10),
		TotalSupply:         big.NewInt(100),
		PayToken:            futures.NativeToken,
		Price:               big.NewInt(5),
		SecurityDeposit:     big.NewInt(100),
		StartTime:           1_000,
		StartDeliveryTime:   2_000,
		EndTime:             3_000,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(10), uint64(future.FeeRate))

	require.NoError(t, node.FuturesDeposit(future.ID, owner))
	require.NoError(t, node.FuturesMint(future.ID, buyer, big.NewInt(10)))

	now = 2_000
	require.NoError(t, node.FuturesDeliver(future.ID, owner, big.NewInt(100)))

	proceeds, err := node.FuturesDeliverClaim(future.ID, owner)
	require.NoError(t, err)
	require.Zero(t, proceeds.Claimed.Cmp(big.NewInt(50)))
	require.Zero(t, proceeds.Fee.Cmp(big.NewInt(5)))
	require.Zero(t, proceeds.Net.Cmp(big.NewInt(45)))

	collectorBalance, err := node.GetBalance(nodeAddr(0xFE), futures.NativeToken)
	require.NoError(t, err)
	require.Zero(t, collectorBalance.Cmp(big.NewInt(5)))

	now = 3_001
	result, err := node.FuturesClaim(future.ID, buyer, big.NewInt(10))
	require.NoError(t, err)
	require.Zero(t, result.Deliverable.Cmp(big.NewInt(100)))
	require.Zero(t, result.DepositRefund.Sign())
	require.Zero(t, result.CostRefund.Sign())

	refund, err := node.FuturesRefund(future.ID, owner)
	require.NoError(t, err)
	require.Zero(t, refund.DepositReturned.Cmp(big.NewInt(100)))
	require.Zero(t, refund.DeliverableSurplus.Sign())

	buyerWht, err := node.GetBalance(buyer, "WHT")
	require.NoError(t, err)
	require.Zero(t, buyerWht.Cmp(big.NewInt(100)))

	events := node.Events(10)
	require.Len(t, events, 7)
	require.Equal(t, futures.EventTypeCreated, events[0].Type)
	require.Equal(t, futures.EventTypeRefunded, events[6].Type)
}

func TestOperatorAdministration(t *testing.T) {
	node := newTestNode(t)
	operator := nodeAddr(0x0A)
	outsider := nodeAddr(0x0B)

	require.Error(t, node.FuturesSetFeeRate(outsider, 5))
	require.NoError(t, node.FuturesSetFeeRate(operator, 5))
	require.Error(t, node.FuturesSetCollector(outsider, nodeAddr(0xCC)))
	require.NoError(t, node.FuturesSetCollector(operator, nodeAddr(0xCC)))
}

func TestPausedModuleRejectsOperations(t *testing.T) {
	node, err := NewNode(storage.NewMemDB(), NodeConfig{Paused: []string{"futures"}})
	require.NoError(t, err)
	node.Engine().SetNowFunc(func() int64 { return 1_000 })
	_, err = node.FuturesCreate(nodeAddr(0x01), futures.CreateParams{
		Deliverable:         "WHT",
		DeliverableQuantity: big.NewInt(10),
		TotalSupply:         big.NewInt(100),
		PayToken:            futures.NativeToken,
		Price:               big.NewInt(5),
		SecurityDeposit:     big.NewInt(100),
		StartTime:           1_000,
		StartDeliveryTime:   2_000,
		EndTime:             3_000,
	})
	require.Error(t, err)
}
