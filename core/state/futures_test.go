package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"futurechain/native/futures"
	"futurechain/storage"
)

func sampleFuture(id uint64) *futures.Future {
	var owner [20]byte
	owner[19] = 0x01
	return &futures.Future{
		ID:                  id,
		Owner:               owner,
		Deliverable:         "WHT",
		DeliverableQuantity: big.NewInt(10),
		TotalSupply:         big.NewInt(100),
		PayToken:            futures.NativeToken,
		Price:               big.NewInt(5),
		SecurityDeposit:     big.NewInt(100),
		FeeRate:             10,
		StartTime:           1_000,
		StartDeliveryTime:   2_000,
		EndTime:             3_000,
		CreatedAt:           900,
		TotalDelivered:      big.NewInt(40),
		TotalClaimed:        big.NewInt(20),
		MintedCount:         big.NewInt(10),
		HasDeposit:          true,
	}
}

func TestFutureRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	original := sampleFuture(1)
	require.NoError(t, manager.FuturesPut(original))

	loaded, ok := manager.FuturesGet(1)
	require.True(t, ok)
	require.Equal(t, original.ID, loaded.ID)
	require.Equal(t, original.Owner, loaded.Owner)
	require.Equal(t, "WHT", loaded.Deliverable)
	require.Equal(t, futures.NativeToken, loaded.PayToken)
	require.Equal(t, uint32(10), loaded.FeeRate)
	require.Equal(t, original.StartTime, loaded.StartTime)
	require.Equal(t, original.StartDeliveryTime, loaded.StartDeliveryTime)
	require.Equal(t, original.EndTime, loaded.EndTime)
	require.Equal(t, original.CreatedAt, loaded.CreatedAt)
	require.True(t, loaded.HasDeposit)
	require.Zero(t, loaded.TotalDelivered.Cmp(big.NewInt(40)))
	require.Zero(t, loaded.TotalClaimed.Cmp(big.NewInt(20)))
	require.Zero(t, loaded.MintedCount.Cmp(big.NewInt(10)))
}

func TestFuturesGetMissing(t *testing.T) {
	manager := newTestManager(t)
	_, ok := manager.FuturesGet(42)
	require.False(t, ok)
}

func TestFuturesPutRejectsInvalid(t *testing.T) {
	manager := newTestManager(t)
	invalid := sampleFuture(1)
	invalid.Price = big.NewInt(0)
	require.Error(t, manager.FuturesPut(invalid))
}

func TestFuturesNextIDSequence(t *testing.T) {
	manager := newTestManager(t)
	for want := uint64(1); want <= 3; want++ {
		id, err := manager.FuturesNextID()
		require.NoError(t, err)
		require.Equal(t, want, id)
	}
}

func TestFuturesNextIDSurvivesReopen(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	id, err := manager.FuturesNextID()
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	reopened := NewManager(db)
	id, err = reopened.FuturesNextID()
	require.NoError(t, err)
	require.Equal(t, uint64(2), id)
}

func TestVaultAddressDeterministicPerToken(t *testing.T) {
	manager := newTestManager(t)
	first, err := manager.FuturesVaultAddress("WHT")
	require.NoError(t, err)
	again, err := manager.FuturesVaultAddress("wht")
	require.NoError(t, err)
	require.Equal(t, first, again)

	other, err := manager.FuturesVaultAddress("GLD")
	require.NoError(t, err)
	require.NotEqual(t, first, other)
	require.NotEqual(t, [20]byte{}, first)

	_, err = manager.FuturesVaultAddress("bad sym")
	require.Error(t, err)
}

func TestClaimLedger(t *testing.T) {
	manager := newTestManager(t)
	var holder [20]byte
	holder[19] = 0x07

	balance, err := manager.ClaimBalance(holder, 1)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())

	require.NoError(t, manager.ClaimMint(holder, 1, big.NewInt(10)))
	require.NoError(t, manager.ClaimMint(holder, 1, big.NewInt(5)))
	balance, err = manager.ClaimBalance(holder, 1)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(15)))

	// Balances are scoped per future.
	other, err := manager.ClaimBalance(holder, 2)
	require.NoError(t, err)
	require.Zero(t, other.Sign())

	require.Error(t, manager.ClaimBurn(holder, 1, big.NewInt(16)))
	require.NoError(t, manager.ClaimBurn(holder, 1, big.NewInt(15)))
	balance, err = manager.ClaimBalance(holder, 1)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())
}

func TestClaimMintRejectsNonPositive(t *testing.T) {
	manager := newTestManager(t)
	var holder [20]byte
	require.Error(t, manager.ClaimMint(holder, 1, big.NewInt(0)))
	require.Error(t, manager.ClaimMint(holder, 1, big.NewInt(-1)))
}
