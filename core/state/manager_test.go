package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"futurechain/core/types"
	"futurechain/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func addrBytes(suffix byte) []byte {
	addr := make([]byte, 20)
	addr[19] = suffix
	return addr
}

func TestGetAccountMissingReturnsNil(t *testing.T) {
	manager := newTestManager(t)
	acc, err := manager.GetAccount(addrBytes(0x01))
	require.NoError(t, err)
	require.Nil(t, acc)
}

func TestAccountRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	addr := addrBytes(0x01)
	account := &types.Account{
		Nonce:      3,
		BalanceFUT: big.NewInt(1_000),
	}
	account.SetTokenBalance("WHT", big.NewInt(250))
	account.SetTokenBalance("USDC", big.NewInt(7))
	require.NoError(t, manager.PutAccount(addr, account))

	loaded, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, uint64(3), loaded.Nonce)
	require.Zero(t, loaded.BalanceFUT.Cmp(big.NewInt(1_000)))
	require.Zero(t, loaded.TokenBalance("WHT").Cmp(big.NewInt(250)))
	require.Zero(t, loaded.TokenBalance("USDC").Cmp(big.NewInt(7)))
}

func TestAccountZeroTokenBalancesDropped(t *testing.T) {
	manager := newTestManager(t)
	addr := addrBytes(0x02)
	account := &types.Account{BalanceFUT: big.NewInt(5)}
	account.SetTokenBalance("WHT", big.NewInt(10))
	account.SetTokenBalance("GLD", big.NewInt(0))
	require.NoError(t, manager.PutAccount(addr, account))

	loaded, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Zero(t, loaded.TokenBalance("WHT").Cmp(big.NewInt(10)))
	_, present := loaded.TokenBalances["GLD"]
	require.False(t, present)
}

func TestAccountOverwrite(t *testing.T) {
	manager := newTestManager(t)
	addr := addrBytes(0x03)
	require.NoError(t, manager.PutAccount(addr, &types.Account{BalanceFUT: big.NewInt(1)}))
	require.NoError(t, manager.PutAccount(addr, &types.Account{Nonce: 1, BalanceFUT: big.NewInt(2)}))

	loaded, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(1), loaded.Nonce)
	require.Zero(t, loaded.BalanceFUT.Cmp(big.NewInt(2)))
}
