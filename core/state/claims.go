package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Claim-unit balances are keyed by (futureId, holder); ownership is tracked
// here, never inside the future record itself.
func claimKey(holder [20]byte, futureID uint64) []byte {
	buf := make([]byte, len(claimPrefix)+8+len(holder))
	copy(buf, claimPrefix)
	binary.BigEndian.PutUint64(buf[len(claimPrefix):], futureID)
	copy(buf[len(claimPrefix)+8:], holder[:])
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) claimBalance(holder [20]byte, futureID uint64) (*big.Int, error) {
	balance := new(big.Int)
	ok, err := m.get(claimKey(holder, futureID), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// ClaimMint credits claim units to the holder for the supplied future.
func (m *Manager) ClaimMint(to [20]byte, futureID uint64, quantity *big.Int) error {
	if quantity == nil || quantity.Sign() <= 0 {
		return fmt.Errorf("state: claim mint quantity must be positive")
	}
	balance, err := m.claimBalance(to, futureID)
	if err != nil {
		return err
	}
	return m.put(claimKey(to, futureID), new(big.Int).Add(balance, quantity))
}

// ClaimBurn debits claim units from the holder. Burning more than the held
// balance fails without touching state.
func (m *Manager) ClaimBurn(from [20]byte, futureID uint64, quantity *big.Int) error {
	if quantity == nil || quantity.Sign() <= 0 {
		return fmt.Errorf("state: claim burn quantity must be positive")
	}
	balance, err := m.claimBalance(from, futureID)
	if err != nil {
		return err
	}
	if balance.Cmp(quantity) < 0 {
		return fmt.Errorf("state: claim burn exceeds balance")
	}
	remaining := new(big.Int).Sub(balance, quantity)
	if remaining.Sign() == 0 {
		return m.db.Delete(claimKey(from, futureID))
	}
	return m.put(claimKey(from, futureID), remaining)
}

// ClaimBalance reports the holder's claim-unit balance for a future.
func (m *Manager) ClaimBalance(holder [20]byte, futureID uint64) (*big.Int, error) {
	return m.claimBalance(holder, futureID)
}
