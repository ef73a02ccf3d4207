package types

import "math/big"

// Account tracks the balances held by a single address. BalanceFUT is the
// chain-native asset; every other asset (pay tokens, deliverables) lives in
// TokenBalances keyed by its canonical uppercase symbol.
type Account struct {
	Nonce         uint64              `json:"nonce"`
	BalanceFUT    *big.Int            `json:"balanceFUT"`
	TokenBalances map[string]*big.Int `json:"tokenBalances,omitempty"`
}

// TokenBalance returns the balance for the supplied symbol, never nil.
func (a *Account) TokenBalance(symbol string) *big.Int {
	if a == nil || a.TokenBalances == nil {
		return big.NewInt(0)
	}
	bal, ok := a.TokenBalances[symbol]
	if !ok || bal == nil {
		return big.NewInt(0)
	}
	return bal
}

// SetTokenBalance records the balance for the supplied symbol, allocating the
// balance map on first use.
func (a *Account) SetTokenBalance(symbol string, amount *big.Int) {
	if a == nil {
		return
	}
	if a.TokenBalances == nil {
		a.TokenBalances = make(map[string]*big.Int)
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	a.TokenBalances[symbol] = new(big.Int).Set(amount)
}
