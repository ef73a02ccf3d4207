package state

import (
	"fmt"
	"math/big"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"futurechain/core/types"
	"futurechain/storage"
)

// Manager reads and writes settlement state through the key-value backend.
// Keys are keccak hashes of prefixed byte strings; values are RLP encoded.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	accountPrefix      = []byte("futures/account/")
	futureRecordPrefix = []byte("futures/record/")
	futureSequenceKey  = []byte("futures/sequence")
	claimPrefix        = []byte("futures/claim/")
	vaultPrefix        = []byte("futures/vault/")
)

func accountKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	ok, err := m.db.Has(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	data, err := m.db.Get(key)
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// tokenBalance is the RLP-friendly form of one entry of the account balance
// map; entries are persisted sorted by symbol for determinism.
type tokenBalance struct {
	Symbol string
	Amount *big.Int
}

type storedAccount struct {
	Nonce      uint64
	BalanceFUT *big.Int
	Tokens     []tokenBalance
}

func newStoredAccount(acc *types.Account) *storedAccount {
	stored := &storedAccount{Nonce: acc.Nonce, BalanceFUT: big.NewInt(0)}
	if acc.BalanceFUT != nil {
		stored.BalanceFUT = new(big.Int).Set(acc.BalanceFUT)
	}
	symbols := make([]string, 0, len(acc.TokenBalances))
	for symbol := range acc.TokenBalances {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		amount := acc.TokenBalances[symbol]
		if amount == nil || amount.Sign() == 0 {
			continue
		}
		stored.Tokens = append(stored.Tokens, tokenBalance{Symbol: symbol, Amount: new(big.Int).Set(amount)})
	}
	return stored
}

func (s *storedAccount) toAccount() *types.Account {
	acc := &types.Account{Nonce: s.Nonce, BalanceFUT: big.NewInt(0)}
	if s.BalanceFUT != nil {
		acc.BalanceFUT = new(big.Int).Set(s.BalanceFUT)
	}
	for _, entry := range s.Tokens {
		acc.SetTokenBalance(entry.Symbol, entry.Amount)
	}
	return acc
}

// GetAccount loads an account record. Unknown addresses yield a nil account;
// callers normalise with their own zero-value handling.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	stored := new(storedAccount)
	ok, err := m.get(accountKey(addr), stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return stored.toAccount(), nil
}

// PutAccount persists an account record.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	return m.put(accountKey(addr), newStoredAccount(account))
}
