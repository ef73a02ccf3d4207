package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix is the human-readable part of a bech32 account address.
type AddressPrefix string

// FutPrefix prefixes every futurechain account and vault address.
const FutPrefix AddressPrefix = "fut"

// Address is a prefixed 20-byte account identifier. The zero value is not a
// valid address; construct one with NewAddress or DecodeAddress.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

// NewAddress wraps a raw 20-byte payload under the given prefix. The payload
// is copied so callers may reuse their slice.
func NewAddress(prefix AddressPrefix, b []byte) Address {
	if len(b) != 20 {
		panic(fmt.Sprintf("address payload must be 20 bytes, got %d", len(b)))
	}
	payload := make([]byte, 20)
	copy(payload, b)
	return Address{prefix: prefix, bytes: payload}
}

// DecodeAddress parses a bech32 account string back into an Address. Any
// prefix is accepted; callers that require FutPrefix check Prefix themselves.
func DecodeAddress(addr string) (Address, error) {
	prefix, data, err := bech32.Decode(addr)
	if err != nil {
		return Address{}, fmt.Errorf("decode bech32 address: %w", err)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("unpack address payload: %w", err)
	}
	if len(payload) != 20 {
		return Address{}, fmt.Errorf("address payload must be 20 bytes, got %d", len(payload))
	}
	return NewAddress(AddressPrefix(prefix), payload), nil
}

// String renders the bech32 form. Encoding a well-formed address cannot fail,
// so errors here indicate construction outside NewAddress and panic.
func (a Address) String() string {
	data, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), data)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns a copy of the 20-byte payload.
func (a Address) Bytes() []byte {
	payload := make([]byte, len(a.bytes))
	copy(payload, a.bytes)
	return payload
}

// Prefix returns the address's human-readable prefix.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// PrivateKey is a secp256k1 signing key for a futurechain account.
type PrivateKey struct {
	*ecdsa.PrivateKey
}

// PublicKey is the verification half of a PrivateKey.
type PublicKey struct {
	*ecdsa.PublicKey
}

// GeneratePrivateKey draws a fresh secp256k1 key from crypto/rand.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// PrivateKeyFromBytes restores a key from its 32-byte scalar form.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the 32-byte scalar form suitable for PrivateKeyFromBytes.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

// PubKey returns the corresponding public key.
func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address derives the fut-prefixed account address for the key.
func (k *PublicKey) Address() Address {
	return NewAddress(FutPrefix, crypto.PubkeyToAddress(*k.PublicKey).Bytes())
}
