// Package wallet resolves the local signing identity. A wallet can be
// configured either by a hex private key, from which the address is
// derived, or by a bare address for watch-only use.
package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet is a resolved identity. Key is nil for watch-only wallets.
type Wallet struct {
	Address string
	Key     *ecdsa.PrivateKey
}

// FromPrivateKey derives the wallet from a hex encoded secp256k1 key.
// A 0x prefix is accepted.
func FromPrivateKey(hexKey string) (*Wallet, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("private key is empty")
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	addr := crypto.PubkeyToAddress(key.PublicKey)
	return &Wallet{Address: addr.Hex(), Key: key}, nil
}

// FromAddress creates a watch-only wallet. The address is checksummed.
func FromAddress(addr string) (*Wallet, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("invalid wallet address: %s", addr)
	}
	return &Wallet{Address: common.HexToAddress(addr).Hex()}, nil
}

// Resolve picks the identity from configuration. The private key wins
// when both are set; empty inputs yield no wallet.
func Resolve(hexKey, addr string) (*Wallet, error) {
	switch {
	case strings.TrimSpace(hexKey) != "":
		return FromPrivateKey(hexKey)
	case strings.TrimSpace(addr) != "":
		return FromAddress(addr)
	default:
		return nil, nil
	}
}

// CanSign reports whether the wallet holds a private key.
func (w *Wallet) CanSign() bool {
	return w != nil && w.Key != nil
}
