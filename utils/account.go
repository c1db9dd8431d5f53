package utils

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EthAccount is a keypair-backed account handle. Accounts created by
// NewAccounts live only for the current process; nothing is persisted.
type EthAccount struct {
	PrivateKey *ecdsa.PrivateKey
	Address    ethcmn.Address
}

// NewAccounts generates count fresh accounts. A key-generation failure
// poisons the whole batch, so the first error aborts and propagates.
func NewAccounts(count int) ([]*EthAccount, error) {
	if count <= 0 {
		return nil, fmt.Errorf("account count must be positive, got %d", count)
	}

	accounts := make([]*EthAccount, 0, count)
	for i := 0; i < count; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key %d/%d: %w", i+1, count, err)
		}
		accounts = append(accounts, &EthAccount{
			PrivateKey: key,
			Address:    crypto.PubkeyToAddress(key.PublicKey),
		})
	}
	return accounts, nil
}

// AccountFromHexKey parses a hex-encoded private key, with or without
// the 0x prefix, into an account handle.
func AccountFromHexKey(hexKey string) (*EthAccount, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &EthAccount{
		PrivateKey: key,
		Address:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}
