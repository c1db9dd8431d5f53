package utils

import (
	"testing"
)

func TestNewAccountsDistinct(t *testing.T) {
	accounts, err := NewAccounts(5)
	if err != nil {
		t.Fatalf("NewAccounts failed: %v", err)
	}
	if len(accounts) != 5 {
		t.Fatalf("got %d accounts, want 5", len(accounts))
	}

	seen := map[string]bool{}
	for _, acc := range accounts {
		if acc.PrivateKey == nil {
			t.Fatal("account has no signing key")
		}
		addr := acc.Address.Hex()
		if seen[addr] {
			t.Fatalf("duplicate address %s", addr)
		}
		seen[addr] = true
	}
}

func TestNewAccountsRejectsNonPositiveCount(t *testing.T) {
	for _, count := range []int{0, -1} {
		if _, err := NewAccounts(count); err == nil {
			t.Errorf("NewAccounts(%d) should fail", count)
		}
	}
}

func TestAccountFromHexKeyPrefixInsensitive(t *testing.T) {
	const key = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

	plain, err := AccountFromHexKey(key)
	if err != nil {
		t.Fatalf("AccountFromHexKey failed: %v", err)
	}
	prefixed, err := AccountFromHexKey("0x" + key)
	if err != nil {
		t.Fatalf("AccountFromHexKey with prefix failed: %v", err)
	}
	if plain.Address != prefixed.Address {
		t.Errorf("addresses differ: %s vs %s", plain.Address, prefixed.Address)
	}
}

func TestAccountFromHexKeyRejectsGarbage(t *testing.T) {
	if _, err := AccountFromHexKey("not-a-key"); err == nil {
		t.Error("expected an error for a malformed key")
	}
}
