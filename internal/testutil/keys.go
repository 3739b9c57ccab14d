// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package testutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aplane-algo/aptx/internal/account"
	"github.com/aplane-algo/aptx/internal/address"
)

// AliceHex is the sender used across end-to-end tests.
const AliceHex = "a11ce00000000000000000000000000000000042"

// Alice returns AliceHex as an Address.
func Alice() address.Address {
	return address.MustParse(AliceHex)
}

// TestAccount returns a deterministic account; different seeds give different keys.
func TestAccount(t *testing.T, seed byte) *account.Account {
	t.Helper()

	acct, err := account.FromSeed(bytes.Repeat([]byte{seed}, 32))
	if err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}
	t.Cleanup(acct.Zero)
	return acct
}

// AssertError checks error presence and, when msgContains is set, its message.
func AssertError(t *testing.T, err error, shouldError bool, msgContains string) {
	t.Helper()

	if shouldError {
		if err == nil {
			t.Fatal("Expected error, got nil")
		}
		if msgContains != "" && !strings.Contains(err.Error(), msgContains) {
			t.Fatalf("Expected error containing %q, got %q", msgContains, err.Error())
		}
		return
	}
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}
