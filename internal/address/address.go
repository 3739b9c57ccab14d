// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package address implements the ledger account address.
//
// An address is 20 bytes. Account lookups use bare lowercase hex while
// transaction fields use the 0x-prefixed form; Parse accepts both so the
// same address round-trips regardless of which convention a caller used.
package address

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Length is the address size in bytes.
const Length = 20

// Ed25519Scheme is the authentication scheme byte appended to a single
// ed25519 public key before hashing it into an address.
const Ed25519Scheme byte = 0x00

// ErrInvalidAddress is returned for strings that are not a 20-byte hex address.
var ErrInvalidAddress = errors.New("invalid address")

// Address is a ledger account address.
type Address [Length]byte

// Parse decodes a hex address with or without the 0x prefix.
func Parse(s string) (Address, error) {
	var a Address

	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != 2*Length {
		return a, fmt.Errorf("%w: expected %d hex digits, got %d", ErrInvalidAddress, 2*Length, len(raw))
	}

	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	copy(a[:], decoded)
	return a, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromPublicKey derives the address controlled by a single ed25519 key:
// the trailing 20 bytes of SHA3-256(public key || scheme).
func FromPublicKey(pub ed25519.PublicKey) (Address, error) {
	var a Address
	if len(pub) != ed25519.PublicKeySize {
		return a, fmt.Errorf("invalid ed25519 public key length: expected %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}

	preimage := make([]byte, 0, len(pub)+1)
	preimage = append(preimage, pub...)
	preimage = append(preimage, Ed25519Scheme)
	authKey := sha3.Sum256(preimage)

	copy(a[:], authKey[len(authKey)-Length:])
	return a, nil
}

// Hex returns the bare lowercase hex form used in account paths.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// String returns the 0x-prefixed form used in transaction fields.
func (a Address) String() string {
	return "0x" + a.Hex()
}

// Short returns the address in abbreviated "0xabcd..wxyz" form for display.
func (a Address) Short() string {
	h := a.Hex()
	return "0x" + h[:4] + ".." + h[len(h)-4:]
}

// IsZero reports whether the address is all zero bytes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalJSON encodes the address as a 0x-prefixed string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either hex form.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
