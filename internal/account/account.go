// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package account holds the ed25519 key material of a single-signer ledger
// account and signs messages with it.
package account

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/aplane-algo/aptx/internal/address"
	"github.com/aplane-algo/aptx/internal/crypto"

	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
)

// ErrZeroed is returned when a zeroed account is used for signing.
var ErrZeroed = errors.New("account key material has been zeroed")

// Account is a single ed25519 signing key and the address it controls.
type Account struct {
	privateKey ed25519.PrivateKey
	address    address.Address
}

// Generate creates an account from a random seed.
func Generate() (*Account, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to generate seed: %w", err)
	}
	defer crypto.ZeroBytes(seed)
	return FromSeed(seed)
}

// FromSeed creates an account from a 32-byte ed25519 seed.
func FromSeed(seed []byte) (*Account, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed size for ed25519: expected %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	addr, err := address.FromPublicKey(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Account{privateKey: priv, address: addr}, nil
}

// FromPrivateKey creates an account from a 64-byte ed25519 private key
// (seed followed by public key). The embedded public key must match the
// one derived from the seed.
func FromPrivateKey(priv ed25519.PrivateKey) (*Account, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid Ed25519 private key length: expected %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}

	acct, err := FromSeed(priv.Seed())
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(priv[ed25519.SeedSize:], acct.PublicKey()) {
		acct.Zero()
		return nil, fmt.Errorf("private key does not match its embedded public key")
	}
	return acct, nil
}

// FromMnemonic restores an account from its 25-word mnemonic.
func FromMnemonic(words string) (*Account, error) {
	priv, err := mnemonic.ToPrivateKey(words)
	if err != nil {
		return nil, fmt.Errorf("failed to derive private key from mnemonic: %w", err)
	}
	defer crypto.ZeroBytes(priv)
	return FromSeed(priv.Seed())
}

// Mnemonic returns the 25-word backup phrase for the account's seed.
func (a *Account) Mnemonic() (string, error) {
	if a.privateKey == nil {
		return "", ErrZeroed
	}
	words, err := mnemonic.FromPrivateKey(a.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return words, nil
}

// Address returns the address controlled by this key.
func (a *Account) Address() address.Address {
	return a.address
}

// PublicKey derives the public key from the private seed rather than
// returning a stored copy.
func (a *Account) PublicKey() ed25519.PublicKey {
	if a.privateKey == nil {
		return nil
	}
	return ed25519.NewKeyFromSeed(a.privateKey.Seed()).Public().(ed25519.PublicKey)
}

// PublicKeyHex returns the 0x-prefixed hex public key.
func (a *Account) PublicKeyHex() string {
	return "0x" + hex.EncodeToString(a.PublicKey())
}

// Sign returns the 64-byte ed25519 signature of message.
func (a *Account) Sign(message []byte) ([]byte, error) {
	if a.privateKey == nil {
		return nil, ErrZeroed
	}
	return ed25519.Sign(a.privateKey, message), nil
}

// Zero wipes the private key. The account cannot sign afterwards.
func (a *Account) Zero() {
	if a == nil || a.privateKey == nil {
		return
	}
	crypto.ZeroBytes(a.privateKey)
	a.privateKey = nil
}
