// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package account

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"strings"
	"testing"

	"github.com/aplane-algo/aptx/internal/address"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeed(b byte) []byte {
	return bytes.Repeat([]byte{b}, ed25519.SeedSize)
}

func TestFromSeedDeterministic(t *testing.T) {
	a1, err := FromSeed(testSeed(7))
	require.NoError(t, err)
	a2, err := FromSeed(testSeed(7))
	require.NoError(t, err)

	assert.Equal(t, a1.Address(), a2.Address())
	assert.Equal(t, a1.PublicKey(), a2.PublicKey())

	want, err := address.FromPublicKey(a1.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, want, a1.Address())
}

func TestFromSeedInvalidSize(t *testing.T) {
	_, err := FromSeed([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestSignVerifies(t *testing.T) {
	acct, err := Generate()
	require.NoError(t, err)

	msg := []byte("signing message")
	sig, err := acct.Sign(msg)
	require.NoError(t, err)
	assert.Len(t, sig, ed25519.SignatureSize)
	assert.True(t, ed25519.Verify(acct.PublicKey(), msg, sig))
	assert.False(t, ed25519.Verify(acct.PublicKey(), []byte("other"), sig))
}

func TestPublicKeyHex(t *testing.T) {
	acct, err := FromSeed(testSeed(1))
	require.NoError(t, err)

	h := acct.PublicKeyHex()
	assert.True(t, strings.HasPrefix(h, "0x"))
	assert.Len(t, h, 2+2*ed25519.PublicKeySize)
}

func TestFromPrivateKey(t *testing.T) {
	priv := ed25519.NewKeyFromSeed(testSeed(3))
	acct, err := FromPrivateKey(priv)
	require.NoError(t, err)
	assert.Equal(t, priv.Public(), acct.PublicKey())

	// Tamper with the embedded public key half
	bad := make(ed25519.PrivateKey, len(priv))
	copy(bad, priv)
	bad[63] ^= 0xff
	_, err = FromPrivateKey(bad)
	assert.Error(t, err)

	_, err = FromPrivateKey(priv[:32])
	assert.Error(t, err)
}

func TestMnemonicRoundTrip(t *testing.T) {
	acct, err := Generate()
	require.NoError(t, err)

	words, err := acct.Mnemonic()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(words), 25)

	restored, err := FromMnemonic(words)
	require.NoError(t, err)
	assert.Equal(t, acct.Address(), restored.Address())
	assert.Equal(t, acct.PublicKey(), restored.PublicKey())
}

func TestFromMnemonicInvalid(t *testing.T) {
	_, err := FromMnemonic("not a valid mnemonic")
	assert.Error(t, err)
}

func TestZero(t *testing.T) {
	acct, err := Generate()
	require.NoError(t, err)
	acct.Zero()

	_, err = acct.Sign([]byte("msg"))
	assert.True(t, errors.Is(err, ErrZeroed))
	_, err = acct.Mnemonic()
	assert.True(t, errors.Is(err, ErrZeroed))
	assert.Nil(t, acct.PublicKey())

	acct.Zero() // Should not panic
}
