// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package txn

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/aplane-algo/aptx/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedFixture(t *testing.T, message []byte) *SignedTransaction {
	t.Helper()
	acct := testutil.TestAccount(t, 11)
	sig, err := acct.Sign(message)
	require.NoError(t, err)
	return &SignedTransaction{
		UnsignedTransaction: *sampleTransaction(t),
		Signature: Signature{
			Type:      SignatureTypeEd25519,
			PublicKey: acct.PublicKeyHex(),
			Signature: "0x" + hex.EncodeToString(sig),
		},
	}
}

func TestVerify(t *testing.T) {
	msg := []byte("message")
	signed := signedFixture(t, msg)
	require.NoError(t, Verify(signed, msg))
	assert.True(t, errors.Is(Verify(signed, []byte("other")), ErrInvalidSignature))
	assert.Error(t, Verify(nil, msg))
}

func TestVerifyMalformed(t *testing.T) {
	msg := []byte("message")

	tests := []struct {
		name   string
		mutate func(s *Signature)
	}{
		{"wrong type", func(s *Signature) { s.Type = "multi_ed25519_signature" }},
		{"public key without prefix", func(s *Signature) { s.PublicKey = strings.TrimPrefix(s.PublicKey, "0x") }},
		{"signature without prefix", func(s *Signature) { s.Signature = strings.TrimPrefix(s.Signature, "0x") }},
		{"short signature", func(s *Signature) { s.Signature = s.Signature[:20] }},
		{"bad hex", func(s *Signature) { s.PublicKey = "0x" + strings.Repeat("zz", 32) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed := signedFixture(t, msg)
			tt.mutate(&signed.Signature)
			assert.True(t, errors.Is(Verify(signed, msg), ErrInvalidSignature))
		})
	}
}
