// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package txn

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSignature is returned when a signature does not verify.
var ErrInvalidSignature = errors.New("invalid transaction signature")

// Verify checks that signed carries an ed25519 signature over message that
// verifies against its embedded public key.
func Verify(signed *SignedTransaction, message []byte) error {
	if signed == nil {
		return fmt.Errorf("signed transaction is nil")
	}
	sig := signed.Signature
	if sig.Type != SignatureTypeEd25519 {
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidSignature, sig.Type)
	}

	pub, err := decodePrefixedHex(sig.PublicKey, ed25519.PublicKeySize)
	if err != nil {
		return fmt.Errorf("%w: public_key: %v", ErrInvalidSignature, err)
	}
	raw, err := decodePrefixedHex(sig.Signature, ed25519.SignatureSize)
	if err != nil {
		return fmt.Errorf("%w: signature: %v", ErrInvalidSignature, err)
	}

	if !ed25519.Verify(ed25519.PublicKey(pub), message, raw) {
		return ErrInvalidSignature
	}
	return nil
}

func decodePrefixedHex(s string, size int) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("missing 0x prefix")
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, len(b))
	}
	return b, nil
}
