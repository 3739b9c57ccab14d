// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package account

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aplane-algo/aptx/internal/crypto"
	"github.com/aplane-algo/aptx/internal/fsutil"

	"filippo.io/edwards25519"
)

// KeyTypeEd25519 is the only key type written to key files.
const KeyTypeEd25519 = "ed25519"

// ErrPassphraseRequired is returned when loading an encrypted key file without a passphrase.
var ErrPassphraseRequired = errors.New("key file is encrypted: passphrase required")

// KeyFile is the JSON layout of an unencrypted key file.
type KeyFile struct {
	Type          string `json:"type"`
	PublicKeyHex  string `json:"public_key"`
	PrivateKeyHex string `json:"private_key"`
}

// MarshalKeyFile encodes the account as key file JSON.
func (a *Account) MarshalKeyFile() ([]byte, error) {
	if a.privateKey == nil {
		return nil, ErrZeroed
	}
	return json.MarshalIndent(KeyFile{
		Type:          KeyTypeEd25519,
		PublicKeyHex:  hex.EncodeToString(a.PublicKey()),
		PrivateKeyHex: hex.EncodeToString(a.privateKey),
	}, "", "  ")
}

// ParseKeyFile decodes key file JSON.
// SECURITY: intermediate private key bytes are zeroed before returning.
func ParseKeyFile(data []byte) (*Account, error) {
	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keys: %w", err)
	}
	defer func() { kf.PrivateKeyHex = "" }()

	if kf.Type != KeyTypeEd25519 {
		return nil, fmt.Errorf("unsupported key type %q", kf.Type)
	}

	privBytes, err := hex.DecodeString(strings.TrimPrefix(kf.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key hex: %w", err)
	}
	defer crypto.ZeroBytes(privBytes)

	var acct *Account
	switch len(privBytes) {
	case ed25519.SeedSize:
		acct, err = FromSeed(privBytes)
	case ed25519.PrivateKeySize:
		acct, err = FromPrivateKey(privBytes)
	default:
		return nil, fmt.Errorf("invalid Ed25519 private key length: expected %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(privBytes))
	}
	if err != nil {
		return nil, err
	}

	if kf.PublicKeyHex != "" {
		if err := checkStoredPublicKey(kf.PublicKeyHex, acct.PublicKey()); err != nil {
			acct.Zero()
			return nil, err
		}
	}
	return acct, nil
}

// checkStoredPublicKey rejects a stored public key that is not a curve point
// or that differs from the key derived from the private seed.
func checkStoredPublicKey(storedHex string, derived ed25519.PublicKey) error {
	stored, err := hex.DecodeString(strings.TrimPrefix(storedHex, "0x"))
	if err != nil {
		return fmt.Errorf("failed to decode public key hex: %w", err)
	}
	if len(stored) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid public key length: expected %d bytes, got %d", ed25519.PublicKeySize, len(stored))
	}
	if _, err := new(edwards25519.Point).SetBytes(stored); err != nil {
		return fmt.Errorf("stored public key is not a valid ed25519 point: %w", err)
	}
	if !bytes.Equal(stored, derived) {
		return fmt.Errorf("stored public key does not match private key")
	}
	return nil
}

// SaveKeyFile writes the account to path with mode 0600. A non-empty
// passphrase encrypts the file.
func SaveKeyFile(path string, a *Account, passphrase []byte) error {
	data, err := a.MarshalKeyFile()
	if err != nil {
		return err
	}
	defer crypto.ZeroBytes(data)

	if len(passphrase) > 0 {
		sealed, err := crypto.Seal(data, passphrase)
		if err != nil {
			return fmt.Errorf("failed to encrypt key file: %w", err)
		}
		data = sealed
	}

	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// LoadKeyFile reads an account from path, decrypting it when needed.
func LoadKeyFile(path string, passphrase []byte) (*Account, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from local config
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if crypto.IsEncrypted(data) {
		if len(passphrase) == 0 {
			return nil, ErrPassphraseRequired
		}
		plaintext, err := crypto.Open(data, passphrase)
		if err != nil {
			return nil, err
		}
		defer crypto.ZeroBytes(plaintext)
		return ParseKeyFile(plaintext)
	}

	return ParseKeyFile(data)
}

// IsKeyFileEncrypted reports whether the key file at path needs a passphrase.
func IsKeyFileEncrypted(path string) (bool, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from local config
	if err != nil {
		return false, fmt.Errorf("failed to read key file: %w", err)
	}
	return crypto.IsEncrypted(data), nil
}
