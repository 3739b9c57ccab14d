// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package crypto protects key material at rest and in memory.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// Argon2id parameters (OWASP recommended)
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2KeyLen  = 32        // AES-256

	saltLen = 32

	// EnvelopeVersion identifies the passphrase envelope with an embedded salt.
	EnvelopeVersion = 2
)

// ErrDecrypt is returned when an envelope cannot be opened, most often
// because the passphrase is wrong.
var ErrDecrypt = errors.New("failed to decrypt data (wrong passphrase?)")

// Envelope is the on-disk form of passphrase-encrypted data.
type Envelope struct {
	EnvelopeVersion int    `json:"envelope_version"`
	Salt            string `json:"salt"`       // Base64 Argon2id salt
	Nonce           string `json:"nonce"`      // Base64 AES-GCM nonce
	Ciphertext      string `json:"ciphertext"` // Base64
}

// IsEncrypted checks if data appears to be an encryption envelope.
func IsEncrypted(data []byte) bool {
	var env Envelope
	return json.Unmarshal(data, &env) == nil && env.EnvelopeVersion > 0
}

// DeriveKey derives an AES-256 key from a passphrase with Argon2id.
// Caller is responsible for zeroing the returned key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

// Seal encrypts plaintext under a passphrase-derived key and returns the
// JSON envelope. Every call uses a fresh salt and nonce.
func Seal(plaintext, passphrase []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := DeriveKey(passphrase, salt)
	defer ZeroBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	env := Envelope{
		EnvelopeVersion: EnvelopeVersion,
		Salt:            base64.StdEncoding.EncodeToString(salt),
		Nonce:           base64.StdEncoding.EncodeToString(nonce),
		Ciphertext:      base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plaintext, nil)),
	}
	return json.MarshalIndent(env, "", "  ")
}

// Open decrypts an envelope produced by Seal.
func Open(envelopeJSON, passphrase []byte) ([]byte, error) {
	var env Envelope
	if err := json.Unmarshal(envelopeJSON, &env); err != nil {
		return nil, fmt.Errorf("failed to parse encrypted data: %w", err)
	}
	if env.EnvelopeVersion != EnvelopeVersion {
		return nil, fmt.Errorf("envelope_version %d not supported (expected %d)", env.EnvelopeVersion, EnvelopeVersion)
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	key := DeriveKey(passphrase, salt)
	defer ZeroBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
