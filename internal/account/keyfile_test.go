// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package account

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createKeyJSON(t *testing.T, keyType, pubHex, privHex string) []byte {
	t.Helper()
	data, err := json.Marshal(KeyFile{Type: keyType, PublicKeyHex: pubHex, PrivateKeyHex: privHex})
	require.NoError(t, err)
	return data
}

func TestParseKeyFileValid(t *testing.T) {
	priv := ed25519.NewKeyFromSeed(testSeed(9))
	pub := priv.Public().(ed25519.PublicKey)

	acct, err := ParseKeyFile(createKeyJSON(t, "ed25519", hex.EncodeToString(pub), hex.EncodeToString(priv)))
	require.NoError(t, err)
	assert.Equal(t, pub, acct.PublicKey())

	// Seed-only private key and missing public key are accepted
	acct, err = ParseKeyFile(createKeyJSON(t, "ed25519", "", hex.EncodeToString(priv.Seed())))
	require.NoError(t, err)
	assert.Equal(t, pub, acct.PublicKey())
}

func TestParseKeyFileRejects(t *testing.T) {
	priv := ed25519.NewKeyFromSeed(testSeed(9))
	otherPub := ed25519.NewKeyFromSeed(testSeed(10)).Public().(ed25519.PublicKey)

	tests := []struct {
		name string
		data []byte
	}{
		{"invalid json", []byte("{")},
		{"wrong type", createKeyJSON(t, "falcon1024", "", hex.EncodeToString(priv))},
		{"bad private hex", createKeyJSON(t, "ed25519", "", "zz")},
		{"bad private length", createKeyJSON(t, "ed25519", "", "0102")},
		{"stale public key", createKeyJSON(t, "ed25519", hex.EncodeToString(otherPub), hex.EncodeToString(priv.Seed()))},
		{"short public key", createKeyJSON(t, "ed25519", "0102", hex.EncodeToString(priv.Seed()))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKeyFile(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestCheckStoredPublicKeyRejectsOffCurve(t *testing.T) {
	// y = 2 has no valid x on edwards25519
	offCurve := make([]byte, ed25519.PublicKeySize)
	offCurve[0] = 2

	err := checkStoredPublicKey(hex.EncodeToString(offCurve), offCurve)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid ed25519 point")
}

func TestSaveLoadPlaintext(t *testing.T) {
	acct, err := Generate()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keys", "account.key")
	require.NoError(t, SaveKeyFile(path, acct, nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	encrypted, err := IsKeyFileEncrypted(path)
	require.NoError(t, err)
	assert.False(t, encrypted)

	loaded, err := LoadKeyFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, acct.Address(), loaded.Address())
}

func TestSaveLoadEncrypted(t *testing.T) {
	acct, err := Generate()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "account.key")
	require.NoError(t, SaveKeyFile(path, acct, []byte("hunter2")))

	encrypted, err := IsKeyFileEncrypted(path)
	require.NoError(t, err)
	assert.True(t, encrypted)

	_, err = LoadKeyFile(path, nil)
	assert.True(t, errors.Is(err, ErrPassphraseRequired))

	_, err = LoadKeyFile(path, []byte("wrong"))
	assert.Error(t, err)

	loaded, err := LoadKeyFile(path, []byte("hunter2"))
	require.NoError(t, err)
	assert.Equal(t, acct.Address(), loaded.Address())
}

func TestLoadKeyFileMissing(t *testing.T) {
	_, err := LoadKeyFile(filepath.Join(t.TempDir(), "nope.key"), nil)
	assert.Error(t, err)
}
