// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroBytes(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	ZeroBytes(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)

	// Should not panic
	ZeroBytes(nil)
	ZeroBytes([]byte{})
}

func TestSecureStringLifecycle(t *testing.T) {
	src := []byte("passphrase")
	s := NewSecureStringFromBytes(src)
	ZeroBytes(src)

	assert.False(t, s.IsEmpty())
	require.NoError(t, s.WithBytes(func(b []byte) error {
		assert.Equal(t, "passphrase", string(b))
		return nil
	}))

	s.Destroy()
	assert.True(t, s.IsEmpty())
	s.Destroy() // double destroy is safe

	assert.True(t, NewSecureStringFromBytes(nil).IsEmpty())
}
