// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package crypto

import (
	"crypto/subtle"
	"runtime"
	"sync"
)

// ZeroBytes securely overwrites a byte slice with zeros
// Uses constant-time operation to prevent compiler optimization
func ZeroBytes(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
	runtime.KeepAlive(b)
}

// SecureString holds a passphrase as bytes so it can be wiped after use.
type SecureString struct {
	data []byte
	lock sync.RWMutex
}

// NewSecureStringFromBytes copies b, so the caller can safely zero the original.
func NewSecureStringFromBytes(b []byte) *SecureString {
	if b == nil {
		return &SecureString{}
	}
	data := make([]byte, len(b))
	copy(data, b)
	return &SecureString{data: data}
}

// WithBytes provides scoped access to the underlying bytes.
// The slice must not be retained after fn returns.
func (s *SecureString) WithBytes(fn func([]byte) error) error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return fn(s.data)
}

// Destroy zeros the data. The SecureString must not be used afterwards.
func (s *SecureString) Destroy() {
	s.lock.Lock()
	defer s.lock.Unlock()
	ZeroBytes(s.data)
	s.data = nil
}

// IsEmpty returns true if the string is empty or nil
func (s *SecureString) IsEmpty() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.data) == 0
}
