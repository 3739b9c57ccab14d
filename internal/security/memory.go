// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package security hardens the process before private keys are loaded.
package security

import (
	"fmt"
	"syscall"
)

// DisableCoreDumps prevents core dumps which could leak private keys
func DisableCoreDumps() error {
	rlimit := syscall.Rlimit{Cur: 0, Max: 0}
	if err := syscall.Setrlimit(syscall.RLIMIT_CORE, &rlimit); err != nil {
		return fmt.Errorf("failed to disable core dumps: %w", err)
	}
	return nil
}

// CoreDumpsDisabled reports whether the current core size limit is zero.
func CoreDumpsDisabled() (bool, error) {
	var rlimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_CORE, &rlimit); err != nil {
		return false, err
	}
	return rlimit.Cur == 0, nil
}
