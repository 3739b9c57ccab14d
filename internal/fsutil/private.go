// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package fsutil provides filesystem helpers for owner-only key material.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrivateDirPerm is the permission mode for directories holding keys.
const PrivateDirPerm os.FileMode = 0700

// PrivateFilePerm is the permission mode for key files.
const PrivateFilePerm os.FileMode = 0600

// MkdirAll creates a directory and all parents, owner-only.
// Unlike os.MkdirAll, this explicitly sets permissions on the leaf to
// bypass umask restrictions.
func MkdirAll(path string) error {
	if err := os.MkdirAll(path, PrivateDirPerm); err != nil {
		return err
	}
	return os.Chmod(path, PrivateDirPerm)
}

// WriteFileAtomic writes data next to path and renames it into place, so a
// crash never leaves a truncated key file behind.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := MkdirAll(dir); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }() // no-op after a successful rename

	if err := f.Chmod(PrivateFilePerm); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
