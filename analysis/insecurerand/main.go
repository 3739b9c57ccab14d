// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package main implements a static check that keeps math/rand out of the
// packages that generate keys, nonces and salts.
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Directories that should never use math/rand
var criticalDirs = []string{
	"internal/account",
	"internal/crypto",
	"internal/txn",
	"internal/fsutil",
}

var insecureImports = map[string]bool{
	"math/rand":    true,
	"math/rand/v2": true,
}

type finding struct {
	file string
	line int
	path string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: insecurerand <repo-root>")
		os.Exit(1)
	}

	findings, filesChecked, err := scan(os.Args[1], criticalDirs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Insecure Random Analysis\n")
	fmt.Printf("========================\n")
	fmt.Printf("Files checked: %d\n", filesChecked)
	fmt.Printf("Critical directories: %v\n\n", criticalDirs)

	if len(findings) == 0 {
		fmt.Println("No issues found.")
		return
	}

	fmt.Printf("Potential issues: %d\n\n", len(findings))
	for _, f := range findings {
		fmt.Printf("%s:%d\n", f.file, f.line)
		fmt.Printf("  Issue: imports %s in security-critical code - use crypto/rand instead\n\n", f.path)
	}
	os.Exit(1)
}

// scan parses the imports of every non-test Go file under root/dirs.
// Missing directories are skipped.
func scan(root string, dirs []string) ([]finding, int, error) {
	var findings []finding
	filesChecked := 0
	fset := token.NewFileSet()

	for _, dir := range dirs {
		dirPath := filepath.Join(root, dir)
		if _, err := os.Stat(dirPath); os.IsNotExist(err) {
			continue
		}

		err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}

			filesChecked++
			file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			for _, imp := range file.Imports {
				importPath, err := strconv.Unquote(imp.Path.Value)
				if err != nil || !insecureImports[importPath] {
					continue
				}
				findings = append(findings, finding{
					file: path,
					line: fset.Position(imp.Pos()).Line,
					path: importPath,
				})
			}
			return nil
		})
		if err != nil {
			return nil, filesChecked, err
		}
	}

	return findings, filesChecked, nil
}
