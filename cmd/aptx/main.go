// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/aplane-algo/aptx/internal/config"
	"github.com/aplane-algo/aptx/internal/logging"
	"github.com/aplane-algo/aptx/internal/security"
	"github.com/aplane-algo/aptx/internal/version"

	"golang.org/x/term"
)

// stdinReader is a shared reader for non-terminal stdin
var stdinReader *bufio.Reader

func main() {
	// Handle early-exit flags before any other processing
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" {
			fmt.Printf("aptx %s\n", version.String())
			os.Exit(0)
		}
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "aptx - ledger transaction signing client\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  aptx [-d path] keygen [-encrypt]\n")
		fmt.Fprintf(os.Stderr, "  aptx [-d path] import <25-word mnemonic>\n")
		fmt.Fprintf(os.Stderr, "  aptx [-d path] account <ADDRESS>\n")
		fmt.Fprintf(os.Stderr, "  aptx [-d path] resource <ADDRESS> <TYPE>\n")
		fmt.Fprintf(os.Stderr, "  aptx [-d path] sign -function <F> [-type-arg T]... [-arg A]...\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		fmt.Fprintf(os.Stderr, "  -d path              Data directory (or set %s env var, default %s)\n", config.DataDirEnv, config.DefaultDataDir)
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  %s        Override node_url from config.yaml\n", config.NodeURLEnv)
		fmt.Fprintf(os.Stderr, "  %s           Enable debug logging\n", logging.DebugEnv)
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  aptx keygen -encrypt\n")
		fmt.Fprintf(os.Stderr, "  aptx account 0xa11ce00000000000000000000000000000000042\n")
		fmt.Fprintf(os.Stderr, "  aptx resource 0xa11ce00000000000000000000000000000000042 0x1::XUS::Balance\n")
		fmt.Fprintf(os.Stderr, "  aptx sign -function 0x1::PaymentScripts::peer_to_peer -type-arg 0x1::XUS::XUS -arg 0xb0b -arg 100\n")
	}

	dataDir := flag.String("d", "", "Data directory (or set "+config.DataDirEnv+")")
	flag.Parse()

	logging.InitLogger()

	// Key material passes through memory in every subcommand that loads or creates keys.
	if err := security.DisableCoreDumps(); err != nil {
		logging.Logger.Warn("could not disable core dumps", "error", err)
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	resolvedDataDir := config.ResolveDataDir(*dataDir)
	cfg, err := config.Load(resolvedDataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{
		cfg:          cfg,
		out:          os.Stdout,
		readPassword: readPassword,
	}

	if err := a.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// readPassword prompts on stderr and reads a passphrase without echo when
// stdin is a terminal.
func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd()) // #nosec G115 - file descriptors are small integers
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return b, err
	}

	// Not a terminal - read plaintext line using shared reader
	if stdinReader == nil {
		stdinReader = bufio.NewReader(os.Stdin)
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(line)), nil
}
