// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aplane-algo/aptx/internal/account"
	"github.com/aplane-algo/aptx/internal/address"
	"github.com/aplane-algo/aptx/internal/config"
	"github.com/aplane-algo/aptx/internal/crypto"
	"github.com/aplane-algo/aptx/internal/ledger"
	"github.com/aplane-algo/aptx/internal/logging"
	"github.com/aplane-algo/aptx/internal/txn"
	"github.com/aplane-algo/aptx/internal/version"
)

// app carries what every subcommand needs, so tests can swap the
// output and the passphrase prompt.
type app struct {
	cfg          config.Config
	out          io.Writer
	readPassword func(prompt string) ([]byte, error)
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "keygen":
		fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
		encrypt := fs.Bool("encrypt", false, "Encrypt the key file with a passphrase")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return a.cmdKeygen(*encrypt)

	case "import":
		fs := flag.NewFlagSet("import", flag.ContinueOnError)
		encrypt := fs.Bool("encrypt", false, "Encrypt the key file with a passphrase")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			return fmt.Errorf("usage: aptx import [-encrypt] <25-word mnemonic>")
		}
		return a.cmdImport(strings.Join(fs.Args(), " "), *encrypt)

	case "account":
		if len(args) != 1 {
			return fmt.Errorf("usage: aptx account <ADDRESS>")
		}
		return a.cmdAccount(ctx, args[0])

	case "resource":
		if len(args) != 2 {
			return fmt.Errorf("usage: aptx resource <ADDRESS> <TYPE>")
		}
		return a.cmdResource(ctx, args[0], args[1])

	case "sign":
		fs := flag.NewFlagSet("sign", flag.ContinueOnError)
		function := fs.String("function", "", "Fully qualified script function, e.g. 0x1::M::f")
		var typeArgs, fnArgs stringList
		fs.Var(&typeArgs, "type-arg", "Type argument (repeatable)")
		fs.Var(&fnArgs, "arg", "Function argument (repeatable)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *function == "" {
			return fmt.Errorf("usage: aptx sign -function <F> [-type-arg T]... [-arg A]...")
		}
		return a.cmdSign(ctx, *function, typeArgs, fnArgs)

	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func (a *app) newLedgerClient() (*ledger.Client, error) {
	nodeURL, err := a.cfg.RequireNodeURL()
	if err != nil {
		return nil, err
	}
	return ledger.NewClient(nodeURL,
		ledger.WithTimeout(a.cfg.Timeout()),
		ledger.WithUserAgent(version.UserAgent()),
		ledger.WithLogger(logging.Logger),
	)
}

// promptNewPassphrase asks twice and refuses empty or mismatched input.
func (a *app) promptNewPassphrase() (*crypto.SecureString, error) {
	first, err := a.readPassword("Enter passphrase: ")
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	defer crypto.ZeroBytes(first)

	second, err := a.readPassword("Confirm passphrase: ")
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	defer crypto.ZeroBytes(second)

	if len(first) == 0 {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	if !bytes.Equal(first, second) {
		return nil, fmt.Errorf("passphrases do not match")
	}
	return crypto.NewSecureStringFromBytes(first), nil
}

// saveAccount writes acct to the configured key file, refusing to overwrite.
func (a *app) saveAccount(acct *account.Account, encrypt bool) error {
	path := a.cfg.KeyFile
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key file already exists: %s", path)
	}

	if !encrypt {
		return account.SaveKeyFile(path, acct, nil)
	}

	pass, err := a.promptNewPassphrase()
	if err != nil {
		return err
	}
	defer pass.Destroy()

	return pass.WithBytes(func(b []byte) error {
		return account.SaveKeyFile(path, acct, b)
	})
}

// loadAccount reads the configured key file, prompting when it is encrypted.
func (a *app) loadAccount() (*account.Account, error) {
	path := a.cfg.KeyFile
	encrypted, err := account.IsKeyFileEncrypted(path)
	if err != nil {
		return nil, err
	}
	if !encrypted {
		return account.LoadKeyFile(path, nil)
	}

	b, err := a.readPassword("Enter passphrase: ")
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	pass := crypto.NewSecureStringFromBytes(b)
	crypto.ZeroBytes(b)
	defer pass.Destroy()

	var acct *account.Account
	err = pass.WithBytes(func(p []byte) error {
		var loadErr error
		acct, loadErr = account.LoadKeyFile(path, p)
		return loadErr
	})
	if errors.Is(err, crypto.ErrDecrypt) {
		return nil, fmt.Errorf("wrong passphrase or corrupted key file")
	}
	return acct, err
}

func (a *app) printAccount(title string, acct *account.Account, mnemonic string) {
	printTitle(a.out, title)
	printField(a.out, "Address", acct.Address().String())
	printField(a.out, "Public key", acct.PublicKeyHex())
	printField(a.out, "Key file", a.cfg.KeyFile)
	if mnemonic != "" {
		printField(a.out, "Mnemonic", mnemonic)
		printWarning(a.out, "Write the mnemonic down and keep it offline. Anyone holding it controls the account.")
	}
}

func (a *app) cmdKeygen(encrypt bool) error {
	acct, err := account.Generate()
	if err != nil {
		return err
	}
	defer acct.Zero()

	if err := a.saveAccount(acct, encrypt); err != nil {
		return err
	}

	words, err := acct.Mnemonic()
	if err != nil {
		return err
	}
	a.printAccount("New account", acct, words)
	return nil
}

func (a *app) cmdImport(words string, encrypt bool) error {
	acct, err := account.FromMnemonic(words)
	if err != nil {
		return err
	}
	defer acct.Zero()

	if err := a.saveAccount(acct, encrypt); err != nil {
		return err
	}
	a.printAccount("Imported account", acct, "")
	return nil
}

func (a *app) cmdAccount(ctx context.Context, addrStr string) error {
	addr, err := address.Parse(addrStr)
	if err != nil {
		return err
	}
	client, err := a.newLedgerClient()
	if err != nil {
		return err
	}

	state, err := client.Account(ctx, addr)
	if err != nil {
		return err
	}
	seq, err := state.Sequence()
	if err != nil {
		return err
	}

	printTitle(a.out, "Account "+addr.Short())
	printField(a.out, "Address", addr.String())
	printField(a.out, "Sequence number", strconv.FormatUint(seq, 10))
	if state.AuthenticationKey != "" {
		printField(a.out, "Authentication key", state.AuthenticationKey)
	}
	return nil
}

func (a *app) cmdResource(ctx context.Context, addrStr, resourceType string) error {
	addr, err := address.Parse(addrStr)
	if err != nil {
		return err
	}
	client, err := a.newLedgerClient()
	if err != nil {
		return err
	}

	resource, found, err := client.AccountResource(ctx, addr, resourceType)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(a.out, "Resource %s not found for %s\n", resourceType, addr)
		return nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, resource, "", "  "); err != nil {
		return err
	}
	fmt.Fprintln(a.out, pretty.String())
	return nil
}

func (a *app) cmdSign(ctx context.Context, function string, typeArgs, fnArgs []string) error {
	client, err := a.newLedgerClient()
	if err != nil {
		return err
	}

	acct, err := a.loadAccount()
	if err != nil {
		return err
	}
	defer acct.Zero()

	payload, err := txn.ScriptFunctionPayload(function, typeArgs, fnArgs)
	if err != nil {
		return err
	}

	var opts []txn.Option
	if a.cfg.LocalSigningMessage {
		opts = append(opts, txn.WithLocalSigningMessage())
	}
	builder := txn.NewBuilder(client, opts...)

	signed, err := builder.Build(ctx, acct, payload)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(signed, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(out))
	return nil
}
