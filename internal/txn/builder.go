// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package txn builds and signs ledger transactions.
//
// The flow for one submission attempt is strictly sequential:
//
//	Generate: fetch the sender's sequence number, fill in policy defaults and
//	          an expiration 600 seconds from now.
//	Sign:     obtain the signing message for the envelope, sign it with the
//	          account's ed25519 key and attach the signature.
//
// A Builder holds only read-only configuration and may be shared between
// goroutines building independent transactions.
package txn

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/aplane-algo/aptx/internal/address"
	"github.com/aplane-algo/aptx/internal/ledger"
)

// Transaction policy. Fee-market logic is out of scope, so gas settings are fixed.
const (
	ExpirationWindow       = 600 * time.Second
	DefaultMaxGasAmount    = 1000
	DefaultGasUnitPrice    = 1
	DefaultGasCurrencyCode = "XUS"
)

// ErrSigningMessageMismatch is returned when the ledger's signing message
// differs from the locally computed canonical form. Nothing is signed.
var ErrSigningMessageMismatch = errors.New("ledger signing message does not match local canonical form")

// Ledger is the subset of the ledger client the builder needs.
type Ledger interface {
	Account(ctx context.Context, addr address.Address) (*ledger.AccountState, error)
	SigningMessage(ctx context.Context, unsigned any) ([]byte, error)
}

// Signer is the account collaborator: an ed25519 key and its address.
// PublicKey must be derived from the signing key itself.
type Signer interface {
	Address() address.Address
	PublicKey() ed25519.PublicKey
	Sign(message []byte) ([]byte, error)
}

// Builder assembles and signs transactions.
type Builder struct {
	ledger     Ledger
	now        func() time.Time
	localCheck bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the wall clock used for expiration timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithLocalSigningMessage makes Sign compute the canonical signing message
// locally and refuse to sign if the ledger returns different bytes.
func WithLocalSigningMessage() Option {
	return func(b *Builder) { b.localCheck = true }
}

// NewBuilder creates a builder backed by l.
func NewBuilder(l Ledger, opts ...Option) *Builder {
	b := &Builder{ledger: l, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Generate builds a fresh unsigned transaction for sender. The only network
// call is the account lookup for the sequence number.
func (b *Builder) Generate(ctx context.Context, sender address.Address, payload Payload) (*UnsignedTransaction, error) {
	if payload.IsZero() {
		return nil, fmt.Errorf("%w: payload is required", ErrInvalidPayload)
	}

	state, err := b.ledger.Account(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", sender, err)
	}
	seq, err := state.Sequence()
	if err != nil {
		return nil, fmt.Errorf("failed to read sequence number for %s: %w", sender, err)
	}

	return &UnsignedTransaction{
		Sender:                  sender,
		SequenceNumber:          seq,
		MaxGasAmount:            DefaultMaxGasAmount,
		GasUnitPrice:            DefaultGasUnitPrice,
		GasCurrencyCode:         DefaultGasCurrencyCode,
		ExpirationTimestampSecs: b.expiration(),
		Payload:                 payload,
	}, nil
}

// expiration is computed per call so every transaction gets its own window.
func (b *Builder) expiration() uint64 {
	return uint64(b.now().Add(ExpirationWindow).Unix()) // #nosec G115 - wall clock is after 1970
}

// Sign obtains the signing message for unsigned, signs it and returns a new
// SignedTransaction. unsigned itself is not modified. The signature is not
// re-verified; use Verify for that.
func (b *Builder) Sign(ctx context.Context, signer Signer, unsigned *UnsignedTransaction) (*SignedTransaction, error) {
	if unsigned == nil {
		return nil, fmt.Errorf("unsigned transaction is nil")
	}
	if signer == nil {
		return nil, fmt.Errorf("signer is nil")
	}

	message, err := b.ledger.SigningMessage(ctx, unsigned)
	if err != nil {
		return nil, fmt.Errorf("failed to get signing message: %w", err)
	}

	if b.localCheck {
		local, err := CanonicalSigningMessage(unsigned)
		if err != nil {
			return nil, fmt.Errorf("failed to compute local signing message: %w", err)
		}
		if !bytes.Equal(local, message) {
			return nil, ErrSigningMessageMismatch
		}
	}

	sig, err := signer.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("invalid signature length: expected %d bytes, got %d", ed25519.SignatureSize, len(sig))
	}
	pub := signer.PublicKey()
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key length: expected %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}

	return &SignedTransaction{
		UnsignedTransaction: *unsigned,
		Signature: Signature{
			Type:      SignatureTypeEd25519,
			PublicKey: "0x" + hex.EncodeToString(pub),
			Signature: "0x" + hex.EncodeToString(sig),
		},
	}, nil
}

// Build runs Generate for the signer's own address and then Sign.
func (b *Builder) Build(ctx context.Context, signer Signer, payload Payload) (*SignedTransaction, error) {
	if signer == nil {
		return nil, fmt.Errorf("signer is nil")
	}
	unsigned, err := b.Generate(ctx, signer.Address(), payload)
	if err != nil {
		return nil, err
	}
	return b.Sign(ctx, signer, unsigned)
}
