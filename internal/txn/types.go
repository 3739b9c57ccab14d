// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package txn

import (
	"github.com/aplane-algo/aptx/internal/address"
)

// SignatureTypeEd25519 is the only signature type produced by Sign.
const SignatureTypeEd25519 = "ed25519_signature"

// UnsignedTransaction is the envelope sent to the ledger for a signing
// message. It is built once per submission attempt: the sequence number and
// expiration are only valid for that attempt.
type UnsignedTransaction struct {
	Sender                  address.Address `json:"sender"`
	SequenceNumber          uint64          `json:"sequence_number,string"`
	MaxGasAmount            uint64          `json:"max_gas_amount,string"`
	GasUnitPrice            uint64          `json:"gas_unit_price,string"`
	GasCurrencyCode         string          `json:"gas_currency_code"`
	ExpirationTimestampSecs uint64          `json:"expiration_timestamp_secs,string"`
	Payload                 Payload         `json:"payload"`
}

// Signature is the wire form of an ed25519 signature and the public key
// that produced it. Both values are 0x-prefixed hex.
type Signature struct {
	Type      string `json:"type"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

// SignedTransaction is an UnsignedTransaction with its signature attached.
// It is consumed once by submission.
type SignedTransaction struct {
	UnsignedTransaction
	Signature Signature `json:"signature"`
}
