// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package txn

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"golang.org/x/crypto/sha3"
)

// RawTransactionDomain separates transaction signing messages from any
// other signed data.
const RawTransactionDomain = "APTX::RawTransaction"

var rawTransactionSalt = sha3.Sum256([]byte(RawTransactionDomain))

// canonicalTransaction is the msgpack layout of the signing message body.
// The payload is carried as key-sorted compact JSON so that semantically
// equal payloads encode identically.
type canonicalTransaction struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Sender                  [20]byte `codec:"sender"`
	SequenceNumber          uint64   `codec:"sequence_number"`
	MaxGasAmount            uint64   `codec:"max_gas_amount"`
	GasUnitPrice            uint64   `codec:"gas_unit_price"`
	GasCurrencyCode         string   `codec:"gas_currency_code"`
	ExpirationTimestampSecs uint64   `codec:"expiration_timestamp_secs"`
	Payload                 []byte   `codec:"payload"`
}

// CanonicalSigningMessage computes the signing message locally:
// SHA3-256(RawTransactionDomain) followed by the canonical msgpack encoding
// of the transaction.
func CanonicalSigningMessage(unsigned *UnsignedTransaction) ([]byte, error) {
	if unsigned == nil {
		return nil, fmt.Errorf("unsigned transaction is nil")
	}
	payload, err := canonicalJSON(unsigned.Payload.raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize payload: %w", err)
	}

	body := msgpack.Encode(canonicalTransaction{
		Sender:                  unsigned.Sender,
		SequenceNumber:          unsigned.SequenceNumber,
		MaxGasAmount:            unsigned.MaxGasAmount,
		GasUnitPrice:            unsigned.GasUnitPrice,
		GasCurrencyCode:         unsigned.GasCurrencyCode,
		ExpirationTimestampSecs: unsigned.ExpirationTimestampSecs,
		Payload:                 payload,
	})

	message := make([]byte, 0, len(rawTransactionSalt)+len(body))
	message = append(message, rawTransactionSalt[:]...)
	return append(message, body...), nil
}

// canonicalJSON re-encodes a JSON value with sorted object keys and no
// insignificant whitespace. Numbers keep their original text.
func canonicalJSON(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
