// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package txn

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Payload kinds with helper constructors.
const (
	PayloadScriptFunction = "script_function_payload"
	PayloadScript         = "script_payload"
)

// ErrInvalidPayload is returned for payloads that are not a JSON object
// tagged with a string "type" field.
var ErrInvalidPayload = errors.New("invalid transaction payload")

// Payload is a pre-serialized, tagged JSON object describing the operation a
// transaction performs. Only the "type" tag is interpreted; the rest is
// passed through to the ledger verbatim.
type Payload struct {
	kind string
	raw  json.RawMessage
}

// NewPayload tags body (which must marshal to a JSON object) with kind.
func NewPayload(kind string, body any) (Payload, error) {
	if kind == "" {
		return Payload{}, fmt.Errorf("%w: empty payload type", ErrInvalidPayload)
	}

	fields := map[string]json.RawMessage{}
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if !bytes.Equal(encoded, []byte("null")) {
			if err := json.Unmarshal(encoded, &fields); err != nil {
				return Payload{}, fmt.Errorf("%w: body must be a JSON object: %v", ErrInvalidPayload, err)
			}
		}
	}

	tag, _ := json.Marshal(kind)
	fields["type"] = tag

	raw, err := json.Marshal(fields)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return Payload{kind: kind, raw: raw}, nil
}

// ParsePayload wraps an already-serialized payload object.
func ParsePayload(raw []byte) (Payload, error) {
	var probe struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if probe.Type == nil || *probe.Type == "" {
		return Payload{}, fmt.Errorf("%w: missing \"type\" tag", ErrInvalidPayload)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return Payload{kind: *probe.Type, raw: compact.Bytes()}, nil
}

// ScriptFunctionPayload calls a published module function, e.g.
// "0x1::PaymentScripts::peer_to_peer_with_metadata".
func ScriptFunctionPayload(function string, typeArguments, arguments []string) (Payload, error) {
	if function == "" {
		return Payload{}, fmt.Errorf("%w: empty script function", ErrInvalidPayload)
	}
	return NewPayload(PayloadScriptFunction, struct {
		Function      string   `json:"function"`
		TypeArguments []string `json:"type_arguments"`
		Arguments     []string `json:"arguments"`
	}{function, nonNil(typeArguments), nonNil(arguments)})
}

// ScriptPayload runs compiled script bytecode.
func ScriptPayload(code []byte, typeArguments, arguments []string) (Payload, error) {
	if len(code) == 0 {
		return Payload{}, fmt.Errorf("%w: empty script code", ErrInvalidPayload)
	}
	return NewPayload(PayloadScript, struct {
		Code          map[string]string `json:"code"`
		TypeArguments []string          `json:"type_arguments"`
		Arguments     []string          `json:"arguments"`
	}{map[string]string{"bytecode": "0x" + hex.EncodeToString(code)}, nonNil(typeArguments), nonNil(arguments)})
}

// Kind returns the payload's type tag.
func (p Payload) Kind() string {
	return p.kind
}

// IsZero reports whether the payload is unset.
func (p Payload) IsZero() bool {
	return len(p.raw) == 0
}

// Raw returns a copy of the serialized payload.
func (p Payload) Raw() json.RawMessage {
	return append(json.RawMessage(nil), p.raw...)
}

// MarshalJSON emits the payload verbatim.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	return p.Raw(), nil
}

// UnmarshalJSON accepts any tagged payload object.
func (p *Payload) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = Payload{}
		return nil
	}
	parsed, err := ParsePayload(data)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
