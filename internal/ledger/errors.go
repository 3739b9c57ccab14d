// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package ledger

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; the concrete types below carry details.
var (
	// ErrTransport indicates a connection, DNS, timeout or cancellation failure.
	ErrTransport = errors.New("ledger transport error")

	// ErrUnexpectedStatus indicates an HTTP status outside the documented
	// success/absence codes for the operation.
	ErrUnexpectedStatus = errors.New("unexpected ledger status")

	// ErrMalformedResponse indicates a missing or mistyped field in a response body.
	ErrMalformedResponse = errors.New("malformed ledger response")
)

// maxErrorBody bounds how much of an error response body is kept.
const maxErrorBody = 512

// TransportError wraps a failure to complete an HTTP exchange.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports ErrTransport as a match.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusError reports an HTTP status the operation does not accept.
type StatusError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: ledger error (%d): %s", e.Op, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: ledger error (%d)", e.Op, e.URL, e.StatusCode)
}

// Is reports ErrUnexpectedStatus as a match.
func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// MalformedResponseError reports a response body that does not have the expected shape.
type MalformedResponseError struct {
	Op    string
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: malformed response field %q: %v", e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Is reports ErrMalformedResponse as a match.
func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
