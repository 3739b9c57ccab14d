// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package ledger is a thin client for the ledger node's HTTP API.
//
// The client holds only read-only configuration and is safe for concurrent
// use. It never retries: every transport failure or unexpected status is
// returned to the caller as one of the error kinds in errors.go.
package ledger

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aplane-algo/aptx/internal/address"
	"github.com/aplane-algo/aptx/internal/logging"
)

const (
	// DefaultTimeout bounds every request when no http.Client is supplied.
	DefaultTimeout = 30 * time.Second

	// maxResponseBody caps how much of a response body is read.
	maxResponseBody = 4 << 20

	opAccount         = "account"
	opAccountResource = "account_resource"
	opSigningMessage  = "signing_message"
)

// Client talks to a single ledger node.
type Client struct {
	baseURL   string
	client    *http.Client
	logger    *slog.Logger
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (and its timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client = &http.Client{Timeout: d} }
}

// WithLogger sets the logger used for per-request debug records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client for the node at baseURL (e.g. "http://localhost:8080/v1").
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("ledger base URL is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid ledger base URL %q: must be an absolute http(s) URL", baseURL)
	}

	c := &Client{
		baseURL: trimmed,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Logger
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Account fetches the account record. Any status other than 200, including
// 404, is an error.
func (c *Client) Account(ctx context.Context, addr address.Address) (*AccountState, error) {
	path := "/accounts/" + addr.Hex()

	status, body, reqURL, err := c.do(ctx, opAccount, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &StatusError{Op: opAccount, URL: reqURL, StatusCode: status, Body: truncateBody(body)}
	}

	var state AccountState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, &MalformedResponseError{Op: opAccount, Err: err}
	}
	return &state, nil
}

// SequenceNumber fetches the account and parses its sequence number.
func (c *Client) SequenceNumber(ctx context.Context, addr address.Address) (uint64, error) {
	state, err := c.Account(ctx, addr)
	if err != nil {
		return 0, err
	}
	return state.Sequence()
}

// Sequence parses the decimal sequence number.
func (s *AccountState) Sequence() (uint64, error) {
	if s.SequenceNumber == "" {
		return 0, &MalformedResponseError{Op: opAccount, Field: "sequence_number", Err: errors.New("missing")}
	}
	n, err := strconv.ParseUint(s.SequenceNumber, 10, 64)
	if err != nil {
		return 0, &MalformedResponseError{Op: opAccount, Field: "sequence_number", Err: err}
	}
	return n, nil
}

// AccountResource fetches one resource of an account. A 404 reports the
// resource as absent: (nil, false, nil).
func (c *Client) AccountResource(ctx context.Context, addr address.Address, resourceType string) (Resource, bool, error) {
	if resourceType == "" {
		return nil, false, fmt.Errorf("resource type is empty")
	}
	path := "/accounts/" + addr.Hex() + "/resource/" + url.PathEscape(resourceType)

	status, body, reqURL, err := c.do(ctx, opAccountResource, http.MethodGet, path, nil)
	if err != nil {
		return nil, false, err
	}

	switch status {
	case http.StatusOK:
		if !json.Valid(body) {
			return nil, false, &MalformedResponseError{Op: opAccountResource, Err: errors.New("body is not valid JSON")}
		}
		return Resource(body), true, nil
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, &StatusError{Op: opAccountResource, URL: reqURL, StatusCode: status, Body: truncateBody(body)}
	}
}

// SigningMessage asks the node for the canonical bytes to sign for the
// given unsigned transaction.
func (c *Client) SigningMessage(ctx context.Context, unsigned any) ([]byte, error) {
	payload, err := json.Marshal(unsigned)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	status, body, reqURL, err := c.do(ctx, opSigningMessage, http.MethodPost, "/transactions/signing_message", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &StatusError{Op: opSigningMessage, URL: reqURL, StatusCode: status, Body: truncateBody(body)}
	}

	var resp signingMessageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &MalformedResponseError{Op: opSigningMessage, Err: err}
	}
	if resp.Message == nil {
		return nil, &MalformedResponseError{Op: opSigningMessage, Field: "message", Err: errors.New("missing")}
	}
	if !strings.HasPrefix(*resp.Message, "0x") {
		return nil, &MalformedResponseError{Op: opSigningMessage, Field: "message", Err: errors.New("missing 0x prefix")}
	}
	message, err := hex.DecodeString(strings.TrimPrefix(*resp.Message, "0x"))
	if err != nil {
		return nil, &MalformedResponseError{Op: opSigningMessage, Field: "message", Err: err}
	}
	return message, nil
}

// do performs one HTTP exchange and returns the status and body.
// Only transport failures are returned as errors; status handling is left
// to the caller because each operation accepts different codes.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte) (int, []byte, string, error) {
	reqURL := c.baseURL + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return 0, nil, reqURL, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("ledger request failed", "op", op, "method", method, "path", path, "error", err)
		return 0, nil, reqURL, &TransportError{Op: op, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, nil, reqURL, &TransportError{Op: op, URL: reqURL, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("ledger request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	return resp.StatusCode, respBody, reqURL, nil
}
