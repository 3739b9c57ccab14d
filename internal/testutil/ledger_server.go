// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package testutil provides reusable test infrastructure and utilities.
package testutil

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// RecordedRequest captures a request received by the mock ledger.
type RecordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

// MockLedgerServer is an in-process ledger node serving the account,
// resource and signing-message endpoints.
type MockLedgerServer struct {
	Server *httptest.Server

	mu        sync.Mutex
	accounts  map[string]string          // bare hex address -> sequence_number
	resources map[string]json.RawMessage // "addr/type" -> resource
	statuses  map[string]int             // path -> forced status code
	requests  []RecordedRequest

	// SigningMessageHandler returns the bytes to hand back for a signing
	// message request. Defaults to returning the request body itself.
	SigningMessageHandler func(body []byte) []byte

	// RawSigningMessage, when non-empty, is written verbatim as the
	// "message" field instead of 0x + hex of the handler's bytes.
	RawSigningMessage string
}

// NewMockLedgerServer starts a mock ledger. It is closed on test cleanup.
func NewMockLedgerServer(t *testing.T) *MockLedgerServer {
	t.Helper()

	m := &MockLedgerServer{
		accounts:  make(map[string]string),
		resources: make(map[string]json.RawMessage),
		statuses:  make(map[string]int),
	}
	m.SigningMessageHandler = func(body []byte) []byte { return body }

	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Server.Close)
	return m
}

// URL returns the server URL
func (m *MockLedgerServer) URL() string {
	return m.Server.URL
}

// SetAccount registers an account with the given raw sequence_number value.
func (m *MockLedgerServer) SetAccount(addrHex, sequenceNumber string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[addrHex] = sequenceNumber
}

// SetResource registers a resource for an account.
func (m *MockLedgerServer) SetResource(addrHex, resourceType string, resource json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[addrHex+"/"+resourceType] = resource
}

// FailPath forces every request to path to answer with status.
func (m *MockLedgerServer) FailPath(path string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[path] = status
}

// Requests returns a copy of the requests received so far.
func (m *MockLedgerServer) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockLedgerServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
	status, forced := m.statuses[r.URL.Path]
	m.mu.Unlock()

	if forced {
		http.Error(w, http.StatusText(status), status)
		return
	}

	switch {
	case r.URL.Path == "/transactions/signing_message":
		m.handleSigningMessage(w, r, body)
	case strings.HasPrefix(r.URL.Path, "/accounts/"):
		m.handleAccounts(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (m *MockLedgerServer) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/accounts/")
	parts := strings.SplitN(rest, "/resource/", 2)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(parts) == 2 {
		resource, ok := m.resources[parts[0]+"/"+parts[1]]
		if !ok {
			http.Error(w, `{"code":404,"message":"resource not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, resource)
		return
	}

	seq, ok := m.accounts[parts[0]]
	if !ok {
		http.Error(w, `{"code":404,"message":"account not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{
		"sequence_number":    seq,
		"authentication_key": "0x" + strings.Repeat("00", 12) + parts[0],
	})
}

func (m *MockLedgerServer) handleSigningMessage(w http.ResponseWriter, r *http.Request, body []byte) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !json.Valid(body) {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	raw := m.RawSigningMessage
	handler := m.SigningMessageHandler
	m.mu.Unlock()

	if raw != "" {
		writeJSON(w, map[string]string{"message": raw})
		return
	}
	writeJSON(w, map[string]string{"message": "0x" + hex.EncodeToString(handler(body))})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
