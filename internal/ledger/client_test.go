// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aplane-algo/aptx/internal/logging"
	"github.com/aplane-algo/aptx/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, m *testutil.MockLedgerServer, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(m.URL(), opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "plain", url: "http://localhost:8080", want: "http://localhost:8080"},
		{name: "trailing slash", url: "https://node.example/v1/", want: "https://node.example/v1"},
		{name: "whitespace", url: "  http://node:1  ", want: "http://node:1"},
		{name: "empty", url: "", wantErr: true},
		{name: "no scheme", url: "localhost:8080", wantErr: true},
		{name: "ftp", url: "ftp://node", wantErr: true},
		{name: "no host", url: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.BaseURL())
		})
	}
}

func TestAccount(t *testing.T) {
	m := testutil.NewMockLedgerServer(t)
	m.SetAccount(testutil.AliceHex, "7")
	c := newTestClient(t, m)

	state, err := c.Account(context.Background(), testutil.Alice())
	require.NoError(t, err)
	assert.Equal(t, "7", state.SequenceNumber)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/accounts/"+testutil.AliceHex, reqs[0].Path, "account lookups use bare hex")
}

func TestAccountNotFoundIsFatal(t *testing.T) {
	m := testutil.NewMockLedgerServer(t)
	c := newTestClient(t, m)

	_, err := c.Account(context.Background(), testutil.Alice())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestSequenceNumber(t *testing.T) {
	tests := []struct {
		name    string
		seq     string
		want    uint64
		wantErr bool
	}{
		{name: "zero", seq: "0", want: 0},
		{name: "seven", seq: "7", want: 7},
		{name: "max u64", seq: "18446744073709551615", want: 18446744073709551615},
		{name: "overflow", seq: "18446744073709551616", wantErr: true},
		{name: "negative", seq: "-1", wantErr: true},
		{name: "not numeric", seq: "seven", wantErr: true},
		{name: "missing", seq: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testutil.NewMockLedgerServer(t)
			m.SetAccount(testutil.AliceHex, tt.seq)
			c := newTestClient(t, m)

			got, err := c.SequenceNumber(context.Background(), testutil.Alice())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedResponse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccountResource(t *testing.T) {
	m := testutil.NewMockLedgerServer(t)
	resource := json.RawMessage(`{"type":"0x1::DiemAccount::Balance<0x1::XUS::XUS>","value":{"coin":{"value":"100"}}}`)
	m.SetResource(testutil.AliceHex, "0x1::DiemAccount::Balance<0x1::XUS::XUS>", resource)
	c := newTestClient(t, m)

	got, found, err := c.AccountResource(context.Background(), testutil.Alice(), "0x1::DiemAccount::Balance<0x1::XUS::XUS>")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, string(resource), string(got))
}

func TestAccountResourceAbsent(t *testing.T) {
	m := testutil.NewMockLedgerServer(t)
	c := newTestClient(t, m)

	for _, resourceType := range []string{"0x1::Missing::Thing", "plain", "with space"} {
		got, found, err := c.AccountResource(context.Background(), testutil.Alice(), resourceType)
		require.NoError(t, err, resourceType)
		assert.False(t, found, resourceType)
		assert.Nil(t, got, resourceType)
	}
}

func TestAccountResourceEmptyType(t *testing.T) {
	c, err := NewClient("http://localhost:1")
	require.NoError(t, err)
	_, _, err = c.AccountResource(context.Background(), testutil.Alice(), "")
	assert.Error(t, err)
}

func TestAccountResourceMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, _, err = c.AccountResource(context.Background(), testutil.Alice(), "T")
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestSigningMessage(t *testing.T) {
	m := testutil.NewMockLedgerServer(t)
	want := []byte{0xde, 0xad, 0xbe, 0xef}
	m.SigningMessageHandler = func([]byte) []byte { return want }
	c := newTestClient(t, m)

	got, err := c.SigningMessage(context.Background(), map[string]string{"sender": "0x" + testutil.AliceHex})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.JSONEq(t, `{"sender":"0x`+testutil.AliceHex+`"}`, string(reqs[0].Body))
}

func TestSigningMessageMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing prefix", body: `{"message":"deadbeef"}`},
		{name: "bad hex", body: `{"message":"0xzz"}`},
		{name: "missing field", body: `{}`},
		{name: "wrong type", body: `{"message":42}`},
		{name: "not json", body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL)
			require.NoError(t, err)
			_, err = c.SigningMessage(context.Background(), struct{}{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse))
		})
	}
}

func TestSigningMessageUnmarshalable(t *testing.T) {
	c, err := NewClient("http://localhost:1")
	require.NoError(t, err)
	_, err = c.SigningMessage(context.Background(), make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal request")
}

func TestUnexpectedStatusIsFatal(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusBadRequest} {
		m := testutil.NewMockLedgerServer(t)
		m.SetAccount(testutil.AliceHex, "7")
		m.SetResource(testutil.AliceHex, "T", json.RawMessage(`{}`))
		m.FailPath("/accounts/"+testutil.AliceHex, status)
		m.FailPath("/accounts/"+testutil.AliceHex+"/resource/T", status)
		m.FailPath("/transactions/signing_message", status)
		c := newTestClient(t, m)
		ctx := context.Background()

		_, err := c.Account(ctx, testutil.Alice())
		assert.True(t, errors.Is(err, ErrUnexpectedStatus), "account %d", status)
		assert.True(t, IsStatus(err, status))

		_, _, err = c.AccountResource(ctx, testutil.Alice(), "T")
		assert.True(t, errors.Is(err, ErrUnexpectedStatus), "resource %d", status)
		assert.True(t, IsStatus(err, status))

		_, err = c.SigningMessage(ctx, struct{}{})
		assert.True(t, errors.Is(err, ErrUnexpectedStatus), "signing message %d", status)
		assert.True(t, IsStatus(err, status))
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	require.NoError(t, err)

	_, err = c.Account(context.Background(), testutil.Alice())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, errors.Is(err, ErrUnexpectedStatus))
}

func TestTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Account(context.Background(), testutil.Alice())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestContextCancellation(t *testing.T) {
	m := testutil.NewMockLedgerServer(t)
	c := newTestClient(t, m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Account(ctx, testutil.Alice())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStatusErrorBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(bytes.Repeat([]byte("x"), 2000))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.Account(context.Background(), testutil.Alice())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, maxErrorBody+3, len(se.Body))
}

func TestUserAgentAndLogger(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"sequence_number":"1"}`))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	c, err := NewClient(srv.URL, WithUserAgent("aptx-test"), WithLogger(logging.New(&logs, true)))
	require.NoError(t, err)

	_, err = c.Account(context.Background(), testutil.Alice())
	require.NoError(t, err)
	assert.Equal(t, "aptx-test", gotUA)
	assert.Contains(t, logs.String(), "op=account")
	assert.Contains(t, logs.String(), "status=200")
}
