package anbima

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

const (
	testClientID     = "test-id"
	testClientSecret = "test-secret"
	testToken        = "test-token"
)

// mockState records what the mock ANBIMA server has seen.
type mockState struct {
	mu         sync.Mutex
	authCalls  int
	fundPages  []int
	debentures int
}

func (m *mockState) AuthCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authCalls
}

func (m *mockState) FundPages() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.fundPages...)
}

// newMockServer creates an httptest.Server that mimics the ANBIMA auth
// endpoint and feeds with literal JSON payloads.
func newMockServer(t *testing.T) (*httptest.Server, *mockState) {
	t.Helper()

	state := &mockState{}
	mux := http.NewServeMux()

	// 1. Client-credentials handshake
	mux.HandleFunc("/oauth/access-token", func(w http.ResponseWriter, r *http.Request) {
		state.mu.Lock()
		state.authCalls++
		state.mu.Unlock()

		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		want := "Basic " + base64.StdEncoding.EncodeToString([]byte(testClientID+":"+testClientSecret))
		if r.Header.Get("Authorization") != want {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "invalid_client"}`))
			return
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["grant_type"] != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "` + testToken + `", "token_type": "access_token", "expires_in": 3600}`))
	})

	// 2. Debentures - secondary market quotes
	mux.HandleFunc("/feed/precos-indices/v1/debentures/mercado-secundario", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		state.mu.Lock()
		state.debentures++
		state.mu.Unlock()

		date := r.URL.Query().Get("date")
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `[
			{"codigo_ativo": "ABCD11", "data_referencia": %q, "taxa_indicativa": 12.3456, "emissor": "ACME S.A."},
			{"codigo_ativo": "EFGH22", "data_referencia": %q, "taxa_indicativa": 9.87, "duration": 1043}
		]`, date, date)
	})

	// 3. Funds - ICVM listing, 25 elements in pages of 10
	mux.HandleFunc("/feed/fundos/v1/fundos", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		state.mu.Lock()
		state.fundPages = append(state.fundPages, page)
		state.mu.Unlock()

		writePage(w, page, 25, 10)
	})

	// 4. Funds - structured listing reporting a zero page size
	mux.HandleFunc("/feed/fundos/v1/fundos-estruturados", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content": [{"codigo_fundo": "S1"}, {"codigo_fundo": "S2"}], "total_elements": 40, "size": 0, "number": 0}`))
	})

	// 5. Funds - offshore listing without total_elements
	mux.HandleFunc("/feed/fundos/v1/fundos-offshore", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content": [{"codigo_fundo": "O1"}], "total_elements": null, "size": 10, "number": 0}`))
	})

	// 6. Investors must never be requested
	mux.HandleFunc("/feed/fundos/v1/investidores", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	// 7. Rate limit generator (always 429)
	mux.HandleFunc("/429-generator", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "Too Many Requests"}`))
	})

	return httptest.NewServer(mux), state
}

func authorized(r *http.Request) bool {
	return r.Header.Get("client_id") == testClientID && r.Header.Get("access_token") == testToken
}

// writePage writes page of a listing holding total records with the given size.
func writePage(w http.ResponseWriter, page, total, size int) {
	content := make([]map[string]any, 0, size)
	for i := page * size; i < (page+1)*size && i < total; i++ {
		content = append(content, map[string]any{"codigo_fundo": fmt.Sprintf("F%02d", i)})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"content":        content,
		"total_elements": total,
		"size":           size,
		"number":         page,
	})
}

// newMockClient builds a client pointed at the mock server with short
// backoffs so tests don't stall.
func newMockClient(ts *httptest.Server, opts ...Option) *Client {
	defaultOpts := []Option{
		WithBaseURL(ts.URL),
		WithBackoff(time.Millisecond, 10*time.Millisecond),
		WithMaxRetryTime(2 * time.Second),
	}
	defaultOpts = append(defaultOpts, opts...)
	return NewClient(testClientID, testClientSecret, defaultOpts...)
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeTransport answers requests from a scripted handler and records them.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []*Request
	handler func(req *Request) (*Response, error)
}

func (f *fakeTransport) Do(_ context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.handler(req)
}

func (f *fakeTransport) Calls() []*Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Request(nil), f.calls...)
}

func jsonResponse(status int, body string) *Response {
	return &Response{StatusCode: status, Body: []byte(body)}
}
