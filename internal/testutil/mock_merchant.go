// Package testutil serves the sandbox backend on an httptest server and
// records what reaches it.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/merchant-api-samples/internal/sandbox"
)

// DefaultMerchantID is the multi-client account every MockMerchant is seeded with.
const DefaultMerchantID = uint64(123)

// RecordedRequest is one request as the mock saw it.
type RecordedRequest struct {
	Method      string
	Path        string
	Query       string
	Header      http.Header
	OperationID string
}

// Failure makes matching requests fail before they reach the sandbox.
type Failure struct {
	StatusCode int
	Reason     string
	Message    string
	// Times limits how often the failure fires; 0 means always.
	Times int
	Delay time.Duration
}

// MockMerchant is a sandbox merchant API on a local httptest server.
type MockMerchant struct {
	Store *sandbox.Store

	server   *httptest.Server
	mu       sync.RWMutex
	requests []RecordedRequest
	failures map[string]*Failure
}

// Options tune NewMockMerchant.
type Options struct {
	MerchantID uint64
	MCA        bool
	Router     sandbox.RouterConfig
	Store      []sandbox.Option
}

// NewMockMerchant starts a sandbox seeded as an MCA with DefaultMerchantID.
func NewMockMerchant() *MockMerchant {
	return NewMockMerchantWithOptions(Options{MerchantID: DefaultMerchantID, MCA: true})
}

func NewMockMerchantWithOptions(opts Options) *MockMerchant {
	if opts.MerchantID == 0 {
		opts.MerchantID = DefaultMerchantID
	}
	store := sandbox.NewStore(opts.Store...)
	if err := store.SeedDemo(opts.MerchantID, opts.MCA); err != nil {
		panic(fmt.Sprintf("seed sandbox: %v", err))
	}
	router := sandbox.NewRouter(store, opts.Router)

	mock := &MockMerchant{
		Store:    store,
		failures: make(map[string]*Failure),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.record(r)
		if mock.fail(w, r) {
			return
		}
		router.ServeHTTP(w, r)
	}))
	return mock
}

// URL returns the server root.
func (m *MockMerchant) URL() string {
	return m.server.URL
}

// BaseURL is the API base to hand to client.Config.
func (m *MockMerchant) BaseURL() string {
	return m.server.URL + sandbox.BasePath
}

func (m *MockMerchant) Close() {
	m.server.Close()
}

// Reset clears recorded requests and failures.
func (m *MockMerchant) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.failures = make(map[string]*Failure)
}

// SetFailure fails requests whose path, relative to the API base, ends with suffix.
func (m *MockMerchant) SetFailure(suffix string, f Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[suffix] = &f
}

// Requests returns a copy of everything recorded so far.
func (m *MockMerchant) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.requests...)
}

func (m *MockMerchant) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// GetConditionalCount returns the number of requests carrying If-None-Match.
func (m *MockMerchant) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requests {
		if r.Header.Get("If-None-Match") != "" {
			n++
		}
	}
	return n
}

// OperationIDs returns the operation IDs of all order mutations in arrival order.
func (m *MockMerchant) OperationIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for _, r := range m.requests {
		if r.OperationID != "" {
			ids = append(ids, r.OperationID)
		}
	}
	return ids
}

func (m *MockMerchant) record(r *http.Request) {
	rec := RecordedRequest{
		Method: r.Method,
		Path:   strings.TrimPrefix(r.URL.Path, sandbox.BasePath),
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
	}
	if r.Body != nil && r.Method != http.MethodGet {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		var op struct {
			OperationID string `json:"operationId"`
		}
		if json.Unmarshal(body, &op) == nil {
			rec.OperationID = op.OperationID
		}
	}

	m.mu.Lock()
	m.requests = append(m.requests, rec)
	m.mu.Unlock()
}

func (m *MockMerchant) fail(w http.ResponseWriter, r *http.Request) bool {
	path := strings.TrimPrefix(r.URL.Path, sandbox.BasePath)

	m.mu.Lock()
	var f *Failure
	for suffix, candidate := range m.failures {
		if strings.HasSuffix(path, suffix) {
			f = candidate
			break
		}
	}
	if f == nil {
		m.mu.Unlock()
		return false
	}
	if f.Times > 0 {
		f.Times--
		if f.Times == 0 {
			for suffix, candidate := range m.failures {
				if candidate == f {
					delete(m.failures, suffix)
				}
			}
		}
	}
	resp := *f
	m.mu.Unlock()

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    resp.StatusCode,
			"message": resp.Message,
			"errors":  []map[string]string{{"reason": resp.Reason, "message": resp.Message}},
		},
	})
	return true
}
