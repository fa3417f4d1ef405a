package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/merchant-api-samples/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, serverURL string, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := DefaultConfig("merchant-samples-test/1.0")
	cfg.BaseURL = serverURL + "/content/v2.1"
	cfg.MerchantID = 123
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

// setupTestRedis connects to a local Redis on DB 15 and skips when none is running.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid defaults", cfg: DefaultConfig("ua/1.0")},
		{name: "missing user agent", cfg: Config{BaseURL: DefaultBaseURL}, wantErr: true},
		{name: "negative retries", cfg: Config{UserAgent: "ua", MaxRetries: -1}, wantErr: true},
		{name: "relative base url", cfg: Config{UserAgent: "ua", BaseURL: "content/v2.1"}, wantErr: true},
		{name: "empty base url falls back to default", cfg: Config{UserAgent: "ua"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("ua/1.0")
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0 (no retry by default)", cfg.MaxRetries)
	}
}

func TestEndpointLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"123/orders", "orders"},
		{"123/orders/TEST-1/acknowledge", "orders/acknowledge"},
		{"123/testorders/TEST-1/advance", "testorders/advance"},
		{"123/accounts/456", "accounts"},
		{"accounts/batch", "accounts"},
	}
	for _, tt := range tests {
		if got := endpointLabel(tt.path); got != tt.want {
			t.Errorf("endpointLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIsCacheable(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"123/accounts/456", true},
		{"123/accountstatuses", true},
		{"123/accounttax/123", true},
		{"123/shippingsettings/1", true},
		{"123/orders/abc", false},
		{"123/testorders", false},
		{"123/ordersbymerchantid/x", false},
		{"accounts/batch", false},
	}
	for _, tt := range tests {
		if got := isCacheable(tt.path); got != tt.want {
			t.Errorf("isCacheable(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestInvalidationPrefix(t *testing.T) {
	if got := invalidationPrefix("123/accounts/456"); got != "123/accounts" {
		t.Errorf("got %q", got)
	}
	if got := invalidationPrefix("accounts/batch"); got != "" {
		t.Errorf("got %q, want whole-cache flush", got)
	}
}

func TestDo_HeadersAndAuth(t *testing.T) {
	var gotUA, gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"TEST-1"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.TokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "secret", TokenType: "Bearer"})
	})

	var out struct {
		ID string `json:"id"`
	}
	if err := c.GetJSON(context.Background(), "123/orders/TEST-1", nil, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}

	if gotUA != "merchant-samples-test/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/content/v2.1/123/orders/TEST-1" {
		t.Errorf("path = %q", gotPath)
	}
	if out.ID != "TEST-1" {
		t.Errorf("decoded id = %q", out.ID)
	}
}

func TestDo_ErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"Account 9 not found","errors":[{"reason":"notFound"}]}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	err := c.GetJSON(context.Background(), "123/accounts/9", nil, &struct{}{})

	if !IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.Message != "Account 9 not found" || apiErr.ErrorClass != ErrorClassClient {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestDo_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	err := c.GetJSON(context.Background(), "123/orders", nil, &struct{}{})

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorClass != ErrorClassServer {
		t.Errorf("err = %v, want server APIError", err)
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("a single attempt should not report retry exhaustion")
	}
}

func TestDo_RetryOnServerErrorResendsBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var in map[string]string
		if err := json.Unmarshal(body, &in); err != nil || in["operationId"] != "7" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"executionStatus":"executed"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.MaxRetries = 2
		cfg.InitialBackoff = 5 * time.Millisecond
	})

	var out struct {
		ExecutionStatus string `json:"executionStatus"`
	}
	err := c.SendJSON(context.Background(), http.MethodPost, "123/orders/TEST-1/acknowledge",
		map[string]string{"operationId": "7"}, &out)
	if err != nil {
		t.Fatalf("SendJSON() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if out.ExecutionStatus != "executed" {
		t.Errorf("executionStatus = %q", out.ExecutionStatus)
	}
}

func TestDo_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.MaxRetries = 3
		cfg.InitialBackoff = 5 * time.Millisecond
	})
	_ = c.GetJSON(context.Background(), "123/orders", nil, nil)

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestDo_RetryExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.MaxRetries = 2
		cfg.InitialBackoff = 5 * time.Millisecond
	})
	err := c.GetJSON(context.Background(), "123/orders", nil, nil)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("err = %v, want ErrRetryExhausted", err)
	}
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(t, url)
	err := c.GetJSON(context.Background(), "123/orders", nil, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorClass != ErrorClassNetwork {
		t.Errorf("err = %v, want network APIError", err)
	}
}

func TestDo_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials","errors":[{"reason":"authError"}]}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	err := c.GetJSON(context.Background(), "123/orders", nil, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorClass != ErrorClassAuth {
		t.Errorf("err = %v, want auth APIError", err)
	}
}

func TestDo_CacheHitWithConditionalRequest(t *testing.T) {
	redisClient := setupTestRedis(t)

	var calls, notModified atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Cache-Control", "max-age=60")
		w.Write([]byte(`{"id":"123","name":"Sample shop"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.Redis = redisClient })

	for i := 0; i < 2; i++ {
		var out struct {
			Name string `json:"name"`
		}
		if err := c.GetJSON(context.Background(), "123/accounts/123", nil, &out); err != nil {
			t.Fatalf("GetJSON() #%d error = %v", i, err)
		}
		if out.Name != "Sample shop" {
			t.Errorf("request %d name = %q", i, out.Name)
		}
	}

	if calls.Load() != 2 || notModified.Load() != 1 {
		t.Errorf("calls=%d notModified=%d, want 2/1", calls.Load(), notModified.Load())
	}
}

func TestDo_OrdersAreNeverCached(t *testing.T) {
	redisClient := setupTestRedis(t)

	var conditional atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" {
			conditional.Add(1)
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(`{"id":"TEST-1"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.Redis = redisClient })
	for i := 0; i < 2; i++ {
		if err := c.GetJSON(context.Background(), "123/orders/TEST-1", nil, nil); err != nil {
			t.Fatalf("GetJSON() error = %v", err)
		}
	}
	if conditional.Load() != 0 {
		t.Error("order reads must not be sent as conditional requests")
	}
}

func TestDo_QuotaBlock(t *testing.T) {
	redisClient := setupTestRedis(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set(ratelimit.HeaderRemaining, "1")
		w.Header().Set(ratelimit.HeaderReset, "60")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.Redis = redisClient })

	if err := c.GetJSON(context.Background(), "123/orders", nil, nil); err != nil {
		t.Fatalf("first request error = %v", err)
	}
	err := c.GetJSON(context.Background(), "123/orders", nil, nil)
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("err = %v, want ErrQuotaExhausted", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
