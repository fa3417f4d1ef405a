package cache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestExpiresFromHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		wantTTL time.Duration
	}{
		{
			name:    "no headers uses default",
			headers: http.Header{},
			wantTTL: DefaultTTL,
		},
		{
			name:    "max-age",
			headers: http.Header{"Cache-Control": {"private, max-age=120"}},
			wantTTL: 120 * time.Second,
		},
		{
			name:    "no-store",
			headers: http.Header{"Cache-Control": {"no-store"}},
			wantTTL: 0,
		},
		{
			name:    "expires header",
			headers: http.Header{"Expires": {time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)}},
			wantTTL: time.Hour,
		},
		{
			name:    "expires in the past",
			headers: http.Header{"Expires": {time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)}},
			wantTTL: 0,
		},
		{
			name:    "unparseable expires",
			headers: http.Header{"Expires": {"tomorrow"}},
			wantTTL: DefaultTTL,
		},
		{
			name: "max-age wins over expires",
			headers: http.Header{
				"Cache-Control": {"max-age=30"},
				"Expires":       {time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)},
			},
			wantTTL: 30 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := time.Until(ExpiresFromHeaders(tt.headers))
			if diff := tt.wantTTL - got; diff < -time.Second || diff > 2*time.Second {
				t.Errorf("ttl = %v, want about %v", got, tt.wantTTL)
			}
		})
	}
}

func TestResponseToEntry(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("ETag", `"v1"`)
	rec.Header().Set("Cache-Control", "max-age=60")
	rec.WriteHeader(http.StatusOK)
	rec.WriteString(`{"id":"42"}`)
	resp := rec.Result()

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}
	if string(entry.Data) != `{"id":"42"}` {
		t.Errorf("Data = %q", entry.Data)
	}
	if entry.ETag != `"v1"` {
		t.Errorf("ETag = %q", entry.ETag)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"id":"42"}` {
		t.Errorf("response body not restored, got %q", body)
	}
}

func TestResponseToEntry_Nil(t *testing.T) {
	if _, err := ResponseToEntry(nil); err == nil {
		t.Error("expected error for nil response")
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/1/accounts/2", nil)
	AddConditionalHeaders(req, &CacheEntry{ETag: `"abc"`})
	if got := req.Header.Get("If-None-Match"); got != `"abc"` {
		t.Errorf("If-None-Match = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/1/accounts/2", nil)
	AddConditionalHeaders(req, &CacheEntry{})
	if got := req.Header.Get("If-None-Match"); got != "" {
		t.Errorf("If-None-Match should be empty without an ETag, got %q", got)
	}
}

func TestCacheEntry_ToResponse(t *testing.T) {
	entry := &CacheEntry{
		Data:       []byte("cached"),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": {"application/json"}},
	}
	resp := entry.ToResponse(nil)
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.EqualFold(string(body), "cached") {
		t.Errorf("ToResponse() = %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Error("headers not copied")
	}
}
