package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sternrassler/merchant-api-samples/pkg/logging"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoad_FromDirectory(t *testing.T) {
	dir := writeConfig(t, `{
		"merchantId": 123456,
		"isMCA": true,
		"accountSampleUser": "user@example.com",
		"logLevel": "debug"
	}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MerchantID != 123456 {
		t.Errorf("MerchantID = %d, want 123456", cfg.MerchantID)
	}
	if !cfg.IsMCA {
		t.Error("IsMCA = false, want true")
	}
	if cfg.AccountSampleUser != "user@example.com" {
		t.Errorf("AccountSampleUser = %q", cfg.AccountSampleUser)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want default 50", cfg.PageSize)
	}
	if cfg.File != filepath.Join(dir, FileName) {
		t.Errorf("File = %q", cfg.File)
	}
	if cfg.Logging().Level != logging.LevelDebug {
		t.Errorf("Logging().Level = %q, want debug", cfg.Logging().Level)
	}
}

func TestLoad_StringMerchantID(t *testing.T) {
	dir := writeConfig(t, `{"merchantId": "987"}`)

	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MerchantID != 987 {
		t.Errorf("MerchantID = %d, want 987", cfg.MerchantID)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, `{"merchantId": 1, "pageSize": 10}`)
	t.Setenv("MERCHANT_MERCHANTID", "42")
	t.Setenv("MERCHANT_ENDPOINT", "http://localhost:8080/content/v2.1")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MerchantID != 42 {
		t.Errorf("MerchantID = %d, want env value 42", cfg.MerchantID)
	}
	if cfg.Endpoint != "http://localhost:8080/content/v2.1" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.PageSize)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	if !errors.Is(err, ErrMissingMerchantID) {
		t.Fatalf("Load() error = %v, want ErrMissingMerchantID", err)
	}

	t.Setenv("MERCHANT_MERCHANTID", "77")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() with env error = %v", err)
	}
	if cfg.MerchantID != 77 || cfg.File != "" {
		t.Errorf("got MerchantID=%d File=%q", cfg.MerchantID, cfg.File)
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := writeConfig(t, `{"merchantId": `)
	if _, err := Load(dir); err == nil {
		t.Fatal("Load() expected error for malformed JSON")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{MerchantID: 1, PageSize: 50, LogLevel: "info"}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no merchant", mutate: func(c *Config) { c.MerchantID = 0 }, wantErr: ErrMissingMerchantID},
		{name: "page size zero", mutate: func(c *Config) { c.PageSize = 0 }, wantErr: ErrInvalidPageSize},
		{name: "page size too large", mutate: func(c *Config) { c.PageSize = 251 }, wantErr: ErrInvalidPageSize},
		{name: "page size max", mutate: func(c *Config) { c.PageSize = 250 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	cfg := valid()
	cfg.MaxRetries = -1
	if cfg.Validate() == nil {
		t.Error("Validate() expected error for negative maxRetries")
	}
	cfg = valid()
	cfg.LogLevel = "loud"
	if cfg.Validate() == nil {
		t.Error("Validate() expected error for unknown log level")
	}
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()

	cfg := &Config{}
	ts, err := cfg.TokenSource(ctx)
	if err != nil || ts != nil {
		t.Fatalf("TokenSource() = %v, %v; want nil, nil", ts, err)
	}

	cfg.AccessToken = "secret"
	ts, err = cfg.TokenSource(ctx)
	if err != nil {
		t.Fatalf("TokenSource() error = %v", err)
	}
	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "secret" {
		t.Errorf("AccessToken = %q", tok.AccessToken)
	}

	cfg = &Config{ServiceAccountFile: filepath.Join(t.TempDir(), "missing.json")}
	if _, err := cfg.TokenSource(ctx); err == nil {
		t.Error("TokenSource() expected error for missing key file")
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("HOME", "/home/sample")
	if got, want := DefaultDir(), filepath.Join("/home/sample", "shopping-samples", "content"); got != want {
		t.Errorf("DefaultDir() = %q, want %q", got, want)
	}
}
