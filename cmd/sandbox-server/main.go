// Command sandbox-server serves the in-memory merchant API sandbox so the
// samples can run without production credentials.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Sternrassler/merchant-api-samples/internal/sandbox"
	"github.com/Sternrassler/merchant-api-samples/pkg/logging"
	"github.com/Sternrassler/merchant-api-samples/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type serverConfig struct {
	Port        string
	MerchantID  uint64
	MCA         bool
	QuotaLimit  int
	QuotaWindow time.Duration
	CacheMaxAge time.Duration
	LogLevel    string
}

func main() {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sandbox-server: %v\n", err)
		os.Exit(2)
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logging.Setup(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg serverConfig) error {
	router, err := newRouter(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Uint64("merchant_id", cfg.MerchantID).
			Bool("mca", cfg.MCA).
			Str("base_path", sandbox.BasePath).
			Msg("Starting merchant sandbox")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// newRouter seeds a demo merchant and adds /metrics to the sandbox routes.
func newRouter(cfg serverConfig) (*gin.Engine, error) {
	store := sandbox.NewStore()
	if err := store.SeedDemo(cfg.MerchantID, cfg.MCA); err != nil {
		return nil, fmt.Errorf("seed sandbox: %w", err)
	}

	router := sandbox.NewRouter(store, sandbox.RouterConfig{
		Logger:      logging.NewLogger("sandbox"),
		Quota:       sandbox.QuotaConfig{Limit: cfg.QuotaLimit, Window: cfg.QuotaWindow},
		CacheMaxAge: cfg.CacheMaxAge,
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	return router, nil
}

func loadConfig(getenv func(string) string) (serverConfig, error) {
	cfg := serverConfig{
		Port:     getEnv(getenv, "PORT", "8080"),
		LogLevel: getEnv(getenv, "LOG_LEVEL", "info"),
	}

	var err error
	if cfg.MerchantID, err = strconv.ParseUint(getEnv(getenv, "MERCHANT_ID", "123456"), 10, 64); err != nil || cfg.MerchantID == 0 {
		return cfg, fmt.Errorf("invalid MERCHANT_ID %q", getenv("MERCHANT_ID"))
	}
	if cfg.MCA, err = strconv.ParseBool(getEnv(getenv, "MCA", "true")); err != nil {
		return cfg, fmt.Errorf("invalid MCA: %w", err)
	}
	if cfg.QuotaLimit, err = strconv.Atoi(getEnv(getenv, "QUOTA_LIMIT", "0")); err != nil || cfg.QuotaLimit < 0 {
		return cfg, fmt.Errorf("invalid QUOTA_LIMIT %q", getenv("QUOTA_LIMIT"))
	}
	if cfg.QuotaWindow, err = time.ParseDuration(getEnv(getenv, "QUOTA_WINDOW", "1m")); err != nil {
		return cfg, fmt.Errorf("invalid QUOTA_WINDOW: %w", err)
	}
	if cfg.CacheMaxAge, err = time.ParseDuration(getEnv(getenv, "CACHE_MAX_AGE", "5m")); err != nil {
		return cfg, fmt.Errorf("invalid CACHE_MAX_AGE: %w", err)
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getEnv(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}
