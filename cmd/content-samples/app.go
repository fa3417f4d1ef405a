package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Sternrassler/merchant-api-samples/internal/config"
	"github.com/Sternrassler/merchant-api-samples/internal/samples"
	"github.com/Sternrassler/merchant-api-samples/internal/tracing"
	"github.com/Sternrassler/merchant-api-samples/pkg/client"
	"github.com/Sternrassler/merchant-api-samples/pkg/content"
	"github.com/Sternrassler/merchant-api-samples/pkg/logging"
	"github.com/Sternrassler/merchant-api-samples/pkg/metrics"
	"github.com/Sternrassler/merchant-api-samples/pkg/present"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds what the commands share: flags, the loaded configuration and the
// resources opened for one invocation.
type app struct {
	printer *present.Printer
	logOut  io.Writer

	configPath string
	endpoint   string
	logLevel   string

	cfg    *config.Config
	runner *samples.Runner
	logger zerolog.Logger

	closers []func(context.Context) error
}

// execute runs one command line. Failures are reported through the printer.
func execute(ctx context.Context, args []string, stdout io.Writer) error {
	a := &app{printer: present.NewPrinter(stdout), logOut: os.Stderr}
	return a.execute(ctx, args, stdout)
}

func (a *app) execute(ctx context.Context, args []string, stdout io.Writer) error {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stdout)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil {
		a.logger.Warn().Err(cerr).Msg("Cleanup failed")
	}
	if err != nil {
		a.printer.Error(err)
	}
	return err
}

// setup loads the configuration and wires logging, tracing, metrics and the
// API client. It runs once, from the first command that needs the API.
func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if a.endpoint != "" {
		cfg.Endpoint = a.endpoint
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	logCfg := cfg.Logging()
	logCfg.Output = a.logOut
	logging.Setup(logCfg)
	a.logger = logging.NewLogger("content-samples")
	a.logger.Debug().Str("file", cfg.File).Uint64("merchant_id", cfg.MerchantID).Bool("mca", cfg.IsMCA).Msg("Configuration loaded")

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		ServiceName: "content-samples",
		Enabled:     cfg.Trace,
		Output:      a.logOut,
	})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, shutdown)

	if cfg.MetricsAddr != "" {
		a.serveMetrics(cfg.MetricsAddr)
	}

	clientCfg := client.DefaultConfig("merchant-api-samples/" + version)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	clientCfg.MerchantID = cfg.MerchantID
	clientCfg.MaxRetries = cfg.MaxRetries
	if clientCfg.TokenSource, err = cfg.TokenSource(ctx); err != nil {
		return err
	}
	if cfg.RedisAddr != "" {
		clientCfg.Redis = a.connectRedis(ctx, cfg.RedisAddr)
	}

	c, err := client.New(clientCfg)
	if err != nil {
		return err
	}

	a.runner = samples.New(content.NewService(c, cfg.MerchantID), a.printer, samples.Options{
		IsMCA:             cfg.IsMCA,
		AccountSampleUser: cfg.AccountSampleUser,
		PageSize:          cfg.PageSize,
	})
	return nil
}

// connectRedis returns nil when Redis is unreachable so the client runs
// without cache and quota tracking.
func (a *app) connectRedis(ctx context.Context, addr string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.logger.Warn().Err(err).Str("addr", addr).Msg("Redis unavailable, continuing without cache")
		_ = rdb.Close()
		return nil
	}
	a.logger.Debug().Str("addr", addr).Msg("Connected to Redis")
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	return rdb
}

func (a *app) serveMetrics(addr string) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := metrics.Serve(ctx, addr, a.logger); err != nil {
			a.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	a.closers = append(a.closers, func(context.Context) error {
		cancel()
		<-done
		return nil
	})
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

// withRunner adapts a sample to a cobra RunE.
func (a *app) withRunner(fn func(ctx context.Context, r *samples.Runner, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.setup(cmd.Context()); err != nil {
			return err
		}
		return fn(cmd.Context(), a.runner, args)
	}
}

// accountArg parses the optional account ID argument, defaulting to the
// configured merchant.
func accountArg(r *samples.Runner, args []string) (uint64, error) {
	if len(args) == 0 {
		return r.MerchantID(), nil
	}
	return content.ParseID(args[0])
}
