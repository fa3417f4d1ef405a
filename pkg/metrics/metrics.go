// Package metrics exposes the Prometheus metrics of this module.
// Metrics are declared with promauto next to the code that updates them
// (client, cache, ratelimit, pagination, lifecycle); this package serves them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is where every promauto metric in this module is registered.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Catalogue
//
// Quota (pkg/ratelimit):
//   - merchant_quota_remaining (Gauge): requests left in the current quota window
//   - merchant_quota_blocks_total (Counter): requests refused while the quota was critical
//   - merchant_quota_throttles_total (Counter): requests delayed while the quota was low
//
// Cache (pkg/cache):
//   - merchant_cache_hits_total (Counter)
//   - merchant_cache_misses_total (Counter)
//   - merchant_cache_size_bytes (Gauge): bytes written to the cache
//   - merchant_cache_304_responses_total (Counter): 304 Not Modified answers served from the cache
//   - merchant_cache_errors_total{operation} (Counter)
//
// Requests (pkg/client):
//   - merchant_requests_total{endpoint, status} (Counter)
//   - merchant_request_duration_seconds{endpoint} (Histogram)
//   - merchant_errors_total{class} (Counter): client, server, rate_limit, network, auth
//   - merchant_retries_total{error_class} (Counter)
//   - merchant_retry_backoff_seconds{error_class} (Histogram)
//   - merchant_retry_exhausted_total{error_class} (Counter)
//
// Pagination (pkg/pagination):
//   - merchant_pages_fetched_total (Counter)
//   - merchant_page_items_total (Counter)
//   - merchant_page_walk_errors_total (Counter)
//
// Lifecycle (pkg/lifecycle):
//   - merchant_lifecycle_steps_total{step, outcome} (Counter)
//
// Example queries:
//
//	# Cache hit rate
//	sum(rate(merchant_cache_hits_total[5m])) /
//	(sum(rate(merchant_cache_hits_total[5m])) + sum(rate(merchant_cache_misses_total[5m])))
//
//	# Failed lifecycle steps
//	sum by (step) (merchant_lifecycle_steps_total{outcome="failed"})
//
//	# P95 request latency
//	histogram_quantile(0.95, rate(merchant_request_duration_seconds_bucket[5m]))
