// Package client is the merchant API transport: authentication, the shared
// quota gate, a read-only response cache, opt-in retries and structured errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/merchant-api-samples/pkg/cache"
	"github.com/Sternrassler/merchant-api-samples/pkg/logging"
	"github.com/Sternrassler/merchant-api-samples/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merchant_requests_total",
		Help: "Total merchant API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "merchant_request_duration_seconds",
		Help:    "Merchant API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merchant_errors_total",
		Help: "Total merchant API errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the production Content API v2.1 root.
const DefaultBaseURL = "https://shoppingcontent.googleapis.com/content/v2.1"

// cacheableResources are the collections whose GET responses may be cached.
var cacheableResources = map[string]bool{
	"accounts":         true,
	"accountstatuses":  true,
	"accounttax":       true,
	"shippingsettings": true,
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root; request paths are joined onto it.
	BaseURL string

	// UserAgent is sent on every request.
	UserAgent string

	// MerchantID scopes cache keys.
	MerchantID uint64

	// TokenSource authenticates requests. Nil sends them unauthenticated.
	TokenSource oauth2.TokenSource

	// Redis enables the response cache and the shared quota gate. Optional.
	Redis *redis.Client

	// Transport is the base round tripper (default http.DefaultTransport).
	Transport http.RoundTripper

	// MaxRetries is the number of retries after the first attempt. 0 disables retries.
	MaxRetries     int
	InitialBackoff time.Duration

	Timeout time.Duration
}

// DefaultConfig returns a non-retrying configuration against the production API.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// Client sends requests to the merchant API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	quota      *ratelimit.Tracker
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// New creates a client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	logger := logging.NewLogger("merchant-client")

	var transport http.RoundTripper = otelhttp.NewTransport(cfg.Transport)
	if cfg.TokenSource != nil {
		transport = &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, cfg.TokenSource),
			Base:   transport,
		}
	}

	c := &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		baseURL:    base,
		config:     cfg,
		logger:     logger,
	}
	if cfg.Redis != nil {
		c.quota = ratelimit.NewTracker(cfg.Redis, logger)
		c.cache = cache.NewManager(cfg.Redis)
	}
	return c, nil
}

// URL resolves an API path against the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Do sends req through the quota gate, cache and retry pipeline.
// Any status >= 400 is returned as an *APIError and the response is discarded.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	rel := c.relativePath(req.URL.Path)
	endpoint := endpointLabel(rel)

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if c.quota != nil {
		allowed, err := c.quota.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Quota check failed, sending anyway")
		} else if !allowed {
			requestsTotal.WithLabelValues(endpoint, "quota_blocked").Inc()
			return nil, fmt.Errorf("%s %s: %w", req.Method, rel, ErrQuotaExhausted)
		}
	}

	var (
		cacheKey    cache.CacheKey
		cachedEntry *cache.CacheEntry
	)
	cacheable := c.cache != nil && req.Method == http.MethodGet && isCacheable(rel)
	if cacheable {
		cacheKey = cache.CacheKey{Endpoint: rel, QueryParams: req.URL.Query(), MerchantID: c.config.MerchantID}
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", rel).Msg("Cache get error")
		}
		if entry != nil {
			cachedEntry = entry
			cache.AddConditionalHeaders(req, entry)
			c.logger.Debug().Str("endpoint", rel).Str("etag", entry.ETag).Msg("Making conditional request")
		}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("endpoint", rel).Str("method", req.Method).Msg("Executing request")

	var (
		resp    *http.Response
		attempt int
	)
	retryCfg := RetryConfig{MaxAttempts: c.config.MaxRetries + 1, InitialBackoff: c.config.InitialBackoff}

	err := retryWithBackoff(ctx, retryCfg, func() (ErrorClass, error) {
		attempt++
		send := req
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return ErrorClassClient, fmt.Errorf("rewind request body: %w", err)
			}
			send = req.Clone(ctx)
			send.Body = body
		}

		var reqErr error
		resp, reqErr = c.httpClient.Do(send)
		if reqErr != nil {
			class := classifyTransportError(reqErr)
			errorsTotal.WithLabelValues(string(class)).Inc()
			requestsTotal.WithLabelValues(endpoint, string(class)+"_error").Inc()
			c.logger.Error().Err(reqErr).Str("endpoint", rel).Str("error_class", string(class)).Msg("HTTP request failed")
			return class, &APIError{ErrorClass: class, Message: "request failed", Err: reqErr}
		}

		if c.quota != nil {
			if resp.StatusCode == http.StatusTooManyRequests {
				if err := c.quota.RecordExhausted(ctx, resp.Header); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to record exhausted quota")
				}
			} else if err := c.quota.UpdateFromHeaders(ctx, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update quota from headers")
			}
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			class := classifyStatus(resp.StatusCode)
			errorsTotal.WithLabelValues(string(class)).Inc()
			apiErr := parseAPIError(resp, class)
			c.logger.Warn().
				Str("endpoint", rel).
				Int("status_code", resp.StatusCode).
				Str("error_class", string(class)).
				Str("reason", apiErr.Reason).
				Msg("Request rejected")
			return class, apiErr
		}
		return "", nil
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		resp.Body.Close()
		cache.ConditionalRequests.Inc()
		c.logger.Debug().Str("endpoint", rel).Msg("304 Not Modified, serving cached response")
		if err := c.cache.Refresh(ctx, cacheKey, cache.ExpiresFromHeaders(resp.Header)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		return cachedEntry.ToResponse(req), nil
	}

	if cacheable && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().Str("endpoint", rel).Dur("ttl", entry.TTL()).Msg("Cached response")
		}
	}

	if c.cache != nil && req.Method != http.MethodGet {
		prefix := invalidationPrefix(rel)
		if n, err := c.cache.Invalidate(ctx, prefix); err != nil {
			c.logger.Warn().Err(err).Str("prefix", prefix).Msg("Cache invalidation failed")
		} else if n > 0 {
			c.logger.Debug().Str("prefix", prefix).Int("deleted", n).Msg("Invalidated cached responses")
		}
	}

	return resp, nil
}

// GetJSON issues a GET for path and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path, query), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

// SendJSON issues a request with in encoded as the JSON body (nil sends none)
// and decodes the response into out (nil discards it).
func (c *Client) SendJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, nil), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) relativePath(p string) string {
	return strings.Trim(strings.TrimPrefix(p, c.baseURL.Path), "/")
}

func classifyTransportError(err error) ErrorClass {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return ErrorClassAuth
	}
	return ErrorClassNetwork
}

// segments splits a relative path, dropping a leading numeric merchant ID.
func segments(rel string) (merchant string, rest []string) {
	parts := strings.Split(rel, "/")
	if len(parts) > 0 {
		if _, err := strconv.ParseUint(parts[0], 10, 64); err == nil {
			return parts[0], parts[1:]
		}
	}
	return "", parts
}

// endpointLabel keeps resource and action names and drops IDs, so
// "123/orders/abc/acknowledge" becomes "orders/acknowledge".
func endpointLabel(rel string) string {
	_, rest := segments(rel)
	var names []string
	for i, s := range rest {
		if i%2 == 0 {
			names = append(names, s)
		}
	}
	if len(names) == 0 {
		return "/"
	}
	return strings.Join(names, "/")
}

func isCacheable(rel string) bool {
	merchant, rest := segments(rel)
	return merchant != "" && len(rest) > 0 && cacheableResources[rest[0]]
}

// invalidationPrefix is the collection touched by a mutation on rel.
// Paths outside a merchant (accounts/batch) flush the whole cache.
func invalidationPrefix(rel string) string {
	merchant, rest := segments(rel)
	if merchant == "" || len(rest) == 0 {
		return ""
	}
	return merchant + "/" + rest[0]
}
