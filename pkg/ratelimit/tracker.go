package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	quotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "merchant_quota_remaining",
		Help: "Requests remaining in the current merchant API quota window",
	})

	quotaBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "merchant_quota_blocks_total",
		Help: "Total number of requests refused because the quota was critical",
	})

	quotaThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "merchant_quota_throttles_total",
		Help: "Total number of requests delayed because the quota was low",
	})
)

// DefaultThrottleDelay is the pause applied in the warning band.
const DefaultThrottleDelay = time.Second

// Tracker keeps the shared quota state in Redis and decides whether a request may go out.
type Tracker struct {
	redis         *redis.Client
	logger        zerolog.Logger
	throttleDelay time.Duration
}

// NewTracker creates a new quota tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:         redisClient,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
	}
}

// SetThrottleDelay changes the warning-band pause (zero disables it).
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// GetState loads the quota state, falling back to DefaultState when nothing was recorded yet.
func (t *Tracker) GetState(ctx context.Context) (*QuotaState, error) {
	lastUpdateRaw, err := t.redis.Get(ctx, RedisKeyLastUpdate).Bytes()
	if errors.Is(err, redis.Nil) {
		t.logger.Debug().Msg("No quota state recorded, assuming healthy")
		return DefaultState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	remaining, err := t.redis.Get(ctx, RedisKeyRemaining).Int()
	if err != nil {
		return nil, fmt.Errorf("get remaining quota: %w", err)
	}

	resetUnix, err := t.redis.Get(ctx, RedisKeyResetTimestamp).Int64()
	if err != nil {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	var lastUpdate time.Time
	if err := json.Unmarshal(lastUpdateRaw, &lastUpdate); err != nil {
		return nil, fmt.Errorf("parse last update: %w", err)
	}

	state := &QuotaState{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetUnix, 0),
		LastUpdate: lastUpdate,
	}
	state.UpdateHealth()
	return state, nil
}

// UpdateFromHeaders records the quota reported by a response.
// Responses without quota headers leave the state untouched.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remaining, err := parseIntHeader(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}
	resetSeconds, err := parseIntHeader(resetStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	return t.store(ctx, remaining, time.Duration(resetSeconds)*time.Second)
}

// RecordExhausted marks the quota as used up, typically after a 429 response.
// The Retry-After header, when present, sets the window; otherwise one minute is assumed.
func (t *Tracker) RecordExhausted(ctx context.Context, headers http.Header) error {
	window := time.Minute
	if raw := headers.Get(HeaderRetryAfter); raw != "" {
		if secs, err := parseIntHeader(raw); err == nil && secs > 0 {
			window = time.Duration(secs) * time.Second
		}
	}
	return t.store(ctx, 0, window)
}

func (t *Tracker) store(ctx context.Context, remaining int, window time.Duration) error {
	now := time.Now()
	state := &QuotaState{
		Remaining:  remaining,
		ResetAt:    now.Add(window),
		LastUpdate: now,
	}
	state.UpdateHealth()

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyRemaining, remaining, 0)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), 0)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store quota state in redis: %w", err)
	}

	quotaRemaining.Set(float64(remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("quota_remaining", remaining).
			Time("reset_at", state.ResetAt).
			Msg("Quota critical, requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("quota_remaining", remaining).
			Time("reset_at", state.ResetAt).
			Msg("Quota low, requests will be throttled")
	default:
		t.logger.Debug().
			Int("quota_remaining", remaining).
			Bool("is_healthy", state.IsHealthy).
			Msg("Quota state updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now.
// In the warning band it waits for the throttle delay first, honouring ctx.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get quota state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("quota_remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Quota critical, blocking request")
		quotaBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() && t.throttleDelay > 0 {
		t.logger.Warn().
			Int("quota_remaining", state.Remaining).
			Dur("delay", t.throttleDelay).
			Msg("Quota low, throttling request")
		quotaThrottlesTotal.Inc()

		timer := time.NewTimer(t.throttleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}

func parseIntHeader(value string) (int, error) {
	return strconv.Atoi(value)
}
