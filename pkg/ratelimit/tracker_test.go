package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis connects to a local Redis and skips when none is running.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

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

func TestUpdateFromHeaders_InvalidHeaders(t *testing.T) {
	// No Redis: every case below must return before touching storage.
	tracker := NewTracker(nil, zerolog.Nop())

	tests := []struct {
		name        string
		remain      string
		reset       string
		shouldError bool
	}{
		{name: "missing remaining header", remain: "", reset: "60", shouldError: false},
		{name: "both headers missing", remain: "", reset: "", shouldError: false},
		{name: "invalid remaining header", remain: "lots", reset: "60", shouldError: true},
		{name: "invalid reset header", remain: "100", reset: "soon", shouldError: true},
		{name: "reset header missing", remain: "100", reset: "", shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.remain != "" {
				headers.Set(HeaderRemaining, tt.remain)
			}
			if tt.reset != "" {
				headers.Set(HeaderReset, tt.reset)
			}

			err := tracker.UpdateFromHeaders(context.Background(), headers)
			if tt.shouldError && err == nil {
				t.Error("Expected error but got nil")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestTracker_GetState_Default(t *testing.T) {
	tracker := NewTracker(setupTestRedis(t), zerolog.Nop())

	state, err := tracker.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 100 || !state.IsHealthy {
		t.Errorf("default state = %+v, want healthy with 100 remaining", state)
	}
}

func TestTracker_UpdateAndGet(t *testing.T) {
	tracker := NewTracker(setupTestRedis(t), zerolog.Nop())
	ctx := context.Background()

	headers := http.Header{}
	headers.Set(HeaderRemaining, "42")
	headers.Set(HeaderReset, "120")
	if err := tracker.UpdateFromHeaders(ctx, headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 42 {
		t.Errorf("Remaining = %d, want 42", state.Remaining)
	}
	if state.IsHealthy {
		t.Error("42 remaining should not be healthy")
	}
	if d := state.TimeUntilReset(); d < 110*time.Second || d > 121*time.Second {
		t.Errorf("TimeUntilReset() = %v, want about 120s", d)
	}
}

func TestTracker_ShouldAllowRequest(t *testing.T) {
	redisClient := setupTestRedis(t)
	tracker := NewTracker(redisClient, zerolog.Nop())
	tracker.SetThrottleDelay(10 * time.Millisecond)
	ctx := context.Background()

	seed := func(remaining int) {
		now := time.Now()
		lastUpdate, _ := json.Marshal(now)
		redisClient.Set(ctx, RedisKeyRemaining, remaining, 0)
		redisClient.Set(ctx, RedisKeyResetTimestamp, now.Add(time.Minute).Unix(), 0)
		redisClient.Set(ctx, RedisKeyLastUpdate, lastUpdate, 0)
	}

	tests := []struct {
		name      string
		remaining int
		allowed   bool
	}{
		{name: "healthy", remaining: 100, allowed: true},
		{name: "warning is throttled but allowed", remaining: 10, allowed: true},
		{name: "critical is blocked", remaining: 2, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed(tt.remaining)
			allowed, err := tracker.ShouldAllowRequest(ctx)
			if err != nil {
				t.Fatalf("ShouldAllowRequest() error = %v", err)
			}
			if allowed != tt.allowed {
				t.Errorf("ShouldAllowRequest() = %v, want %v", allowed, tt.allowed)
			}
		})
	}
}

func TestTracker_RecordExhausted(t *testing.T) {
	tracker := NewTracker(setupTestRedis(t), zerolog.Nop())
	ctx := context.Background()

	headers := http.Header{}
	headers.Set(HeaderRetryAfter, "30")
	if err := tracker.RecordExhausted(ctx, headers); err != nil {
		t.Fatalf("RecordExhausted() error = %v", err)
	}

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Error("request should be blocked after the quota was exhausted")
	}
}
