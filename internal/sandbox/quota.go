package sandbox

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/merchant-api-samples/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

// QuotaConfig describes a fixed request window.
type QuotaConfig struct {
	Limit  int
	Window time.Duration
}

type quota struct {
	mu      sync.Mutex
	cfg     QuotaConfig
	now     func() time.Time
	used    int
	resetAt time.Time
}

func newQuota(cfg QuotaConfig) *quota {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &quota{cfg: cfg, now: time.Now}
}

// take consumes one request and returns what is left and when the window resets.
func (q *quota) take() (remaining int, reset time.Duration, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	if !now.Before(q.resetAt) {
		q.used = 0
		q.resetAt = now.Add(q.cfg.Window)
	}
	reset = q.resetAt.Sub(now)
	if q.used >= q.cfg.Limit {
		return 0, reset, false
	}
	q.used++
	return q.cfg.Limit - q.used, reset, true
}

func (q *quota) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		remaining, reset, ok := q.take()
		secs := strconv.Itoa(int(reset.Round(time.Second).Seconds()))
		c.Header(ratelimit.HeaderRemaining, strconv.Itoa(remaining))
		c.Header(ratelimit.HeaderReset, secs)
		if !ok {
			c.Header(ratelimit.HeaderRetryAfter, secs)
			respondError(c, &Error{
				Status:  http.StatusTooManyRequests,
				Reason:  "quotaExceeded",
				Message: "Request quota exhausted.",
			})
			return
		}
		c.Next()
	}
}
