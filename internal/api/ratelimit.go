package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/qpcr/pkg/config"
	"github.com/wonny/qpcr/pkg/redis"
)

// Limiter decides whether a client may make another request
type Limiter interface {
	Allow(ctx context.Context, client string) (bool, error)
}

// NewLimiter returns the limiter for the configured budget:
// Redis sliding window when Redis is up (shared by all replicas),
// in-process token buckets otherwise. nil when API_RATE_LIMIT is 0.
func NewLimiter(cfg *config.Config, rdb *redis.Client) Limiter {
	if cfg.API.RateLimit <= 0 {
		return nil
	}
	if rdb != nil && rdb.Enabled() {
		return &redisLimiter{
			limiter: redis.NewRateLimiter(rdb, "qpcr"),
			cfg:     redis.APIRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
		}
	}
	return newLocalLimiter(cfg.API.RateLimit, cfg.API.RateBurst)
}

type redisLimiter struct {
	limiter *redis.RateLimiter
	cfg     redis.RateLimitConfig
}

func (l *redisLimiter) Allow(ctx context.Context, client string) (bool, error) {
	allowed, _, err := l.limiter.Allow(ctx, l.cfg.ForClient(client))
	return allowed, err
}

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepSize = 1024
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter keeps one token bucket per client
type localLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
}

func newLocalLimiter(rps float64, burst int) *localLimiter {
	return &localLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

func (l *localLimiter) Allow(_ context.Context, client string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, ok := l.clients[client]
	if !ok {
		if len(l.clients) >= limiterSweepSize {
			l.sweep(now)
		}
		c = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[client] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1), nil
}

// sweep drops idle clients. Caller holds mu.
func (l *localLimiter) sweep(now time.Time) {
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(l.clients, k)
		}
	}
}
