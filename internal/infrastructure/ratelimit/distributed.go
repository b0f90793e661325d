package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lingora-app/lingora/pkg/circuitbreaker"
	"github.com/lingora-app/lingora/pkg/logger"
)

// Distributed is a Redis-backed limiter for multi-instance deployments.
// It counts attempts in fixed windows keyed by user and window start,
// which approximates the sliding window closely enough for an abuse
// quota. Redis calls run through a circuit breaker; while the breaker is
// open, or on any Redis error, decisions fall back to the process-local
// sliding window so the completion pipeline keeps its guarantees without
// Redis.
type Distributed struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	local   *SlidingWindow
	cfg     Config
	log     *logger.Logger

	now func() time.Time
}

var _ Limiter = (*Distributed)(nil)

// NewDistributed creates a Redis-backed limiter with a local fallback.
func NewDistributed(client *redis.Client, cfg Config, log *logger.Logger) *Distributed {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	d := &Distributed{
		client: client,
		local:  NewSlidingWindow(cfg),
		cfg:    cfg,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
	d.breaker = circuitbreaker.RedisBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("rate limiter circuit state changed",
			logger.Component("ratelimit"),
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})
	return d
}

// Allow increments the user's counter for the current window and reports
// whether the attempt is within quota.
func (d *Distributed) Allow(ctx context.Context, userID string) bool {
	var count int64

	err := d.breaker.Execute(ctx, func(ctx context.Context) error {
		key := d.windowKey(userID)
		pipe := d.client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		// Expire after two windows so the previous window's key survives
		// long enough for debugging but never accumulates.
		pipe.Expire(ctx, key, 2*d.cfg.Window)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		count = incr.Val()
		return nil
	})
	if err != nil {
		d.log.Warn("rate limiter falling back to local window",
			logger.Component("ratelimit"),
			logger.UserID(userID),
			logger.Err(err),
		)
		return d.local.Allow(ctx, userID)
	}

	return count <= int64(d.cfg.MaxAttempts)
}

// windowKey buckets attempts by the start of the current fixed window.
func (d *Distributed) windowKey(userID string) string {
	windowStart := d.now().Truncate(d.cfg.Window).Unix()
	return fmt.Sprintf("ratelimit:completion:%s:%d", userID, windowStart)
}
