package jobs

import (
	"context"
	"time"

	"github.com/lingora-app/lingora/internal/infrastructure/ratelimit"
	"github.com/lingora-app/lingora/pkg/logger"
)

// LimiterPruneInterval is how often the in-process limiter map is pruned.
const LimiterPruneInterval = 30 * time.Minute

// LimiterPrune drops rate limiter state for users whose attempts have all
// aged out of the window, keeping the map bounded on long-running nodes.
type LimiterPrune struct {
	limiter *ratelimit.SlidingWindow
	log     *logger.Logger
}

// NewLimiterPrune creates the limiter pruning job.
func NewLimiterPrune(limiter *ratelimit.SlidingWindow, log *logger.Logger) *LimiterPrune {
	return &LimiterPrune{
		limiter: limiter,
		log:     log.With(logger.Component("limiter_prune")),
	}
}

// Name implements scheduler.Job.
func (j *LimiterPrune) Name() string {
	return "rate_limiter_prune"
}

// Description implements scheduler.Job.
func (j *LimiterPrune) Description() string {
	return "drops idle users from the in-process rate limiter"
}

// Run implements scheduler.Job.
func (j *LimiterPrune) Run(_ context.Context) error {
	removed := j.limiter.Prune()
	if removed > 0 {
		j.log.Debug("pruned idle limiter entries", logger.Int("removed", removed))
	}
	return nil
}
