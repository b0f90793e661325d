// Package jobs contains the scheduled maintenance jobs for Lingora.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/lingora-app/lingora/internal/domain/session"
	"github.com/lingora-app/lingora/pkg/logger"
	"github.com/lingora-app/lingora/pkg/retry"
)

// TokenGCInterval is how often expired session tokens are swept.
const TokenGCInterval = 15 * time.Minute

// TokenGC deletes session tokens older than the retention window,
// consumed or not. Tokens that were never consumed (abandoned sessions)
// only ever leave the store through this sweep.
type TokenGC struct {
	store   session.Store
	retrier *retry.Retrier
	log     *logger.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewTokenGC creates the token garbage collection job.
func NewTokenGC(store session.Store, log *logger.Logger) *TokenGC {
	return &TokenGC{
		store:   store,
		retrier: retry.DatabaseRetrier(),
		log:     log.With(logger.Component("token_gc")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Name implements scheduler.Job.
func (j *TokenGC) Name() string {
	return "session_token_gc"
}

// Description implements scheduler.Job.
func (j *TokenGC) Description() string {
	return "deletes session tokens past the retention window"
}

// Run implements scheduler.Job.
func (j *TokenGC) Run(ctx context.Context) error {
	cutoff := j.now().Add(-session.TokenRetention)

	var removed int
	err := j.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		removed, err = j.store.DeleteExpired(ctx, cutoff)
		return err
	})
	if err != nil {
		return fmt.Errorf("token gc sweep failed: %w", err)
	}

	if removed > 0 {
		j.log.Info("swept expired session tokens",
			logger.Int("removed", removed),
			logger.Time("cutoff", cutoff),
		)
	}

	return nil
}
