package service

import (
	"context"
	"time"

	"storefront-catalog/internal/repository"

	"go.uber.org/zap"
)

// ReviewSweeper removes reviews left behind when a product delete succeeded
// but its review cascade did not.
type ReviewSweeper struct {
	reviews  repository.ReviewRepository
	interval time.Duration
	logger   *zap.Logger
}

func NewReviewSweeper(reviews repository.ReviewRepository, interval time.Duration, logger *zap.Logger) *ReviewSweeper {
	return &ReviewSweeper{reviews: reviews, interval: interval, logger: logger}
}

// Sweep runs one pass and reports how many reviews were removed.
func (s *ReviewSweeper) Sweep(ctx context.Context) (int64, error) {
	deleted, err := s.reviews.DeleteOrphans(ctx)
	if err != nil {
		s.logger.Error("Orphan review sweep failed", zap.Error(err))
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("Removed orphaned reviews", zap.Int64("count", deleted))
	}
	return deleted, nil
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables the sweeper.
func (s *ReviewSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Orphan review sweep disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Failures are logged by Sweep; the next tick retries.
			_, _ = s.Sweep(ctx)
		}
	}
}
