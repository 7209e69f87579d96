package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/smartbin/smartbin-backend/internal/auth/mfa"
	"github.com/smartbin/smartbin-backend/internal/pkg/metrics"
)

// ReadingPruner deletes readings older than a cutoff.
type ReadingPruner interface {
	DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupService handles background cleanup tasks: expired pending TOTP
// secrets and, when retention is configured, old readings.
type CleanupService struct {
	pending       *mfa.PendingSecrets
	pruner        ReadingPruner
	log           *zap.Logger
	interval      time.Duration
	retentionDays int
	stopCh        chan struct{}
}

// NewCleanupService creates a new cleanup service. retentionDays of 0
// disables reading pruning.
func NewCleanupService(pending *mfa.PendingSecrets, pruner ReadingPruner, log *zap.Logger, interval time.Duration, retentionDays int) *CleanupService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CleanupService{
		pending:       pending,
		pruner:        pruner,
		log:           log,
		interval:      interval,
		retentionDays: retentionDays,
		stopCh:        make(chan struct{}),
	}
}

// Start starts the cleanup background goroutine
func (s *CleanupService) Start(ctx context.Context) {
	s.log.Info("starting cleanup service", zap.Duration("interval", s.interval))

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// Run immediately on start
		s.runCleanup(ctx)

		for {
			select {
			case <-ticker.C:
				s.runCleanup(ctx)
			case <-s.stopCh:
				s.log.Info("cleanup service stopped")
				return
			case <-ctx.Done():
				s.log.Info("cleanup service context cancelled")
				return
			}
		}
	}()
}

// Stop stops the cleanup service
func (s *CleanupService) Stop() {
	close(s.stopCh)
}

func (s *CleanupService) runCleanup(ctx context.Context) {
	evicted := s.pending.Evict()
	metrics.PendingMFASecrets.Set(float64(s.pending.Len()))
	if evicted > 0 {
		s.log.Info("evicted expired pending mfa secrets", zap.Int("count", evicted))
	}

	if s.retentionDays <= 0 || s.pruner == nil {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.pruner.DeleteReadingsBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("reading retention sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.log.Info("pruned old readings",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
}
