package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/muhammadolammi/resumeworker/internal/metrics"
)

// Sweeper resets résumés whose analysis has been running longer than stuckAfter,
// which happens when a worker dies mid-run, and queues them again.
type Sweeper struct {
	orch       *Orchestrator
	stuckAfter time.Duration
	interval   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewSweeper(orch *Orchestrator, stuckAfter, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		orch:       orch,
		stuckAfter: stuckAfter,
		interval:   interval,
		logger:     logger.Named("sweeper"),
		now:        time.Now,
	}
}

// SweepOnce returns how many résumés were reset to pending.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	ids, err := s.orch.Repo.ResetStuckResumes(ctx, s.now().Add(-s.stuckAfter))
	if err != nil {
		return 0, fmt.Errorf("failed to reset stuck resumes: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	metrics.AddStuckReset(len(ids))
	s.logger.Warn("reset stuck analyses", zap.Int("count", len(ids)))

	if s.orch.Queue == nil {
		return len(ids), nil
	}
	for _, id := range ids {
		if err := s.orch.Enqueue(ctx, id); err != nil {
			s.logger.Error("failed to re-enqueue resume", zap.Stringer("resume_id", id), zap.Error(err))
		}
	}
	return len(ids), nil
}

// Run sweeps on a jittered ticker until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := jitterbug.New(s.interval, &jitterbug.Norm{Stdev: s.interval / 20})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("sweep failed", zap.Error(err))
			}
		}
	}
}
