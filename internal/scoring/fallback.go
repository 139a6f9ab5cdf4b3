package scoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muhammadolammi/resumeworker/internal/metrics"
)

// Fallback tries the primary scorer and falls back to the secondary one on any error.
// A failure of the primary never reaches the caller.
type Fallback struct {
	primary   Scorer
	secondary Scorer
	logger    *zap.Logger
}

func WithFallback(primary, secondary Scorer, logger *zap.Logger) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (f *Fallback) Score(ctx context.Context, req Request) (*Result, error) {
	res, err := f.primary.Score(ctx, req)
	if err == nil && res != nil {
		return res, nil
	}

	f.logger.Warn("primary scorer failed, using fallback", zap.Error(err))
	metrics.IncreaseScorerFallback()
	return f.secondary.Score(ctx, req)
}

// New picks the scoring chain for a run. A nil generator means AI review is off.
func New(gen Generator, model string, timeout time.Duration, logger *zap.Logger) Scorer {
	if gen == nil {
		return Deterministic{}
	}
	return WithFallback(NewAIScorer(gen, model, timeout, logger), Deterministic{}, logger)
}
