package worker

import (
	"context"
	"time"

	"quickbook/internal/models"

	"github.com/rs/zerolog"
)

// Completer flips finished reservations to completed.
type Completer interface {
	CompleteExpired(ctx context.Context, now time.Time) (int, error)
}

// CompletionSweeper periodically completes reservations whose end has passed.
type CompletionSweeper struct {
	completer Completer
	interval  time.Duration
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewCompletionSweeper(completer Completer, interval time.Duration, logger *zerolog.Logger) *CompletionSweeper {
	if interval <= 0 {
		interval = models.CompletionInterval
	}
	return &CompletionSweeper{
		completer: completer,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Start sweeps once immediately, then on every tick until ctx is done.
func (s *CompletionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass and returns how many reservations changed.
func (s *CompletionSweeper) Sweep(ctx context.Context) int {
	n, err := s.completer.CompleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error().Err(err).Msg("completion sweep failed")
		return 0
	}
	if n > 0 {
		s.logger.Debug().Int("completed", n).Msg("completion sweep")
	}
	return n
}
