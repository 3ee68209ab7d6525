package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Evictor drops scan sessions that went quiet; usecase.ScanUseCase satisfies it.
type Evictor interface {
	EvictExpired(ctx context.Context) (int, error)
}

// SessionSweeper periodically releases abandoned scan sessions so their
// devices are not held after a kiosk disappears.
type SessionSweeper struct {
	interval time.Duration
	scans    Evictor
	log      *zerolog.Logger
}

func NewSessionSweeper(interval time.Duration, scans Evictor, logger *zerolog.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	compLog := logger.With().Str("component", "SessionSweeper").Logger()
	return &SessionSweeper{
		interval: interval,
		scans:    scans,
		log:      &compLog,
	}
}

func (w *SessionSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting session sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping session sweeper")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.scans.EvictExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("session sweep failed")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("expired scan sessions evicted")
			}
		}
	}
}
