package sched

import (
	"context"
	"time"

	"conference-checkin/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// PoolStats returns total, idle and acquired connection counts.
type PoolStats func() (total, idle, inUse int32)

// PoolStatsReporter publishes database pool gauges on an interval.
type PoolStatsReporter struct {
	interval time.Duration
	stats    PoolStats
	log      *zerolog.Logger
}

func NewPoolStatsReporter(interval time.Duration, stats PoolStats, logger *zerolog.Logger) *PoolStatsReporter {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	compLog := logger.With().Str("component", "PoolStatsReporter").Logger()
	return &PoolStatsReporter{interval: interval, stats: stats, log: &compLog}
}

func (w *PoolStatsReporter) Run(ctx context.Context) error {
	// once on startup, then on every tick
	w.report()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *PoolStatsReporter) report() {
	total, idle, inUse := w.stats()
	metrics.SetDBPoolStats(total, idle, inUse)
	w.log.Trace().Int32("total", total).Int32("idle", idle).Int32("in_use", inUse).Msg("db pool stats")
}
