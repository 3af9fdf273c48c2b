package sched

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"cgn-operator-search/internal/infra/metrics"
)

type PoolSnapshot struct {
	Max, Total, Idle, InUse int32
}

// PgxPoolStats reads a snapshot from a live pgx pool.
func PgxPoolStats(p *pgxpool.Pool) func() PoolSnapshot {
	return func() PoolSnapshot {
		s := p.Stat()
		return PoolSnapshot{Max: s.MaxConns(), Total: s.TotalConns(), Idle: s.IdleConns(), InUse: s.AcquiredConns()}
	}
}

// PoolStatsReporter periodically publishes connection pool gauges.
type PoolStatsReporter struct {
	interval time.Duration
	stat     func() PoolSnapshot
	log      *zerolog.Logger
}

func NewPoolStatsReporter(interval time.Duration, stat func() PoolSnapshot, logger *zerolog.Logger) *PoolStatsReporter {
	l := logger.With().Str("component", "PoolStatsReporter").Logger()
	return &PoolStatsReporter{
		interval: interval,
		stat:     stat,
		log:      &l,
	}
}

func (w *PoolStatsReporter) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting pool stats reporter")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.report()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping pool stats reporter")
			return ctx.Err()
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *PoolStatsReporter) report() {
	s := w.stat()
	metrics.SetDBPoolStats(s.Max, s.Total, s.Idle, s.InUse)
	if s.Max > 0 && s.InUse >= s.Max {
		w.log.Warn().Int32("max_conns", s.Max).Msg("db pool saturated")
	}
}
