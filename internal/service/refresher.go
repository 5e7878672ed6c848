package service

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/swing-terminal/backend/internal/config"
)

const defaultSweepInterval = 15 * time.Minute

var sweepRuns = promauto.NewCounter(prometheus.CounterOpts{
	Name: "fyers_token_sweep_runs_total",
	Help: "Background token-refresh sweep iterations.",
})

// tokenLifecycle is the narrow surface the sweeper needs from the
// token service.
type tokenLifecycle interface {
	IsExpired(ctx context.Context) bool
	RefreshIfNeeded(ctx context.Context) bool
}

// RefreshSweeper periodically checks the current token and refreshes
// it before expiry, independently of request traffic.
type RefreshSweeper struct {
	tokens   tokenLifecycle
	interval time.Duration
}

func NewRefreshSweeper(tokens tokenLifecycle, cfg config.RefreshConfig) *RefreshSweeper {
	interval, err := time.ParseDuration(cfg.SweepInterval)
	if err != nil || interval <= 0 {
		interval = defaultSweepInterval
	}

	return &RefreshSweeper{
		tokens:   tokens,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled, sweeping once at startup and then
// once per interval. An in-flight iteration is abandoned at its next
// blocking point when the context is cancelled.
func (s *RefreshSweeper) Run(ctx context.Context) {
	log.Printf("[RefreshSweeper] Starting, interval %s", s.interval)

	// A token that expired while the process was down gets refreshed
	// right away instead of after the first full interval.
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[RefreshSweeper] Stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RefreshSweeper) sweep(ctx context.Context) {
	sweepRuns.Inc()

	if !s.tokens.IsExpired(ctx) {
		return
	}

	if s.tokens.RefreshIfNeeded(ctx) {
		log.Printf("[RefreshSweeper] Token refreshed")
	} else {
		log.Printf("[RefreshSweeper] Token refresh failed; re-authentication may be required")
	}
}
