// SPDX-License-Identifier: MIT

package lifecycle

import (
	"context"
	"time"

	"github.com/hibouclub/eventengine/internal/event/model"
	xglog "github.com/hibouclub/eventengine/internal/log"
	"github.com/hibouclub/eventengine/internal/metrics"
)

// SweeperConfig defines the sweep cadence.
type SweeperConfig struct {
	Interval time.Duration
}

// Sweeper terminates events whose end time has passed. In-process expiry
// timers do not survive a restart, so the sweep is the authoritative
// answer to "is this event over": it runs once at startup and then on a
// fixed interval.
type Sweeper struct {
	Ctrl *Controller
	Conf SweeperConfig
}

// Run performs an immediate sweep, then loops on a ticker until ctx is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	logger := xglog.WithComponent("sweeper")

	s.SweepOnce(ctx)

	if s.Conf.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.Conf.Interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", s.Conf.Interval).Msg("expiry sweeper started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce performs exactly one sweep pass. Deterministic and suitable
// for unit testing.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	logger := xglog.WithComponent("sweeper")

	events, err := s.Ctrl.Store.ListEvents(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("sweep scan failed")
		return
	}

	now := s.Ctrl.now()
	swept := 0
	for _, ev := range events {
		if !ev.Expired(now) {
			continue
		}
		if err := s.Ctrl.End(ctx, ev.ID, model.ReasonExpired); err != nil {
			logger.Warn().Err(err).Str("event_id", ev.ID).Msg("sweep end failed")
			continue
		}
		metrics.IncSweepRemoved()
		swept++
	}

	if swept > 0 {
		logger.Info().Int("count", swept).Msg("sweep terminated expired events")
	}
}
