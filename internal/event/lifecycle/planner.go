// SPDX-License-Identifier: MIT

package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/hibouclub/eventengine/internal/event/model"
	xglog "github.com/hibouclub/eventengine/internal/log"
)

// PlannedStart schedules one event kind at a fixed local time of day.
type PlannedStart struct {
	Kind model.EventKind
	At   string // "HH:MM", local time
}

// Planner fires scheduled daily event starts. How a kind is launched
// (payload, content, channel naming) is the Launch callback's business;
// the planner only owns the timing.
type Planner struct {
	Schedule []PlannedStart
	Launch   func(ctx context.Context, kind model.EventKind) error
	Clock    func() time.Time
}

// NextOccurrence returns the next time of day "HH:MM" strictly after now.
func NextOccurrence(at string, now time.Time) (time.Time, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(at, "%d:%d", &hh, &mm); err != nil {
		return time.Time{}, fmt.Errorf("planner: bad time %q: %w", at, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return time.Time{}, fmt.Errorf("planner: bad time %q", at)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

// Run arms one goroutine-free wait per schedule slot in turn, firing each
// launch at its next occurrence until ctx is cancelled.
func (p *Planner) Run(ctx context.Context) {
	logger := xglog.WithComponent("planner")
	if len(p.Schedule) == 0 || p.Launch == nil {
		return
	}
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}

	type slot struct {
		plan PlannedStart
		next time.Time
	}

	slots := make([]slot, 0, len(p.Schedule))
	now := clock()
	for _, plan := range p.Schedule {
		next, err := NextOccurrence(plan.At, now)
		if err != nil {
			logger.Error().Err(err).Str("kind", string(plan.Kind)).Msg("schedule entry rejected")
			continue
		}
		slots = append(slots, slot{plan: plan, next: next})
		logger.Info().Str("kind", string(plan.Kind)).Time("next", next).Msg("event scheduled")
	}

	for len(slots) > 0 {
		// Earliest slot first.
		min := 0
		for i := range slots {
			if slots[i].next.Before(slots[min].next) {
				min = i
			}
		}

		timer := time.NewTimer(time.Until(slots[min].next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		plan := slots[min].plan
		if err := p.Launch(ctx, plan.Kind); err != nil {
			logger.Error().Err(err).Str("kind", string(plan.Kind)).Msg("scheduled launch failed")
		}

		next, err := NextOccurrence(plan.At, clock())
		if err != nil {
			slots = append(slots[:min], slots[min+1:]...)
			continue
		}
		slots[min].next = next
	}
}
