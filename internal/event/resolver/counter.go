// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibouclub/eventengine/internal/event/model"
	"github.com/hibouclub/eventengine/internal/event/store"
	"github.com/hibouclub/eventengine/internal/metrics"
)

// Increment processes one counter signal. The first signal whose count
// equals the target claims the write-once winner slot and ends the event;
// everything after that is a no-op.
func (r *Resolver) Increment(ctx context.Context, eventID, userID, username string, count int) (won bool, err error) {
	ev, err := r.Store.UpdateEvent(ctx, eventID, func(ev *model.ActiveEvent) error {
		c := ev.Counter
		if c == nil {
			return fmt.Errorf("event %s has no counter payload", ev.ID)
		}
		if c.WinnerID != "" {
			return nil
		}
		if count != c.TargetCount {
			return nil
		}
		c.WinnerID = userID
		c.WinnerName = username
		won = true
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !won {
		return false, nil
	}

	// Counter rewards are fixed, not rank-decayed: there is only one winner.
	r.credit(ctx, ev, userID, username, ev.Counter.XPReward)
	metrics.AddXPAwarded("counter", ev.Counter.XPReward)

	if ev.ChannelID != "" && r.Notify != nil {
		msg := fmt.Sprintf("🎯 **%s** a atteint %d ! (+%d XP)", username, ev.Counter.TargetCount, ev.Counter.XPReward)
		if err := r.Notify.SendToChannel(ctx, ev.ChannelID, msg); err != nil {
			r.logger.Warn().Err(err).Str("event_id", eventID).Msg("counter win delivery failed")
		}
	}
	if r.Ender != nil {
		r.Ender.ScheduleEnd(eventID, r.CompleteDelay, model.ReasonCompleted)
	}
	return true, nil
}
