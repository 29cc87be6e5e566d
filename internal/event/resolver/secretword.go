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

// ScanMessage checks a chat message against a secret-word event. The
// first message containing the word claims the single winner slot and
// ends the event.
func (r *Resolver) ScanMessage(ctx context.Context, eventID, userID, username, message string) (won bool, err error) {
	now := r.now()
	ev, err := r.Store.UpdateEvent(ctx, eventID, func(ev *model.ActiveEvent) error {
		ch := ev.Challenge
		if ch == nil {
			return fmt.Errorf("event %s has no challenge payload", ev.ID)
		}
		if len(ch.Leaderboard) > 0 {
			return nil // word already found
		}
		if !containsWord(message, ch.Answer) {
			return nil
		}
		ch.Leaderboard = append(ch.Leaderboard, model.LeaderboardEntry{
			UserID:    userID,
			Username:  username,
			ElapsedMs: now.Sub(ev.StartTime).Milliseconds(),
		})
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

	r.credit(ctx, ev, userID, username, ev.Challenge.XPBase)
	metrics.AddXPAwarded("secret_word", ev.Challenge.XPBase)
	if r.Notify != nil && ev.ChannelID != "" {
		msg := fmt.Sprintf("🤫 **%s** a prononcé le mot secret « %s » ! (+%d XP)",
			username, ev.Challenge.Answer, ev.Challenge.XPBase)
		if err := r.Notify.SendToChannel(ctx, ev.ChannelID, msg); err != nil {
			r.logger.Warn().Err(err).Str("event_id", eventID).Msg("secret word delivery failed")
		}
	}
	if r.Ender != nil {
		r.Ender.ScheduleEnd(eventID, r.CompleteDelay, model.ReasonCompleted)
	}
	return true, nil
}
