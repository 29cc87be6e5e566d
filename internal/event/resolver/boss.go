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

// Damage applies one qualifying chat message to a boss fight. The message
// that brings HP to zero (or below) is the final blow: its author earns
// FinalBlowXP — or loses it on a kamikaze boss — and every contributor to
// a full boss splits SharedXP.
func (r *Resolver) Damage(ctx context.Context, eventID, userID, username string) (defeated bool, err error) {
	ev, err := r.Store.UpdateEvent(ctx, eventID, func(ev *model.ActiveEvent) error {
		b := ev.Boss
		if b == nil {
			return fmt.Errorf("event %s has no boss payload", ev.ID)
		}
		if b.HP <= 0 {
			return nil // already down; late messages change nothing
		}
		if b.Damage == nil {
			b.Damage = make(map[string]int)
		}
		if b.Usernames == nil {
			b.Usernames = make(map[string]string)
		}
		b.Damage[userID] += b.DamagePerMessage
		b.Usernames[userID] = username
		b.HP -= b.DamagePerMessage
		if b.HP <= 0 {
			defeated = true
		}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !defeated {
		return false, nil
	}

	b := ev.Boss
	if b.Kamikaze {
		// Sacrifice mechanic: the finisher pays, everyone else is spared
		// the failure penalty that an expiry would have charged them all.
		r.credit(ctx, ev, userID, username, -b.FinalBlowXP)
		if r.Notify != nil && ev.ChannelID != "" {
			msg := fmt.Sprintf("💥 **%s** s'est sacrifié pour porter le coup final (%d XP) ! Le reste du serveur est épargné.",
				username, -b.FinalBlowXP)
			if err := r.Notify.SendToChannel(ctx, ev.ChannelID, msg); err != nil {
				r.logger.Warn().Err(err).Str("event_id", eventID).Msg("kamikaze delivery failed")
			}
		}
	} else {
		r.credit(ctx, ev, userID, username, b.FinalBlowXP)
		metrics.AddXPAwarded("boss_final_blow", b.FinalBlowXP)
		if b.SharedXP > 0 && len(b.Damage) > 0 {
			share := b.SharedXP / len(b.Damage)
			if share > 0 {
				for contributorID := range b.Damage {
					r.credit(ctx, ev, contributorID, b.Usernames[contributorID], share)
				}
				metrics.AddXPAwarded("boss_shared", b.SharedXP)
			}
		}
		if r.Notify != nil && ev.ChannelID != "" {
			msg := fmt.Sprintf("⚔️ **%s** a porté le coup final (+%d XP) !", username, b.FinalBlowXP)
			if err := r.Notify.SendToChannel(ctx, ev.ChannelID, msg); err != nil {
				r.logger.Warn().Err(err).Str("event_id", eventID).Msg("final blow delivery failed")
			}
		}
	}

	if r.Ender != nil {
		r.Ender.ScheduleEnd(eventID, r.CompleteDelay, model.ReasonCompleted)
	}
	return true, nil
}

// finalizeBoss settles a fight that expired with the boss still standing:
// every tracked contributor pays the failure penalty.
func (r *Resolver) finalizeBoss(ctx context.Context, ev *model.ActiveEvent) {
	b := ev.Boss
	if b.HP <= 0 || b.FailurePenalty <= 0 {
		return
	}
	for contributorID := range b.Damage {
		r.credit(ctx, ev, contributorID, b.Usernames[contributorID], -b.FailurePenalty)
	}
	r.logger.Info().
		Str("event_id", ev.ID).
		Int("contributors", len(b.Damage)).
		Int("penalty", b.FailurePenalty).
		Msg("boss survived, failure penalties applied")
}
