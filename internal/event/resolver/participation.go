// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"errors"

	"github.com/hibouclub/eventengine/internal/event/model"
	"github.com/hibouclub/eventengine/internal/event/store"
	"github.com/hibouclub/eventengine/internal/metrics"
)

// Join registers a user in a celebration event (server birthday,
// holiday). Joining twice is harmless; the payout happens once at expiry.
func (r *Resolver) Join(ctx context.Context, eventID, userID, username string) error {
	_, err := r.Store.UpdateEvent(ctx, eventID, func(ev *model.ActiveEvent) error {
		p := ev.Participation
		if p == nil {
			return nil
		}
		if p.Participants == nil {
			p.Participants = make(map[string]string)
		}
		p.Participants[userID] = username
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// finalizeParticipation pays every participant of a celebration event.
func (r *Resolver) finalizeParticipation(ctx context.Context, ev *model.ActiveEvent) {
	p := ev.Participation
	if p.XPEach <= 0 || len(p.Participants) == 0 {
		return
	}
	for userID, username := range p.Participants {
		r.credit(ctx, ev, userID, username, p.XPEach)
	}
	metrics.AddXPAwarded("participation", p.XPEach*len(p.Participants))
	r.logger.Info().
		Str("event_id", ev.ID).
		Int("participants", len(p.Participants)).
		Msg("participation rewards paid")
}

// Finalize settles kind-specific end-of-event effects. The lifecycle
// controller invokes it exactly once per instance, after store removal.
func (r *Resolver) Finalize(ctx context.Context, ev *model.ActiveEvent, reason model.EndReason) {
	switch {
	case ev.Boss != nil && reason == model.ReasonExpired:
		r.finalizeBoss(ctx, ev)
	case ev.Participation != nil && reason != model.ReasonForced:
		r.finalizeParticipation(ctx, ev)
	}
}
