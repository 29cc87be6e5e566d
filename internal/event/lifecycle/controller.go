// SPDX-License-Identifier: MIT

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hibouclub/eventengine/internal/event/model"
	"github.com/hibouclub/eventengine/internal/event/store"
	xglog "github.com/hibouclub/eventengine/internal/log"
	"github.com/hibouclub/eventengine/internal/metrics"
)

// Controller creates, tracks and terminates events.
//
// State machine per instance: Scheduled -> Active (instantaneous at
// creation) -> (HintShown) -> Ending (timer, sweep, or early completion)
// -> Ended (grace-delay channel teardown; the instance is then observable
// only via history).
//
// All in-process timers are a latency optimization: the sweeper is the
// sole correctness backstop after a restart.
type Controller struct {
	Store     store.Store
	Channels  ChannelProvisioner
	Notify    Notifier
	Finalizer Finalizer // optional
	Clock     func() time.Time

	// GraceDelay is how long participants get to read final results
	// before the event channel disappears.
	GraceDelay time.Duration

	mu     sync.Mutex
	timers map[string]*eventTimers
	logger zerolog.Logger
	tracer trace.Tracer
}

type eventTimers struct {
	hint   *time.Timer
	expiry *time.Timer
}

// NewController wires a Controller with its collaborators.
func NewController(st store.Store, channels ChannelProvisioner, notify Notifier) *Controller {
	return &Controller{
		Store:      st,
		Channels:   channels,
		Notify:     notify,
		Clock:      time.Now,
		GraceDelay: 30 * time.Second,
		timers:     make(map[string]*eventTimers),
		logger:     xglog.WithComponent("lifecycle"),
		tracer:     otel.Tracer("eventengine/lifecycle"),
	}
}

func (c *Controller) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// Start creates a new event. For singleton kinds an already-active
// instance makes this a silent no-op returning (nil, nil); impostor
// events no-op per impostor user instead. The returned event is the
// persisted snapshot.
func (c *Controller) Start(ctx context.Context, req StartRequest) (*model.ActiveEvent, error) {
	ctx, span := c.tracer.Start(ctx, "lifecycle.Start",
		trace.WithAttributes(attribute.String("event.kind", string(req.Kind))))
	defer span.End()

	if req.Duration <= 0 {
		return nil, fmt.Errorf("start %s: duration required", req.Kind)
	}

	// The lock spans the singleton check and the insert so two concurrent
	// starts of the same kind cannot both pass the check.
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.Store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("start %s: list events: %w", req.Kind, err)
	}
	for _, ev := range existing {
		if req.Kind.IsSingleton() && ev.Kind == req.Kind {
			c.logger.Info().Str("kind", string(req.Kind)).Str("active_id", ev.ID).
				Msg("event kind already active, start skipped")
			return nil, nil
		}
		if req.Kind == model.KindImpostor && ev.Kind == model.KindImpostor &&
			req.Impostor != nil && ev.Impostor != nil &&
			ev.Impostor.ImpostorID == req.Impostor.ImpostorID {
			c.logger.Info().Str("impostor_id", req.Impostor.ImpostorID).
				Msg("impostor already has an active game, start skipped")
			return nil, nil
		}
	}

	now := c.now()
	ev := &model.ActiveEvent{
		ID:            uuid.NewString(),
		Kind:          req.Kind,
		StartTime:     now,
		EndTime:       now.Add(req.Duration),
		Test:          req.Test,
		Challenge:     req.Challenge,
		Counter:       req.Counter,
		Boss:          req.Boss,
		Impostor:      req.Impostor,
		Participation: req.Participation,
	}

	if req.ChannelName != "" && c.Channels != nil {
		channelID, categoryID, err := c.Channels.CreateEventChannel(ctx, req.ChannelName, req.ChannelIcon)
		if err != nil {
			// Degraded but not fatal: the event lives on without a channel.
			metrics.IncProvisionerFailure("create")
			c.logger.Error().Err(err).Str("kind", string(req.Kind)).
				Msg("channel provisioning failed, continuing without channel")
		} else {
			ev.ChannelID = channelID
			ev.CategoryID = categoryID
		}
	}

	if err := c.Store.PutEvent(ctx, ev); err != nil {
		if ev.ChannelID != "" && c.Channels != nil {
			_ = c.Channels.DeleteChannel(ctx, ev.ChannelID)
		}
		return nil, fmt.Errorf("start %s: persist: %w", req.Kind, err)
	}

	metrics.IncEventStarted(string(req.Kind))
	c.countActiveLocked(ctx)

	if req.Announce != "" && ev.ChannelID != "" && c.Notify != nil {
		if err := c.Notify.SendToChannel(ctx, ev.ChannelID, req.Announce); err != nil {
			c.logger.Warn().Err(err).Str("event_id", ev.ID).Msg("announcement delivery failed")
		}
	}

	c.armTimersLocked(ev, req.HintDelay)

	c.logger.Info().
		Str("event_id", ev.ID).
		Str("kind", string(ev.Kind)).
		Time("end_time", ev.EndTime).
		Bool("test", ev.Test).
		Msg("event started")

	return ev.Clone(), nil
}

// armTimersLocked arms the one-shot hint and expiry timers. Callers hold c.mu.
func (c *Controller) armTimersLocked(ev *model.ActiveEvent, hintDelay time.Duration) {
	t := &eventTimers{}
	id := ev.ID

	if hintDelay > 0 && ev.Challenge != nil && ev.Challenge.Hint != "" {
		t.hint = time.AfterFunc(hintDelay, func() {
			c.revealHint(context.Background(), id)
		})
	}

	expireIn := ev.EndTime.Sub(c.now())
	if expireIn < 0 {
		expireIn = 0
	}
	t.expiry = time.AfterFunc(expireIn, func() {
		if err := c.End(context.Background(), id, model.ReasonExpired); err != nil {
			c.logger.Warn().Err(err).Str("event_id", id).Msg("timer-driven end failed")
		}
	})

	c.timers[id] = t
}

// revealHint publishes the hint exactly once; the HintShown guard lives
// inside the atomic store mutation, so a racing sweep or restart replay
// cannot double-post.
func (c *Controller) revealHint(ctx context.Context, id string) {
	shown := false
	ev, err := c.Store.UpdateEvent(ctx, id, func(ev *model.ActiveEvent) error {
		if ev.Challenge == nil || ev.Challenge.HintShown {
			return nil
		}
		ev.Challenge.HintShown = true
		shown = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn().Err(err).Str("event_id", id).Msg("hint reveal failed")
		}
		return
	}
	if !shown || ev.ChannelID == "" || c.Notify == nil {
		return
	}
	msg := fmt.Sprintf("💡 Indice : %s", ev.Challenge.Hint)
	if err := c.Notify.SendToChannel(ctx, ev.ChannelID, msg); err != nil {
		c.logger.Warn().Err(err).Str("event_id", id).Msg("hint delivery failed")
	}
}

// End terminates an event. It is idempotent: overlapping timer, sweep and
// admin triggers may all call it, but only the caller whose store delete
// reports prior presence appends history and schedules channel teardown.
func (c *Controller) End(ctx context.Context, id string, reason model.EndReason) error {
	ctx, span := c.tracer.Start(ctx, "lifecycle.End",
		trace.WithAttributes(
			attribute.String("event.id", id),
			attribute.String("event.reason", string(reason)),
		))
	defer span.End()
	ctx = xglog.ContextWithEventID(ctx, id)

	ev, err := c.Store.GetEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("end %s: %w", id, err)
	}
	if ev == nil {
		return nil // already gone
	}

	// Store removal must precede every side effect: a second caller that
	// loses the delete race performs none of them.
	existed, err := c.Store.DeleteEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("end %s: delete: %w", id, err)
	}
	if !existed {
		return nil
	}

	c.cancelTimers(id)

	entry := historyFor(ev, reason, c.now())
	if err := c.Store.AppendHistory(ctx, entry); err != nil {
		c.logger.Warn().Err(err).Str("event_id", id).Msg("history append failed")
	}

	metrics.IncEventEnded(string(ev.Kind), string(reason))
	c.countActive(ctx)

	if c.Finalizer != nil {
		c.Finalizer.Finalize(ctx, ev, reason)
	}

	if ev.ChannelID != "" && c.Notify != nil {
		if err := c.Notify.SendToChannel(ctx, ev.ChannelID, endSummary(ev, reason)); err != nil {
			c.logger.Warn().Err(err).Str("event_id", id).Msg("end summary delivery failed")
		}
	}

	c.scheduleTeardown(ev)

	ctxLog := xglog.WithContext(ctx, c.logger)
	ctxLog.Info().
		Str("kind", string(ev.Kind)).
		Str("reason", string(reason)).
		Msg("event ended")

	return nil
}

// ScheduleEnd arms a one-shot delayed termination (used by resolvers and
// the mission tracker for early completion).
func (c *Controller) ScheduleEnd(id string, delay time.Duration, reason model.EndReason) {
	time.AfterFunc(delay, func() {
		if err := c.End(context.Background(), id, reason); err != nil {
			c.logger.Warn().Err(err).Str("event_id", id).Msg("scheduled end failed")
		}
	})
}

// scheduleTeardown deletes the event channel after the grace delay, and
// the category too when no remaining active event shares it.
func (c *Controller) scheduleTeardown(ev *model.ActiveEvent) {
	if ev.ChannelID == "" || c.Channels == nil {
		return
	}
	channelID := ev.ChannelID
	categoryID := ev.CategoryID
	time.AfterFunc(c.GraceDelay, func() {
		ctx := context.Background()
		if err := c.Channels.DeleteChannel(ctx, channelID); err != nil {
			metrics.IncProvisionerFailure("delete")
			c.logger.Warn().Err(err).Str("channel_id", channelID).Msg("channel teardown failed")
		}
		if categoryID == "" {
			return
		}
		remaining, err := c.Store.ListEvents(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("category check failed")
			return
		}
		for _, other := range remaining {
			if other.CategoryID == categoryID {
				return
			}
		}
		if err := c.Channels.DeleteCategory(ctx, categoryID); err != nil {
			metrics.IncProvisionerFailure("delete_category")
			c.logger.Warn().Err(err).Str("category_id", categoryID).Msg("category teardown failed")
		}
	})
}

func (c *Controller) cancelTimers(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.timers[id]
	if !ok {
		return
	}
	if t.hint != nil {
		t.hint.Stop()
	}
	if t.expiry != nil {
		t.expiry.Stop()
	}
	delete(c.timers, id)
}

func (c *Controller) countActive(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.countActiveLocked(ctx)
}

func (c *Controller) countActiveLocked(ctx context.Context) {
	if list, err := c.Store.ListEvents(ctx); err == nil {
		metrics.SetActiveEvents(len(list))
	}
}

// RearmTimers re-arms in-process timers for events already in the store.
// Called once at startup; events past their end time are left to the
// immediate initial sweep.
func (c *Controller) RearmTimers(ctx context.Context) error {
	events, err := c.Store.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("rearm timers: %w", err)
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range events {
		if ev.Expired(now) {
			continue
		}
		if _, armed := c.timers[ev.ID]; armed {
			continue
		}
		c.armTimersLocked(ev, 0)
	}
	c.countActiveLocked(ctx)
	return nil
}

func historyFor(ev *model.ActiveEvent, reason model.EndReason, now time.Time) model.HistoryEntry {
	entry := model.HistoryEntry{
		EventID:   ev.ID,
		Kind:      ev.Kind,
		Timestamp: now,
		Reason:    reason,
	}
	switch {
	case ev.Challenge != nil:
		seen := make(map[string]bool)
		for _, e := range ev.Challenge.Leaderboard {
			entry.Participants = append(entry.Participants, e.UserID)
			entry.Winners = append(entry.Winners, e.UserID)
			seen[e.UserID] = true
		}
		for userID := range ev.Challenge.Attempts {
			if !seen[userID] {
				entry.Participants = append(entry.Participants, userID)
			}
		}
	case ev.Counter != nil:
		if ev.Counter.WinnerID != "" {
			entry.Participants = append(entry.Participants, ev.Counter.WinnerID)
			entry.Winners = append(entry.Winners, ev.Counter.WinnerID)
		}
	case ev.Boss != nil:
		for userID := range ev.Boss.Damage {
			entry.Participants = append(entry.Participants, userID)
		}
		if ev.Boss.HP <= 0 {
			entry.Winners = entry.Participants
		}
	case ev.Impostor != nil:
		entry.Participants = append(entry.Participants, ev.Impostor.ImpostorID)
		if ev.Impostor.Completed {
			entry.Winners = append(entry.Winners, ev.Impostor.ImpostorID)
		}
	case ev.Participation != nil:
		for userID := range ev.Participation.Participants {
			entry.Participants = append(entry.Participants, userID)
			entry.Winners = append(entry.Winners, userID)
		}
	}
	return entry
}

func endSummary(ev *model.ActiveEvent, reason model.EndReason) string {
	switch {
	case ev.Challenge != nil:
		if n := len(ev.Challenge.Leaderboard); n > 0 {
			return fmt.Sprintf("🏁 L'événement est terminé ! %d participant(s) ont trouvé la réponse : **%s**", n, ev.Challenge.Answer)
		}
		return fmt.Sprintf("🏁 L'événement est terminé ! Personne n'a trouvé. La réponse était : **%s**", ev.Challenge.Answer)
	case ev.Boss != nil:
		if ev.Boss.HP <= 0 {
			return "⚔️ Le boss est vaincu ! Bravo à tous les combattants."
		}
		return "💀 Le boss s'échappe... il était encore en vie à la fin du combat."
	case ev.Counter != nil:
		if ev.Counter.WinnerID != "" {
			return fmt.Sprintf("🎯 Objectif atteint ! Bravo %s.", ev.Counter.WinnerName)
		}
		return "🏁 La course au compteur est terminée."
	case reason == model.ReasonCompleted:
		return "🏁 L'événement est terminé, objectif atteint !"
	default:
		return "🏁 L'événement est terminé !"
	}
}
