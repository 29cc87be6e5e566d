// SPDX-License-Identifier: MIT

// Package mission advances the hidden objectives of impostor events from
// raw activity signals.
package mission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hibouclub/eventengine/internal/event/model"
	"github.com/hibouclub/eventengine/internal/event/store"
	xglog "github.com/hibouclub/eventengine/internal/log"
	"github.com/hibouclub/eventengine/internal/metrics"
)

// Notifier delivers mission progress messages to the impostor (privately:
// the objectives are secret).
type Notifier interface {
	SendToUser(ctx context.Context, userID, message string) error
}

// Terminator schedules early event termination. Satisfied by
// *lifecycle.Controller.
type Terminator interface {
	ScheduleEnd(id string, delay time.Duration, reason model.EndReason)
}

// Tracker routes activity signals into the mission list of the running
// impostor event bound to that user.
type Tracker struct {
	Store  store.Store
	Notify Notifier
	Ender  Terminator
	Clock  func() time.Time

	// AIStreakWindow and AIStreakThreshold shape the AI_CHAT mission:
	// consecutive AI messages no further apart than the window build a
	// streak, and each full streak counts one conversation.
	AIStreakWindow    time.Duration
	AIStreakThreshold int

	// CompleteDelay is how long a fully completed event lingers before
	// the scheduled termination fires.
	CompleteDelay time.Duration

	logger zerolog.Logger
}

// NewTracker wires a Tracker with the documented defaults.
func NewTracker(st store.Store, notify Notifier, ender Terminator) *Tracker {
	return &Tracker{
		Store:             st,
		Notify:            notify,
		Ender:             ender,
		Clock:             time.Now,
		AIStreakWindow:    10 * time.Minute,
		AIStreakThreshold: 3,
		CompleteDelay:     10 * time.Second,
		logger:            xglog.WithComponent("mission"),
	}
}

func (t *Tracker) now() time.Time {
	if t.Clock != nil {
		return t.Clock()
	}
	return time.Now()
}

// Record applies one activity signal from the given user. Signals from
// users with no running impostor event are dropped silently; that is the
// common case since every chat message is routed here.
func (t *Tracker) Record(ctx context.Context, userID string, sig model.Signal) error {
	eventID, ok, err := t.findEvent(ctx, userID)
	if err != nil || !ok {
		return err
	}

	var completedNow []model.Mission
	allDone := false

	_, err = t.Store.UpdateEvent(ctx, eventID, func(ev *model.ActiveEvent) error {
		im := ev.Impostor
		if im == nil {
			return fmt.Errorf("event %s has no impostor payload", ev.ID)
		}
		if im.Completed {
			return nil
		}
		completedNow = t.apply(im, sig)
		if im.AllMissionsCompleted() {
			im.Completed = true
			allDone = true
		}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, m := range completedNow {
		metrics.IncMissionCompleted(string(m.Type))
		if t.Notify != nil {
			msg := fmt.Sprintf("✅ Mission accomplie : %s", m.Description)
			if err := t.Notify.SendToUser(ctx, userID, msg); err != nil {
				t.logger.Warn().Err(err).Str("user_id", userID).Msg("mission notice delivery failed")
			}
		}
	}
	if allDone {
		t.logger.Info().Str("event_id", eventID).Str("user_id", userID).
			Msg("all missions completed")
		if t.Notify != nil {
			msg := "🏆 Toutes tes missions sont accomplies ! L'événement se termine."
			if err := t.Notify.SendToUser(ctx, userID, msg); err != nil {
				t.logger.Warn().Err(err).Str("user_id", userID).Msg("completion notice delivery failed")
			}
		}
		if t.Ender != nil {
			t.Ender.ScheduleEnd(eventID, t.CompleteDelay, model.ReasonCompleted)
		}
	}
	return nil
}

// findEvent locates the running impostor event bound to the user.
func (t *Tracker) findEvent(ctx context.Context, userID string) (string, bool, error) {
	events, err := t.Store.ListEvents(ctx)
	if err != nil {
		return "", false, err
	}
	for _, ev := range events {
		if ev.Kind == model.KindImpostor && ev.Impostor != nil && ev.Impostor.ImpostorID == userID {
			return ev.ID, true, nil
		}
	}
	return "", false, nil
}

// apply mutates the payload for one signal and returns the missions that
// crossed their goal on this call. It runs inside the store's serialized
// update, so no further locking is needed.
func (t *Tracker) apply(im *model.ImpostorData, sig model.Signal) []model.Mission {
	wantType, ok := model.MissionForSignal[sig.Kind]
	if !ok {
		return nil
	}

	amount := sig.Amount
	if amount <= 0 {
		amount = 1
	}

	// AI conversations count whole streaks, not individual messages.
	if sig.Kind == model.SignalAIMessage {
		now := t.now()
		if !im.LastAIMessageTime.IsZero() && now.Sub(im.LastAIMessageTime) <= t.AIStreakWindow {
			im.AIConversationStreak++
		} else {
			im.AIConversationStreak = 1
		}
		im.LastAIMessageTime = now
		if im.AIConversationStreak < t.AIStreakThreshold {
			return nil
		}
		im.AIConversationStreak = 0
		amount = 1
	}

	var completed []model.Mission
	for i := range im.Missions {
		m := &im.Missions[i]
		if m.Type != wantType || m.Completed {
			continue
		}
		switch m.Type {
		case model.MissionSymbol:
			if sig.Value != m.ImposedSymbol {
				continue
			}
		case model.MissionImposedWords:
			if !containsFold(m.ImposedWords, sig.Value) {
				continue
			}
		}
		if m.Type.Deduplicated() {
			set := t.trackingSet(im, m.Type)
			key := strings.ToLower(sig.Value)
			if key == "" || (*set)[key] {
				continue
			}
			if *set == nil {
				*set = make(map[string]bool)
			}
			(*set)[key] = true
		}
		m.Progress += amount
		if m.Progress >= m.Goal {
			m.Progress = m.Goal
			m.Completed = true
			completed = append(completed, m.Clone())
		}
	}
	return completed
}

// trackingSet returns the dedup set backing a set-counted mission type.
func (t *Tracker) trackingSet(im *model.ImpostorData, typ model.MissionType) *map[string]bool {
	switch typ {
	case model.MissionEmojis:
		return &im.EmojisUsed
	case model.MissionMentions:
		return &im.UsersMentioned
	case model.MissionReactions:
		return &im.ReactionsToUsers
	case model.MissionFunCommands:
		return &im.FunCommandsUsed
	case model.MissionGames:
		return &im.GamesPlayed
	case model.MissionImposedWords:
		return &im.ImposedWordsUsed
	}
	return nil
}

func containsFold(words []string, v string) bool {
	for _, w := range words {
		if strings.EqualFold(w, v) {
			return true
		}
	}
	return false
}
