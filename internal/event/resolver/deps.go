// SPDX-License-Identifier: MIT

// Package resolver validates player contributions to running events and
// computes rewards.
package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/hibouclub/eventengine/internal/event/model"
	"github.com/hibouclub/eventengine/internal/event/store"
	xglog "github.com/hibouclub/eventengine/internal/log"
)

// RewardLedger credits XP. Amounts may be negative (penalties). The
// implementation lives outside this repository.
type RewardLedger interface {
	CreditXP(ctx context.Context, userID, username string, amount int, channelID string, isBot bool) error
}

// Notifier delivers result messages.
type Notifier interface {
	SendToUser(ctx context.Context, userID, message string) error
	SendToChannel(ctx context.Context, channelID, message string) error
}

// Terminator schedules early event termination. Satisfied by
// *lifecycle.Controller.
type Terminator interface {
	ScheduleEnd(id string, delay time.Duration, reason model.EndReason)
}

// Feature names an opt-out-able event feature.
type Feature string

const (
	FeatureMysteryBox Feature = "mysterybox"
	FeatureImpostor   Feature = "impostor"
)

// PreferenceSource answers opt-out lookups before a user is drafted into
// an event.
type PreferenceSource interface {
	IsOptedOut(ctx context.Context, userID string, feature Feature) bool
}

// StorePrefs adapts the event store's persisted preferences to
// PreferenceSource.
type StorePrefs struct {
	Store store.Store
}

func (p StorePrefs) IsOptedOut(ctx context.Context, userID string, feature Feature) bool {
	prefs, err := p.Store.Preferences(ctx, userID)
	if err != nil {
		return false
	}
	switch feature {
	case FeatureMysteryBox:
		return prefs.DisableMysteryBox
	case FeatureImpostor:
		return prefs.DisableImpostor
	}
	return false
}

// Resolver applies challenge logic for riddle, sequence, secret-word,
// counter and boss events. Every mutation goes through the store's
// serialized UpdateEvent, then side effects (ledger, notifications) run
// on the committed snapshot.
type Resolver struct {
	Store  store.Store
	Ledger RewardLedger
	Notify Notifier
	Ender  Terminator
	Clock  func() time.Time

	// CompleteDelay is how long a completed event lingers before the
	// scheduled termination fires (lets the winning message land first).
	CompleteDelay time.Duration

	// SubmitRate / SubmitBurst bound per-user answer submissions.
	SubmitRate  rate.Limit
	SubmitBurst int

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
	logger     zerolog.Logger
}

// NewResolver wires a Resolver with sane defaults.
func NewResolver(st store.Store, ledger RewardLedger, notify Notifier, ender Terminator) *Resolver {
	return &Resolver{
		Store:         st,
		Ledger:        ledger,
		Notify:        notify,
		Ender:         ender,
		Clock:         time.Now,
		CompleteDelay: 10 * time.Second,
		SubmitRate:    rate.Every(2 * time.Second),
		SubmitBurst:   3,
		limiters:      make(map[string]*rate.Limiter),
		logger:        xglog.WithComponent("resolver"),
	}
}

func (r *Resolver) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

// allow consults the per-user submission token bucket.
func (r *Resolver) allow(userID string) bool {
	if r.SubmitRate == 0 {
		return true
	}
	r.limitersMu.Lock()
	lim, ok := r.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(r.SubmitRate, r.SubmitBurst)
		r.limiters[userID] = lim
	}
	r.limitersMu.Unlock()
	return lim.Allow()
}

// credit invokes the reward ledger unless the event is a test run.
// Ledger failures are logged, never propagated: the store mutation that
// earned the reward has already been committed.
func (r *Resolver) credit(ctx context.Context, ev *model.ActiveEvent, userID, username string, amount int) {
	if ev.Test || r.Ledger == nil {
		return
	}
	if err := r.Ledger.CreditXP(ctx, userID, username, amount, ev.ChannelID, false); err != nil {
		r.logger.Warn().Err(err).Str("user_id", userID).Int("amount", amount).
			Msg("reward ledger credit failed")
	}
}
