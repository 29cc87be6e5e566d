// SPDX-License-Identifier: MIT

// Package lifecycle owns event creation, deferred transitions and
// idempotent termination.
package lifecycle

import (
	"context"
	"time"

	"github.com/hibouclub/eventengine/internal/event/model"
)

// ChannelProvisioner creates and tears down the ephemeral channels that
// host events. The chat-platform implementation lives outside this
// repository.
type ChannelProvisioner interface {
	CreateEventChannel(ctx context.Context, name, icon string) (channelID, categoryID string, err error)
	DeleteChannel(ctx context.Context, channelID string) error
	DeleteCategory(ctx context.Context, categoryID string) error
}

// Notifier delivers announcements, hint reveals and end-of-event
// summaries.
type Notifier interface {
	SendToUser(ctx context.Context, userID, message string) error
	SendToChannel(ctx context.Context, channelID, message string) error
}

// Finalizer runs kind-specific settlement for a terminated event (boss
// failure penalties, participation payouts). It is invoked exactly once,
// after the event has been removed from the store.
type Finalizer interface {
	Finalize(ctx context.Context, ev *model.ActiveEvent, reason model.EndReason)
}

// StartRequest describes an event to create. Exactly one payload pointer
// matching Kind must be set (mirrors model.ActiveEvent.Validate).
type StartRequest struct {
	Kind      model.EventKind
	Duration  time.Duration
	HintDelay time.Duration // 0 disables the hint timer
	Test      bool

	ChannelName string
	ChannelIcon string
	Announce    string // optional channel announcement

	Challenge     *model.ChallengeData
	Counter       *model.CounterData
	Boss          *model.BossData
	Impostor      *model.ImpostorData
	Participation *model.ParticipationData
}
