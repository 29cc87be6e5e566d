// SPDX-License-Identifier: MIT

// Package noop provides logging stand-ins for the chat platform
// integrations. The daemon runs with these until a real gateway (bot
// process, message queue) is wired in front of it.
package noop

import (
	"context"

	"github.com/rs/zerolog"

	xglog "github.com/hibouclub/eventengine/internal/log"
)

// Provisioner pretends to create and delete chat channels.
type Provisioner struct {
	logger zerolog.Logger
}

// NewProvisioner returns a logging channel provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{logger: xglog.WithComponent("platform.noop")}
}

func (p *Provisioner) CreateEventChannel(ctx context.Context, name, icon string) (channelID, categoryID string, err error) {
	p.logger.Info().Str("name", name).Str("icon", icon).Msg("channel create (noop)")
	return "noop-channel-" + name, "noop-category", nil
}

func (p *Provisioner) DeleteChannel(ctx context.Context, channelID string) error {
	p.logger.Info().Str("channel_id", channelID).Msg("channel delete (noop)")
	return nil
}

func (p *Provisioner) DeleteCategory(ctx context.Context, categoryID string) error {
	p.logger.Info().Str("category_id", categoryID).Msg("category delete (noop)")
	return nil
}

// Notifier logs messages instead of delivering them.
type Notifier struct {
	logger zerolog.Logger
}

// NewNotifier returns a logging notifier.
func NewNotifier() *Notifier {
	return &Notifier{logger: xglog.WithComponent("platform.noop")}
}

func (n *Notifier) SendToUser(ctx context.Context, userID, message string) error {
	n.logger.Info().Str("user_id", userID).Str("message", message).Msg("user message (noop)")
	return nil
}

func (n *Notifier) SendToChannel(ctx context.Context, channelID, message string) error {
	n.logger.Info().Str("channel_id", channelID).Str("message", message).Msg("channel message (noop)")
	return nil
}

// Ledger logs XP credits instead of applying them.
type Ledger struct {
	logger zerolog.Logger
}

// NewLedger returns a logging reward ledger.
func NewLedger() *Ledger {
	return &Ledger{logger: xglog.WithComponent("platform.noop")}
}

func (l *Ledger) CreditXP(ctx context.Context, userID, username string, amount int, channelID string, isBot bool) error {
	l.logger.Info().Str("user_id", userID).Int("amount", amount).Msg("xp credit (noop)")
	return nil
}
