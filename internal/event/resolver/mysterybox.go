// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	xglog "github.com/hibouclub/eventengine/internal/log"
	"github.com/hibouclub/eventengine/internal/metrics"
)

// ErrNoCandidate is returned when every recently active user is a bot or
// has opted out of mystery boxes.
var ErrNoCandidate = errors.New("mysterybox: no eligible candidate")

// Candidate is a recently active chat user considered for a drop.
type Candidate struct {
	UserID   string
	Username string
	IsBot    bool
}

// MysteryBox hands a random reward to one random recently active user.
// It is a one-shot: nothing is persisted and there is no lifecycle.
type MysteryBox struct {
	Ledger RewardLedger
	Notify Notifier
	Prefs  PreferenceSource

	MinXP       int
	MaxXP       int
	TrollChance float64 // probability of an empty box, in [0,1]

	// Rand drives both candidate choice and reward rolls. Defaults to
	// math/rand/v2 global state; tests inject a seeded source.
	Rand *rand.Rand

	logger zerolog.Logger
}

// NewMysteryBox wires a MysteryBox with the documented defaults.
func NewMysteryBox(ledger RewardLedger, notify Notifier, prefs PreferenceSource) *MysteryBox {
	return &MysteryBox{
		Ledger:      ledger,
		Notify:      notify,
		Prefs:       prefs,
		MinXP:       50,
		MaxXP:       250,
		TrollChance: 0.2,
		logger:      xglog.WithComponent("mysterybox"),
	}
}

func (m *MysteryBox) intn(n int) int {
	if m.Rand != nil {
		return m.Rand.IntN(n)
	}
	return rand.IntN(n)
}

func (m *MysteryBox) float() float64 {
	if m.Rand != nil {
		return m.Rand.Float64()
	}
	return rand.Float64()
}

// DropResult describes what came out of the box.
type DropResult struct {
	UserID   string
	Username string
	XP       int  // 0 for a troll box
	Troll    bool // the box was empty
}

// Drop picks one eligible candidate, rolls the reward and credits it.
// Bots and opted-out users are filtered before the draw so they never
// steal a slot from an eligible user.
func (m *MysteryBox) Drop(ctx context.Context, channelID string, candidates []Candidate) (DropResult, error) {
	eligible := candidates[:0:0]
	for _, c := range candidates {
		if c.IsBot {
			continue
		}
		if m.Prefs != nil && m.Prefs.IsOptedOut(ctx, c.UserID, FeatureMysteryBox) {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return DropResult{}, ErrNoCandidate
	}

	winner := eligible[m.intn(len(eligible))]
	res := DropResult{UserID: winner.UserID, Username: winner.Username}

	if m.float() < m.TrollChance {
		res.Troll = true
		if m.Notify != nil && channelID != "" {
			msg := fmt.Sprintf("📦 **%s** ouvre la boîte mystère... elle est vide ! 😛", winner.Username)
			if err := m.Notify.SendToChannel(ctx, channelID, msg); err != nil {
				m.logger.Warn().Err(err).Msg("troll box delivery failed")
			}
		}
		m.logger.Info().Str("user_id", winner.UserID).Msg("troll box dropped")
		return res, nil
	}

	span := m.MaxXP - m.MinXP
	xp := m.MinXP
	if span > 0 {
		xp += m.intn(span + 1)
	}
	res.XP = xp

	if m.Ledger != nil {
		if err := m.Ledger.CreditXP(ctx, winner.UserID, winner.Username, xp, channelID, false); err != nil {
			m.logger.Warn().Err(err).Str("user_id", winner.UserID).Msg("mystery box credit failed")
		}
	}
	metrics.AddXPAwarded("mystery_box", xp)
	if m.Notify != nil && channelID != "" {
		msg := fmt.Sprintf("📦 **%s** ouvre la boîte mystère et trouve **%d XP** !", winner.Username, xp)
		if err := m.Notify.SendToChannel(ctx, channelID, msg); err != nil {
			m.logger.Warn().Err(err).Msg("mystery box delivery failed")
		}
	}
	m.logger.Info().Str("user_id", winner.UserID).Int("xp", xp).Msg("mystery box dropped")
	return res, nil
}
