// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hibouclub/eventengine/internal/config"
	"github.com/hibouclub/eventengine/internal/content"
	"github.com/hibouclub/eventengine/internal/event/lifecycle"
	"github.com/hibouclub/eventengine/internal/event/mission"
	"github.com/hibouclub/eventengine/internal/event/model"
)

// kindDefaults are the built-in launch parameters; config.Kinds entries
// override them field by field.
var kindDefaults = map[model.EventKind]config.KindConfig{
	model.KindRiddle:           {Duration: time.Hour, HintDelay: 15 * time.Minute, XPBase: 200},
	model.KindSequence:         {Duration: time.Hour, HintDelay: 15 * time.Minute, XPBase: 200},
	model.KindSecretWord:       {Duration: 4 * time.Hour, XPBase: 300},
	model.KindCounterChallenge: {Duration: 2 * time.Hour, XPBase: 1500, TargetCount: 1000},
	model.KindMiniBoss:         {Duration: time.Hour, HP: 300, DamagePer: 5, FinalBlowXP: 250, SharedXP: 500, Penalty: 50},
	model.KindBoss:             {Duration: 3 * time.Hour, HP: 1000, DamagePer: 5, FinalBlowXP: 500, SharedXP: 1500, Penalty: 100},
	model.KindImpostor:         {Duration: 24 * time.Hour, XPBase: 500},
	model.KindServerBirthday:   {Duration: 24 * time.Hour, XPEach: 500},
	model.KindHoliday:          {Duration: 24 * time.Hour, XPEach: 300},
}

func mergedKindConfig(cfg config.Config, kind model.EventKind) config.KindConfig {
	kc := kindDefaults[kind]
	over, ok := cfg.Kinds[string(kind)]
	if !ok {
		return kc
	}
	if over.Duration > 0 {
		kc.Duration = over.Duration
	}
	if over.HintDelay > 0 {
		kc.HintDelay = over.HintDelay
	}
	if over.XPBase > 0 {
		kc.XPBase = over.XPBase
	}
	if over.TargetCount > 0 {
		kc.TargetCount = over.TargetCount
	}
	if over.HP > 0 {
		kc.HP = over.HP
	}
	if over.DamagePer > 0 {
		kc.DamagePer = over.DamagePer
	}
	if over.FinalBlowXP > 0 {
		kc.FinalBlowXP = over.FinalBlowXP
	}
	if over.SharedXP > 0 {
		kc.SharedXP = over.SharedXP
	}
	if over.Penalty > 0 {
		kc.Penalty = over.Penalty
	}
	if over.XPEach > 0 {
		kc.XPEach = over.XPEach
	}
	return kc
}

var channelNames = map[model.EventKind]struct {
	name string
	icon string
}{
	model.KindRiddle:           {"devinette", "🧩"},
	model.KindSequence:         {"suite-logique", "🔢"},
	model.KindSecretWord:       {"discussion", "💬"},
	model.KindCounterChallenge: {"compteur", "🎯"},
	model.KindMiniBoss:         {"mini-boss", "👹"},
	model.KindBoss:             {"boss", "🐉"},
	model.KindServerBirthday:   {"anniversaire", "🎂"},
	model.KindHoliday:          {"fete", "🎉"},
}

// launcher builds start requests for scheduled kinds. Impostor events
// need a target user and are launched through the admin surface or the
// bot gateway, not the daily planner.
type launcher struct {
	cfg config.Config
	gen content.Generator
}

func (l *launcher) buildStartRequest(ctx context.Context, kind model.EventKind) (lifecycle.StartRequest, error) {
	kc := mergedKindConfig(l.cfg, kind)
	names := channelNames[kind]
	req := lifecycle.StartRequest{
		Kind:        kind,
		Duration:    kc.Duration,
		ChannelName: names.name,
		ChannelIcon: names.icon,
	}

	switch kind {
	case model.KindRiddle, model.KindSequence:
		var (
			ch  *content.Challenge
			err error
		)
		if kind == model.KindRiddle {
			ch, err = l.gen.GenerateRiddle(ctx, "")
		} else {
			ch, err = l.gen.GenerateSequence(ctx, "")
		}
		if err != nil {
			return req, fmt.Errorf("generate %s: %w", kind, err)
		}
		req.HintDelay = kc.HintDelay
		req.Announce = fmt.Sprintf("🧠 **Nouvelle énigme !**\n%s", ch.Question)
		req.Challenge = &model.ChallengeData{
			Question:           ch.Question,
			Answer:             ch.Answer,
			AlternativeAnswers: ch.Alternatives,
			Hint:               ch.Hint,
			Difficulty:         ch.Difficulty,
			XPBase:             kc.XPBase,
		}

	case model.KindSecretWord:
		word := content.RandomSecretWord()
		req.Announce = "🤫 Un mot secret circule aujourd'hui... Le premier qui le prononce gagne !"
		req.Challenge = &model.ChallengeData{
			Answer: word,
			XPBase: kc.XPBase,
		}

	case model.KindCounterChallenge:
		req.Announce = fmt.Sprintf("🎯 **Défi compteur !** Premier arrivé à %d !", kc.TargetCount)
		req.Counter = &model.CounterData{
			TargetCount: kc.TargetCount,
			XPReward:    kc.XPBase,
		}

	case model.KindMiniBoss, model.KindBoss:
		kamikaze := kind == model.KindBoss && rand.IntN(4) == 0
		req.Announce = fmt.Sprintf("⚔️ **Un boss apparaît !** %d PV. Chaque message inflige %d dégâts.", kc.HP, kc.DamagePer)
		req.Boss = &model.BossData{
			HP:               kc.HP,
			MaxHP:            kc.HP,
			DamagePerMessage: kc.DamagePer,
			FinalBlowXP:      kc.FinalBlowXP,
			SharedXP:         kc.SharedXP,
			FailurePenalty:   kc.Penalty,
			Kamikaze:         kamikaze,
		}

	case model.KindServerBirthday, model.KindHoliday:
		req.Announce = "🎉 **C'est la fête !** Passe dire bonjour pour récupérer ta récompense."
		req.Participation = &model.ParticipationData{
			XPEach: kc.XPEach,
		}

	default:
		return req, fmt.Errorf("kind %s cannot be launched from the planner", kind)
	}
	return req, nil
}

// buildImpostorRequest drafts a user into a hidden-objective game.
func buildImpostorRequest(cfg config.Config, userID, username string) lifecycle.StartRequest {
	kc := mergedKindConfig(cfg, model.KindImpostor)
	return lifecycle.StartRequest{
		Kind:     model.KindImpostor,
		Duration: kc.Duration,
		Impostor: &model.ImpostorData{
			ImpostorID: userID,
			Username:   username,
			Missions:   mission.GenerateMissions(cfg.Impostor.MissionCount, nil),
		},
	}
}
