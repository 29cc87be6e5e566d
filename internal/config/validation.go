// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/hibouclub/eventengine/internal/event/model"
	"github.com/hibouclub/eventengine/internal/validate"
)

var storeBackends = []string{"memory", "file", "badger", "sqlite", "redis"}

// Validate checks a resolved Config using the centralized validation
// package.
func Validate(cfg Config) error {
	v := validate.New()

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("LogLevel", err.Error(), cfg.LogLevel)
	}

	v.OneOf("Store.Backend", cfg.Store.Backend, storeBackends)
	switch cfg.Store.Backend {
	case "file", "sqlite":
		v.NotEmpty("Store.Path", cfg.Store.Path)
		if cfg.Store.Path != "" {
			v.Directory("Store.Path", filepath.Dir(cfg.Store.Path), false)
		}
	case "badger":
		v.NotEmpty("Store.Path", cfg.Store.Path)
	case "redis":
		v.HostPort("Store.RedisAddr", cfg.Store.RedisAddr)
		v.NonNegative("Store.RedisDB", cfg.Store.RedisDB)
	}

	if cfg.SweepInterval < time.Second {
		v.AddError("SweepInterval", "must be at least 1s", cfg.SweepInterval.String())
	}
	if cfg.GraceDelay < 0 {
		v.AddError("GraceDelay", "cannot be negative", cfg.GraceDelay.String())
	}
	if cfg.CompleteDelay < 0 {
		v.AddError("CompleteDelay", "cannot be negative", cfg.CompleteDelay.String())
	}

	for name, kc := range cfg.Kinds {
		if !model.EventKind(name).Valid() {
			v.AddError("Kinds", fmt.Sprintf("unknown event kind %q", name), name)
			continue
		}
		if kc.Duration < 0 {
			v.AddError("Kinds."+name+".Duration", "cannot be negative", kc.Duration.String())
		}
		v.NonNegative("Kinds."+name+".XPBase", kc.XPBase)
	}

	v.Positive("MysteryBox.MinXP", cfg.MysteryBox.MinXP)
	if cfg.MysteryBox.MaxXP < cfg.MysteryBox.MinXP {
		v.AddError("MysteryBox.MaxXP", "must be >= MinXP", cfg.MysteryBox.MaxXP)
	}
	v.Fraction("MysteryBox.TrollChance", cfg.MysteryBox.TrollChance)

	v.Range("Impostor.MissionCount", cfg.Impostor.MissionCount, 1, 14)
	v.Positive("Impostor.AIStreakThreshold", cfg.Impostor.AIStreakThreshold)
	if cfg.Impostor.AIStreakWindow <= 0 {
		v.AddError("Impostor.AIStreakWindow", "must be positive", cfg.Impostor.AIStreakWindow.String())
	}

	if cfg.Admin.Listen != "" {
		v.HostPort("Admin.Listen", cfg.Admin.Listen)
	}

	for i, entry := range cfg.Schedule {
		field := fmt.Sprintf("Schedule[%d]", i)
		if !model.EventKind(entry.Kind).Valid() {
			v.AddError(field+".Kind", fmt.Sprintf("unknown event kind %q", entry.Kind), entry.Kind)
		}
		if _, err := time.Parse("15:04", entry.At); err != nil {
			v.AddError(field+".At", "must be HH:MM", entry.At)
		}
	}

	return v.Err()
}
