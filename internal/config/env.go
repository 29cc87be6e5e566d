// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/hibouclub/eventengine/internal/log"
)

// ParseString reads a string from an environment variable or returns the
// default. The source is logged for observability; token-like values are
// never logged.
func ParseString(key, defaultValue string) string {
	logger := xglog.WithComponent("config")
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		logDefault(logger, key)
		return defaultValue
	}
	if strings.Contains(strings.ToLower(key), "token") {
		logger.Debug().Str("key", key).Str("source", "environment").
			Bool("sensitive", true).Msg("using environment variable")
	} else {
		logger.Debug().Str("key", key).Str("value", value).
			Str("source", "environment").Msg("using environment variable")
	}
	return value
}

// ParseInt reads an integer from an environment variable, falling back to
// the default on absence or parse error.
func ParseInt(key string, defaultValue int) int {
	logger := xglog.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logDefault(logger, key)
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Err(err).
			Msg("invalid integer in environment, using default")
		return defaultValue
	}
	return i
}

// ParseFloat reads a float from an environment variable, falling back to
// the default on absence or parse error.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := xglog.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logDefault(logger, key)
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Err(err).
			Msg("invalid float in environment, using default")
		return defaultValue
	}
	return f
}

// ParseDuration reads a time.Duration from an environment variable,
// falling back to the default on absence or parse error.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := xglog.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logDefault(logger, key)
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Err(err).
			Msg("invalid duration in environment, using default")
		return defaultValue
	}
	return d
}

func logDefault(logger zerolog.Logger, key string) {
	logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
}

// ApplyEnv overlays EVENTD_* environment variables on a loaded config.
// The environment wins over the file, which wins over the defaults.
func ApplyEnv(cfg *Config) {
	cfg.LogLevel = ParseString("EVENTD_LOG_LEVEL", cfg.LogLevel)

	cfg.Store.Backend = ParseString("EVENTD_STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Path = ParseString("EVENTD_STORE_PATH", cfg.Store.Path)
	cfg.Store.RedisAddr = ParseString("EVENTD_REDIS_ADDR", cfg.Store.RedisAddr)
	cfg.Store.RedisDB = ParseInt("EVENTD_REDIS_DB", cfg.Store.RedisDB)

	cfg.SweepInterval = ParseDuration("EVENTD_SWEEP_INTERVAL", cfg.SweepInterval)
	cfg.GraceDelay = ParseDuration("EVENTD_GRACE_DELAY", cfg.GraceDelay)
	cfg.CompleteDelay = ParseDuration("EVENTD_COMPLETE_DELAY", cfg.CompleteDelay)

	cfg.MysteryBox.MinXP = ParseInt("EVENTD_MYSTERYBOX_MIN_XP", cfg.MysteryBox.MinXP)
	cfg.MysteryBox.MaxXP = ParseInt("EVENTD_MYSTERYBOX_MAX_XP", cfg.MysteryBox.MaxXP)
	cfg.MysteryBox.TrollChance = ParseFloat("EVENTD_MYSTERYBOX_TROLL_CHANCE", cfg.MysteryBox.TrollChance)

	cfg.Impostor.MissionCount = ParseInt("EVENTD_IMPOSTOR_MISSIONS", cfg.Impostor.MissionCount)
	cfg.Impostor.AIStreakWindow = ParseDuration("EVENTD_IMPOSTOR_AI_WINDOW", cfg.Impostor.AIStreakWindow)
	cfg.Impostor.AIStreakThreshold = ParseInt("EVENTD_IMPOSTOR_AI_THRESHOLD", cfg.Impostor.AIStreakThreshold)

	cfg.Admin.Listen = ParseString("EVENTD_ADMIN_LISTEN", cfg.Admin.Listen)
	cfg.Admin.Token = ParseString("EVENTD_ADMIN_TOKEN", cfg.Admin.Token)

	cfg.OTLPEndpoint = ParseString("EVENTD_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.DatasetPath = ParseString("EVENTD_DATASET_PATH", cfg.DatasetPath)
}

// Load resolves the complete configuration: defaults, then the YAML file,
// then the environment, then validation.
func Load(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
