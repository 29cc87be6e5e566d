// SPDX-License-Identifier: MIT

// Package config loads, defaults and validates the event engine
// configuration from a YAML file and EVENTD_* environment overrides.
package config

import (
	"time"
)

// StoreConfig selects and parameterizes the persistence backend.
type StoreConfig struct {
	Backend   string `yaml:"backend"` // memory, file, badger, sqlite, redis
	Path      string `yaml:"path"`    // file path (file/sqlite) or directory (badger)
	RedisAddr string `yaml:"redisAddr"`
	RedisDB   int    `yaml:"redisDB"`
}

// KindConfig carries the launch parameters of one event kind. Zero
// fields fall back to the built-in defaults for that kind.
type KindConfig struct {
	Duration  time.Duration `yaml:"duration"`
	HintDelay time.Duration `yaml:"hintDelay"`
	XPBase    int           `yaml:"xpBase"`

	TargetCount int `yaml:"targetCount"` // counter challenge
	HP          int `yaml:"hp"`          // boss fights
	DamagePer   int `yaml:"damagePer"`
	FinalBlowXP int `yaml:"finalBlowXP"`
	SharedXP    int `yaml:"sharedXP"`
	Penalty     int `yaml:"penalty"`
	XPEach      int `yaml:"xpEach"` // celebrations
}

// MysteryBoxConfig bounds the random drop rewards.
type MysteryBoxConfig struct {
	MinXP       int     `yaml:"minXP"`
	MaxXP       int     `yaml:"maxXP"`
	TrollChance float64 `yaml:"trollChance"`
}

// ImpostorConfig shapes the hidden-objective game.
type ImpostorConfig struct {
	MissionCount      int           `yaml:"missionCount"`
	AIStreakWindow    time.Duration `yaml:"aiStreakWindow"`
	AIStreakThreshold int           `yaml:"aiStreakThreshold"`
}

// AdminConfig configures the HTTP admin/observability listener.
type AdminConfig struct {
	Listen string `yaml:"listen"`
	Token  string `yaml:"token"` // bearer token; empty disables mutating routes
}

// ScheduleEntry plans one recurring daily launch.
type ScheduleEntry struct {
	Kind string `yaml:"kind"`
	At   string `yaml:"at"` // "HH:MM", server local time
}

// Config is the fully resolved runtime configuration.
type Config struct {
	LogLevel string `yaml:"logLevel"`

	Store StoreConfig `yaml:"store"`

	SweepInterval time.Duration `yaml:"sweepInterval"`
	GraceDelay    time.Duration `yaml:"graceDelay"`
	CompleteDelay time.Duration `yaml:"completeDelay"`

	Kinds map[string]KindConfig `yaml:"kinds"`

	MysteryBox MysteryBoxConfig `yaml:"mysteryBox"`
	Impostor   ImpostorConfig   `yaml:"impostor"`

	Admin AdminConfig `yaml:"admin"`

	// OTLPEndpoint enables trace export when non-empty (host:port of an
	// OTLP/HTTP collector).
	OTLPEndpoint string `yaml:"otlpEndpoint"`

	// DatasetPath points at an external challenge corpus; empty uses the
	// embedded one.
	DatasetPath string `yaml:"datasetPath"`

	Schedule []ScheduleEntry `yaml:"schedule"`
}

// Defaults returns the configuration used when no file and no overrides
// are present.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		Store: StoreConfig{
			Backend: "file",
			Path:    "data/events.json",
		},
		SweepInterval: 30 * time.Second,
		GraceDelay:    30 * time.Second,
		CompleteDelay: 10 * time.Second,
		Kinds:         map[string]KindConfig{},
		MysteryBox: MysteryBoxConfig{
			MinXP:       50,
			MaxXP:       250,
			TrollChance: 0.2,
		},
		Impostor: ImpostorConfig{
			MissionCount:      3,
			AIStreakWindow:    10 * time.Minute,
			AIStreakThreshold: 3,
		},
		Admin: AdminConfig{
			Listen: ":8090",
		},
	}
}
