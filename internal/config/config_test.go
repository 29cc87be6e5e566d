// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	// The default file backend writes under data/; point it somewhere
	// that exists for the validation pass.
	cfg.Store.Path = filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 50, cfg.MysteryBox.MinXP)
	assert.Equal(t, 3, cfg.Impostor.MissionCount)
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eventd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logLevel: debug
store:
  backend: memory
sweepInterval: 1m
mysteryBox:
  minXP: 10
  maxXP: 20
  trollChance: 0.5
kinds:
  riddle:
    duration: 2h
    xpBase: 400
schedule:
  - kind: riddle
    at: "09:30"
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 10, cfg.MysteryBox.MinXP)
	assert.Equal(t, 2*time.Hour, cfg.Kinds["riddle"].Duration)
	require.Len(t, cfg.Schedule, 1)
	assert.Equal(t, "09:30", cfg.Schedule[0].At)

	require.NoError(t, Validate(cfg))
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eventd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLvl: debug\n"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestApplyEnvWinsOverFile(t *testing.T) {
	t.Setenv("EVENTD_LOG_LEVEL", "warn")
	t.Setenv("EVENTD_STORE_BACKEND", "memory")
	t.Setenv("EVENTD_SWEEP_INTERVAL", "5s")
	t.Setenv("EVENTD_MYSTERYBOX_TROLL_CHANCE", "0.9")
	t.Setenv("EVENTD_IMPOSTOR_MISSIONS", "5")
	t.Setenv("EVENTD_ADMIN_TOKEN", "secret")

	cfg := Defaults()
	ApplyEnv(&cfg)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
	assert.InDelta(t, 0.9, cfg.MysteryBox.TrollChance, 1e-9)
	assert.Equal(t, 5, cfg.Impostor.MissionCount)
	assert.Equal(t, "secret", cfg.Admin.Token)
}

func TestApplyEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("EVENTD_REDIS_DB", "not-a-number")
	t.Setenv("EVENTD_GRACE_DELAY", "soon")

	cfg := Defaults()
	ApplyEnv(&cfg)
	assert.Zero(t, cfg.Store.RedisDB)
	assert.Equal(t, 30*time.Second, cfg.GraceDelay)
}

func TestValidateRejections(t *testing.T) {
	base := func() Config {
		cfg := Defaults()
		cfg.Store.Backend = "memory"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "etcd" }},
		{"file backend without path", func(c *Config) {
			c.Store.Backend = "file"
			c.Store.Path = ""
		}},
		{"redis backend without addr", func(c *Config) { c.Store.Backend = "redis" }},
		{"sweep below 1s", func(c *Config) { c.SweepInterval = 100 * time.Millisecond }},
		{"negative grace", func(c *Config) { c.GraceDelay = -time.Second }},
		{"unknown kind", func(c *Config) { c.Kinds = map[string]KindConfig{"raid": {}} }},
		{"box max below min", func(c *Config) { c.MysteryBox.MaxXP = c.MysteryBox.MinXP - 1 }},
		{"troll chance above 1", func(c *Config) { c.MysteryBox.TrollChance = 1.5 }},
		{"zero missions", func(c *Config) { c.Impostor.MissionCount = 0 }},
		{"too many missions", func(c *Config) { c.Impostor.MissionCount = 50 }},
		{"bad admin listen", func(c *Config) { c.Admin.Listen = "no-port" }},
		{"bad schedule time", func(c *Config) {
			c.Schedule = []ScheduleEntry{{Kind: "riddle", At: "25:00"}}
		}},
		{"bad schedule kind", func(c *Config) {
			c.Schedule = []ScheduleEntry{{Kind: "raid", At: "10:00"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestLoadFullPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eventd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: memory\n"), 0o600))
	t.Setenv("EVENTD_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "debug", cfg.LogLevel)
}
