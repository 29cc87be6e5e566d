// SPDX-License-Identifier: MIT

// Package store persists the event engine's state: active events, event
// history and per-user preferences.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibouclub/eventengine/internal/event/model"
)

// ErrNotFound is returned by UpdateEvent when the event id is absent.
// Callers treat it as a silent no-op (double-fired timers, stale admin
// commands).
var ErrNotFound = errors.New("event not found")

// Store is the system-of-record for the event engine.
//
// Design intent:
//   - UpdateEvent applies the mutation to a private copy under the store's
//     serialization discipline and persists it atomically. Concurrent
//     signals for the same event can never lose updates.
//   - GetEvent returns (nil, nil) for a missing id. Callers must check for
//     nil before use.
//   - DeleteEvent reports whether the event was present, so termination
//     side effects can be tied to exactly one caller.
type Store interface {
	PutEvent(ctx context.Context, ev *model.ActiveEvent) error
	GetEvent(ctx context.Context, id string) (*model.ActiveEvent, error)
	UpdateEvent(ctx context.Context, id string, fn func(*model.ActiveEvent) error) (*model.ActiveEvent, error)
	ListEvents(ctx context.Context) ([]*model.ActiveEvent, error)
	DeleteEvent(ctx context.Context, id string) (bool, error)

	AppendHistory(ctx context.Context, entry model.HistoryEntry) error
	ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error)

	Preferences(ctx context.Context, userID string) (model.UserPreferences, error)
	SetPreferences(ctx context.Context, userID string, prefs model.UserPreferences) error

	Close() error
}

// Options carries backend-specific settings for Open.
type Options struct {
	Path      string // file path (file, badger, sqlite backends)
	RedisAddr string
	RedisDB   int
}

// Open creates a Store based on the backend configuration.
func Open(backend string, opts Options) (Store, error) {
	if backend == "" {
		backend = "file"
	}

	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(opts.Path)
	case "badger":
		return NewBadgerStore(opts.Path)
	case "sqlite":
		return NewSQLiteStore(opts.Path)
	case "redis":
		return NewRedisStore(opts.RedisAddr, opts.RedisDB)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}
