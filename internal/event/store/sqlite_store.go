// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hibouclub/eventengine/internal/event/model"
	xglog "github.com/hibouclub/eventengine/internal/log"
	"github.com/hibouclub/eventengine/internal/persistence/sqlite"
)

const schemaVersion = 1

// SQLiteStore implements Store on SQLite. Payloads are stored as JSON
// columns; a store-level mutex serializes read-modify-write sequences on
// top of per-statement transactions.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite store: path required")
	}
	if _, err := os.Stat(dbPath); err == nil {
		if problems, err := sqlite.VerifyIntegrity(dbPath, "quick"); err == nil && len(problems) > 0 {
			storeLog := xglog.WithComponent("store")
			storeLog.Error().
				Strs("problems", problems).
				Str("path", dbPath).
				Msg("sqlite store failed integrity check")
		}
	}

	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite store: migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		end_time_ms INTEGER NOT NULL,
		payload_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_end_time ON events(end_time_ms);

	CREATE TABLE IF NOT EXISTS history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL,
		entry_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS preferences (
		user_id TEXT PRIMARY KEY,
		prefs_json TEXT NOT NULL
	);`

	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) PutEvent(ctx context.Context, ev *model.ActiveEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("sqlite store: marshal event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, kind, end_time_ms, payload_json) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET kind=excluded.kind, end_time_ms=excluded.end_time_ms, payload_json=excluded.payload_json`,
		ev.ID, string(ev.Kind), ev.EndTime.UnixMilli(), string(raw))
	if err != nil {
		return fmt.Errorf("sqlite store: put event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) getEvent(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id string) (*model.ActiveEvent, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT payload_json FROM events WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite store: get event: %w", err)
	}
	ev := &model.ActiveEvent{}
	if err := json.Unmarshal([]byte(raw), ev); err != nil {
		return nil, fmt.Errorf("sqlite store: decode event %s: %w", id, err)
	}
	return ev, nil
}

func (s *SQLiteStore) GetEvent(ctx context.Context, id string) (*model.ActiveEvent, error) {
	return s.getEvent(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateEvent(ctx context.Context, id string, fn func(*model.ActiveEvent) error) (*model.ActiveEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ev, err := s.getEvent(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrNotFound
	}
	if err := fn(ev); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: marshal event: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE events SET kind = ?, end_time_ms = ?, payload_json = ? WHERE id = ?`,
		string(ev.Kind), ev.EndTime.UnixMilli(), string(raw), id); err != nil {
		return nil, fmt.Errorf("sqlite store: update event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite store: commit: %w", err)
	}
	return ev, nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context) ([]*model.ActiveEvent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload_json FROM events ORDER BY end_time_ms`)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: list events: %w", err)
	}
	defer rows.Close()

	var list []*model.ActiveEvent
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		ev := &model.ActiveEvent{}
		if err := json.Unmarshal([]byte(raw), ev); err != nil {
			return nil, fmt.Errorf("sqlite store: decode event: %w", err)
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

func (s *SQLiteStore) DeleteEvent(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlite store: delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) AppendHistory(ctx context.Context, entry model.HistoryEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("sqlite store: marshal history: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history (event_id, entry_json) VALUES (?, ?)`,
		entry.EventID, string(raw))
	if err != nil {
		return fmt.Errorf("sqlite store: append history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	query := `SELECT entry_json FROM history ORDER BY seq`
	args := []any{}
	if limit > 0 {
		query = `SELECT entry_json FROM (
			SELECT seq, entry_json FROM history ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: list history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var entry model.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("sqlite store: decode history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Preferences(ctx context.Context, userID string) (model.UserPreferences, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT prefs_json FROM preferences WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserPreferences{}, nil
	}
	if err != nil {
		return model.UserPreferences{}, fmt.Errorf("sqlite store: preferences: %w", err)
	}
	var prefs model.UserPreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return model.UserPreferences{}, fmt.Errorf("sqlite store: decode preferences: %w", err)
	}
	return prefs, nil
}

func (s *SQLiteStore) SetPreferences(ctx context.Context, userID string, prefs model.UserPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("sqlite store: marshal preferences: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, prefs_json) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET prefs_json = excluded.prefs_json`,
		userID, string(raw))
	if err != nil {
		return fmt.Errorf("sqlite store: set preferences: %w", err)
	}
	return nil
}
