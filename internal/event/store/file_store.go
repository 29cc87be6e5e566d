// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/hibouclub/eventengine/internal/event/model"
	xglog "github.com/hibouclub/eventengine/internal/log"
)

// FileStore keeps the whole data set as one JSON document on disk. Every
// mutation rewrites the file atomically and durably via renameio (fsync
// before rename), so a crash can never leave a half-written store behind.
// A store-level mutex serializes all read-modify-write sequences.
type FileStore struct {
	mu   sync.Mutex
	path string
	data *model.EventsData
}

// NewFileStore loads (or initializes) the JSON store at path. A missing
// file yields an empty store. An unparsable file is moved aside to
// <path>.corrupt-<unix> and the engine continues with an empty store;
// the quarantined copy is kept for manual recovery.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("file store: create dir: %w", err)
	}

	s := &FileStore{path: path, data: emptyData()}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run. Persist the empty skeleton so later saves only rewrite.
		if err := s.saveLocked(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("file store: read %s: %w", path, err)
	default:
		var data model.EventsData
		if jsonErr := json.Unmarshal(raw, &data); jsonErr != nil {
			quarantine := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
			storeLog := xglog.WithComponent("store")
			storeLog.Error().
				Err(jsonErr).
				Str("path", path).
				Str("quarantine", quarantine).
				Msg("store file corrupt, starting empty")
			if mvErr := os.Rename(path, quarantine); mvErr != nil {
				return nil, fmt.Errorf("file store: quarantine corrupt file: %w", mvErr)
			}
			if err := s.saveLocked(); err != nil {
				return nil, err
			}
		} else {
			if data.UserPreferences == nil {
				data.UserPreferences = make(map[string]model.UserPreferences)
			}
			s.data = &data
		}
	}

	return s, nil
}

func emptyData() *model.EventsData {
	return &model.EventsData{
		ActiveEvents:    []*model.ActiveEvent{},
		UserPreferences: make(map[string]model.UserPreferences),
	}
}

func (s *FileStore) Close() error { return nil }

// saveLocked writes the current data set. Callers must hold s.mu.
func (s *FileStore) saveLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("file store: marshal: %w", err)
	}
	if err := renameio.WriteFile(s.path, raw, 0o640); err != nil {
		return fmt.Errorf("file store: write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) findLocked(id string) (int, *model.ActiveEvent) {
	for i, ev := range s.data.ActiveEvents {
		if ev.ID == id {
			return i, ev
		}
	}
	return -1, nil
}

func (s *FileStore) PutEvent(ctx context.Context, ev *model.ActiveEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, _ := s.findLocked(ev.ID); i >= 0 {
		s.data.ActiveEvents[i] = ev.Clone()
	} else {
		s.data.ActiveEvents = append(s.data.ActiveEvents, ev.Clone())
	}
	return s.saveLocked()
}

func (s *FileStore) GetEvent(ctx context.Context, id string) (*model.ActiveEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ev := s.findLocked(id)
	if ev == nil {
		return nil, nil
	}
	return ev.Clone(), nil
}

func (s *FileStore) UpdateEvent(ctx context.Context, id string, fn func(*model.ActiveEvent) error) (*model.ActiveEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ev := s.findLocked(id)
	if ev == nil {
		return nil, ErrNotFound
	}
	cpy := ev.Clone()
	if err := fn(cpy); err != nil {
		return nil, err
	}
	s.data.ActiveEvents[i] = cpy
	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	return cpy.Clone(), nil
}

func (s *FileStore) ListEvents(ctx context.Context) ([]*model.ActiveEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*model.ActiveEvent, 0, len(s.data.ActiveEvents))
	for _, ev := range s.data.ActiveEvents {
		list = append(list, ev.Clone())
	}
	return list, nil
}

func (s *FileStore) DeleteEvent(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ev := s.findLocked(id)
	if ev == nil {
		return false, nil
	}
	s.data.ActiveEvents = append(s.data.ActiveEvents[:i], s.data.ActiveEvents[i+1:]...)
	if err := s.saveLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStore) AppendHistory(ctx context.Context, entry model.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.History = append(s.data.History, entry)
	return s.saveLocked()
}

func (s *FileStore) ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.data.History
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	out := make([]model.HistoryEntry, len(h))
	copy(out, h)
	return out, nil
}

func (s *FileStore) Preferences(ctx context.Context, userID string) (model.UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UserPreferences[userID], nil
}

func (s *FileStore) SetPreferences(ctx context.Context, userID string, prefs model.UserPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.UserPreferences[userID] = prefs
	return s.saveLocked()
}
