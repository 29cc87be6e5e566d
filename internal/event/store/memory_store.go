// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"sync"

	"github.com/hibouclub/eventengine/internal/event/model"
)

// MemoryStore is an in-memory Store intended for tests and local iteration.
// Not durable; not suitable for production.
type MemoryStore struct {
	mu sync.RWMutex

	events  map[string]*model.ActiveEvent
	history []model.HistoryEntry
	prefs   map[string]model.UserPreferences
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string]*model.ActiveEvent),
		prefs:  make(map[string]model.UserPreferences),
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) PutEvent(ctx context.Context, ev *model.ActiveEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.events[ev.ID] = ev.Clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetEvent(ctx context.Context, id string) (*model.ActiveEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	return ev.Clone(), nil
}

func (m *MemoryStore) UpdateEvent(ctx context.Context, id string, fn func(*model.ActiveEvent) error) (*model.ActiveEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cpy := ev.Clone()
	if err := fn(cpy); err != nil {
		return nil, err
	}
	m.events[id] = cpy
	return cpy.Clone(), nil
}

func (m *MemoryStore) ListEvents(ctx context.Context) ([]*model.ActiveEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]*model.ActiveEvent, 0, len(m.events))
	for _, ev := range m.events {
		list = append(list, ev.Clone())
	}
	return list, nil
}

func (m *MemoryStore) DeleteEvent(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.events[id]
	delete(m.events, id)
	return ok, nil
}

func (m *MemoryStore) AppendHistory(ctx context.Context, entry model.HistoryEntry) error {
	m.mu.Lock()
	m.history = append(m.history, entry)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.history
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	out := make([]model.HistoryEntry, len(h))
	copy(out, h)
	return out, nil
}

func (m *MemoryStore) Preferences(ctx context.Context, userID string) (model.UserPreferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefs[userID], nil
}

func (m *MemoryStore) SetPreferences(ctx context.Context, userID string, prefs model.UserPreferences) error {
	m.mu.Lock()
	m.prefs[userID] = prefs
	m.mu.Unlock()
	return nil
}
