// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/hibouclub/eventengine/internal/event/model"
)

const (
	eventPrefix   = "event/"
	historyPrefix = "history/"
	prefPrefix    = "pref/"
)

// BadgerStore persists events in a badger key-value database, one key per
// event. Update transactions give per-key atomic read-modify-write;
// commit conflicts are retried.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(path string) (*BadgerStore, error) {
	if path == "" {
		return nil, fmt.Errorf("badger store: path required")
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger store: open %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }

func eventKey(id string) []byte { return []byte(eventPrefix + id) }

func (s *BadgerStore) PutEvent(ctx context.Context, ev *model.ActiveEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("badger store: marshal event: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(ev.ID), raw)
	})
}

func (s *BadgerStore) GetEvent(ctx context.Context, id string) (*model.ActiveEvent, error) {
	var ev *model.ActiveEvent
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(eventKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			ev = &model.ActiveEvent{}
			return json.Unmarshal(val, ev)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("badger store: get event: %w", err)
	}
	return ev, nil
}

func (s *BadgerStore) UpdateEvent(ctx context.Context, id string, fn func(*model.ActiveEvent) error) (*model.ActiveEvent, error) {
	var updated *model.ActiveEvent
	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(eventKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			ev := &model.ActiveEvent{}
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, ev)
			}); err != nil {
				return err
			}
			if err := fn(ev); err != nil {
				return err
			}
			raw, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			if err := txn.Set(eventKey(id), raw); err != nil {
				return err
			}
			updated = ev
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
}

func (s *BadgerStore) ListEvents(ctx context.Context) ([]*model.ActiveEvent, error) {
	var list []*model.ActiveEvent
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(eventPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				ev := &model.ActiveEvent{}
				if err := json.Unmarshal(val, ev); err != nil {
					return err
				}
				list = append(list, ev)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger store: list events: %w", err)
	}
	return list, nil
}

func (s *BadgerStore) DeleteEvent(ctx context.Context, id string) (bool, error) {
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(eventKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return txn.Delete(eventKey(id))
	})
	if err != nil {
		return false, fmt.Errorf("badger store: delete event: %w", err)
	}
	return existed, nil
}

func (s *BadgerStore) AppendHistory(ctx context.Context, entry model.HistoryEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("badger store: marshal history: %w", err)
	}
	// Nanosecond timestamp in the key keeps iteration in append order.
	key := fmt.Sprintf("%s%020d/%s", historyPrefix, time.Now().UnixNano(), entry.EventID)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}

func (s *BadgerStore) ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(historyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry model.HistoryEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger store: list history: %w", err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (s *BadgerStore) Preferences(ctx context.Context, userID string) (model.UserPreferences, error) {
	var prefs model.UserPreferences
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &prefs)
		})
	})
	if err != nil {
		return model.UserPreferences{}, fmt.Errorf("badger store: preferences: %w", err)
	}
	return prefs, nil
}

func (s *BadgerStore) SetPreferences(ctx context.Context, userID string, prefs model.UserPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("badger store: marshal preferences: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefPrefix+userID), raw)
	})
}
