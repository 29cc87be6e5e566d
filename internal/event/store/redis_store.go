// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/hibouclub/eventengine/internal/event/model"
)

const (
	redisEventsKey  = "eventengine:events"
	redisHistoryKey = "eventengine:history"
	redisPrefsKey   = "eventengine:prefs"
)

// RedisStore keeps events in a redis hash, history in a list and
// preferences in a second hash. A process-level mutex serializes
// read-modify-write sequences; the engine is single-process by design.
type RedisStore struct {
	mu     sync.Mutex
	client *redis.Client
}

func NewRedisStore(addr string, db int) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis store: address required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis store: ping %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) PutEvent(ctx context.Context, ev *model.ActiveEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis store: marshal event: %w", err)
	}
	if err := s.client.HSet(ctx, redisEventsKey, ev.ID, raw).Err(); err != nil {
		return fmt.Errorf("redis store: put event: %w", err)
	}
	return nil
}

func (s *RedisStore) GetEvent(ctx context.Context, id string) (*model.ActiveEvent, error) {
	raw, err := s.client.HGet(ctx, redisEventsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: get event: %w", err)
	}
	ev := &model.ActiveEvent{}
	if err := json.Unmarshal([]byte(raw), ev); err != nil {
		return nil, fmt.Errorf("redis store: decode event %s: %w", id, err)
	}
	return ev, nil
}

func (s *RedisStore) UpdateEvent(ctx context.Context, id string, fn func(*model.ActiveEvent) error) (*model.ActiveEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.GetEvent(ctx, id)
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
		return nil, fmt.Errorf("redis store: marshal event: %w", err)
	}
	if err := s.client.HSet(ctx, redisEventsKey, id, raw).Err(); err != nil {
		return nil, fmt.Errorf("redis store: update event: %w", err)
	}
	return ev, nil
}

func (s *RedisStore) ListEvents(ctx context.Context) ([]*model.ActiveEvent, error) {
	all, err := s.client.HGetAll(ctx, redisEventsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis store: list events: %w", err)
	}
	list := make([]*model.ActiveEvent, 0, len(all))
	for id, raw := range all {
		ev := &model.ActiveEvent{}
		if err := json.Unmarshal([]byte(raw), ev); err != nil {
			return nil, fmt.Errorf("redis store: decode event %s: %w", id, err)
		}
		list = append(list, ev)
	}
	return list, nil
}

func (s *RedisStore) DeleteEvent(ctx context.Context, id string) (bool, error) {
	n, err := s.client.HDel(ctx, redisEventsKey, id).Result()
	if err != nil {
		return false, fmt.Errorf("redis store: delete event: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) AppendHistory(ctx context.Context, entry model.HistoryEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis store: marshal history: %w", err)
	}
	if err := s.client.RPush(ctx, redisHistoryKey, raw).Err(); err != nil {
		return fmt.Errorf("redis store: append history: %w", err)
	}
	return nil
}

func (s *RedisStore) ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raws, err := s.client.LRange(ctx, redisHistoryKey, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis store: list history: %w", err)
	}
	entries := make([]model.HistoryEntry, 0, len(raws))
	for _, raw := range raws {
		var entry model.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("redis store: decode history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *RedisStore) Preferences(ctx context.Context, userID string) (model.UserPreferences, error) {
	raw, err := s.client.HGet(ctx, redisPrefsKey, userID).Result()
	if errors.Is(err, redis.Nil) {
		return model.UserPreferences{}, nil
	}
	if err != nil {
		return model.UserPreferences{}, fmt.Errorf("redis store: preferences: %w", err)
	}
	var prefs model.UserPreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return model.UserPreferences{}, fmt.Errorf("redis store: decode preferences: %w", err)
	}
	return prefs, nil
}

func (s *RedisStore) SetPreferences(ctx context.Context, userID string, prefs model.UserPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("redis store: marshal preferences: %w", err)
	}
	if err := s.client.HSet(ctx, redisPrefsKey, userID, raw).Err(); err != nil {
		return fmt.Errorf("redis store: set preferences: %w", err)
	}
	return nil
}
