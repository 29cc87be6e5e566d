// SPDX-License-Identifier: MIT

package content

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	xglog "github.com/hibouclub/eventengine/internal/log"
)

//go:embed data/challenges.json
var embedded embed.FS

type datasetFile struct {
	Riddles   []Challenge `json:"riddles"`
	Sequences []Challenge `json:"sequences"`
}

// Dataset serves curated challenges. It always starts from the embedded
// corpus; when a file path is configured the file replaces the corpus and
// is hot-reloaded on change via fsnotify.
type Dataset struct {
	mu        sync.RWMutex
	riddles   []Challenge
	sequences []Challenge

	watcher *fsnotify.Watcher
}

// NewDataset loads the embedded corpus.
func NewDataset() (*Dataset, error) {
	raw, err := embedded.ReadFile("data/challenges.json")
	if err != nil {
		return nil, fmt.Errorf("content: read embedded dataset: %w", err)
	}
	d := &Dataset{}
	if err := d.load(raw); err != nil {
		return nil, err
	}
	return d, nil
}

// NewDatasetFromFile loads path and watches it for changes. A broken
// rewrite keeps the previous corpus in place.
func NewDatasetFromFile(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read dataset %s: %w", path, err)
	}
	d := &Dataset{}
	if err := d.load(raw); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("content: watch dataset: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("content: watch %s: %w", path, err)
	}
	d.watcher = watcher

	logger := xglog.WithComponent("content")
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				raw, err := os.ReadFile(path)
				if err != nil {
					logger.Warn().Err(err).Str("path", path).Msg("dataset reload read failed")
					continue
				}
				if err := d.load(raw); err != nil {
					logger.Warn().Err(err).Str("path", path).Msg("dataset reload rejected")
					continue
				}
				logger.Info().Str("path", path).Msg("dataset reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("dataset watcher error")
			}
		}
	}()

	return d, nil
}

// Close stops the file watcher, if any.
func (d *Dataset) Close() error {
	if d.watcher != nil {
		return d.watcher.Close()
	}
	return nil
}

func (d *Dataset) load(raw []byte) error {
	var file datasetFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("content: parse dataset: %w", err)
	}
	if len(file.Riddles) == 0 || len(file.Sequences) == 0 {
		return fmt.Errorf("content: dataset needs at least one riddle and one sequence")
	}
	d.mu.Lock()
	d.riddles = file.Riddles
	d.sequences = file.Sequences
	d.mu.Unlock()
	return nil
}

func pick(pool []Challenge, difficulty string) *Challenge {
	if difficulty != "" {
		var matching []Challenge
		for _, c := range pool {
			if c.Difficulty == difficulty {
				matching = append(matching, c)
			}
		}
		if len(matching) > 0 {
			pool = matching
		}
	}
	if len(pool) == 0 {
		return nil
	}
	c := pool[rand.IntN(len(pool))]
	return &c
}

// GenerateRiddle returns a random curated riddle, preferring the requested
// difficulty.
func (d *Dataset) GenerateRiddle(ctx context.Context, difficulty string) (*Challenge, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if c := pick(d.riddles, difficulty); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("content: no riddles available")
}

// GenerateSequence returns a random curated sequence, preferring the
// requested difficulty.
func (d *Dataset) GenerateSequence(ctx context.Context, difficulty string) (*Challenge, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if c := pick(d.sequences, difficulty); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("content: no sequences available")
}
