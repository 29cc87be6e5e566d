// SPDX-License-Identifier: MIT

// Package content supplies riddle and sequence material for challenge
// events: an external generator when one is wired, a curated static
// dataset otherwise.
package content

import "context"

// Challenge is one question with its accepted answers and a deferred hint.
type Challenge struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Alternatives []string `json:"alternatives,omitempty"`
	Hint         string   `json:"hint,omitempty"`
	Category     string   `json:"category,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
}

// Generator produces novel challenge material. The language-model backed
// implementation lives outside this repository; implementations may return
// an error or nil to signal degraded output.
type Generator interface {
	GenerateRiddle(ctx context.Context, difficulty string) (*Challenge, error)
	GenerateSequence(ctx context.Context, difficulty string) (*Challenge, error)
}
