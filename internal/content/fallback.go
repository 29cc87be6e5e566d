// SPDX-License-Identifier: MIT

package content

import (
	"context"

	xglog "github.com/hibouclub/eventengine/internal/log"
	"github.com/hibouclub/eventengine/internal/metrics"
)

// Fallback wraps an optional external generator and serves the curated
// dataset whenever the generator is absent, fails, or returns malformed
// output. Players never see the degradation.
type Fallback struct {
	Primary Generator // may be nil
	Static  *Dataset
}

func (f *Fallback) GenerateRiddle(ctx context.Context, difficulty string) (*Challenge, error) {
	if c := f.tryPrimary(ctx, difficulty, true); c != nil {
		return c, nil
	}
	return f.Static.GenerateRiddle(ctx, difficulty)
}

func (f *Fallback) GenerateSequence(ctx context.Context, difficulty string) (*Challenge, error) {
	if c := f.tryPrimary(ctx, difficulty, false); c != nil {
		return c, nil
	}
	return f.Static.GenerateSequence(ctx, difficulty)
}

func (f *Fallback) tryPrimary(ctx context.Context, difficulty string, riddle bool) *Challenge {
	if f.Primary == nil {
		return nil
	}
	var (
		c   *Challenge
		err error
	)
	if riddle {
		c, err = f.Primary.GenerateRiddle(ctx, difficulty)
	} else {
		c, err = f.Primary.GenerateSequence(ctx, difficulty)
	}
	if err != nil || c == nil || c.Question == "" || c.Answer == "" {
		metrics.IncGeneratorFallback()
		log := xglog.FromContext(ctx)
		log.Warn().Err(err).Msg("content generator degraded, using static dataset")
		return nil
	}
	return c
}
