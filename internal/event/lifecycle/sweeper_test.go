// SPDX-License-Identifier: MIT

package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hibouclub/eventengine/internal/event/model"
)

func TestSweepOnceTerminatesExpired(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx := context.Background()

	// Events written by a previous process: one expired, one live. No
	// in-process timers exist for either.
	now := time.Now()
	expired := &model.ActiveEvent{
		ID:        "expired",
		Kind:      model.KindRiddle,
		StartTime: now.Add(-2 * time.Hour),
		EndTime:   now.Add(-time.Hour),
		Challenge: &model.ChallengeData{Answer: "x", XPBase: 100},
	}
	live := &model.ActiveEvent{
		ID:        "live",
		Kind:      model.KindCounterChallenge,
		StartTime: now,
		EndTime:   now.Add(time.Hour),
		Counter:   &model.CounterData{TargetCount: 100, XPReward: 1500},
	}
	require.NoError(t, ctrl.Store.PutEvent(ctx, expired))
	require.NoError(t, ctrl.Store.PutEvent(ctx, live))

	s := &Sweeper{Ctrl: ctrl, Conf: SweeperConfig{Interval: time.Minute}}
	s.SweepOnce(ctx)

	got, err := ctrl.Store.GetEvent(ctx, "expired")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ctrl.Store.GetEvent(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, got)

	history, err := ctrl.Store.ListHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "expired", history[0].EventID)
	assert.Equal(t, model.ReasonExpired, history[0].Reason)
}

func TestSweepOnceIsIdempotent(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, ctrl.Store.PutEvent(ctx, &model.ActiveEvent{
		ID:        "gone",
		Kind:      model.KindRiddle,
		StartTime: now.Add(-2 * time.Hour),
		EndTime:   now.Add(-time.Hour),
		Challenge: &model.ChallengeData{Answer: "x", XPBase: 100},
	}))

	s := &Sweeper{Ctrl: ctrl}
	s.SweepOnce(ctx)
	s.SweepOnce(ctx)

	history, err := ctrl.Store.ListHistory(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctrl, _, _ := newTestController(t)
	s := &Sweeper{Ctrl: ctrl, Conf: SweeperConfig{Interval: 5 * time.Millisecond}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
}
