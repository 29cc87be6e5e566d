// SPDX-License-Identifier: MIT

package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibouclub/eventengine/internal/event/model"
	"github.com/hibouclub/eventengine/internal/event/store"
)

type fakeChannels struct {
	mu          sync.Mutex
	failCreate  bool
	created     []string
	deleted     []string
	deletedCats []string
	seq         int
}

func (f *fakeChannels) CreateEventChannel(ctx context.Context, name, icon string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return "", "", fmt.Errorf("gateway down")
	}
	f.seq++
	ch := fmt.Sprintf("chan-%d", f.seq)
	f.created = append(f.created, ch)
	return ch, "cat-events", nil
}

func (f *fakeChannels) DeleteChannel(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID)
	return nil
}

func (f *fakeChannels) DeleteCategory(ctx context.Context, categoryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedCats = append(f.deletedCats, categoryID)
	return nil
}

func (f *fakeChannels) deletedChannels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakeChannels) deletedCategories() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletedCats...)
}

type fakeNotify struct {
	mu      sync.Mutex
	channel []string
	user    []string
}

func (f *fakeNotify) SendToUser(ctx context.Context, userID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = append(f.user, message)
	return nil
}

func (f *fakeNotify) SendToChannel(ctx context.Context, channelID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channel = append(f.channel, message)
	return nil
}

func (f *fakeNotify) channelMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.channel...)
}

func riddleRequest() StartRequest {
	return StartRequest{
		Kind:        model.KindRiddle,
		Duration:    time.Hour,
		ChannelName: "devinette",
		ChannelIcon: "🧩",
		Announce:    "Nouvelle énigme !",
		Challenge: &model.ChallengeData{
			Question: "Qu'est-ce qui est jaune et qui attend ?",
			Answer:   "jonathan",
			Hint:     "C'est un prénom.",
			XPBase:   200,
		},
	}
}

func newTestController(t *testing.T) (*Controller, *fakeChannels, *fakeNotify) {
	t.Helper()
	channels := &fakeChannels{}
	notify := &fakeNotify{}
	ctrl := NewController(store.NewMemoryStore(), channels, notify)
	ctrl.GraceDelay = 10 * time.Millisecond
	return ctrl, channels, notify
}

func TestStartSingletonKindIsExclusive(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx := context.Background()

	first, err := ctrl.Start(ctx, riddleRequest())
	require.NoError(t, err)
	require.NotNil(t, first)

	// Second start of the same singleton kind is a silent no-op.
	second, err := ctrl.Start(ctx, riddleRequest())
	require.NoError(t, err)
	assert.Nil(t, second)

	list, err := ctrl.Store.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStartImpostorExclusivePerUser(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx := context.Background()

	impostorReq := func(userID string) StartRequest {
		return StartRequest{
			Kind:     model.KindImpostor,
			Duration: 24 * time.Hour,
			Impostor: &model.ImpostorData{
				ImpostorID: userID,
				Missions:   []model.Mission{{Type: model.MissionMessages, Goal: 5}},
			},
		}
	}

	first, err := ctrl.Start(ctx, impostorReq("alice"))
	require.NoError(t, err)
	require.NotNil(t, first)

	// Different user: allowed concurrently.
	second, err := ctrl.Start(ctx, impostorReq("bob"))
	require.NoError(t, err)
	require.NotNil(t, second)

	// Same user again: no-op.
	dup, err := ctrl.Start(ctx, impostorReq("alice"))
	require.NoError(t, err)
	assert.Nil(t, dup)

	list, err := ctrl.Store.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestStartRequiresDuration(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	req := riddleRequest()
	req.Duration = 0
	_, err := ctrl.Start(context.Background(), req)
	require.Error(t, err)
}

func TestStartSurvivesChannelFailure(t *testing.T) {
	ctrl, channels, _ := newTestController(t)
	channels.failCreate = true

	ev, err := ctrl.Start(context.Background(), riddleRequest())
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Empty(t, ev.ChannelID, "event should run channel-less when provisioning fails")
}

func TestEndIsIdempotent(t *testing.T) {
	ctrl, channels, _ := newTestController(t)
	ctx := context.Background()

	ev, err := ctrl.Start(ctx, riddleRequest())
	require.NoError(t, err)

	require.NoError(t, ctrl.End(ctx, ev.ID, model.ReasonForced))
	require.NoError(t, ctrl.End(ctx, ev.ID, model.ReasonForced))
	require.NoError(t, ctrl.End(ctx, ev.ID, model.ReasonExpired))

	// Only the winning End appends history.
	history, err := ctrl.Store.ListHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.ReasonForced, history[0].Reason)

	// Channel teardown fires once, after the grace delay.
	require.Eventually(t, func() bool {
		return len(channels.deletedChannels()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEndUnknownEventIsNoop(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	require.NoError(t, ctrl.End(context.Background(), "ghost", model.ReasonExpired))

	history, err := ctrl.Store.ListHistory(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCategorySurvivesWhileShared(t *testing.T) {
	ctrl, channels, _ := newTestController(t)
	ctx := context.Background()

	ev1, err := ctrl.Start(ctx, riddleRequest())
	require.NoError(t, err)

	counterReq := StartRequest{
		Kind:        model.KindCounterChallenge,
		Duration:    time.Hour,
		ChannelName: "compteur",
		Counter:     &model.CounterData{TargetCount: 100, XPReward: 1500},
	}
	ev2, err := ctrl.Start(ctx, counterReq)
	require.NoError(t, err)

	// Both events share the category; ending one must keep it.
	require.NoError(t, ctrl.End(ctx, ev1.ID, model.ReasonForced))
	require.Eventually(t, func() bool {
		return len(channels.deletedChannels()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, channels.deletedCategories())

	// Last event out turns off the lights.
	require.NoError(t, ctrl.End(ctx, ev2.ID, model.ReasonForced))
	require.Eventually(t, func() bool {
		return len(channels.deletedCategories()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRevealHintExactlyOnce(t *testing.T) {
	ctrl, _, notify := newTestController(t)
	ctx := context.Background()

	ev, err := ctrl.Start(ctx, riddleRequest())
	require.NoError(t, err)

	before := len(notify.channelMessages())
	ctrl.revealHint(ctx, ev.ID)
	ctrl.revealHint(ctx, ev.ID)

	msgs := notify.channelMessages()[before:]
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Indice")

	stored, err := ctrl.Store.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.True(t, stored.Challenge.HintShown)
}

func TestRevealHintAfterEndIsSilent(t *testing.T) {
	ctrl, _, notify := newTestController(t)
	ctx := context.Background()

	ev, err := ctrl.Start(ctx, riddleRequest())
	require.NoError(t, err)
	require.NoError(t, ctrl.End(ctx, ev.ID, model.ReasonForced))

	before := len(notify.channelMessages())
	ctrl.revealHint(ctx, ev.ID)
	assert.Len(t, notify.channelMessages(), before)
}

func TestScheduleEndFires(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx := context.Background()

	ev, err := ctrl.Start(ctx, riddleRequest())
	require.NoError(t, err)

	ctrl.ScheduleEnd(ev.ID, time.Millisecond, model.ReasonCompleted)
	require.Eventually(t, func() bool {
		got, err := ctrl.Store.GetEvent(ctx, ev.ID)
		return err == nil && got == nil
	}, time.Second, 5*time.Millisecond)

	history, err := ctrl.Store.ListHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.ReasonCompleted, history[0].Reason)
}

func TestRearmTimersSkipsExpired(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx := context.Background()

	// Simulate a restart: events in the store, no timers armed.
	now := time.Now()
	live := &model.ActiveEvent{
		ID:        "live",
		Kind:      model.KindRiddle,
		StartTime: now.Add(-time.Minute),
		EndTime:   now.Add(time.Hour),
		Challenge: &model.ChallengeData{Answer: "x", XPBase: 100},
	}
	dead := &model.ActiveEvent{
		ID:        "dead",
		Kind:      model.KindSequence,
		StartTime: now.Add(-2 * time.Hour),
		EndTime:   now.Add(-time.Hour),
		Challenge: &model.ChallengeData{Answer: "y", XPBase: 100},
	}
	require.NoError(t, ctrl.Store.PutEvent(ctx, live))
	require.NoError(t, ctrl.Store.PutEvent(ctx, dead))

	require.NoError(t, ctrl.RearmTimers(ctx))

	ctrl.mu.Lock()
	_, liveArmed := ctrl.timers["live"]
	_, deadArmed := ctrl.timers["dead"]
	ctrl.mu.Unlock()
	assert.True(t, liveArmed)
	assert.False(t, deadArmed, "expired events belong to the sweep, not a timer")
}

func TestHistoryParticipantsDeduplicated(t *testing.T) {
	now := time.Now()
	ev := &model.ActiveEvent{
		ID:   "ev",
		Kind: model.KindRiddle,
		Challenge: &model.ChallengeData{
			Answer: "x",
			Leaderboard: []model.LeaderboardEntry{
				{UserID: "alice"},
			},
			Attempts: map[string]int{"alice": 2, "bob": 1},
		},
	}
	entry := historyFor(ev, model.ReasonExpired, now)
	assert.ElementsMatch(t, []string{"alice", "bob"}, entry.Participants)
	assert.Equal(t, []string{"alice"}, entry.Winners)
}
