// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibouclub/eventengine/internal/event/model"
	"github.com/hibouclub/eventengine/internal/event/store"
)

type credit struct {
	userID string
	amount int
}

type fakeLedger struct {
	mu      sync.Mutex
	credits []credit
}

func (f *fakeLedger) CreditXP(ctx context.Context, userID, username string, amount int, channelID string, isBot bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credits = append(f.credits, credit{userID: userID, amount: amount})
	return nil
}

func (f *fakeLedger) all() []credit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]credit(nil), f.credits...)
}

func (f *fakeLedger) total(userID string) int {
	sum := 0
	for _, c := range f.all() {
		if c.userID == userID {
			sum += c.amount
		}
	}
	return sum
}

type fakeNotify struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotify) SendToUser(ctx context.Context, userID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeNotify) SendToChannel(ctx context.Context, channelID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return nil
}

type endCall struct {
	id     string
	reason model.EndReason
}

type fakeEnder struct {
	mu    sync.Mutex
	calls []endCall
}

func (f *fakeEnder) ScheduleEnd(id string, delay time.Duration, reason model.EndReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, endCall{id: id, reason: reason})
}

func (f *fakeEnder) scheduled() []endCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]endCall(nil), f.calls...)
}

func newTestResolver(t *testing.T) (*Resolver, store.Store, *fakeLedger, *fakeEnder) {
	t.Helper()
	st := store.NewMemoryStore()
	ledger := &fakeLedger{}
	ender := &fakeEnder{}
	r := NewResolver(st, ledger, &fakeNotify{}, ender)
	r.SubmitRate = 0 // rate limiting has its own test
	return r, st, ledger, ender
}

func putRiddle(t *testing.T, st store.Store, id string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, st.PutEvent(context.Background(), &model.ActiveEvent{
		ID:        id,
		Kind:      model.KindRiddle,
		ChannelID: "chan-1",
		StartTime: now,
		EndTime:   now.Add(time.Hour),
		Challenge: &model.ChallengeData{
			Question:           "Qu'utilise-t-on pour se sécher ?",
			Answer:             "serviette",
			AlternativeAnswers: []string{"la serviette"},
			XPBase:             200,
		},
	}))
}

func TestSubmitRewardDecaysByPosition(t *testing.T) {
	r, st, ledger, _ := newTestResolver(t)
	ctx := context.Background()
	putRiddle(t, st, "ev")

	want := []int{200, 140, 100, 60, 60}
	users := []string{"u1", "u2", "u3", "u4", "u5"}
	for i, user := range users {
		out, err := r.Submit(ctx, "ev", user, user, "serviette")
		require.NoError(t, err)
		assert.Equal(t, OutcomeCorrect, out.Kind)
		assert.Equal(t, i+1, out.Position)
		assert.Equal(t, want[i], out.XPEarned, "position %d", i+1)
	}

	credits := ledger.all()
	require.Len(t, credits, len(users))
	for i := range users {
		assert.Equal(t, want[i], credits[i].amount)
	}
}

func TestSubmitServietteScenario(t *testing.T) {
	r, st, _, _ := newTestResolver(t)
	ctx := context.Background()
	putRiddle(t, st, "ev")

	// Article-tolerant match.
	out, err := r.Submit(ctx, "ev", "alice", "alice", "la serviette")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCorrect, out.Kind)

	// Resubmission, even a correct one, is flagged, not double-counted.
	out, err = r.Submit(ctx, "ev", "alice", "alice", "Serviette")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadySolved, out.Kind)

	// Wrong answer records an attempt.
	out, err = r.Submit(ctx, "ev", "bob", "bob", "essuie-main")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIncorrect, out.Kind)

	ev, err := st.GetEvent(ctx, "ev")
	require.NoError(t, err)
	require.Len(t, ev.Challenge.Leaderboard, 1)
	assert.Equal(t, "alice", ev.Challenge.Leaderboard[0].UserID)
	assert.Equal(t, 1, ev.Challenge.Attempts["bob"])
}

func TestSubmitAlreadySolvedDoesNotPayTwice(t *testing.T) {
	r, st, ledger, _ := newTestResolver(t)
	ctx := context.Background()
	putRiddle(t, st, "ev")

	_, err := r.Submit(ctx, "ev", "alice", "alice", "serviette")
	require.NoError(t, err)
	_, err = r.Submit(ctx, "ev", "alice", "alice", "serviette")
	require.NoError(t, err)

	assert.Equal(t, 200, ledger.total("alice"))
}

func TestSubmitMissingEventIsNone(t *testing.T) {
	r, _, _, _ := newTestResolver(t)
	out, err := r.Submit(context.Background(), "ghost", "alice", "alice", "serviette")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNone, out.Kind)
}

func TestSubmitRateLimited(t *testing.T) {
	st := store.NewMemoryStore()
	r := NewResolver(st, &fakeLedger{}, &fakeNotify{}, &fakeEnder{})
	ctx := context.Background()
	putRiddle(t, st, "ev")

	// Default bucket: burst of 3, slow refill. The fourth rapid-fire
	// guess is throttled without touching the event.
	for i := 0; i < 3; i++ {
		out, err := r.Submit(ctx, "ev", "spammer", "spammer", "mauvaise réponse")
		require.NoError(t, err)
		assert.Equal(t, OutcomeIncorrect, out.Kind)
	}
	out, err := r.Submit(ctx, "ev", "spammer", "spammer", "serviette")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRateLimited, out.Kind)

	// Other users have their own bucket.
	out, err = r.Submit(ctx, "ev", "alice", "alice", "serviette")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCorrect, out.Kind)
}

func TestSubmitTestEventSkipsLedger(t *testing.T) {
	r, st, ledger, _ := newTestResolver(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, st.PutEvent(ctx, &model.ActiveEvent{
		ID:        "test-ev",
		Kind:      model.KindRiddle,
		StartTime: now,
		EndTime:   now.Add(time.Hour),
		Test:      true,
		Challenge: &model.ChallengeData{Answer: "serviette", XPBase: 200},
	}))

	out, err := r.Submit(ctx, "test-ev", "alice", "alice", "serviette")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCorrect, out.Kind)
	assert.Empty(t, ledger.all(), "test events must not touch the reward ledger")
}

func TestIncrementSingleWinner(t *testing.T) {
	r, st, ledger, ender := newTestResolver(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, st.PutEvent(ctx, &model.ActiveEvent{
		ID:        "count",
		Kind:      model.KindCounterChallenge,
		StartTime: now,
		EndTime:   now.Add(time.Hour),
		Counter:   &model.CounterData{TargetCount: 1000, XPReward: 1500},
	}))

	won, err := r.Increment(ctx, "count", "u1", "u1", 999)
	require.NoError(t, err)
	assert.False(t, won)

	won, err = r.Increment(ctx, "count", "u2", "u2", 1000)
	require.NoError(t, err)
	assert.True(t, won)

	// Hitting the number again changes nothing: the slot is write-once.
	won, err = r.Increment(ctx, "count", "u3", "u3", 1000)
	require.NoError(t, err)
	assert.False(t, won)

	assert.Equal(t, 1500, ledger.total("u2"))
	assert.Zero(t, ledger.total("u3"))

	calls := ender.scheduled()
	require.Len(t, calls, 1)
	assert.Equal(t, model.ReasonCompleted, calls[0].reason)

	ev, err := st.GetEvent(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, "u2", ev.Counter.WinnerID)
}

func putBoss(t *testing.T, st store.Store, id string, hp int, kamikaze bool) {
	t.Helper()
	now := time.Now()
	require.NoError(t, st.PutEvent(context.Background(), &model.ActiveEvent{
		ID:        id,
		Kind:      model.KindBoss,
		ChannelID: "chan-boss",
		StartTime: now,
		EndTime:   now.Add(time.Hour),
		Boss: &model.BossData{
			HP:               hp,
			MaxHP:            hp,
			DamagePerMessage: 5,
			FinalBlowXP:      500,
			SharedXP:         1500,
			FailurePenalty:   100,
			Kamikaze:         kamikaze,
		},
	}))
}

func TestDamageFinalBlowAndShare(t *testing.T) {
	r, st, ledger, ender := newTestResolver(t)
	ctx := context.Background()
	putBoss(t, st, "boss", 15, false)

	defeated, err := r.Damage(ctx, "boss", "u1", "u1")
	require.NoError(t, err)
	assert.False(t, defeated)

	defeated, err = r.Damage(ctx, "boss", "u2", "u2")
	require.NoError(t, err)
	assert.False(t, defeated)

	defeated, err = r.Damage(ctx, "boss", "u1", "u1")
	require.NoError(t, err)
	assert.True(t, defeated)

	// Final blow 500 to u1, plus 750 shared each (1500 / 2 contributors).
	assert.Equal(t, 500+750, ledger.total("u1"))
	assert.Equal(t, 750, ledger.total("u2"))

	require.Len(t, ender.scheduled(), 1)
}

func TestDamageKamikazeInvertsFinalBlow(t *testing.T) {
	r, st, ledger, _ := newTestResolver(t)
	ctx := context.Background()
	putBoss(t, st, "boss", 5, true)

	defeated, err := r.Damage(ctx, "boss", "hero", "hero")
	require.NoError(t, err)
	assert.True(t, defeated)

	// The finisher pays; nobody shares anything.
	assert.Equal(t, -500, ledger.total("hero"))
	assert.Len(t, ledger.all(), 1)
}

func TestDamageAfterDefeatIsNoop(t *testing.T) {
	r, st, ledger, _ := newTestResolver(t)
	ctx := context.Background()
	putBoss(t, st, "boss", 5, false)

	_, err := r.Damage(ctx, "boss", "u1", "u1")
	require.NoError(t, err)
	before := len(ledger.all())

	defeated, err := r.Damage(ctx, "boss", "u2", "u2")
	require.NoError(t, err)
	assert.False(t, defeated)
	assert.Len(t, ledger.all(), before)
}

func TestFinalizeBossFailurePenalties(t *testing.T) {
	r, st, ledger, _ := newTestResolver(t)
	ctx := context.Background()
	putBoss(t, st, "boss", 1000, false)

	_, err := r.Damage(ctx, "boss", "u1", "u1")
	require.NoError(t, err)
	_, err = r.Damage(ctx, "boss", "u2", "u2")
	require.NoError(t, err)

	ev, err := st.GetEvent(ctx, "boss")
	require.NoError(t, err)

	r.Finalize(ctx, ev, model.ReasonExpired)

	assert.Equal(t, -100, ledger.total("u1"))
	assert.Equal(t, -100, ledger.total("u2"))
}

func TestFinalizeDefeatedBossNoPenalty(t *testing.T) {
	r, st, ledger, _ := newTestResolver(t)
	ctx := context.Background()
	putBoss(t, st, "boss", 5, false)

	_, err := r.Damage(ctx, "boss", "u1", "u1")
	require.NoError(t, err)
	paid := ledger.total("u1")

	ev, err := st.GetEvent(ctx, "boss")
	require.NoError(t, err)
	r.Finalize(ctx, ev, model.ReasonExpired)

	assert.Equal(t, paid, ledger.total("u1"), "no penalty once the boss is down")
}

func TestScanMessageFirstSpeakerWins(t *testing.T) {
	r, st, ledger, ender := newTestResolver(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, st.PutEvent(ctx, &model.ActiveEvent{
		ID:        "secret",
		Kind:      model.KindSecretWord,
		ChannelID: "chan-s",
		StartTime: now,
		EndTime:   now.Add(4 * time.Hour),
		Challenge: &model.ChallengeData{Answer: "serviette", XPBase: 300},
	}))

	won, err := r.ScanMessage(ctx, "secret", "u1", "u1", "quelqu'un a vu mes lunettes ?")
	require.NoError(t, err)
	assert.False(t, won)

	won, err = r.ScanMessage(ctx, "secret", "u2", "u2", "j'ai oublié ma serviette à la piscine")
	require.NoError(t, err)
	assert.True(t, won)

	// The word is burned; saying it again wins nothing.
	won, err = r.ScanMessage(ctx, "secret", "u3", "u3", "une serviette ?")
	require.NoError(t, err)
	assert.False(t, won)

	assert.Equal(t, 300, ledger.total("u2"))
	assert.Zero(t, ledger.total("u3"))
	require.Len(t, ender.scheduled(), 1)
}

func TestJoinAndParticipationPayout(t *testing.T) {
	r, st, ledger, _ := newTestResolver(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, st.PutEvent(ctx, &model.ActiveEvent{
		ID:            "fete",
		Kind:          model.KindHoliday,
		StartTime:     now,
		EndTime:       now.Add(24 * time.Hour),
		Participation: &model.ParticipationData{XPEach: 300},
	}))

	require.NoError(t, r.Join(ctx, "fete", "u1", "u1"))
	require.NoError(t, r.Join(ctx, "fete", "u2", "u2"))
	require.NoError(t, r.Join(ctx, "fete", "u1", "u1")) // double join is harmless

	ev, err := st.GetEvent(ctx, "fete")
	require.NoError(t, err)
	assert.Len(t, ev.Participation.Participants, 2)

	r.Finalize(ctx, ev, model.ReasonExpired)
	assert.Equal(t, 300, ledger.total("u1"))
	assert.Equal(t, 300, ledger.total("u2"))
}

func TestJoinMissingEventIsNoop(t *testing.T) {
	r, _, _, _ := newTestResolver(t)
	require.NoError(t, r.Join(context.Background(), "ghost", "u1", "u1"))
}
