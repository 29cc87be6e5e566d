// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrefs struct {
	optedOut map[string]bool
}

func (f fakePrefs) IsOptedOut(ctx context.Context, userID string, feature Feature) bool {
	return f.optedOut[userID]
}

func seededBox(ledger *fakeLedger, prefs PreferenceSource) *MysteryBox {
	box := NewMysteryBox(ledger, &fakeNotify{}, prefs)
	box.Rand = rand.New(rand.NewPCG(7, 13))
	return box
}

func TestDropRewardWithinBounds(t *testing.T) {
	ledger := &fakeLedger{}
	box := seededBox(ledger, fakePrefs{})
	box.TrollChance = 0 // always a real reward

	candidates := []Candidate{
		{UserID: "u1", Username: "u1"},
		{UserID: "u2", Username: "u2"},
	}
	for i := 0; i < 50; i++ {
		res, err := box.Drop(context.Background(), "chan", candidates)
		require.NoError(t, err)
		assert.False(t, res.Troll)
		assert.GreaterOrEqual(t, res.XP, box.MinXP)
		assert.LessOrEqual(t, res.XP, box.MaxXP)
	}
	assert.Len(t, ledger.all(), 50)
}

func TestDropTrollBoxPaysNothing(t *testing.T) {
	ledger := &fakeLedger{}
	box := seededBox(ledger, fakePrefs{})
	box.TrollChance = 1 // always empty

	res, err := box.Drop(context.Background(), "chan", []Candidate{{UserID: "u1", Username: "u1"}})
	require.NoError(t, err)
	assert.True(t, res.Troll)
	assert.Zero(t, res.XP)
	assert.Empty(t, ledger.all())
}

func TestDropFiltersBotsAndOptOuts(t *testing.T) {
	ledger := &fakeLedger{}
	box := seededBox(ledger, fakePrefs{optedOut: map[string]bool{"grumpy": true}})
	box.TrollChance = 0

	candidates := []Candidate{
		{UserID: "bot", Username: "bot", IsBot: true},
		{UserID: "grumpy", Username: "grumpy"},
		{UserID: "happy", Username: "happy"},
	}
	for i := 0; i < 20; i++ {
		res, err := box.Drop(context.Background(), "chan", candidates)
		require.NoError(t, err)
		assert.Equal(t, "happy", res.UserID)
	}
}

func TestDropNoEligibleCandidate(t *testing.T) {
	box := seededBox(&fakeLedger{}, fakePrefs{optedOut: map[string]bool{"grumpy": true}})

	_, err := box.Drop(context.Background(), "chan", []Candidate{
		{UserID: "bot", IsBot: true},
		{UserID: "grumpy"},
	})
	assert.ErrorIs(t, err, ErrNoCandidate)
}
