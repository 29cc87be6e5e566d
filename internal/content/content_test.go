// SPDX-License-Identifier: MIT

package content

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedDatasetLoads(t *testing.T) {
	d, err := NewDataset()
	require.NoError(t, err)
	defer func() { require.NoError(t, d.Close()) }()

	ctx := context.Background()
	r, err := d.GenerateRiddle(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, r.Question)
	assert.NotEmpty(t, r.Answer)

	s, err := d.GenerateSequence(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Question)
	assert.NotEmpty(t, s.Answer)
}

func TestPickPrefersDifficulty(t *testing.T) {
	pool := []Challenge{
		{Question: "q1", Answer: "a1", Difficulty: "facile"},
		{Question: "q2", Answer: "a2", Difficulty: "difficile"},
	}
	for i := 0; i < 10; i++ {
		c := pick(pool, "difficile")
		require.NotNil(t, c)
		assert.Equal(t, "q2", c.Question)
	}

	// Unknown difficulty falls back to the whole pool.
	c := pick(pool, "impossible")
	require.NotNil(t, c)
}

func TestDatasetRejectsEmptyCorpus(t *testing.T) {
	d := &Dataset{}
	err := d.load([]byte(`{"riddles": [], "sequences": []}`))
	require.Error(t, err)
}

type stubGenerator struct {
	challenge *Challenge
	err       error
}

func (s stubGenerator) GenerateRiddle(ctx context.Context, difficulty string) (*Challenge, error) {
	return s.challenge, s.err
}

func (s stubGenerator) GenerateSequence(ctx context.Context, difficulty string) (*Challenge, error) {
	return s.challenge, s.err
}

func TestFallbackUsesPrimaryWhenHealthy(t *testing.T) {
	static, err := NewDataset()
	require.NoError(t, err)

	f := &Fallback{
		Primary: stubGenerator{challenge: &Challenge{Question: "généré", Answer: "oui"}},
		Static:  static,
	}
	c, err := f.GenerateRiddle(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "généré", c.Question)
}

func TestFallbackOnError(t *testing.T) {
	static, err := NewDataset()
	require.NoError(t, err)

	f := &Fallback{
		Primary: stubGenerator{err: fmt.Errorf("model unavailable")},
		Static:  static,
	}
	c, err := f.GenerateRiddle(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Question, "static dataset must cover for the generator")
}

func TestFallbackOnMalformedOutput(t *testing.T) {
	static, err := NewDataset()
	require.NoError(t, err)

	f := &Fallback{
		Primary: stubGenerator{challenge: &Challenge{Question: "quelque chose", Answer: ""}},
		Static:  static,
	}
	c, err := f.GenerateSequence(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Answer)
}

func TestFallbackWithoutPrimary(t *testing.T) {
	static, err := NewDataset()
	require.NoError(t, err)

	f := &Fallback{Static: static}
	c, err := f.GenerateRiddle(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Question)
}

func TestRandomSecretWord(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.NotEmpty(t, RandomSecretWord())
	}
}
