package memory

import (
	"testing"
	"time"

	"github.com/jido-ai/memorycore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_ClampedToUnitInterval(t *testing.T) {
	s := NewImportanceScorer(DefaultScorerConfig())

	score := s.Score(ScoreInput{
		MemoryType:   types.KindArchitecturalDecision,
		Confidence:   2.0, // out of range input; scorer must clamp, not trust callers
		AccessCount:  1000,
		LastAccessed: time.Now(),
		HasAccess:    true,
	})

	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestScore_RecencyDecaysWithAge(t *testing.T) {
	s := NewImportanceScorer(DefaultScorerConfig())

	fresh := s.ScoreWithBreakdown(ScoreInput{
		MemoryType:   types.KindFact,
		LastAccessed: time.Now(),
		HasAccess:    true,
	})
	stale := s.ScoreWithBreakdown(ScoreInput{
		MemoryType:   types.KindFact,
		LastAccessed: time.Now().Add(-72 * time.Hour),
		HasAccess:    true,
	})

	assert.Greater(t, fresh.Recency, stale.Recency)
}

func TestScore_FrequencyCapsOut(t *testing.T) {
	s := NewImportanceScorer(ScorerConfig{
		Weights:      ScorerWeights{Frequency: 1.0},
		FrequencyCap: 10,
	})

	atCap := s.ScoreWithBreakdown(ScoreInput{AccessCount: 10})
	overCap := s.ScoreWithBreakdown(ScoreInput{AccessCount: 1000})

	assert.Equal(t, 1.0, atCap.Frequency)
	assert.Equal(t, atCap.Frequency, overCap.Frequency)
}

func TestConfigure_RejectsNegativeWeightsAndNonPositiveCap(t *testing.T) {
	s := NewImportanceScorer(DefaultScorerConfig())
	original := s.Config()

	err := s.Configure(ScorerConfig{Weights: ScorerWeights{Recency: -1}, FrequencyCap: 10})
	require.Error(t, err)
	assert.Equal(t, original, s.Config(), "rejected config must leave the scorer untouched")

	err = s.Configure(ScorerConfig{Weights: DefaultScorerConfig().Weights, FrequencyCap: 0})
	require.Error(t, err)
	assert.Equal(t, original, s.Config())
}

func TestSalience_HigherForArchitecturalDecisionsThanForUnknowns(t *testing.T) {
	assert.Greater(t, types.Salience(types.KindArchitecturalDecision), types.Salience(types.KindUnknown))
}
