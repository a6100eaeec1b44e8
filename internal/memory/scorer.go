package memory

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jido-ai/memorycore/internal/types"
)

// recencyHalfLifeHours (tau) is the exponential decay constant for the
// recency component: recency = exp(-age_hours / tau).
const recencyHalfLifeHours = 24.0

// ScorerWeights controls how the four components are combined. Weights need
// not sum to 1; the final score is always clamped to [0, 1].
type ScorerWeights struct {
	Recency    float64
	Frequency  float64
	Confidence float64
	Salience   float64
}

// ScorerConfig bundles the weights with the frequency cap.
type ScorerConfig struct {
	Weights      ScorerWeights
	FrequencyCap int
}

// DefaultScorerConfig returns the spec's default weights (0.25 each) and a
// frequency cap of 10.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		Weights:      ScorerWeights{Recency: 0.25, Frequency: 0.25, Confidence: 0.25, Salience: 0.25},
		FrequencyCap: 10,
	}
}

// ScoreInput is the evidence the scorer needs for one candidate.
type ScoreInput struct {
	MemoryType   types.MemoryKind
	Confidence   float64
	AccessCount  int
	FirstSeen    time.Time
	LastAccessed time.Time
	HasAccess    bool // true if LastAccessed is meaningful
}

// ScoreBreakdown is the per-component score plus the combined total.
type ScoreBreakdown struct {
	Recency    float64
	Frequency  float64
	Confidence float64
	Salience   float64
	Total      float64
}

// ImportanceScorer computes deterministic importance scores over
// {recency, frequency, confidence, salience}.
type ImportanceScorer struct {
	mu     sync.RWMutex
	config ScorerConfig
}

// NewImportanceScorer creates a scorer with the given config (DefaultScorerConfig if zero-valued).
func NewImportanceScorer(cfg ScorerConfig) *ImportanceScorer {
	if cfg.FrequencyCap <= 0 {
		cfg = DefaultScorerConfig()
	}
	return &ImportanceScorer{config: cfg}
}

// Configure validates and replaces the scorer's config. All weights must be
// >= 0 and the frequency cap must be a positive integer; an invalid config
// leaves the current config untouched and returns an error.
func (s *ImportanceScorer) Configure(cfg ScorerConfig) error {
	if cfg.Weights.Recency < 0 || cfg.Weights.Frequency < 0 || cfg.Weights.Confidence < 0 || cfg.Weights.Salience < 0 {
		return fmt.Errorf("invalid_input: weights must be >= 0")
	}
	if cfg.FrequencyCap <= 0 {
		return fmt.Errorf("invalid_input: frequency cap must be a positive integer")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	return nil
}

// Config returns a copy of the current config.
func (s *ImportanceScorer) Config() ScorerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func (s *ImportanceScorer) recency(in ScoreInput) float64 {
	var anchor time.Time
	switch {
	case in.HasAccess && !in.LastAccessed.IsZero():
		anchor = in.LastAccessed
	case !in.FirstSeen.IsZero():
		anchor = in.FirstSeen
	default:
		return 0.5
	}
	ageHours := time.Since(anchor).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return clamp01(math.Exp(-ageHours / recencyHalfLifeHours))
}

func (s *ImportanceScorer) frequency(in ScoreInput, cap int) float64 {
	if cap <= 0 {
		cap = 10
	}
	count := in.AccessCount
	if count > cap {
		count = cap
	}
	if count < 0 {
		count = 0
	}
	return float64(count) / float64(cap)
}

// ScoreWithBreakdown computes the four components plus the weighted,
// clamped total.
func (s *ImportanceScorer) ScoreWithBreakdown(in ScoreInput) ScoreBreakdown {
	s.mu.RLock()
	cfg := s.config
	s.mu.RUnlock()

	b := ScoreBreakdown{
		Recency:    s.recency(in),
		Frequency:  s.frequency(in, cfg.FrequencyCap),
		Confidence: clamp01(in.Confidence),
		Salience:   types.Salience(in.MemoryType),
	}
	total := cfg.Weights.Recency*b.Recency + cfg.Weights.Frequency*b.Frequency +
		cfg.Weights.Confidence*b.Confidence + cfg.Weights.Salience*b.Salience
	b.Total = clamp01(total)
	return b
}

// Score delegates to ScoreWithBreakdown and returns just the total.
func (s *ImportanceScorer) Score(in ScoreInput) float64 {
	return s.ScoreWithBreakdown(in).Total
}
