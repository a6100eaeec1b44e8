// Package session wraps one conversation's memory state — the working
// context, pending-memory staging area, access log, and promotion
// machinery — behind a single serialization domain. Each State is its own
// independent actor: callers never need a cross-session lock because no
// two sessions ever touch the same State.
package session

import (
	"sync"
	"time"

	"github.com/jido-ai/memorycore/internal/config"
	ctxpkg "github.com/jido-ai/memorycore/internal/context"
	"github.com/jido-ai/memorycore/internal/memory"
	"github.com/jido-ai/memorycore/internal/triplestore"
	"github.com/jido-ai/memorycore/internal/types"
)

// PromotionStats is the running tally of a session's promotion activity.
type PromotionStats struct {
	TotalRuns     int
	TotalPromoted int
	TotalFailed   int
	LastRunAt     time.Time
	HasRun        bool
}

// Snapshot is a point-in-time, read-only view of a session's memory state,
// for diagnostics and tests.
type Snapshot struct {
	SessionID       string
	MessageCount    int
	WorkingItems    []memory.WorkingContextItem
	PendingImplicit int
	PendingAgent    int
	PromotionStats  PromotionStats
}

func scorerConfigFromYAML(c config.ScorerConfig) memory.ScorerConfig {
	freqCap := c.FrequencyCap
	if freqCap <= 0 {
		freqCap = memory.DefaultScorerConfig().FrequencyCap
	}
	return memory.ScorerConfig{
		Weights: memory.ScorerWeights{
			Recency:    c.RecencyWeight,
			Frequency:  c.FrequencyWeight,
			Confidence: c.ConfidenceWeight,
			Salience:   c.SalienceWeight,
		},
		FrequencyCap: freqCap,
	}
}

// State is the per-session memory actor. Every exported method is safe for
// concurrent use, but callers should still route all access for one session
// through one State: that is what makes it an actor rather than just a
// thread-safe struct.
type State struct {
	SessionID string

	Working *memory.WorkingContext
	Access  *memory.AccessLog
	Pending *memory.PendingMemories
	Scorer  *memory.ImportanceScorer
	Adapter *triplestore.Adapter

	engine   *memory.PromotionEngine
	triggers *memory.Triggers

	mu           sync.Mutex
	messages     []ctxpkg.ConversationTurn
	maxMessages  int
	stats        PromotionStats
}

// New creates a session's memory state, bound to adapter (the session's
// open long-term store) and configured from cfg.
func New(sessionID string, adapter *triplestore.Adapter, cfg config.MemoryConfig) *State {
	s := &State{
		SessionID:   sessionID,
		Working:     memory.NewWorkingContext(),
		Access:      memory.NewAccessLog(cfg.MaxAccessLogEntries),
		Pending:     memory.NewPendingMemories(cfg.MaxPendingItems),
		Scorer:      memory.NewImportanceScorer(scorerConfigFromYAML(cfg.Scorer)),
		Adapter:     adapter,
		engine:      memory.NewPromotionEngine(),
		maxMessages: 500,
	}
	if cfg.Promotion.MaxPromotionsPerRun > 0 {
		s.engine.MaxPerRun = cfg.Promotion.MaxPromotionsPerRun
	}
	s.triggers = memory.NewTriggers(
		s.runPromotion,
		cfg.Promotion.ImportanceThreshold,
		cfg.Promotion.SessionCloseThreshold,
		time.Duration(cfg.Promotion.PeriodicIntervalMS)*time.Millisecond,
	)
	return s
}

func (s *State) runPromotion(threshold float64) memory.Result {
	result := s.engine.Run(s.SessionID, s.Working, s.Pending, s.Access, s.Scorer, s.Adapter, threshold)
	s.mu.Lock()
	s.stats.TotalRuns++
	s.stats.TotalPromoted += len(result.PromotedIDs)
	s.stats.TotalFailed += len(result.Failed)
	s.stats.LastRunAt = time.Now()
	s.stats.HasRun = true
	s.mu.Unlock()
	return result
}

// AppendMessage records one conversation turn, oldest-first. The history is
// capped at maxMessages (500); older turns are dropped once full, mirroring
// the context builder's own drop-oldest truncation policy.
func (s *State) AppendMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, ctxpkg.ConversationTurn{Role: role, Content: content})
	if len(s.messages) > s.maxMessages {
		s.messages = s.messages[len(s.messages)-s.maxMessages:]
	}
}

// GetMessages returns a copy of the conversation history, oldest-first.
func (s *State) GetMessages() []ctxpkg.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ctxpkg.ConversationTurn, len(s.messages))
	copy(out, s.messages)
	return out
}

// UpdateContext writes a working-context key, delegating to WorkingContext.Put.
func (s *State) UpdateContext(key types.ContextKey, value interface{}, opts memory.PutOptions) {
	s.Working.Put(key, value, opts)
}

// GetContext reads a working-context key, delegating to WorkingContext.Get.
func (s *State) GetContext(key types.ContextKey) (interface{}, bool) {
	return s.Working.Get(key)
}

// GetAllContext returns every working-context item.
func (s *State) GetAllContext() []memory.WorkingContextItem {
	return s.Working.ToList()
}

// ClearContext empties the working context.
func (s *State) ClearContext() {
	s.Working.Clear()
}

// AddPendingImplicit stages a scored candidate memory.
func (s *State) AddPendingImplicit(in memory.NewImplicitInput) (string, error) {
	return s.Pending.AddImplicit(in)
}

// AddAgentMemoryDecision stages a pre-approved candidate memory.
func (s *State) AddAgentMemoryDecision(in memory.NewImplicitInput) (string, error) {
	return s.Pending.AddAgentDecision(in)
}

// RecordAccess logs an access against the session's access log.
func (s *State) RecordAccess(key string, kind types.AccessKind) {
	s.Access.Record(key, kind)
}

// GetPromotionStats returns a copy of the session's running promotion tally.
func (s *State) GetPromotionStats() PromotionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// EnablePromotion starts the session's periodic promotion timer.
func (s *State) EnablePromotion() { s.triggers.Enable() }

// DisablePromotion stops the session's periodic promotion timer.
func (s *State) DisablePromotion() { s.triggers.Disable() }

// SetPromotionInterval changes the periodic promotion timer's period.
func (s *State) SetPromotionInterval(d time.Duration) { s.triggers.SetInterval(d) }

// RunPromotionNow triggers an immediate promotion pass at the default threshold.
func (s *State) RunPromotionNow() memory.Result { return s.triggers.RunNow() }

// FireTrigger runs a promotion pass for a specific named trigger (e.g.
// session_pause, session_close, memory_limit_reached), at that trigger's
// configured threshold.
func (s *State) FireTrigger(kind memory.TriggerKind) memory.Result { return s.triggers.Fire(kind) }

// GetSnapshot returns a diagnostic point-in-time view of the session.
func (s *State) GetSnapshot() Snapshot {
	s.mu.Lock()
	msgCount := len(s.messages)
	stats := s.stats
	s.mu.Unlock()
	return Snapshot{
		SessionID:       s.SessionID,
		MessageCount:    msgCount,
		WorkingItems:    s.Working.ToList(),
		PendingImplicit: len(s.Pending.ListImplicit()),
		PendingAgent:    len(s.Pending.ListAgentDecisions()),
		PromotionStats:  stats,
	}
}

// Close stops the session's promotion timer. Call when the session ends,
// before releasing its triple store via StoreManager.Close.
func (s *State) Close() {
	s.FireTrigger(memory.TriggerSessionClose)
	s.triggers.Disable()
}
