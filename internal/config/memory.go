package config

// MemoryConfig configures a session's two-tier memory: the bounded
// in-process staging area and the long-term triple store it promotes into.
type MemoryConfig struct {
	// MaxPendingItems is PendingMemories' cap on implicit + agent-decision
	// items combined. Reaching it evicts the lowest-importance implicit item;
	// agent-decision items are never evicted, so they can push the total past it.
	MaxPendingItems int `yaml:"max_pending_items"`

	// MaxAccessLogEntries bounds the per-session access log.
	MaxAccessLogEntries int `yaml:"max_access_log_entries"`

	TripleStore TripleStoreConfig   `yaml:"triple_store"`
	Scorer      ScorerConfig        `yaml:"scorer"`
	Promotion   PromotionConfig     `yaml:"promotion"`
	Context     ContextWindowConfig `yaml:"context_window"`
}

// ScorerConfig configures the importance scorer's weighted components.
type ScorerConfig struct {
	RecencyWeight    float64 `yaml:"recency_weight"`
	FrequencyWeight  float64 `yaml:"frequency_weight"`
	ConfidenceWeight float64 `yaml:"confidence_weight"`
	SalienceWeight   float64 `yaml:"salience_weight"`
	FrequencyCap     int     `yaml:"frequency_cap"`
}

// PromotionConfig configures PromotionEngine and its triggers.
type PromotionConfig struct {
	// ImportanceThreshold is the default cutoff for periodic/implicit promotion.
	ImportanceThreshold float64 `yaml:"importance_threshold"`
	// SessionCloseThreshold is a lowered threshold used on session_close so
	// that marginal candidates are not silently lost when a session ends
	// (Open Question: resolved to 0.4, documented alongside the other
	// decided questions).
	SessionCloseThreshold float64 `yaml:"session_close_threshold"`
	// PeriodicIntervalMS is how often the periodic promotion trigger fires.
	PeriodicIntervalMS int `yaml:"periodic_interval_ms"`
	// MaxPromotionsPerRun truncates a single promotion pass's candidate list
	// after sorting by importance descending.
	MaxPromotionsPerRun int `yaml:"max_promotions_per_run"`
}

// DefaultMemoryConfig returns the spec's default memory configuration.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		MaxPendingItems:     100,
		MaxAccessLogEntries: 1000,
		TripleStore:         DefaultTripleStoreConfig(),
		Scorer: ScorerConfig{
			RecencyWeight:    0.25,
			FrequencyWeight:  0.25,
			ConfidenceWeight: 0.25,
			SalienceWeight:   0.25,
			FrequencyCap:     10,
		},
		Promotion: PromotionConfig{
			ImportanceThreshold:   0.6,
			SessionCloseThreshold: 0.4,
			PeriodicIntervalMS:    30000,
			MaxPromotionsPerRun:   20,
		},
		Context: DefaultContextWindowConfig(),
	}
}

// ContextWindowConfig configures ContextBuilder's fixed token budget.
//
// Token Budget Architecture:
//
//	Total = SystemBudget + ConversationBudget + WorkingBudget + LongTermBudget
type ContextWindowConfig struct {
	// TotalBudget is the hard ceiling for an assembled prompt context.
	TotalBudget int `yaml:"total_budget"`

	// SystemBudget reserves space for the fixed system/instruction block.
	SystemBudget int `yaml:"system_budget"`

	// ConversationBudget bounds recent conversation turns. Truncated oldest
	// turns first when a session exceeds it.
	ConversationBudget int `yaml:"conversation_budget"`

	// WorkingBudget bounds the working-context scratchpad. Never truncated:
	// WorkingContext items are small and bounded by key count already.
	WorkingBudget int `yaml:"working_budget"`

	// LongTermBudget bounds promoted long-term memories pulled into the
	// prompt. Truncated lowest-confidence first when it overflows.
	LongTermBudget int `yaml:"long_term_budget"`
}

// DefaultContextWindowConfig returns the spec's fixed budget: 32000 total,
// split 2000/20000/4000/6000 across system/conversation/working/long_term.
func DefaultContextWindowConfig() ContextWindowConfig {
	return ContextWindowConfig{
		TotalBudget:        32000,
		SystemBudget:       2000,
		ConversationBudget: 20000,
		WorkingBudget:      4000,
		LongTermBudget:     6000,
	}
}

// StoreManagerConfig configures StoreManager's LRU pool of open session stores.
type StoreManagerConfig struct {
	// MaxOpenStores is the LRU capacity; opening beyond it evicts (and
	// persists) the least-recently-used store.
	MaxOpenStores int `yaml:"max_open_stores"`
	// IdleTimeoutMS closes a store that has not been touched for this long.
	IdleTimeoutMS int `yaml:"idle_timeout_ms"`
	// CleanupIntervalMS is how often the idle sweep runs.
	CleanupIntervalMS int `yaml:"cleanup_interval_ms"`
	// CloseTimeoutMS bounds how long CloseAll waits for any single store.
	CloseTimeoutMS int `yaml:"close_timeout_ms"`
}

// DefaultStoreManagerConfig returns the spec's defaults: 100 open stores,
// 30 minute idle timeout, 5 minute cleanup sweep, 5 second close timeout.
func DefaultStoreManagerConfig() StoreManagerConfig {
	return StoreManagerConfig{
		MaxOpenStores:     100,
		IdleTimeoutMS:     30 * 60 * 1000,
		CleanupIntervalMS: 5 * 60 * 1000,
		CloseTimeoutMS:    5000,
	}
}
