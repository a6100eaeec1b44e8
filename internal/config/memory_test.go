package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMemoryConfig_MatchesSpecDefaults(t *testing.T) {
	cfg := DefaultMemoryConfig()

	assert.Equal(t, 100, cfg.MaxPendingItems)
	assert.Equal(t, 1000, cfg.MaxAccessLogEntries)
	assert.Equal(t, 0.6, cfg.Promotion.ImportanceThreshold)
	assert.Equal(t, 0.4, cfg.Promotion.SessionCloseThreshold)
	assert.Equal(t, 20, cfg.Promotion.MaxPromotionsPerRun)
	assert.Equal(t, 10, cfg.Scorer.FrequencyCap)
}

func TestDefaultContextWindowConfig_ComponentsSumToTotal(t *testing.T) {
	cfg := DefaultContextWindowConfig()
	sum := cfg.SystemBudget + cfg.ConversationBudget + cfg.WorkingBudget + cfg.LongTermBudget
	assert.Equal(t, cfg.TotalBudget, sum)
}

func TestDefaultStoreManagerConfig_MatchesSpecDefaults(t *testing.T) {
	cfg := DefaultStoreManagerConfig()
	assert.Equal(t, 100, cfg.MaxOpenStores)
	assert.Equal(t, 30*60*1000, cfg.IdleTimeoutMS)
}
