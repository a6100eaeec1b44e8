package context

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jido-ai/memorycore/internal/config"
	"github.com/jido-ai/memorycore/internal/memory"
	"github.com/jido-ai/memorycore/internal/triplestore"
	"github.com/jido-ai/memorycore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tightBudget() config.ContextWindowConfig {
	return config.ContextWindowConfig{
		TotalBudget:        1000,
		SystemBudget:       100,
		ConversationBudget: 400,
		WorkingBudget:      200,
		LongTermBudget:     300,
	}
}

func TestBuild_ConversationDropsOldestFirst(t *testing.T) {
	b := NewBuilder(tightBudget(), "system prompt")

	var turns []ConversationTurn
	for i := 0; i < 100; i++ {
		turns = append(turns, ConversationTurn{Role: "user", Content: fmt.Sprintf("message number %d with some padding text", i)})
	}

	built := b.Build(BuildInput{Conversation: turns})

	require.Greater(t, built.DroppedConversation, 0, "100 padded turns must overflow a 400-token reserve")
	require.NotEmpty(t, built.Conversation)
	// Kept turns are the most recent: the last original turn must be kept,
	// the first must have been dropped.
	last := turns[len(turns)-1]
	assert.Equal(t, last.Content, built.Conversation[len(built.Conversation)-1].Content)
	for _, kept := range built.Conversation {
		assert.NotEqual(t, turns[0].Content, kept.Content)
	}
}

func TestBuild_LongTermDropsLowestConfidenceFirst(t *testing.T) {
	b := NewBuilder(tightBudget(), "system prompt")

	var records []triplestore.MemoryRecord
	for i := 0; i < 50; i++ {
		level := types.ConfidenceLow
		if i%5 == 0 {
			level = types.ConfidenceHigh
		}
		records = append(records, triplestore.MemoryRecord{
			ID:              fmt.Sprintf("mem-%d", i),
			Content:         strings.Repeat("x", 80),
			MemoryType:      types.KindFact,
			ConfidenceLevel: level,
		})
	}

	built := b.Build(BuildInput{LongTerm: records})

	require.Greater(t, built.DroppedLongTerm, 0, "50 padded records must overflow a 300-token reserve")
	// Each record costs 20 tokens, so the 300-token reserve keeps 15: all 10
	// high-confidence records first, then 5 low-confidence ones.
	require.Len(t, built.LongTerm, 15)
	for _, kept := range built.LongTerm[:10] {
		assert.Equal(t, types.ConfidenceHigh, kept.ConfidenceLevel, "every high-confidence record must survive truncation ahead of the low ones")
	}
	assert.Equal(t, 35, built.DroppedLongTerm, "only low-confidence records are dropped")
}

func TestBuild_WorkingContextNeverTruncated(t *testing.T) {
	b := NewBuilder(tightBudget(), "system prompt")

	items := []memory.WorkingContextItem{
		{Key: types.KeyActiveFile, Value: strings.Repeat("a", 2000)},
	}

	built := b.Build(BuildInput{Working: items})

	require.Len(t, built.Working, 1, "working context items are always carried through in full")
}

func TestFormatForPrompt_EmptyContextFormatsEmpty(t *testing.T) {
	b := NewBuilder(config.ContextWindowConfig{}, "")
	built := b.Build(BuildInput{})
	assert.Equal(t, "", b.FormatForPrompt(built))
}

func TestFormatForPrompt_RendersExpectedSections(t *testing.T) {
	b := NewBuilder(config.DefaultContextWindowConfig(), "be a helpful assistant")

	built := b.Build(BuildInput{
		Conversation: []ConversationTurn{{Role: "user", Content: "hello"}},
		Working:      []memory.WorkingContextItem{{Key: types.KeyFramework, Value: "Gin"}},
		LongTerm: []triplestore.MemoryRecord{
			{Content: "the service uses Postgres", MemoryType: types.KindFact, ConfidenceLevel: types.ConfidenceHigh},
		},
	})

	out := b.FormatForPrompt(built)
	assert.Contains(t, out, "## Session Context")
	assert.Contains(t, out, "framework: Gin")
	assert.Contains(t, out, "## Remembered Information")
	assert.Contains(t, out, "[fact] the service uses Postgres (high confidence)")
	assert.Contains(t, out, "user: hello")
}
