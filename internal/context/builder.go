package context

import (
	"strings"

	"github.com/jido-ai/memorycore/internal/config"
	"github.com/jido-ai/memorycore/internal/logging"
	"github.com/jido-ai/memorycore/internal/memory"
	"github.com/jido-ai/memorycore/internal/triplestore"
	"github.com/jido-ai/memorycore/internal/types"
)

// ConversationTurn is one message in a session's conversation history.
type ConversationTurn struct {
	Role    string
	Content string
}

// conversationOverhead is the fixed per-turn token cost (role marker,
// separators) added on top of the content's own estimate.
const conversationOverhead = 4

// BuildInput is everything Builder.Build needs for one assembly pass.
type BuildInput struct {
	Conversation []ConversationTurn
	Working      []memory.WorkingContextItem
	LongTerm     []triplestore.MemoryRecord
}

// BuiltContext is the assembled, budget-fitted result of one Build call.
type BuiltContext struct {
	System       string
	Conversation []ConversationTurn
	Working      []memory.WorkingContextItem
	LongTerm     []triplestore.MemoryRecord

	DroppedConversation int
	DroppedLongTerm     int
	TokensUsed          int
}

// Builder assembles per-turn prompt context within a fixed token budget.
// Truncation policy when a component overflows its reserve: conversation
// drops the oldest turns first, long-term memories drop the lowest
// confidence first, and working context is never truncated (it is assumed
// small and already bounded by its own closed key set).
type Builder struct {
	cfg          config.ContextWindowConfig
	systemPrompt string
}

// NewBuilder creates a builder with a fixed system prompt and budget config.
func NewBuilder(cfg config.ContextWindowConfig, systemPrompt string) *Builder {
	return &Builder{cfg: cfg, systemPrompt: systemPrompt}
}

// Build assembles in into a BuiltContext that fits cfg's budget, truncating
// conversation and long-term memories as needed. Never returns an error:
// a malformed or oversized input degrades gracefully (content is dropped
// and logged, not rejected).
func (b *Builder) Build(in BuildInput) BuiltContext {
	budget := NewBudget(b.cfg)
	counter := budget.Counter()

	sysTokens := counter.Count(b.systemPrompt)
	budget.Charge("system", sysTokens)
	if sysTokens > b.cfg.SystemBudget {
		logging.Get(logging.CategoryContext).Warn("system prompt (%d tokens) exceeds its %d token reserve", sysTokens, b.cfg.SystemBudget)
	}

	out := BuiltContext{System: b.systemPrompt}

	// Conversation: keep the most recent turns that fit, dropping older ones.
	kept := make([]ConversationTurn, 0, len(in.Conversation))
	for i := len(in.Conversation) - 1; i >= 0; i-- {
		turn := in.Conversation[i]
		tokens := counter.Count(turn.Content) + conversationOverhead
		if !budget.Allocate("conversation", tokens) {
			out.DroppedConversation = i + 1
			break
		}
		kept = append(kept, turn)
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	out.Conversation = kept
	if out.DroppedConversation > 0 {
		logging.Get(logging.CategoryContext).Debug("conversation truncated: dropped %d oldest turns", out.DroppedConversation)
	}

	// Working context: always included in full.
	workingTokens := 0
	for _, item := range in.Working {
		if s, ok := memory.FormatValue(item.Key, item.Value); ok {
			workingTokens += counter.Count(s)
		}
	}
	budget.Charge("working", workingTokens)
	out.Working = in.Working
	if workingTokens > b.cfg.WorkingBudget {
		logging.Get(logging.CategoryContext).Warn("working context (%d tokens) exceeds its %d token reserve; not truncated", workingTokens, b.cfg.WorkingBudget)
	}

	// Long-term memories: keep the highest-confidence records that fit.
	longTerm := make([]triplestore.MemoryRecord, len(in.LongTerm))
	copy(longTerm, in.LongTerm)
	sortByConfidenceDescending(longTerm)
	var keptMemories []triplestore.MemoryRecord
	for i, rec := range longTerm {
		tokens := counter.Count(rec.Content)
		if !budget.Allocate("long_term", tokens) {
			out.DroppedLongTerm = len(longTerm) - i
			break
		}
		keptMemories = append(keptMemories, rec)
	}
	out.LongTerm = keptMemories
	if out.DroppedLongTerm > 0 {
		logging.Get(logging.CategoryContext).Debug("long-term memories truncated: dropped %d lowest-confidence records", out.DroppedLongTerm)
	}

	out.TokensUsed = budget.TotalUsed()
	return out
}

func sortByConfidenceDescending(recs []triplestore.MemoryRecord) {
	// Simple insertion sort: these slices are small (bounded by the
	// long_term budget's order-of-magnitude), and stability matters more
	// than asymptotic speed for deterministic prompt assembly.
	for i := 1; i < len(recs); i++ {
		for j := i; j > 0 && types.LevelToNumeric(recs[j].ConfidenceLevel) > types.LevelToNumeric(recs[j-1].ConfidenceLevel); j-- {
			recs[j], recs[j-1] = recs[j-1], recs[j]
		}
	}
}

// confidenceBadge renders the parenthesized confidence qualifier used in
// "## Remembered Information": >=0.8 high, >=0.5 medium, else low.
func confidenceBadge(level types.ConfidenceLevel) string {
	switch {
	case types.LevelToNumeric(level) >= 0.8:
		return "(high confidence)"
	case types.LevelToNumeric(level) >= 0.5:
		return "(medium confidence)"
	default:
		return "(low confidence)"
	}
}

// FormatForPrompt renders a BuiltContext as the markdown block sent to the
// model: "## Session Context" (one key: value line per working-context
// item), then "## Remembered Information" (one type + confidence-badge line
// per long-term memory), then the kept conversation turns. An empty
// context (no system prompt, no working items, no memories, no
// conversation) formats to the empty string.
func (b *Builder) FormatForPrompt(built BuiltContext) string {
	var sb strings.Builder

	if built.System != "" {
		sb.WriteString(built.System)
		sb.WriteString("\n\n")
	}

	if len(built.Working) > 0 {
		sb.WriteString("## Session Context\n")
		for _, item := range built.Working {
			if s, ok := memory.FormatValue(item.Key, item.Value); ok {
				sb.WriteString(string(item.Key))
				sb.WriteString(": ")
				sb.WriteString(s)
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	if len(built.LongTerm) > 0 {
		sb.WriteString("## Remembered Information\n")
		for _, rec := range built.LongTerm {
			sb.WriteString("- [")
			sb.WriteString(string(rec.MemoryType))
			sb.WriteString("] ")
			sb.WriteString(rec.Content)
			sb.WriteString(" ")
			sb.WriteString(confidenceBadge(rec.ConfidenceLevel))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	for _, turn := range built.Conversation {
		sb.WriteString(turn.Role)
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}

	return sb.String()
}
