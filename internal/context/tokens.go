// Package context assembles the per-turn prompt context: a fixed-budget mix
// of conversation history, working-context items, and promoted long-term
// memories, truncated to fit when it overflows.
package context

import (
	"unicode/utf8"

	"github.com/jido-ai/memorycore/internal/config"
)

// TokenCounter estimates token counts with a calibrated chars-per-token
// ratio, the same heuristic the teacher's context package uses for Claude's
// tokenizer. Deterministic and pure: the same string always yields the same
// count, and a longer string never yields a smaller one.
type TokenCounter struct {
	charsPerToken float64
}

// NewTokenCounter creates a counter with the default 4 chars/token ratio.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{charsPerToken: 4.0}
}

// Count estimates the token count of s.
func (tc *TokenCounter) Count(s string) int {
	if s == "" {
		return 0
	}
	runeCount := utf8.RuneCountInString(s)
	tokens := int(float64(runeCount) / tc.charsPerToken)
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

// CountAll sums Count over every string in ss.
func (tc *TokenCounter) CountAll(ss []string) int {
	total := 0
	for _, s := range ss {
		total += tc.Count(s)
	}
	return total
}

// Budget tracks per-component token usage against a fixed ContextWindowConfig.
type Budget struct {
	counter *TokenCounter
	cfg     config.ContextWindowConfig

	usedSystem       int
	usedConversation int
	usedWorking      int
	usedLongTerm     int
}

// NewBudget creates a zeroed budget for cfg.
func NewBudget(cfg config.ContextWindowConfig) *Budget {
	return &Budget{counter: NewTokenCounter(), cfg: cfg}
}

// componentUsed returns a pointer to a component's running total, or nil for
// an unknown component name.
func (b *Budget) componentUsed(component string) *int {
	switch component {
	case "system":
		return &b.usedSystem
	case "conversation":
		return &b.usedConversation
	case "working":
		return &b.usedWorking
	case "long_term":
		return &b.usedLongTerm
	default:
		return nil
	}
}

func (b *Budget) limitFor(component string) int {
	switch component {
	case "system":
		return b.cfg.SystemBudget
	case "conversation":
		return b.cfg.ConversationBudget
	case "working":
		return b.cfg.WorkingBudget
	case "long_term":
		return b.cfg.LongTermBudget
	default:
		return 0
	}
}

// Allocate attempts to charge tokens against component's reserve. Returns
// false without mutating state if doing so would exceed that reserve.
func (b *Budget) Allocate(component string, tokens int) bool {
	used := b.componentUsed(component)
	if used == nil {
		return false
	}
	if *used+tokens > b.limitFor(component) {
		return false
	}
	*used += tokens
	return true
}

// Charge adds tokens to component's usage unconditionally, for components
// the builder never truncates (system, working). Usage can end up over that
// component's nominal reserve; callers log that rather than drop content.
func (b *Budget) Charge(component string, tokens int) {
	used := b.componentUsed(component)
	if used == nil {
		return
	}
	*used += tokens
}

// Used returns tokens currently charged to component.
func (b *Budget) Used(component string) int {
	used := b.componentUsed(component)
	if used == nil {
		return 0
	}
	return *used
}

// TotalUsed sums every component's usage.
func (b *Budget) TotalUsed() int {
	return b.usedSystem + b.usedConversation + b.usedWorking + b.usedLongTerm
}

// Remaining returns the total budget minus everything used so far.
func (b *Budget) Remaining() int {
	return b.cfg.TotalBudget - b.TotalUsed()
}

// Counter exposes the underlying token counter for callers assembling text
// before calling Allocate.
func (b *Budget) Counter() *TokenCounter { return b.counter }
