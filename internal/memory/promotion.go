package memory

import (
	"fmt"
	"sort"

	"github.com/jido-ai/memorycore/internal/logging"
	"github.com/jido-ai/memorycore/internal/telemetry"
	"github.com/jido-ai/memorycore/internal/triplestore"
	"github.com/jido-ai/memorycore/internal/types"
)

// DefaultMaxPromotionsPerRun bounds a single promotion pass's candidate list
// after sorting by importance descending.
const DefaultMaxPromotionsPerRun = 20

// Persister is the subset of triplestore.Adapter the promotion engine needs,
// narrowed to ease testing with a fake.
type Persister interface {
	Persist(sessionID string, in triplestore.PersistInput) (string, error)
}

// PromotionEngine moves candidates across the threshold into the long-term
// triple store. It holds no state of its own: every call is given the
// working context, pending staging area, and adapter it should act on, so a
// single engine can serve every open session.
type PromotionEngine struct {
	MaxPerRun int
}

// NewPromotionEngine creates a stateless promotion engine with the default
// per-run cap.
func NewPromotionEngine() *PromotionEngine {
	return &PromotionEngine{MaxPerRun: DefaultMaxPromotionsPerRun}
}

// Result summarizes one promotion pass.
type Result struct {
	Evaluated   int
	PromotedIDs []string
	Failed      []string
}

// RescorePendingFromAccessLog updates every implicit pending item's
// importance score from the scorer, for items the access log has actually
// recorded activity against. Items with no recorded access are left with
// whatever score they were staged (or last updated) with: rescoring only
// ever refines a score from fresh evidence, it never invents one from
// nothing. Called before Evaluate in the normal promotion pipeline (Run);
// Evaluate itself never mutates pending's stored scores, so tests can stage
// exact importances and assert on them directly.
func RescorePendingFromAccessLog(pending *PendingMemories, access *AccessLog, scorer *ImportanceScorer) {
	if pending == nil || access == nil || scorer == nil {
		return
	}
	for _, item := range pending.ListImplicit() {
		stats := access.GetStats(item.ID)
		if stats.Frequency == 0 {
			continue
		}
		score := scorer.Score(ScoreInput{
			MemoryType:   item.MemoryType,
			Confidence:   item.Confidence,
			AccessCount:  stats.Frequency,
			LastAccessed: stats.LastAccessed,
			HasAccess:    stats.HasLastAccess,
		})
		pending.UpdateScore(item.ID, score)
	}
}

// candidate is one promotable record, tagged with where it came from so
// Promote knows whether clearing it means removing a pending entry or
// simply leaving the working-context item in place (it is never deleted:
// only its promoted copy moves to long-term storage).
type candidate struct {
	pendingID string // empty for working-context-derived candidates
	input     triplestore.PersistInput
	score     float64
}

// Evaluate implements the §4.5 evaluation algorithm: working-context items
// whose suggested type is promotable are scored via scorer and included;
// pending items (both tiers) ready at threshold come from
// PendingMemories.ReadyForPromotion, which already orders agent-decisions
// first and implicit items by their current (possibly access-log-rescored)
// importance. The combined list is sorted by score descending and
// truncated to MaxPerRun.
func (e *PromotionEngine) Evaluate(working *WorkingContext, pending *PendingMemories, scorer *ImportanceScorer, threshold float64) []PendingItem {
	var candidates []candidate

	if working != nil && scorer != nil {
		for _, item := range working.ToList() {
			content, ok := FormatContentForPromotion(item)
			if !ok {
				continue
			}
			score := scorer.Score(ScoreInput{
				MemoryType:   item.SuggestedType,
				Confidence:   item.Confidence,
				AccessCount:  item.AccessCount,
				FirstSeen:    item.FirstSeen,
				LastAccessed: item.LastAccessed,
				HasAccess:    !item.LastAccessed.IsZero(),
			})
			candidates = append(candidates, candidate{
				input: triplestore.PersistInput{
					Content:    content,
					MemoryType: item.SuggestedType,
					Confidence: item.Confidence,
					SourceType: sourceKindFor(item.Source),
				},
				score: score,
			})
		}
	}

	if pending != nil {
		for _, item := range pending.ReadyForPromotion(threshold) {
			candidates = append(candidates, candidate{
				pendingID: item.ID,
				input: triplestore.PersistInput{
					Content:      item.Content,
					MemoryType:   item.MemoryType,
					Confidence:   item.Confidence,
					SourceType:   item.SourceType,
					Rationale:    item.Rationale,
					EvidenceRefs: item.EvidenceRefs,
				},
				score: item.ImportanceScore,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	maxPerRun := e.MaxPerRun
	if maxPerRun <= 0 {
		maxPerRun = DefaultMaxPromotionsPerRun
	}
	if len(candidates) > maxPerRun {
		candidates = candidates[:maxPerRun]
	}

	out := make([]PendingItem, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, PendingItem{
			ID:              c.pendingID,
			Content:         c.input.Content,
			MemoryType:      c.input.MemoryType,
			Confidence:      c.input.Confidence,
			SourceType:      c.input.SourceType,
			ImportanceScore: c.score,
			Rationale:       c.input.Rationale,
			EvidenceRefs:    c.input.EvidenceRefs,
		})
	}
	return out
}

func sourceKindFor(s types.WorkingContextSource) types.SourceKind {
	switch s {
	case types.SourceToolItem:
		return types.SourceTool
	case types.SourceExplicit:
		return types.SourceUser
	default:
		return types.SourceAgent
	}
}

// promoteOne persists a single candidate as a long-term memory.
func (e *PromotionEngine) promoteOne(sessionID string, store Persister, item PendingItem) (string, error) {
	id, err := store.Persist(sessionID, triplestore.PersistInput{
		Content:      item.Content,
		MemoryType:   item.MemoryType,
		Confidence:   item.Confidence,
		SourceType:   item.SourceType,
		Rationale:    item.Rationale,
		EvidenceRefs: item.EvidenceRefs,
	})
	if err != nil {
		return "", fmt.Errorf("promote candidate %s: %w", item.ID, err)
	}
	return id, nil
}

// Promote persists every candidate in ready, isolating per-item failures,
// and clears the pending-staged ones (those with a non-empty ID) from
// pending. Working-context-derived candidates have no pending entry to
// clear: the working-context item itself is left untouched, since it keeps
// tracking the session's current state even after a copy is promoted.
func (e *PromotionEngine) Promote(sessionID string, ready []PendingItem, pending *PendingMemories, store Persister) Result {
	result := Result{Evaluated: len(ready)}

	var clearIDs []string
	for _, item := range ready {
		newID, err := e.promoteOne(sessionID, store, item)
		if err != nil {
			logging.Get(logging.CategoryMemory).Warn("promotion failed: session=%s pending_id=%s err=%v", sessionID, item.ID, err)
			telemetry.PromotionFailed(sessionID, item.ID, err)
			result.Failed = append(result.Failed, item.ID)
			continue
		}
		if item.ID != "" {
			clearIDs = append(clearIDs, item.ID)
		}
		result.PromotedIDs = append(result.PromotedIDs, newID)
		logging.Get(logging.CategoryMemory).Debug("promoted: session=%s pending_id=%s memory_id=%s type=%s", sessionID, item.ID, newID, item.MemoryType)
	}

	if pending != nil && len(clearIDs) > 0 {
		pending.ClearPromoted(clearIDs)
	}
	return result
}

// Run rescores pending implicit items from the access log, evaluates
// working context + pending against threshold, promotes every ready item,
// and clears the promoted pending ids from the staging area.
func (e *PromotionEngine) Run(sessionID string, working *WorkingContext, pending *PendingMemories, access *AccessLog, scorer *ImportanceScorer, store Persister, threshold float64) Result {
	RescorePendingFromAccessLog(pending, access, scorer)
	ready := e.Evaluate(working, pending, scorer, threshold)
	result := e.Promote(sessionID, ready, pending, store)
	telemetry.PromotionEvaluated(sessionID, result.Evaluated, len(result.PromotedIDs), threshold)
	return result
}

// FormatContentForPromotion renders a working-context item as promotable
// text, delegating to the same format_content contract FormatValue
// implements for prompt assembly. Returns ("", false) if the key carries
// types.KindNone (ephemeral, never promoted) or the value is not
// serializable.
func FormatContentForPromotion(item WorkingContextItem) (string, bool) {
	if item.SuggestedType == types.KindNone {
		return "", false
	}
	return FormatValue(item.Key, item.Value)
}
