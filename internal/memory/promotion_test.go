package memory

import (
	"errors"
	"testing"

	"github.com/jido-ai/memorycore/internal/triplestore"
	"github.com/jido-ai/memorycore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePersister is an in-memory Persister stand-in for tests that exercise
// PromotionEngine without a real triple store.
type fakePersister struct {
	persisted []triplestore.PersistInput
	failNext  bool
}

func (f *fakePersister) Persist(sessionID string, in triplestore.PersistInput) (string, error) {
	if f.failNext {
		f.failNext = false
		return "", errors.New("simulated store failure")
	}
	f.persisted = append(f.persisted, in)
	return "promoted-id", nil
}

func TestEvaluate_CombinesWorkingContextAndPendingCandidates(t *testing.T) {
	working := NewWorkingContext()
	working.Put(types.KeyDiscoveredPatterns, []string{"always wrap errors"}, PutOptions{Source: types.SourceInferred})

	pending := NewPendingMemories(0)
	stageWithImportance(t, pending, "pending candidate", 0.9)

	engine := NewPromotionEngine()
	scorer := NewImportanceScorer(DefaultScorerConfig())

	ready := engine.Evaluate(working, pending, scorer, 0.6)

	assert.Len(t, ready, 2, "both the working-context item and the pending candidate above threshold must be included")
}

func TestEvaluate_TruncatesToMaxPerRun(t *testing.T) {
	pending := NewPendingMemories(0)
	for i := 0; i < 5; i++ {
		stageWithImportance(t, pending, "candidate", 0.9)
	}

	engine := NewPromotionEngine()
	engine.MaxPerRun = 2

	ready := engine.Evaluate(nil, pending, NewImportanceScorer(DefaultScorerConfig()), 0.6)
	assert.Len(t, ready, 2)
}

func TestPromote_LeavesFailedItemsStagedButClearsSucceeded(t *testing.T) {
	pending := NewPendingMemories(0)
	okID := stageWithImportance(t, pending, "will succeed", 0.9)
	failID := stageWithImportance(t, pending, "will fail", 0.9)

	okItem, _ := pending.Get(okID)
	failItem, _ := pending.Get(failID)
	// fakePersister.failNext only fires on its first Persist call, so the
	// failing item must be listed first.
	ready := []PendingItem{failItem, okItem}

	engine := NewPromotionEngine()
	store := &fakePersister{failNext: true}

	result := engine.Promote("session-1", ready, pending, store)

	assert.Equal(t, 2, result.Evaluated)
	require.Len(t, result.PromotedIDs, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, failID, result.Failed[0])

	_, stillPending := pending.Get(okID)
	assert.False(t, stillPending, "the successfully promoted item must be cleared")
	_, stillFailed := pending.Get(failID)
	assert.True(t, stillFailed, "a failed promotion must leave the item staged for retry")
}

func TestRescorePendingFromAccessLog_OnlyTouchesItemsWithRecordedAccess(t *testing.T) {
	pending := NewPendingMemories(0)
	withAccess := stageWithImportance(t, pending, "accessed item", 0.3)
	withoutAccess := stageWithImportance(t, pending, "untouched item", 0.3)

	access := NewAccessLog(0)
	access.Record(withAccess, types.AccessRead)

	scorer := NewImportanceScorer(DefaultScorerConfig())
	RescorePendingFromAccessLog(pending, access, scorer)

	accessedItem, _ := pending.Get(withAccess)
	untouchedItem, _ := pending.Get(withoutAccess)

	assert.NotEqual(t, 0.3, accessedItem.ImportanceScore, "rescored from the access log")
	assert.Equal(t, 0.3, untouchedItem.ImportanceScore, "left untouched with no recorded access")
}

func TestFormatContentForPromotion_SkipsNoneKind(t *testing.T) {
	item := WorkingContextItem{Key: types.KeyActiveErrors, Value: "panic: nil pointer", SuggestedType: types.KindNone}
	_, ok := FormatContentForPromotion(item)
	assert.False(t, ok)
}
