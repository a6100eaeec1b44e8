package memory

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jido-ai/memorycore/internal/logging"
	"github.com/jido-ai/memorycore/internal/types"
)

// DefaultMaxPendingItems is the default cap on total pending items
// (implicit + agent-decision) before eviction kicks in.
const DefaultMaxPendingItems = 100

// PendingItem is a candidate awaiting promotion to long-term memory.
type PendingItem struct {
	ID              string
	Content         string
	MemoryType      types.MemoryKind
	Confidence      float64
	SourceType      types.SourceKind
	ImportanceScore float64
	SuggestedBy     types.PromotionSource
	Rationale       string
	EvidenceRefs    []string
}

// NewImplicitInput is the caller-supplied shape for AddImplicit; tier fields
// (id, importance, suggested_by) are assigned by PendingMemories itself.
type NewImplicitInput struct {
	Content      string
	MemoryType   types.MemoryKind
	Confidence   float64
	SourceType   types.SourceKind
	Rationale    string
	EvidenceRefs []string
}

// PendingMemories is the two-tier promotion staging area: implicit
// (scored) items keyed by id, and agent-decision (explicit, pre-approved)
// items in submission order.
type PendingMemories struct {
	mu               sync.Mutex
	implicit         map[string]*PendingItem
	implicitOrder    []string // insertion order, for eviction tie-breaking
	agentDecisions   []*PendingItem
	maxItems         int
}

// NewPendingMemories creates an empty staging area bounded to maxItems total
// entries (DefaultMaxPendingItems if <= 0).
func NewPendingMemories(maxItems int) *PendingMemories {
	if maxItems <= 0 {
		maxItems = DefaultMaxPendingItems
	}
	return &PendingMemories{
		implicit: make(map[string]*PendingItem),
		maxItems: maxItems,
	}
}

func (p *PendingMemories) totalLocked() int {
	return len(p.implicit) + len(p.agentDecisions)
}

// genID produces a `pending-<ts>-<rand>` id.
func genID() string {
	return types.NewPendingID(time.Now().UnixMilli(), strconv.FormatUint(rand.Uint64(), 36))
}

// AddImplicit stages a scored candidate. Default importance is 0.5 and
// suggested_by is always "implicit". If the staging area is already at
// capacity, the implicit entry with the lowest importance score is evicted
// first (ties broken by the oldest id-embedded timestamp).
func (p *PendingMemories) AddImplicit(in NewImplicitInput) (string, error) {
	if in.Content == "" {
		return "", fmt.Errorf("invalid_input: content is required")
	}
	if !types.ValidMemoryKind(in.MemoryType) || in.MemoryType == types.KindNone {
		return "", fmt.Errorf("invalid_input: unknown memory_type %q", in.MemoryType)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.totalLocked() >= p.maxItems {
		p.evictLowestImplicitLocked()
	}

	id := genID()
	item := &PendingItem{
		ID:              id,
		Content:         in.Content,
		MemoryType:      in.MemoryType,
		Confidence:      types.ClampConfidence(in.Confidence),
		SourceType:      in.SourceType,
		ImportanceScore: 0.5,
		SuggestedBy:     types.PromotionImplicit,
		Rationale:       in.Rationale,
		EvidenceRefs:    in.EvidenceRefs,
	}
	p.implicit[id] = item
	p.implicitOrder = append(p.implicitOrder, id)
	logging.Get(logging.CategoryMemory).Debug("pending implicit added: id=%s type=%s", id, in.MemoryType)
	return id, nil
}

// AddAgentDecision stages a pre-approved item. Importance is forced to 1.0
// and suggested_by to "agent".
func (p *PendingMemories) AddAgentDecision(in NewImplicitInput) (string, error) {
	if in.Content == "" {
		return "", fmt.Errorf("invalid_input: content is required")
	}
	if !types.ValidMemoryKind(in.MemoryType) || in.MemoryType == types.KindNone {
		return "", fmt.Errorf("invalid_input: unknown memory_type %q", in.MemoryType)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.totalLocked() >= p.maxItems {
		p.evictLowestImplicitLocked()
	}

	item := &PendingItem{
		ID:              genID(),
		Content:         in.Content,
		MemoryType:      in.MemoryType,
		Confidence:      types.ClampConfidence(in.Confidence),
		SourceType:      in.SourceType,
		ImportanceScore: 1.0,
		SuggestedBy:     types.PromotionAgent,
		Rationale:       in.Rationale,
		EvidenceRefs:    in.EvidenceRefs,
	}
	p.agentDecisions = append(p.agentDecisions, item)
	logging.Get(logging.CategoryMemory).Debug("pending agent decision added: id=%s type=%s", item.ID, in.MemoryType)
	return item.ID, nil
}

// evictLowestImplicitLocked drops the implicit entry with the lowest
// importance score, ties broken by insertion order (oldest first). No-op if
// there are no implicit entries (agent-decisions are never evicted).
func (p *PendingMemories) evictLowestImplicitLocked() {
	if len(p.implicit) == 0 {
		return
	}
	var worstID string
	worstScore := 2.0 // above any valid importance
	for _, id := range p.implicitOrder {
		item, ok := p.implicit[id]
		if !ok {
			continue
		}
		if item.ImportanceScore < worstScore {
			worstScore = item.ImportanceScore
			worstID = id
		}
	}
	if worstID == "" {
		return
	}
	delete(p.implicit, worstID)
	p.removeFromOrderLocked(worstID)
	logging.Get(logging.CategoryMemory).Debug("pending evicted lowest-importance item: id=%s score=%.2f", worstID, worstScore)
}

func (p *PendingMemories) removeFromOrderLocked(id string) {
	for i, existing := range p.implicitOrder {
		if existing == id {
			p.implicitOrder = append(p.implicitOrder[:i], p.implicitOrder[i+1:]...)
			return
		}
	}
}

// ReadyForPromotion returns every agent-decision item followed by implicit
// items with importance >= threshold, all sorted by importance descending.
func (p *PendingMemories) ReadyForPromotion(threshold float64) []PendingItem {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []PendingItem
	for _, item := range p.agentDecisions {
		out = append(out, *item)
	}
	var implicitReady []PendingItem
	for _, id := range p.implicitOrder {
		item, ok := p.implicit[id]
		if !ok || item.ImportanceScore < threshold {
			continue
		}
		implicitReady = append(implicitReady, *item)
	}
	sort.SliceStable(implicitReady, func(i, j int) bool {
		return implicitReady[i].ImportanceScore > implicitReady[j].ImportanceScore
	})
	out = append(out, implicitReady...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ImportanceScore > out[j].ImportanceScore
	})
	return out
}

// ClearPromoted removes every id in ids from both tiers: matching implicit
// entries are removed individually; if any agent-decision item's id is in
// ids, the entire agent-decision queue is emptied (it is always submitted
// and cleared as a batch).
func (p *PendingMemories) ClearPromoted(ids []string) {
	if len(ids) == 0 {
		return
	}
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for id := range idSet {
		if _, ok := p.implicit[id]; ok {
			delete(p.implicit, id)
			p.removeFromOrderLocked(id)
		}
	}

	clearAgent := false
	for _, item := range p.agentDecisions {
		if idSet[item.ID] {
			clearAgent = true
			break
		}
	}
	if clearAgent {
		p.agentDecisions = nil
	}
}

// Get returns the pending item with the given id, checking both tiers.
func (p *PendingMemories) Get(id string) (PendingItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if item, ok := p.implicit[id]; ok {
		return *item, true
	}
	for _, item := range p.agentDecisions {
		if item.ID == id {
			return *item, true
		}
	}
	return PendingItem{}, false
}

// Size returns the total number of items across both tiers.
func (p *PendingMemories) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalLocked()
}

// UpdateScore rewrites the importance score of an implicit item. No-op for
// unknown ids or agent-decision items (whose score is fixed at 1.0).
func (p *PendingMemories) UpdateScore(id string, score float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if item, ok := p.implicit[id]; ok {
		item.ImportanceScore = types.ClampConfidence(score)
	}
}

// ListImplicit returns a copy of every implicit item, insertion order.
func (p *PendingMemories) ListImplicit() []PendingItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PendingItem, 0, len(p.implicitOrder))
	for _, id := range p.implicitOrder {
		if item, ok := p.implicit[id]; ok {
			out = append(out, *item)
		}
	}
	return out
}

// ListAgentDecisions returns a copy of the agent-decision queue, submission order.
func (p *PendingMemories) ListAgentDecisions() []PendingItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PendingItem, len(p.agentDecisions))
	for i, item := range p.agentDecisions {
		out[i] = *item
	}
	return out
}

// Clear empties both tiers.
func (p *PendingMemories) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.implicit = make(map[string]*PendingItem)
	p.implicitOrder = nil
	p.agentDecisions = nil
}

// NewMemoryID mints a globally unique 32-char hex id for a promoted memory,
// independent of the pending-item id scheme.
func NewMemoryID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
