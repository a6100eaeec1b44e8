package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/jido-ai/memorycore/internal/logging"
	"github.com/jido-ai/memorycore/internal/types"
)

// WorkingContextItem is one slot of the in-memory semantic scratchpad.
type WorkingContextItem struct {
	Key           types.ContextKey
	Value         interface{}
	Source        types.WorkingContextSource
	Confidence    float64
	AccessCount   int
	FirstSeen     time.Time
	LastAccessed  time.Time
	SuggestedType types.MemoryKind
}

// PutOptions are the optional fields accepted by WorkingContext.Put.
type PutOptions struct {
	Source       types.WorkingContextSource
	Confidence   *float64
	MemoryType   *types.MemoryKind
}

// WorkingContext is the per-session in-memory semantic scratchpad keyed by
// short enumerated ContextKeys. At most one item exists per key.
type WorkingContext struct {
	mu    sync.RWMutex
	items map[types.ContextKey]*WorkingContextItem
}

// NewWorkingContext creates an empty working context.
func NewWorkingContext() *WorkingContext {
	return &WorkingContext{items: make(map[types.ContextKey]*WorkingContextItem)}
}

// Put writes (or updates) the item at key. FirstSeen is preserved across
// updates; LastAccessed is refreshed and AccessCount incremented on every
// Put. Confidence is clamped to [0,1]. If opts.MemoryType is nil, the
// suggested promotion type is inferred from key and source.
func (c *WorkingContext) Put(key types.ContextKey, value interface{}, opts PutOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	confidence := 1.0
	if opts.Confidence != nil {
		confidence = types.ClampConfidence(*opts.Confidence)
	}
	source := opts.Source
	if source == "" {
		source = types.SourceExplicit
	}

	suggested := types.SuggestedKind(key, source)
	if opts.MemoryType != nil {
		suggested = *opts.MemoryType
	}

	existing, ok := c.items[key]
	firstSeen := now
	accessCount := 0
	if ok {
		firstSeen = existing.FirstSeen
		accessCount = existing.AccessCount
	}

	c.items[key] = &WorkingContextItem{
		Key:           key,
		Value:         value,
		Source:        source,
		Confidence:    confidence,
		AccessCount:   accessCount + 1,
		FirstSeen:     firstSeen,
		LastAccessed:  now,
		SuggestedType: suggested,
	}
	logging.Get(logging.CategoryMemory).Debug("working context put: key=%s source=%s confidence=%.2f", key, source, confidence)
}

// Get returns the value at key and bumps its access counters. Returns
// (nil, false) if the key is unset.
func (c *WorkingContext) Get(key types.ContextKey) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	item.AccessCount++
	item.LastAccessed = time.Now()
	return item.Value, true
}

// GetItem returns a copy of the full item metadata at key, bumping access
// counters as Get does.
func (c *WorkingContext) GetItem(key types.ContextKey) (WorkingContextItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[key]
	if !ok {
		return WorkingContextItem{}, false
	}
	item.AccessCount++
	item.LastAccessed = time.Now()
	return *item, true
}

// Peek returns the value at key without updating access counters.
func (c *WorkingContext) Peek(key types.ContextKey) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	return item.Value, true
}

// Delete removes the item at key, if any.
func (c *WorkingContext) Delete(key types.ContextKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// HasKey reports whether key currently has an item.
func (c *WorkingContext) HasKey(key types.ContextKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[key]
	return ok
}

// ToMap returns a plain map of key -> value, for prompt assembly. Does not
// affect access counters (equivalent to a bulk Peek).
func (c *WorkingContext) ToMap() map[types.ContextKey]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[types.ContextKey]interface{}, len(c.items))
	for k, v := range c.items {
		out[k] = v.Value
	}
	return out
}

// ToList returns a copy of every item's metadata, in unspecified order.
func (c *WorkingContext) ToList() []WorkingContextItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]WorkingContextItem, 0, len(c.items))
	for _, v := range c.items {
		out = append(out, *v)
	}
	return out
}

// Size returns the number of items currently held.
func (c *WorkingContext) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes every item.
func (c *WorkingContext) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[types.ContextKey]*WorkingContextItem)
}

// FormatValue renders an item's value as a short string suitable for prompt
// assembly or promotion content, per the format_content contract in §4.5:
// strings pass through, fmt.Stringer values render via String(), maps with
// a string "content" render that content, maps with a "value" key render as
// "key: value", other maps render as "key: %#v", and any other non-nil value
// renders as "key: %v". A nil value returns ("", false).
func FormatValue(key types.ContextKey, value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	case map[string]interface{}:
		if content, ok := v["content"]; ok {
			if s, ok := content.(string); ok {
				return s, true
			}
		}
		if val, ok := v["value"]; ok {
			return fmt.Sprintf("%s: %v", key, val), true
		}
		return fmt.Sprintf("%s: %#v", key, v), true
	case nil:
		return "", false
	default:
		return fmt.Sprintf("%s: %v", key, v), true
	}
}
