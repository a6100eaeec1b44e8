package memory

import (
	"testing"

	"github.com/jido-ai/memorycore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkingContext_PutPreservesFirstSeenAndBumpsAccessCount(t *testing.T) {
	wc := NewWorkingContext()
	wc.Put(types.KeyActiveFile, "main.go", PutOptions{Source: types.SourceInferred})
	first, ok := wc.GetItem(types.KeyActiveFile)
	require.True(t, ok)

	wc.Put(types.KeyActiveFile, "other.go", PutOptions{Source: types.SourceInferred})
	second, ok := wc.GetItem(types.KeyActiveFile)
	require.True(t, ok)

	assert.Equal(t, first.FirstSeen, second.FirstSeen)
	assert.Equal(t, "other.go", second.Value)
	assert.Greater(t, second.AccessCount, first.AccessCount)
}

func TestWorkingContext_ConfidenceClamped(t *testing.T) {
	wc := NewWorkingContext()
	over := 5.0
	wc.Put(types.KeyUserIntent, "ship the feature", PutOptions{Confidence: &over})
	item, ok := wc.GetItem(types.KeyUserIntent)
	require.True(t, ok)
	assert.Equal(t, 1.0, item.Confidence)
}

func TestWorkingContext_PeekDoesNotBumpAccessCount(t *testing.T) {
	wc := NewWorkingContext()
	wc.Put(types.KeyFramework, "React", PutOptions{Source: types.SourceExplicit})
	before, _ := wc.GetItem(types.KeyFramework)

	_, ok := wc.Peek(types.KeyFramework)
	require.True(t, ok)

	after, _ := wc.GetItem(types.KeyFramework)
	assert.Equal(t, before.AccessCount+1, after.AccessCount, "only the GetItem call above should have bumped the counter")
}

func TestFormatValue_StringsMapsAndFallback(t *testing.T) {
	s, ok := FormatValue(types.KeyActiveFile, "main.go")
	assert.True(t, ok)
	assert.Equal(t, "main.go", s)

	s, ok = FormatValue(types.KeyCurrentTask, map[string]interface{}{"content": "fix the bug"})
	assert.True(t, ok)
	assert.Equal(t, "fix the bug", s)

	s, ok = FormatValue(types.KeyCurrentTask, map[string]interface{}{"value": "in progress"})
	assert.True(t, ok)
	assert.Contains(t, s, "in progress")

	_, ok = FormatValue(types.KeyActiveErrors, nil)
	assert.False(t, ok)
}

func TestWorkingContext_ClearRemovesEverything(t *testing.T) {
	wc := NewWorkingContext()
	wc.Put(types.KeyFramework, "Gin", PutOptions{})
	wc.Put(types.KeyPrimaryLanguage, "Go", PutOptions{})
	require.Equal(t, 2, wc.Size())

	wc.Clear()
	assert.Equal(t, 0, wc.Size())
	assert.False(t, wc.HasKey(types.KeyFramework))
}
