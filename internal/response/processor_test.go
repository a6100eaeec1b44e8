package response

import (
	"testing"
	"time"

	"github.com/jido-ai/memorycore/internal/memory"
	"github.com/jido-ai/memorycore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_ExtractsActiveFileFromBacktickedPath(t *testing.T) {
	wc := memory.NewWorkingContext()
	p := NewProcessor()

	p.Process(wc, "I just fixed the bug in `internal/memory/pending.go`.")

	value, ok := wc.Get(types.KeyActiveFile)
	require.True(t, ok)
	assert.Equal(t, "internal/memory/pending.go", value)
}

func TestProcess_ExtractsPrimaryLanguageFromCodeFence(t *testing.T) {
	wc := memory.NewWorkingContext()
	p := NewProcessor()

	p.Process(wc, "Here's the fix:\n```go\nfunc main() {}\n```\n")

	value, ok := wc.Get(types.KeyPrimaryLanguage)
	require.True(t, ok)
	assert.Equal(t, "Go", value)
}

func TestProcess_ExtractsFrameworkKeyword(t *testing.T) {
	wc := memory.NewWorkingContext()
	p := NewProcessor()

	p.Process(wc, "This project is built with React and a Gin backend.")

	value, ok := wc.Get(types.KeyFramework)
	require.True(t, ok)
	assert.Contains(t, []string{"React", "Gin"}, value)
}

func TestProcess_ExtractsUserIntentFromDecisionPhrase(t *testing.T) {
	wc := memory.NewWorkingContext()
	p := NewProcessor()

	p.Process(wc, "We decided to use PostgreSQL for the primary datastore.")

	value, ok := wc.Get(types.KeyUserIntent)
	require.True(t, ok)
	assert.Equal(t, "PostgreSQL for the primary datastore", value)
}

func TestProcess_ExtractsConventionMarkerLines(t *testing.T) {
	wc := memory.NewWorkingContext()
	p := NewProcessor()

	p.Process(wc, "convention: always wrap errors with context\nsome unrelated line")

	value, ok := wc.Get(types.KeyDiscoveredPatterns)
	require.True(t, ok)
	patterns, ok := value.([]string)
	require.True(t, ok)
	assert.Len(t, patterns, 1)
	assert.Contains(t, patterns[0], "always wrap errors")
}

func TestProcess_ExtractsActiveErrorLines(t *testing.T) {
	wc := memory.NewWorkingContext()
	p := NewProcessor()

	p.Process(wc, "Error: nil pointer dereference\neverything else is fine")

	value, ok := wc.Get(types.KeyActiveErrors)
	require.True(t, ok)
	errs, ok := value.([]string)
	require.True(t, ok)
	assert.Len(t, errs, 1)
}

func TestProcess_ExtractsPendingQuestions(t *testing.T) {
	wc := memory.NewWorkingContext()
	p := NewProcessor()

	p.Process(wc, "Should we cache this response?")

	value, ok := wc.Get(types.KeyPendingQuestions)
	require.True(t, ok)
	questions, ok := value.([]string)
	require.True(t, ok)
	assert.Len(t, questions, 1)
}

func TestProcess_EmptyTextIsNoop(t *testing.T) {
	wc := memory.NewWorkingContext()
	p := NewProcessor()

	p.Process(wc, "")

	assert.Equal(t, 0, wc.Size())
}

func TestProcessAsync_NeverPanicsCaller(t *testing.T) {
	wc := memory.NewWorkingContext()
	p := NewProcessor()

	p.ProcessAsync(wc, "active_file should end up set eventually: `main.go`")

	require.Eventually(t, func() bool {
		_, ok := wc.Get(types.KeyActiveFile)
		return ok
	}, time.Second, 10*time.Millisecond)
}
