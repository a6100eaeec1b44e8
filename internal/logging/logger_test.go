package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisabledLoggerIsNoop(t *testing.T) {
	require.NoError(t, Initialize(t.TempDir(), Config{Enabled: false}))
	l := Get(CategoryMemory)
	l.Info("should not panic or write: %d", 1)
}

func TestEnabledLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Config{Enabled: true, Level: "debug"}))
	defer CloseAll()

	Get(CategoryMemory).Debug("hello %s", "world")

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

func TestCategoryFilter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Config{
		Enabled:    true,
		Level:      "debug",
		Categories: map[string]bool{string(CategoryMemory): false},
	}))
	defer CloseAll()

	l := Get(CategoryMemory)
	require.Nil(t, l.logger)
}
