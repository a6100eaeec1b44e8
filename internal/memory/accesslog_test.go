package memory

import (
	"testing"

	"github.com/jido-ai/memorycore/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestAccessLog_RecordIsNewestFirst(t *testing.T) {
	log := NewAccessLog(0)
	log.Record("a", types.AccessRead)
	log.Record("b", types.AccessWrite)

	snap := log.Snapshot()
	if assert.Len(t, snap, 2) {
		assert.Equal(t, "b", snap[0].Key)
		assert.Equal(t, "a", snap[1].Key)
	}
}

func TestAccessLog_BoundedDropsOldest(t *testing.T) {
	log := NewAccessLog(2)
	log.Record("first", types.AccessRead)
	log.Record("second", types.AccessRead)
	log.Record("third", types.AccessRead)

	assert.Equal(t, 2, log.Size())
	assert.Equal(t, 0, log.GetFrequency("first"), "oldest entry should have been dropped")
	assert.Equal(t, 1, log.GetFrequency("third"))
}

func TestAccessLog_GetStatsAggregatesAcrossKinds(t *testing.T) {
	log := NewAccessLog(0)
	log.Record("k", types.AccessRead)
	log.Record("k", types.AccessWrite)
	log.Record("k", types.AccessRead)

	stats := log.GetStats("k")
	assert.Equal(t, 3, stats.Frequency)
	assert.True(t, stats.HasLastAccess)
	assert.Equal(t, 2, stats.KindCounts[types.AccessRead])
	assert.Equal(t, 1, stats.KindCounts[types.AccessWrite])
}

func TestAccessLog_GetStatsUnknownKeyHasNoAccess(t *testing.T) {
	log := NewAccessLog(0)
	stats := log.GetStats("missing")
	assert.Equal(t, 0, stats.Frequency)
	assert.False(t, stats.HasLastAccess)
}

func TestAccessLog_UniqueKeys(t *testing.T) {
	log := NewAccessLog(0)
	log.Record("a", types.AccessRead)
	log.Record("b", types.AccessRead)
	log.Record("a", types.AccessRead)

	assert.ElementsMatch(t, []string{"a", "b"}, log.UniqueKeys())
}
