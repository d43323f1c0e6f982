package differ

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffProcessor_ProcessDiff(t *testing.T) {
	dp := NewDiffProcessor(DiffConfig{EnableSemanticCleanup: true})

	diffs := dp.ProcessDiff("hello world", "hello gopher")
	assert.NotEmpty(t, diffs)
}

func TestDiffProcessor_LineBased(t *testing.T) {
	dp := NewDiffProcessor(DefaultDiffConfig())

	diffs := dp.ProcessDiff("a\nb\nc\n", "a\nx\nc\n")
	stats := NewDiffStatsCalculator().CalculateStats(diffs)

	assert.Equal(t, 1, stats.LinesAdded)
	assert.Equal(t, 1, stats.LinesDeleted)
	assert.False(t, stats.IsIdentical)
}

func TestDiffStatsCalculator_Identical(t *testing.T) {
	dp := NewDiffProcessor(DefaultDiffConfig())

	stats := NewDiffStatsCalculator().CalculateStats(dp.ProcessDiff("a\nb\n", "a\nb\n"))
	assert.True(t, stats.IsIdentical)
	assert.Zero(t, stats.LinesAdded)
	assert.Zero(t, stats.LinesDeleted)
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 1, countLines("a"))
	assert.Equal(t, 1, countLines("a\n"))
	assert.Equal(t, 2, countLines("a\nb"))
}
