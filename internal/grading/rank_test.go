package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenseRankSharesTiesAndAdvancesByOne(t *testing.T) {
	placements := DenseRank([]RankEntry{
		{StudentID: "s1", Score: 90},
		{StudentID: "s2", Score: 90},
		{StudentID: "s3", Score: 80},
	})
	require.Len(t, placements, 3)
	assert.Equal(t, 1, placements["s1"].Rank)
	assert.Equal(t, 1, placements["s2"].Rank)
	assert.Equal(t, 2, placements["s3"].Rank)
	for _, p := range placements {
		assert.Equal(t, 3, p.TotalRanked)
	}
}

func TestDenseRankRoundsBeforeComparing(t *testing.T) {
	// 90.004 rounds to 90.0 and ties with 89.999 rounding to 90.0.
	placements := DenseRank([]RankEntry{
		{StudentID: "s1", Score: 90.004},
		{StudentID: "s2", Score: 89.999},
		{StudentID: "s3", Score: 89.99},
	})
	assert.Equal(t, 1, placements["s1"].Rank)
	assert.Equal(t, 1, placements["s2"].Rank)
	assert.Equal(t, 2, placements["s3"].Rank)
}

func TestDenseRankSingleAndEmpty(t *testing.T) {
	placements := DenseRank([]RankEntry{{StudentID: "only", Score: 12.5}})
	assert.Equal(t, Placement{Rank: 1, TotalRanked: 1}, placements["only"])

	assert.Empty(t, DenseRank(nil))
}

func TestDenseRankDeterministicAcrossInputOrder(t *testing.T) {
	forward := DenseRank([]RankEntry{
		{StudentID: "a", Score: 70},
		{StudentID: "b", Score: 70},
		{StudentID: "c", Score: 65},
	})
	backward := DenseRank([]RankEntry{
		{StudentID: "c", Score: 65},
		{StudentID: "b", Score: 70},
		{StudentID: "a", Score: 70},
	})
	assert.Equal(t, forward, backward)
}

func TestAveragePopulation(t *testing.T) {
	// Absent, missing and zero marks stay out of the mean and, when no mark
	// is valid, out of the ranked population entirely.
	avg, ok := Average([]Mark{Present(80), Present(60), Missing(), Absent(), Present(0)})
	require.True(t, ok)
	assert.InDelta(t, 70, avg, 1e-9)

	_, ok = Average([]Mark{Missing(), Absent(), Present(0)})
	assert.False(t, ok)

	_, ok = Average(nil)
	assert.False(t, ok)
}
