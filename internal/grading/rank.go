package grading

import (
	"math"
	"sort"
)

// RankEntry is one student's scalar metric entering a ranking pass.
type RankEntry struct {
	StudentID string
	Score     float64
}

// Placement is a student's position within the ranked population.
type Placement struct {
	Rank        int
	TotalRanked int
}

// roundScore rounds to two decimals so floating point accumulation noise
// cannot split a tie.
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

// DenseRank orders entries descending by score and assigns dense ranks:
// scores equal after two-decimal rounding share a rank, and the next
// distinct score gets the previous rank plus one. Entries with equal
// rounded scores are ordered by student ID so repeated passes over the
// same inputs produce identical output.
func DenseRank(entries []RankEntry) map[string]Placement {
	placements := make(map[string]Placement, len(entries))
	if len(entries) == 0 {
		return placements
	}

	sorted := make([]RankEntry, len(entries))
	for i, e := range entries {
		sorted[i] = RankEntry{StudentID: e.StudentID, Score: roundScore(e.Score)}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].StudentID < sorted[j].StudentID
	})

	total := len(sorted)
	rank := 1
	prev := sorted[0].Score
	placements[sorted[0].StudentID] = Placement{Rank: rank, TotalRanked: total}
	for _, entry := range sorted[1:] {
		if entry.Score < prev {
			rank++
		}
		placements[entry.StudentID] = Placement{Rank: rank, TotalRanked: total}
		prev = entry.Score
	}
	return placements
}

// Average reduces a set of marks to the mean of its valid members, where a
// valid mark is present, not an absence, and greater than zero. The second
// return reports whether any valid mark existed; callers use it to decide
// whether the student belongs to the ranked population for the metric.
func Average(marks []Mark) (float64, bool) {
	var sum float64
	var count int
	for _, m := range marks {
		if m.IsPresent() && m.Value() > 0 {
			sum += m.Value()
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
