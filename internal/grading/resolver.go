package grading

// Method selects how a subject's final score is derived from its marks.
type Method string

const (
	// MethodAverageAll averages whichever marks were actually entered.
	MethodAverageAll Method = "average_all"
	// MethodEndOfTermOnly takes the end-of-term mark as the final score.
	MethodEndOfTermOnly Method = "end_of_term_only"
	// MethodWeightedAverage applies configured weights to entered marks.
	MethodWeightedAverage Method = "weighted_average"
)

// Letter is the reported grade symbol.
type Letter string

const (
	LetterA  Letter = "A"
	LetterB  Letter = "B"
	LetterC  Letter = "C"
	LetterD  Letter = "D"
	LetterF  Letter = "F"
	LetterAB Letter = "AB"
	LetterNA Letter = "N/A"
)

// DefaultPassMark applies when no grade configuration is active.
const DefaultPassMark = 50

// Policy is the scoring configuration consumed by the resolver. Weights are
// only read under MethodWeightedAverage and need not sum to 100; the
// resolver normalises by the weights of the marks actually entered.
type Policy struct {
	Method          Method
	WeightQa1       float64
	WeightQa2       float64
	WeightEndOfTerm float64
	PassMark        float64
}

// SubjectEntries holds the three marks of one subject for one student.
type SubjectEntries struct {
	Qa1       Mark
	Qa2       Mark
	EndOfTerm Mark
}

// ResolveSubject computes the final score and letter for one subject under
// the given policy. An end-of-term absence forces (0, AB) regardless of
// method.
func ResolveSubject(entries SubjectEntries, policy Policy) (float64, Letter) {
	if entries.EndOfTerm.IsAbsent() {
		return 0, LetterAB
	}
	score := finalScore(entries, policy)
	return score, LetterFor(score, policy.PassMark)
}

// ResolveSubjectSet computes final scores and letters for a student's full
// subject set on the detail-view path. When the student has quiz progress in
// any subject but no end-of-term entry anywhere, each subject's final score
// is taken directly from its raw end-of-term value instead of the method
// formula, so quiz-only progress is not zeroed out while end-of-term results
// are still pending. Ordering of the result matches the input.
func ResolveSubjectSet(subjects []SubjectEntries, policy Policy) []Resolved {
	carry := carryForward(subjects)
	resolved := make([]Resolved, len(subjects))
	for i, entries := range subjects {
		var score float64
		switch {
		case entries.EndOfTerm.IsAbsent():
			score = 0
		case carry:
			score = entries.EndOfTerm.Value()
		default:
			score = finalScore(entries, policy)
		}
		letter := LetterFor(score, policy.PassMark)
		if entries.EndOfTerm.IsAbsent() {
			letter = LetterAB
		}
		resolved[i] = Resolved{FinalScore: score, Grade: letter}
	}
	return resolved
}

// Resolved pairs a subject's final score with its letter.
type Resolved struct {
	FinalScore float64
	Grade      Letter
}

// carryForward reports whether the pending-results rule applies: some qa1 or
// qa2 progress exists in any subject while no subject has an end-of-term
// entry recorded.
func carryForward(subjects []SubjectEntries) bool {
	var hasQuiz, hasEndOfTerm bool
	for _, entries := range subjects {
		if entries.Qa1.Counts() || entries.Qa2.Counts() {
			hasQuiz = true
		}
		if entries.EndOfTerm.Counts() {
			hasEndOfTerm = true
		}
	}
	return hasQuiz && !hasEndOfTerm
}

func finalScore(entries SubjectEntries, policy Policy) float64 {
	switch policy.Method {
	case MethodEndOfTermOnly:
		return entries.EndOfTerm.Value()
	case MethodWeightedAverage:
		var sum, weightSum float64
		accumulate(entries.Qa1, policy.WeightQa1, &sum, &weightSum)
		accumulate(entries.Qa2, policy.WeightQa2, &sum, &weightSum)
		accumulate(entries.EndOfTerm, policy.WeightEndOfTerm, &sum, &weightSum)
		if weightSum == 0 {
			return 0
		}
		return sum / weightSum
	default: // MethodAverageAll
		var sum, count float64
		accumulate(entries.Qa1, 1, &sum, &count)
		accumulate(entries.Qa2, 1, &sum, &count)
		accumulate(entries.EndOfTerm, 1, &sum, &count)
		if count == 0 {
			return 0
		}
		return sum / count
	}
}

// LetterFor maps a score to its letter under the standard grade table.
func LetterFor(score, passMark float64) Letter {
	if passMark <= 0 {
		passMark = DefaultPassMark
	}
	switch {
	case score >= 80:
		return LetterA
	case score >= 70:
		return LetterB
	case score >= 60:
		return LetterC
	case score >= passMark:
		return LetterD
	default:
		return LetterF
	}
}

// LetterForMark grades a single assessment cell: absence reports AB and a
// never-entered field reports N/A instead of being scored.
func LetterForMark(m Mark, passMark float64) Letter {
	switch m.State() {
	case MarkAbsent:
		return LetterAB
	case MarkMissing:
		return LetterNA
	default:
		return LetterFor(m.Value(), passMark)
	}
}
