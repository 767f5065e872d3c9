package grading

// MarkState distinguishes an entered score from an absence and from a
// field that was never filled in.
type MarkState int

const (
	// MarkMissing means no value has been entered for the assessment.
	MarkMissing MarkState = iota
	// MarkPresent means a numeric score was entered (zero included).
	MarkPresent
	// MarkAbsent means the student was flagged absent for the assessment.
	MarkAbsent
)

// Mark is the three-state value carried by every assessment cell. The same
// reduction rules apply wherever scores are aggregated: absent and missing
// marks stay out of both the numerator and the denominator.
type Mark struct {
	state MarkState
	value float64
}

// Present builds a mark holding an entered score.
func Present(value float64) Mark {
	return Mark{state: MarkPresent, value: value}
}

// Absent builds an absence mark.
func Absent() Mark {
	return Mark{state: MarkAbsent}
}

// Missing builds a mark for a never-entered field.
func Missing() Mark {
	return Mark{state: MarkMissing}
}

// NewMark derives a mark from a nullable stored score and an absence flag.
// The absence flag wins over any stored value.
func NewMark(score *float64, isAbsent bool) Mark {
	if isAbsent {
		return Absent()
	}
	if score == nil {
		return Missing()
	}
	return Present(*score)
}

// State reports which of the three states the mark is in.
func (m Mark) State() MarkState {
	return m.state
}

// IsPresent reports whether a numeric score was entered.
func (m Mark) IsPresent() bool {
	return m.state == MarkPresent
}

// IsAbsent reports whether the student was flagged absent.
func (m Mark) IsAbsent() bool {
	return m.state == MarkAbsent
}

// Value returns the entered score, or 0 when the mark is absent or missing.
func (m Mark) Value() float64 {
	if m.state != MarkPresent {
		return 0
	}
	return m.value
}

// Counts reports whether the mark represents real progress for the purpose
// of ranking population checks and the carry-forward rule: an entered
// non-zero score or a deliberate absence.
func (m Mark) Counts() bool {
	if m.state == MarkAbsent {
		return true
	}
	return m.state == MarkPresent && m.value > 0
}

// accumulate folds present marks into a running (sum, weightSum) pair,
// scaling by the supplied weight. Absent and missing marks contribute
// nothing to either side.
func accumulate(m Mark, weight float64, sum, weightSum *float64) {
	if !m.IsPresent() {
		return
	}
	*sum += m.value * weight
	*weightSum += weight
}
