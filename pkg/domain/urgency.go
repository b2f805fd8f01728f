package domain

import dErrors "lifeline/pkg/domain-errors"

// Urgency ranks how quickly a request must be filled. The matching engine
// maps urgency onto score bonuses; the values here only define the ordering.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// urgencyOrder defines severity ordering for comparisons and validation.
var urgencyOrder = map[Urgency]int{
	UrgencyLow:      1,
	UrgencyMedium:   2,
	UrgencyHigh:     3,
	UrgencyCritical: 4,
}

// ParseUrgency constructs an Urgency from external input.
func ParseUrgency(s string) (Urgency, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "urgency cannot be empty")
	}
	u := Urgency(s)
	if !u.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown urgency %q", s)
	}
	return u, nil
}

// IsValid checks membership in the supported set.
func (u Urgency) IsValid() bool {
	_, ok := urgencyOrder[u]
	return ok
}

// AtLeast reports whether this urgency is as severe as other.
func (u Urgency) AtLeast(other Urgency) bool {
	return urgencyOrder[u] >= urgencyOrder[other]
}

func (u Urgency) String() string {
	return string(u)
}
