package domain

import dErrors "lifeline/pkg/domain-errors"

// OrganType identifies the organ category of an organ request.
//
// There is deliberately no organ compatibility table here: the eligibility
// rules for organ requests stop at donor availability. Matching organ donors
// medically (HLA typing, size, ischemia windows) is out of scope and flagged
// for domain review before any organ workflow ships.
type OrganType string

const (
	OrganKidney   OrganType = "kidney"
	OrganLiver    OrganType = "liver"
	OrganHeart    OrganType = "heart"
	OrganLung     OrganType = "lung"
	OrganPancreas OrganType = "pancreas"
	OrganCornea   OrganType = "cornea"
)

var validOrganTypes = map[OrganType]bool{
	OrganKidney:   true,
	OrganLiver:    true,
	OrganHeart:    true,
	OrganLung:     true,
	OrganPancreas: true,
	OrganCornea:   true,
}

// ParseOrganType constructs an OrganType from external input.
func ParseOrganType(s string) (OrganType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "organ type cannot be empty")
	}
	ot := OrganType(s)
	if !ot.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown organ type %q", s)
	}
	return ot, nil
}

// IsValid checks membership in the supported set.
func (ot OrganType) IsValid() bool {
	return validOrganTypes[ot]
}

func (ot OrganType) String() string {
	return string(ot)
}
