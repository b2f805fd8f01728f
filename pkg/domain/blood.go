package domain

import dErrors "lifeline/pkg/domain-errors"

// BloodType is one of the 8 canonical ABO/Rh blood groups.
// Invariant: values outside the canonical set never enter the domain;
// construct via ParseBloodType at trust boundaries.
type BloodType string

const (
	BloodONeg  BloodType = "O-"
	BloodOPos  BloodType = "O+"
	BloodANeg  BloodType = "A-"
	BloodAPos  BloodType = "A+"
	BloodBNeg  BloodType = "B-"
	BloodBPos  BloodType = "B+"
	BloodABNeg BloodType = "AB-"
	BloodABPos BloodType = "AB+"
)

// AllBloodTypes lists the canonical values in conventional order.
func AllBloodTypes() []BloodType {
	return []BloodType{
		BloodONeg, BloodOPos, BloodANeg, BloodAPos,
		BloodBNeg, BloodBPos, BloodABNeg, BloodABPos,
	}
}

// compatibleRecipients is the ABO/Rh transfusion table: donor type → set of
// recipient types it may safely supply. O− is the universal donor; AB+ the
// universal recipient.
var compatibleRecipients = map[BloodType]map[BloodType]bool{
	BloodONeg: {
		BloodONeg: true, BloodOPos: true, BloodANeg: true, BloodAPos: true,
		BloodBNeg: true, BloodBPos: true, BloodABNeg: true, BloodABPos: true,
	},
	BloodOPos: {
		BloodOPos: true, BloodAPos: true, BloodBPos: true, BloodABPos: true,
	},
	BloodANeg: {
		BloodANeg: true, BloodAPos: true, BloodABNeg: true, BloodABPos: true,
	},
	BloodAPos: {
		BloodAPos: true, BloodABPos: true,
	},
	BloodBNeg: {
		BloodBNeg: true, BloodBPos: true, BloodABNeg: true, BloodABPos: true,
	},
	BloodBPos: {
		BloodBPos: true, BloodABPos: true,
	},
	BloodABNeg: {
		BloodABNeg: true, BloodABPos: true,
	},
	BloodABPos: {
		BloodABPos: true,
	},
}

// ParseBloodType constructs a BloodType from external input.
//
// Errors: CodeInvalidInput when the value is empty or not one of the 8
// canonical groups.
func ParseBloodType(s string) (BloodType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "blood type cannot be empty")
	}
	bt := BloodType(s)
	if !bt.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown blood type %q", s)
	}
	return bt, nil
}

// IsValid checks membership in the canonical set.
func (bt BloodType) IsValid() bool {
	_, ok := compatibleRecipients[bt]
	return ok
}

// CanDonateTo reports whether blood of this type may be transfused to a
// recipient of the given type. Unknown or empty types are never compatible.
func (bt BloodType) CanDonateTo(recipient BloodType) bool {
	return compatibleRecipients[bt][recipient]
}

// CompatibleRecipients returns the recipient types this donor type may
// supply, in conventional order.
func (bt BloodType) CompatibleRecipients() []BloodType {
	recipients := compatibleRecipients[bt]
	out := make([]BloodType, 0, len(recipients))
	for _, candidate := range AllBloodTypes() {
		if recipients[candidate] {
			out = append(out, candidate)
		}
	}
	return out
}

// String returns the canonical representation, e.g. "O-".
func (bt BloodType) String() string {
	return string(bt)
}
