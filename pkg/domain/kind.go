package domain

import dErrors "lifeline/pkg/domain-errors"

// RequestKind discriminates blood requests from organ requests. The sub-type
// field matching the kind (blood type or organ type) must be set; the other
// must be absent.
type RequestKind string

const (
	KindBlood RequestKind = "blood"
	KindOrgan RequestKind = "organ"
)

// ParseRequestKind constructs a RequestKind from external input.
func ParseRequestKind(s string) (RequestKind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "request kind cannot be empty")
	}
	k := RequestKind(s)
	if !k.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown request kind %q", s)
	}
	return k, nil
}

// IsValid checks membership in the supported set.
func (k RequestKind) IsValid() bool {
	return k == KindBlood || k == KindOrgan
}

func (k RequestKind) String() string {
	return string(k)
}
