// Package auth owns registration, login, and logout. Tokens are stateless
// HS256 JWTs; logout works by blacklisting the token's jti for its remaining
// lifetime, and repeated login failures are throttled per email and IP by the
// lockout package.
package auth

import (
	"time"

	"lifeline/internal/user"
	id "lifeline/pkg/domain"
)

// RegisterInput carries a validated registration. Exactly the profile
// matching Role must be set; user.NewUser enforces the pairing.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     id.Role
	Donor    *user.DonorProfile
	Hospital *user.HospitalProfile
}

// LoginResult is what a successful login hands back to the transport layer.
// DeviceName is a human-readable render of the client's User-Agent, echoed so
// clients can label the session.
type LoginResult struct {
	Token      string
	ExpiresAt  time.Time
	User       *user.User
	DeviceName string
}
