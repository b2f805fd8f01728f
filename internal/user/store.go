package user

import (
	"context"

	id "lifeline/pkg/domain"
)

// Store is the persistence contract for users. Implementations return
// sentinel errors for infrastructure facts: sentinel.ErrNotFound for missing
// rows, sentinel.ErrConflict when the email is already taken.
type Store interface {
	// CreateIfEmailAvailable inserts the user unless the email is taken.
	// The check-and-insert is atomic per store.
	CreateIfEmailAvailable(ctx context.Context, u *User) error
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// ListByRole returns every user holding the role, insertion-ordered.
	ListByRole(ctx context.Context, role id.Role) ([]*User, error)
	Update(ctx context.Context, u *User) error
}
