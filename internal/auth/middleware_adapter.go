package auth

import (
	authmw "lifeline/pkg/platform/middleware/auth"
)

// MiddlewareAdapter bridges the TokenManager to the middleware's
// JWTValidator interface.
type MiddlewareAdapter struct {
	manager *TokenManager
}

// NewMiddlewareAdapter wraps a TokenManager for the auth middleware.
func NewMiddlewareAdapter(manager *TokenManager) *MiddlewareAdapter {
	return &MiddlewareAdapter{manager: manager}
}

// ValidateToken implements authmw.JWTValidator.
func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.manager.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{
		UserID:  claims.Subject,
		Role:    claims.Role,
		JTI:     claims.ID,
		Version: claims.Ver,
	}, nil
}
