package handler

import (
	"time"

	"lifeline/internal/auth"
	userhandler "lifeline/internal/user/handler"
)

// LoginResponse is the wire shape of a successful login.
type LoginResponse struct {
	Token      string                    `json:"token"`
	ExpiresAt  time.Time                 `json:"expires_at"`
	DeviceName string                    `json:"device_name,omitempty"`
	User       *userhandler.UserResponse `json:"user"`
}

// FromLoginResult converts a login result to its HTTP response.
func FromLoginResult(result *auth.LoginResult) *LoginResponse {
	return &LoginResponse{
		Token:      result.Token,
		ExpiresAt:  result.ExpiresAt,
		DeviceName: result.DeviceName,
		User:       userhandler.FromUser(result.User),
	}
}
