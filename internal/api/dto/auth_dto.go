package dto

import "time"

// SessionRequest is sent by the identity bridge after a successful sign-in.
type SessionRequest struct {
	UID         string `json:"uid" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
}

// SessionResponse returns the issued token.
type SessionResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}
