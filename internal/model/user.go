package model

import "time"

type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthUser is the identity carried by a parsed session token.
type AuthUser struct {
	ID    int64
	Email string
}

type UserProfileResponse struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	HasActiveCredentials bool       `json:"hasActiveCredentials"`
	HasValidToken        bool       `json:"hasValidToken"`
	TokenExpiresAt       *time.Time `json:"tokenExpiresAt,omitempty"`
}
