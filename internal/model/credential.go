package model

import "time"

// SecretMask replaces persisted secrets in every outward-facing response.
const SecretMask = "••••••••"

type APICredential struct {
	ID          int64
	UserID      int64
	AppID       string
	AppSecret   string
	RedirectURL string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CredentialRequest struct {
	AppID       string `json:"appId" binding:"required,max=50"`
	AppSecret   string `json:"appSecret" binding:"required,max=100"`
	RedirectURL string `json:"redirectUrl" binding:"required,url,max=255"`
}

type CredentialResponse struct {
	ID          int64     `json:"id"`
	AppID       string    `json:"appId"`
	AppSecret   string    `json:"appSecret"`
	RedirectURL string    `json:"redirectUrl"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Masked converts a stored credential into its response shape. The raw
// secret never leaves the process through a read endpoint.
func (c *APICredential) Masked() CredentialResponse {
	return CredentialResponse{
		ID:          c.ID,
		AppID:       c.AppID,
		AppSecret:   SecretMask,
		RedirectURL: c.RedirectURL,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
	}
}
