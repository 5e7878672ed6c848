package model

import "time"

type FyersToken struct {
	ID           int64
	UserID       int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AuthStatusResponse struct {
	UserID               int64      `json:"userId"`
	HasActiveCredentials bool       `json:"hasActiveCredentials"`
	HasValidToken        bool       `json:"hasValidToken"`
	TokenExpiresAt       *time.Time `json:"tokenExpiresAt,omitempty"`
}

type AuthURLResponse struct {
	AuthURL string `json:"authUrl"`
	State   string `json:"state"`
}

type TokenExchangeRequest struct {
	AppID     string `json:"appId" binding:"required"`
	AppSecret string `json:"appSecret" binding:"required"`
	AuthCode  string `json:"authCode" binding:"required"`
}

type TokenExchangeResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	JWTToken    string    `json:"jwtToken"`
}

type RefreshResponse struct {
	Refreshed bool   `json:"refreshed"`
	JWTToken  string `json:"jwtToken,omitempty"`
}

type DisconnectResponse struct {
	Disconnected bool `json:"disconnected"`
}
