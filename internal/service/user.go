package service

import (
	"context"
	"log"
	"time"

	"github.com/swing-terminal/backend/internal/db"
	"github.com/swing-terminal/backend/internal/model"
)

type UserStore interface {
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
}

type TokenReader interface {
	GetLatestToken(ctx context.Context, userID int64) (*model.FyersToken, error)
}

// RemoteValidator answers whether the remote API still accepts a token.
type RemoteValidator interface {
	Validate(ctx context.Context, accessToken string) bool
}

// AccessDecision is the outcome of the Fyers token guard.
type AccessDecision int

const (
	AccessAllow AccessDecision = iota
	AccessRedirect
	AccessDeny
)

// GuardResult is a tagged decision: Allow, Redirect(target), or
// Deny(reason). Handlers act on it instead of mutating shared request
// state.
type GuardResult struct {
	Decision AccessDecision
	Target   string
	Reason   string
}

// UserService resolves the single configured user and aggregates
// credential/token validity into a profile view.
type UserService struct {
	users     UserStore
	creds     CredentialReader
	tokens    TokenReader
	validator RemoteValidator
	userID    int64
	now       func() time.Time
}

func NewUserService(users UserStore, creds CredentialReader, tokens TokenReader, validator RemoteValidator, userID int64) *UserService {
	return &UserService{
		users:     users,
		creds:     creds,
		tokens:    tokens,
		validator: validator,
		userID:    userID,
		now:       time.Now,
	}
}

// DefaultUser returns the configured single-tenant user row.
func (s *UserService) DefaultUser(ctx context.Context) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, s.userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) HasActiveCredentials(ctx context.Context) bool {
	_, err := s.creds.GetActiveCredential(ctx, s.userID)
	if err != nil {
		if !db.IsNoRows(err) {
			log.Printf("[UserService] Failed to load active credentials: %v", err)
		}
		return false
	}
	return true
}

// HasValidToken requires all three: a latest token, a strictly-future
// expiry, and remote acceptance of the access token. A locally fresh
// token the remote API has revoked reports invalid.
func (s *UserService) HasValidToken(ctx context.Context) (bool, *model.FyersToken) {
	token, err := s.tokens.GetLatestToken(ctx, s.userID)
	if err != nil {
		if !db.IsNoRows(err) {
			log.Printf("[UserService] Failed to load latest token: %v", err)
		}
		return false, nil
	}
	if !token.ExpiresAt.After(s.now()) {
		return false, token
	}
	return s.validator.Validate(ctx, token.AccessToken), token
}

func (s *UserService) Profile(ctx context.Context) (*model.UserProfileResponse, error) {
	user, err := s.DefaultUser(ctx)
	if err != nil {
		return nil, err
	}

	hasValid, token := s.HasValidToken(ctx)
	profile := &model.UserProfileResponse{
		ID:                   user.ID,
		Name:                 user.Name,
		Email:                user.Email,
		HasActiveCredentials: s.HasActiveCredentials(ctx),
		HasValidToken:        hasValid,
	}
	if token != nil {
		expiresAt := token.ExpiresAt
		profile.TokenExpiresAt = &expiresAt
	}
	return profile, nil
}

// CheckFyersAccess is the capability checker behind the token guard.
func (s *UserService) CheckFyersAccess(ctx context.Context) GuardResult {
	if _, err := s.DefaultUser(ctx); err != nil {
		return GuardResult{Decision: AccessRedirect, Target: "/api/auth/status", Reason: "no user configured"}
	}
	if valid, _ := s.HasValidToken(ctx); !valid {
		return GuardResult{Decision: AccessRedirect, Target: "/api/auth/status", Reason: "fyers token missing or invalid"}
	}
	return GuardResult{Decision: AccessAllow}
}
