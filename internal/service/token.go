package service

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/swing-terminal/backend/internal/client"
	"github.com/swing-terminal/backend/internal/db"
	"github.com/swing-terminal/backend/internal/model"
	"golang.org/x/sync/singleflight"
)

const (
	// ExpiryBuffer is the margin before actual expiry at which a token
	// is already treated as expired, covering clock skew and in-flight
	// request latency.
	ExpiryBuffer = 5 * time.Minute

	// TokenTTL is the assumed lifetime of a Fyers access token; the
	// remote API does not report one.
	TokenTTL = 24 * time.Hour
)

var (
	refreshAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fyers_token_refresh_attempts_total",
		Help: "Token refresh attempts that reached the remote API.",
	})
	refreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fyers_token_refresh_failures_total",
		Help: "Token refresh attempts that failed remotely or on persist.",
	})
)

type TokenStore interface {
	GetLatestToken(ctx context.Context, userID int64) (*model.FyersToken, error)
	InsertToken(ctx context.Context, userID int64, accessToken, refreshToken string, expiresAt time.Time) (*model.FyersToken, error)
	SwapToken(ctx context.Context, oldTokenID, userID int64, accessToken, refreshToken string, expiresAt time.Time) (*model.FyersToken, error)
	DeleteAllTokens(ctx context.Context, userID int64) (int64, error)
}

type CredentialReader interface {
	GetActiveCredential(ctx context.Context, userID int64) (*model.APICredential, error)
}

// RemoteAuth is the outbound capability the lifecycle manager needs
// from the Fyers API.
type RemoteAuth interface {
	BuildAuthURL(appID, redirectURI string) (string, string)
	ExchangeCode(ctx context.Context, appID, appSecret, code string) (*client.TokenPair, error)
	Refresh(ctx context.Context, appID, appSecret, refreshToken string) (*client.TokenPair, error)
}

// TokenService owns the token lifecycle: expiry evaluation, the refresh
// decision, and persistence of exchanged tokens.
type TokenService struct {
	store  TokenStore
	creds  CredentialReader
	remote RemoteAuth
	userID int64
	group  singleflight.Group
	now    func() time.Time
}

func NewTokenService(store TokenStore, creds CredentialReader, remote RemoteAuth, userID int64) *TokenService {
	return &TokenService{
		store:  store,
		creds:  creds,
		remote: remote,
		userID: userID,
		now:    time.Now,
	}
}

// IsExpired reports whether the current token is missing or inside the
// expiry buffer.
func (s *TokenService) IsExpired(ctx context.Context) bool {
	token, err := s.store.GetLatestToken(ctx, s.userID)
	if err != nil {
		if !db.IsNoRows(err) {
			log.Printf("[TokenService] Failed to load latest token: %v", err)
		}
		return true
	}
	return s.expiredOrNear(token)
}

// RefreshIfNeeded refreshes the current token when it is expired or
// about to expire. Returns true when a usable token is in place
// afterwards. Concurrent callers for the same user are collapsed into
// one refresh; the remote API is never hit twice for one expiry.
func (s *TokenService) RefreshIfNeeded(ctx context.Context) bool {
	result, _, _ := s.group.Do(strconv.FormatInt(s.userID, 10), func() (interface{}, error) {
		return s.refresh(ctx), nil
	})
	return result.(bool)
}

func (s *TokenService) refresh(ctx context.Context) bool {
	token, err := s.store.GetLatestToken(ctx, s.userID)
	if err != nil {
		if !db.IsNoRows(err) {
			log.Printf("[TokenService] Failed to load latest token: %v", err)
		}
		// No token at all: the user must re-authenticate from scratch.
		return false
	}

	if !s.expiredOrNear(token) {
		return true
	}

	if token.RefreshToken == "" {
		log.Printf("[TokenService] Current token has no refresh token; re-authentication required")
		return false
	}

	cred, err := s.creds.GetActiveCredential(ctx, token.UserID)
	if err != nil {
		if db.IsNoRows(err) {
			log.Printf("[TokenService] No active credentials for token refresh")
		} else {
			log.Printf("[TokenService] Failed to load active credentials: %v", err)
		}
		return false
	}

	refreshAttempts.Inc()
	pair, err := s.remote.Refresh(ctx, cred.AppID, cred.AppSecret, token.RefreshToken)
	if err != nil {
		// The old token stays untouched; it may still be valid.
		refreshFailures.Inc()
		log.Printf("[TokenService] Remote refresh failed: %v", err)
		return false
	}

	if _, err := s.store.SwapToken(ctx, token.ID, token.UserID, pair.AccessToken, pair.RefreshToken, s.now().Add(TokenTTL)); err != nil {
		refreshFailures.Inc()
		log.Printf("[TokenService] Failed to persist refreshed token: %v", err)
		return false
	}

	return true
}

// Exchange trades an authorization code for a token using the active
// credential set and persists the result.
func (s *TokenService) Exchange(ctx context.Context, code string) (*model.FyersToken, error) {
	if code == "" {
		return nil, ErrInvalidInput
	}

	cred, err := s.creds.GetActiveCredential(ctx, s.userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.exchange(ctx, cred.AppID, cred.AppSecret, code)
}

// ExchangeWith trades an authorization code using caller-supplied
// credentials instead of the stored active set.
func (s *TokenService) ExchangeWith(ctx context.Context, appID, appSecret, code string) (*model.FyersToken, error) {
	if appID == "" || appSecret == "" || code == "" {
		return nil, ErrInvalidInput
	}
	return s.exchange(ctx, appID, appSecret, code)
}

func (s *TokenService) exchange(ctx context.Context, appID, appSecret, code string) (*model.FyersToken, error) {
	pair, err := s.remote.ExchangeCode(ctx, appID, appSecret, code)
	if err != nil {
		log.Printf("[TokenService] Code exchange failed: %v", err)
		return nil, ErrRemote
	}

	token, err := s.store.InsertToken(ctx, s.userID, pair.AccessToken, pair.RefreshToken, s.now().Add(TokenTTL))
	if err != nil {
		return nil, err
	}
	return token, nil
}

// AuthorizeURL builds the Fyers login redirect for the active
// credential set.
func (s *TokenService) AuthorizeURL(ctx context.Context) (*model.AuthURLResponse, error) {
	cred, err := s.creds.GetActiveCredential(ctx, s.userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	url, state := s.remote.BuildAuthURL(cred.AppID, cred.RedirectURL)
	return &model.AuthURLResponse{AuthURL: url, State: state}, nil
}

func (s *TokenService) Latest(ctx context.Context) (*model.FyersToken, error) {
	token, err := s.store.GetLatestToken(ctx, s.userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return token, nil
}

// Disconnect deletes every token for the user.
func (s *TokenService) Disconnect(ctx context.Context) (bool, error) {
	deleted, err := s.store.DeleteAllTokens(ctx, s.userID)
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

func (s *TokenService) expiredOrNear(token *model.FyersToken) bool {
	return !token.ExpiresAt.Add(-ExpiryBuffer).After(s.now())
}
