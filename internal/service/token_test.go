package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/swing-terminal/backend/internal/client"
	"github.com/swing-terminal/backend/internal/model"
)

type fakeTokenStore struct {
	latest      *model.FyersToken
	latestErr   error
	inserted    *model.FyersToken
	insertErr   error
	insertCalls int
	swapCalls   int
	swapOldID   int64
	swapExpiry  time.Time
	swapErr     error
	deleteCount int64
	deleteErr   error
}

func (f *fakeTokenStore) GetLatestToken(ctx context.Context, userID int64) (*model.FyersToken, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	return f.latest, nil
}

func (f *fakeTokenStore) InsertToken(ctx context.Context, userID int64, accessToken, refreshToken string, expiresAt time.Time) (*model.FyersToken, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = &model.FyersToken{
		ID:           1,
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}
	return f.inserted, nil
}

func (f *fakeTokenStore) SwapToken(ctx context.Context, oldTokenID, userID int64, accessToken, refreshToken string, expiresAt time.Time) (*model.FyersToken, error) {
	f.swapCalls++
	f.swapOldID = oldTokenID
	f.swapExpiry = expiresAt
	if f.swapErr != nil {
		return nil, f.swapErr
	}
	return &model.FyersToken{
		ID:           oldTokenID + 1,
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (f *fakeTokenStore) DeleteAllTokens(ctx context.Context, userID int64) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.deleteCount, nil
}

type fakeCredReader struct {
	cred *model.APICredential
	err  error
}

func (f *fakeCredReader) GetActiveCredential(ctx context.Context, userID int64) (*model.APICredential, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cred, nil
}

type fakeRemoteAuth struct {
	pair          *client.TokenPair
	refreshErr    error
	exchangeErr   error
	refreshCalls  int
	exchangeCalls int
}

func (f *fakeRemoteAuth) BuildAuthURL(appID, redirectURI string) (string, string) {
	return "https://auth.example/?client_id=" + appID + "&redirect_uri=" + redirectURI, "state-1"
}

func (f *fakeRemoteAuth) ExchangeCode(ctx context.Context, appID, appSecret, code string) (*client.TokenPair, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.pair, nil
}

func (f *fakeRemoteAuth) Refresh(ctx context.Context, appID, appSecret, refreshToken string) (*client.TokenPair, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.pair, nil
}

func newTokenService(store *fakeTokenStore, creds *fakeCredReader, remote *fakeRemoteAuth, now time.Time) *TokenService {
	svc := NewTokenService(store, creds, remote, 1)
	svc.now = func() time.Time { return now }
	return svc
}

func activeCred() *model.APICredential {
	return &model.APICredential{
		ID:          7,
		UserID:      1,
		AppID:       "APP-1",
		AppSecret:   "secret",
		RedirectURL: "https://app.example/callback",
		IsActive:    true,
	}
}

func TestIsExpiredBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"well past expiry", now.Add(-time.Hour), true},
		{"inside buffer", now.Add(4 * time.Minute), true},
		{"exactly at buffer", now.Add(5 * time.Minute), true},
		{"just outside buffer", now.Add(6 * time.Minute), false},
		{"far from expiry", now.Add(12 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeTokenStore{latest: &model.FyersToken{ID: 1, UserID: 1, ExpiresAt: tt.expiresAt}}
			svc := newTokenService(store, &fakeCredReader{}, &fakeRemoteAuth{}, now)

			if got := svc.IsExpired(context.Background()); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsExpiredNoToken(t *testing.T) {
	store := &fakeTokenStore{latestErr: pgx.ErrNoRows}
	svc := newTokenService(store, &fakeCredReader{}, &fakeRemoteAuth{}, time.Now())

	if !svc.IsExpired(context.Background()) {
		t.Error("expected missing token to report expired")
	}
}

func TestRefreshIfNeededFreshToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeTokenStore{latest: &model.FyersToken{ID: 1, UserID: 1, RefreshToken: "r", ExpiresAt: now.Add(time.Hour)}}
	remote := &fakeRemoteAuth{}
	svc := newTokenService(store, &fakeCredReader{cred: activeCred()}, remote, now)

	if !svc.RefreshIfNeeded(context.Background()) {
		t.Fatal("expected fresh token to report success")
	}
	if remote.refreshCalls != 0 {
		t.Errorf("remote refresh called %d times for a fresh token", remote.refreshCalls)
	}
	if store.swapCalls != 0 {
		t.Errorf("token swapped %d times for a fresh token", store.swapCalls)
	}
}

func TestRefreshIfNeededSwapsExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeTokenStore{latest: &model.FyersToken{ID: 5, UserID: 1, RefreshToken: "old-refresh", ExpiresAt: now.Add(2 * time.Minute)}}
	remote := &fakeRemoteAuth{pair: &client.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}}
	svc := newTokenService(store, &fakeCredReader{cred: activeCred()}, remote, now)

	if !svc.RefreshIfNeeded(context.Background()) {
		t.Fatal("expected refresh to succeed")
	}
	if remote.refreshCalls != 1 {
		t.Errorf("remote refresh called %d times, want 1", remote.refreshCalls)
	}
	if store.swapCalls != 1 {
		t.Fatalf("token swapped %d times, want 1", store.swapCalls)
	}
	if store.swapOldID != 5 {
		t.Errorf("swapped old token id %d, want 5", store.swapOldID)
	}
	if want := now.Add(TokenTTL); !store.swapExpiry.Equal(want) {
		t.Errorf("swapped expiry %v, want %v", store.swapExpiry, want)
	}
}

func TestRefreshIfNeededRemoteFailureKeepsOldToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeTokenStore{latest: &model.FyersToken{ID: 5, UserID: 1, RefreshToken: "old-refresh", ExpiresAt: now.Add(-time.Minute)}}
	remote := &fakeRemoteAuth{refreshErr: errors.New("remote down")}
	svc := newTokenService(store, &fakeCredReader{cred: activeCred()}, remote, now)

	if svc.RefreshIfNeeded(context.Background()) {
		t.Fatal("expected refresh to fail")
	}
	if store.swapCalls != 0 {
		t.Errorf("token swapped %d times after remote failure", store.swapCalls)
	}
}

func TestRefreshIfNeededGivesUpWithoutPrerequisites(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expired := func() *model.FyersToken {
		return &model.FyersToken{ID: 1, UserID: 1, RefreshToken: "r", ExpiresAt: now.Add(-time.Minute)}
	}

	tests := []struct {
		name  string
		store *fakeTokenStore
		creds *fakeCredReader
	}{
		{
			name:  "no token rows",
			store: &fakeTokenStore{latestErr: pgx.ErrNoRows},
			creds: &fakeCredReader{cred: activeCred()},
		},
		{
			name: "no refresh token",
			store: &fakeTokenStore{latest: &model.FyersToken{
				ID: 1, UserID: 1, RefreshToken: "", ExpiresAt: now.Add(-time.Minute),
			}},
			creds: &fakeCredReader{cred: activeCred()},
		},
		{
			name:  "no active credentials",
			store: &fakeTokenStore{latest: expired()},
			creds: &fakeCredReader{err: pgx.ErrNoRows},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeRemoteAuth{pair: &client.TokenPair{AccessToken: "a"}}
			svc := newTokenService(tt.store, tt.creds, remote, now)

			if svc.RefreshIfNeeded(context.Background()) {
				t.Error("expected refresh to report failure")
			}
			if remote.refreshCalls != 0 {
				t.Errorf("remote refresh called %d times, want 0", remote.refreshCalls)
			}
		})
	}
}

func TestExchange(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty code rejected", func(t *testing.T) {
		svc := newTokenService(&fakeTokenStore{}, &fakeCredReader{cred: activeCred()}, &fakeRemoteAuth{}, now)
		if _, err := svc.Exchange(context.Background(), ""); err != ErrInvalidInput {
			t.Errorf("Exchange(\"\") error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("no active credentials", func(t *testing.T) {
		svc := newTokenService(&fakeTokenStore{}, &fakeCredReader{err: pgx.ErrNoRows}, &fakeRemoteAuth{}, now)
		if _, err := svc.Exchange(context.Background(), "code-1"); err != ErrNotFound {
			t.Errorf("Exchange() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("remote failure", func(t *testing.T) {
		remote := &fakeRemoteAuth{exchangeErr: errors.New("bad code")}
		svc := newTokenService(&fakeTokenStore{}, &fakeCredReader{cred: activeCred()}, remote, now)
		if _, err := svc.Exchange(context.Background(), "code-1"); err != ErrRemote {
			t.Errorf("Exchange() error = %v, want ErrRemote", err)
		}
	})

	t.Run("persists with assumed lifetime", func(t *testing.T) {
		store := &fakeTokenStore{}
		remote := &fakeRemoteAuth{pair: &client.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}}
		svc := newTokenService(store, &fakeCredReader{cred: activeCred()}, remote, now)

		token, err := svc.Exchange(context.Background(), "code-1")
		if err != nil {
			t.Fatalf("Exchange() error = %v", err)
		}
		if token.AccessToken != "access-1" || token.RefreshToken != "refresh-1" {
			t.Errorf("unexpected token pair: %+v", token)
		}
		if want := now.Add(TokenTTL); !token.ExpiresAt.Equal(want) {
			t.Errorf("expiry %v, want %v", token.ExpiresAt, want)
		}
		if store.insertCalls != 1 {
			t.Errorf("insert called %d times, want 1", store.insertCalls)
		}
	})
}

func TestExchangeWithValidation(t *testing.T) {
	now := time.Now()
	svc := newTokenService(&fakeTokenStore{}, &fakeCredReader{}, &fakeRemoteAuth{}, now)

	for _, tt := range []struct {
		name                   string
		appID, appSecret, code string
	}{
		{"missing app id", "", "s", "c"},
		{"missing secret", "a", "", "c"},
		{"missing code", "a", "s", ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ExchangeWith(context.Background(), tt.appID, tt.appSecret, tt.code); err != ErrInvalidInput {
				t.Errorf("ExchangeWith() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAuthorizeURL(t *testing.T) {
	now := time.Now()

	t.Run("no active credentials", func(t *testing.T) {
		svc := newTokenService(&fakeTokenStore{}, &fakeCredReader{err: pgx.ErrNoRows}, &fakeRemoteAuth{}, now)
		if _, err := svc.AuthorizeURL(context.Background()); err != ErrNotFound {
			t.Errorf("AuthorizeURL() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("uses active credential set", func(t *testing.T) {
		svc := newTokenService(&fakeTokenStore{}, &fakeCredReader{cred: activeCred()}, &fakeRemoteAuth{}, now)
		resp, err := svc.AuthorizeURL(context.Background())
		if err != nil {
			t.Fatalf("AuthorizeURL() error = %v", err)
		}
		if resp.AuthURL == "" || resp.State == "" {
			t.Errorf("incomplete auth url response: %+v", resp)
		}
	})
}

func TestDisconnect(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		deleted int64
		want    bool
	}{
		{"tokens removed", 2, true},
		{"nothing stored", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeTokenStore{deleteCount: tt.deleted}
			svc := newTokenService(store, &fakeCredReader{}, &fakeRemoteAuth{}, now)

			got, err := svc.Disconnect(context.Background())
			if err != nil {
				t.Fatalf("Disconnect() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Disconnect() = %v, want %v", got, tt.want)
			}
		})
	}
}

// concurrentTokenStore is safe for concurrent use and lets SwapToken
// replace the latest row, so callers arriving after a completed refresh
// observe the fresh token.
type concurrentTokenStore struct {
	mu     sync.Mutex
	latest *model.FyersToken
}

func (f *concurrentTokenStore) GetLatestToken(ctx context.Context, userID int64) (*model.FyersToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil {
		return nil, pgx.ErrNoRows
	}
	token := *f.latest
	return &token, nil
}

func (f *concurrentTokenStore) InsertToken(ctx context.Context, userID int64, accessToken, refreshToken string, expiresAt time.Time) (*model.FyersToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = &model.FyersToken{ID: 1, UserID: userID, AccessToken: accessToken, RefreshToken: refreshToken, ExpiresAt: expiresAt}
	return f.latest, nil
}

func (f *concurrentTokenStore) SwapToken(ctx context.Context, oldTokenID, userID int64, accessToken, refreshToken string, expiresAt time.Time) (*model.FyersToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = &model.FyersToken{ID: oldTokenID + 1, UserID: userID, AccessToken: accessToken, RefreshToken: refreshToken, ExpiresAt: expiresAt}
	return f.latest, nil
}

func (f *concurrentTokenStore) DeleteAllTokens(ctx context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil {
		return 0, nil
	}
	f.latest = nil
	return 1, nil
}

// blockingRemote holds every refresh on gate so concurrent callers pile
// up behind one in-flight remote call.
type blockingRemote struct {
	gate  chan struct{}
	pair  *client.TokenPair
	calls int64
}

func (f *blockingRemote) BuildAuthURL(appID, redirectURI string) (string, string) {
	return "https://auth.example/", "state-1"
}

func (f *blockingRemote) ExchangeCode(ctx context.Context, appID, appSecret, code string) (*client.TokenPair, error) {
	return f.pair, nil
}

func (f *blockingRemote) Refresh(ctx context.Context, appID, appSecret, refreshToken string) (*client.TokenPair, error) {
	<-f.gate
	atomic.AddInt64(&f.calls, 1)
	return f.pair, nil
}

func TestRefreshIfNeededCollapsesConcurrentCallers(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &concurrentTokenStore{latest: &model.FyersToken{
		ID:           5,
		UserID:       1,
		RefreshToken: "old-refresh",
		ExpiresAt:    now.Add(-time.Minute),
	}}
	remote := &blockingRemote{
		gate: make(chan struct{}),
		pair: &client.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"},
	}
	svc := NewTokenService(store, &fakeCredReader{cred: activeCred()}, remote, 1)
	svc.now = func() time.Time { return now }

	const callers = 8
	results := make(chan bool, callers)
	var started sync.WaitGroup
	started.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			started.Done()
			results <- svc.RefreshIfNeeded(context.Background())
		}()
	}
	started.Wait()
	close(remote.gate)

	for i := 0; i < callers; i++ {
		if !<-results {
			t.Error("concurrent caller reported refresh failure")
		}
	}

	// Callers collapsed into the in-flight refresh share its result;
	// any caller arriving after completion sees the swapped-in fresh
	// token and never reaches the remote API.
	if got := atomic.LoadInt64(&remote.calls); got != 1 {
		t.Errorf("remote refresh called %d times, want 1", got)
	}

	latest, err := store.GetLatestToken(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetLatestToken() error = %v", err)
	}
	if latest.AccessToken != "new-access" {
		t.Errorf("latest access token = %q, want %q", latest.AccessToken, "new-access")
	}
	if latest.ID == 5 {
		t.Error("stale token row still current after refresh")
	}
}
