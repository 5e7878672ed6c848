// HTTP client for the Fyers trading API.
//
// Every response is a JSON envelope {s, code, message, ...}; only
// s == "ok" with a non-null payload is treated as success. All network
// calls share one timeout-bound http.Client.

package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/swing-terminal/backend/internal/config"
	"github.com/swing-terminal/backend/internal/model"
	"golang.org/x/oauth2"
)

const defaultTimeout = 15 * time.Second

type FyersClient struct {
	baseURL    string
	authURL    string
	httpClient *http.Client
}

// TokenPair is the usable result of a code exchange or a refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type envelope struct {
	S       string          `json:"s"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func NewFyersClient(cfg config.FyersConfig) *FyersClient {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = defaultTimeout
	}

	return &FyersClient{
		baseURL: cfg.BaseURL,
		authURL: cfg.AuthURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BuildAuthURL constructs the Fyers authorization-code URL together with
// a freshly generated anti-replay state value. No network call is made.
func (c *FyersClient) BuildAuthURL(appID, redirectURI string) (string, string) {
	conf := &oauth2.Config{
		ClientID:    appID,
		RedirectURL: redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL: c.authURL,
		},
	}
	state := uuid.NewString()
	return conf.AuthCodeURL(state), state
}

// ExchangeCode trades an authorization code for an access/refresh token pair.
func (c *FyersClient) ExchangeCode(ctx context.Context, appID, appSecret, code string) (*TokenPair, error) {
	payload := map[string]string{
		"grant_type": "authorization_code",
		"appIdHash":  appIDHash(appID, appSecret),
		"code":       code,
	}
	return c.requestTokenPair(ctx, c.baseURL+"/validate-authcode", payload)
}

// Refresh trades a refresh token for a new access/refresh token pair.
func (c *FyersClient) Refresh(ctx context.Context, appID, appSecret, refreshToken string) (*TokenPair, error) {
	payload := map[string]string{
		"grant_type":    "refresh_token",
		"appIdHash":     appIDHash(appID, appSecret),
		"refresh_token": refreshToken,
	}
	return c.requestTokenPair(ctx, c.baseURL+"/validate-refresh-token", payload)
}

// Validate reports whether the remote API still accepts the access token.
// Implemented as a profile fetch; any failure means invalid.
func (c *FyersClient) Validate(ctx context.Context, accessToken string) bool {
	_, err := c.Profile(ctx, accessToken)
	return err == nil
}

func (c *FyersClient) Profile(ctx context.Context, accessToken string) (*model.FyersProfile, error) {
	var profile model.FyersProfile
	if err := c.getJSON(ctx, "/profile", accessToken, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *FyersClient) Funds(ctx context.Context, accessToken string) (*model.FyersFunds, error) {
	var funds model.FyersFunds
	if err := c.getJSON(ctx, "/funds", accessToken, &funds); err != nil {
		return nil, err
	}
	return &funds, nil
}

func (c *FyersClient) Holdings(ctx context.Context, accessToken string) ([]model.FyersHolding, error) {
	var holdings []model.FyersHolding
	if err := c.getJSON(ctx, "/holdings", accessToken, &holdings); err != nil {
		return nil, err
	}
	return holdings, nil
}

func (c *FyersClient) Orders(ctx context.Context, accessToken string) ([]model.FyersOrder, error) {
	var orders []model.FyersOrder
	if err := c.getJSON(ctx, "/orders", accessToken, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *FyersClient) Positions(ctx context.Context, accessToken string) ([]model.FyersPosition, error) {
	var positions []model.FyersPosition
	if err := c.getJSON(ctx, "/positions", accessToken, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

func (c *FyersClient) requestTokenPair(ctx context.Context, url string, payload map[string]string) (*TokenPair, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse token payload: %w", err)
	}
	if data.AccessToken == "" {
		return nil, fmt.Errorf("fyers returned empty access token")
	}

	return &TokenPair{
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
	}, nil
}

func (c *FyersClient) getJSON(ctx context.Context, path, accessToken string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	env, err := c.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("failed to parse %s payload: %w", path, err)
	}
	return nil
}

func (c *FyersClient) do(req *http.Request) (*envelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach fyers: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fyers returned status %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if env.S != "ok" || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("fyers error %d: %s", env.Code, env.Message)
	}

	return &env, nil
}

// appIDHash is the sha256 hex digest of "appId:appSecret", the
// credential proof Fyers expects on token endpoints.
func appIDHash(appID, appSecret string) string {
	sum := sha256.Sum256([]byte(appID + ":" + appSecret))
	return hex.EncodeToString(sum[:])
}
