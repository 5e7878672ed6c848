package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swing-terminal/backend/internal/model"
	"github.com/swing-terminal/backend/internal/service"
)

type AuthHandler struct {
	users   *service.UserService
	tokens  *service.TokenService
	session *service.SessionService
}

func NewAuthHandler(users *service.UserService, tokens *service.TokenService, session *service.SessionService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, session: session}
}

// Status godoc
// @Summary Get authentication status
// @Description Credential and token presence plus token expiry.
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthStatusResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/status [get]
func (h *AuthHandler) Status(c *gin.Context) {
	user, err := h.users.DefaultUser(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	hasValid, token := h.users.HasValidToken(c.Request.Context())
	resp := model.AuthStatusResponse{
		UserID:               user.ID,
		HasActiveCredentials: h.users.HasActiveCredentials(c.Request.Context()),
		HasValidToken:        hasValid,
	}
	if hasValid && token != nil {
		expiresAt := token.ExpiresAt
		resp.TokenExpiresAt = &expiresAt
	}

	c.JSON(http.StatusOK, resp)
}

// AuthURL godoc
// @Summary Build the Fyers login URL
// @Description Uses the active credential set; includes an anti-replay state value.
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthURLResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/url [post]
func (h *AuthHandler) AuthURL(c *gin.Context) {
	resp, err := h.tokens.AuthorizeURL(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Callback godoc
// @Summary Fyers OAuth callback
// @Description Exchanges the authorization code using the active credential set.
// @Tags auth
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string false "Anti-replay state"
// @Success 200 {object} model.TokenExchangeResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 502 {object} model.ErrorResponse
// @Router /api/auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	// The state value minted in AuthURL travels to the frontend, which
	// compares it against the echoed query parameter; this handler holds
	// no stored copy to verify against.
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	token, err := h.tokens.Exchange(c.Request.Context(), code)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	h.writeExchangeResponse(c, token)
}

// Exchange godoc
// @Summary Exchange an authorization code
// @Description Trades caller-supplied credentials and code for a token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.TokenExchangeRequest true "Credentials and code"
// @Success 200 {object} model.TokenExchangeResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 502 {object} model.ErrorResponse
// @Router /api/auth/token [post]
func (h *AuthHandler) Exchange(c *gin.Context) {
	var req model.TokenExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.tokens.ExchangeWith(c.Request.Context(), req.AppID, req.AppSecret, req.AuthCode)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	h.writeExchangeResponse(c, token)
}

// Refresh godoc
// @Summary Refresh the Fyers token
// @Description No-op when the current token is still fresh.
// @Tags auth
// @Produce json
// @Success 200 {object} model.RefreshResponse
// @Failure 502 {object} model.ErrorResponse
// @Router /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	if !h.tokens.RefreshIfNeeded(c.Request.Context()) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to refresh token"})
		return
	}

	resp := model.RefreshResponse{Refreshed: true}
	if user, err := h.users.DefaultUser(c.Request.Context()); err == nil {
		if jwtToken, err := h.session.Issue(user.ID, user.Email); err == nil {
			resp.JWTToken = jwtToken
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Disconnect godoc
// @Summary Disconnect from Fyers
// @Description Deletes every stored token for the user.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.DisconnectResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/disconnect [post]
func (h *AuthHandler) Disconnect(c *gin.Context) {
	disconnected, err := h.tokens.Disconnect(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.DisconnectResponse{Disconnected: disconnected})
}

func (h *AuthHandler) writeExchangeResponse(c *gin.Context, token *model.FyersToken) {
	resp := model.TokenExchangeResponse{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	}
	if user, err := h.users.DefaultUser(c.Request.Context()); err == nil {
		if jwtToken, err := h.session.Issue(user.ID, user.Email); err == nil {
			resp.JWTToken = jwtToken
		}
	}
	c.JSON(http.StatusOK, resp)
}

func writeServiceError(c *gin.Context, err error) {
	switch err {
	case service.ErrInvalidInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	case service.ErrUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case service.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case service.ErrRemote:
		c.JSON(http.StatusBadGateway, gin.H{"error": "remote api error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
