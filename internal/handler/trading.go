package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swing-terminal/backend/internal/model"
	"github.com/swing-terminal/backend/internal/service"
)

// marketData is the Fyers read surface the trading endpoints proxy.
type marketData interface {
	Profile(ctx context.Context, accessToken string) (*model.FyersProfile, error)
	Funds(ctx context.Context, accessToken string) (*model.FyersFunds, error)
	Holdings(ctx context.Context, accessToken string) ([]model.FyersHolding, error)
	Orders(ctx context.Context, accessToken string) ([]model.FyersOrder, error)
	Positions(ctx context.Context, accessToken string) ([]model.FyersPosition, error)
}

// TradingHandler proxies account data from the Fyers API using the
// current access token. Routes are mounted behind RequireFyersToken.
type TradingHandler struct {
	tokens *service.TokenService
	fyers  marketData
}

func NewTradingHandler(tokens *service.TokenService, fyers marketData) *TradingHandler {
	return &TradingHandler{tokens: tokens, fyers: fyers}
}

// Profile godoc
// @Summary Get the Fyers account profile
// @Tags trading
// @Produce json
// @Success 200 {object} model.FyersProfile
// @Failure 401 {object} model.ErrorResponse
// @Failure 502 {object} model.ErrorResponse
// @Router /api/trading/profile [get]
func (h *TradingHandler) Profile(c *gin.Context) {
	h.proxy(c, func(ctx context.Context, accessToken string) (interface{}, error) {
		return h.fyers.Profile(ctx, accessToken)
	})
}

// Funds godoc
// @Summary Get available funds
// @Tags trading
// @Produce json
// @Success 200 {object} model.FyersFunds
// @Failure 401 {object} model.ErrorResponse
// @Failure 502 {object} model.ErrorResponse
// @Router /api/trading/funds [get]
func (h *TradingHandler) Funds(c *gin.Context) {
	h.proxy(c, func(ctx context.Context, accessToken string) (interface{}, error) {
		return h.fyers.Funds(ctx, accessToken)
	})
}

// Holdings godoc
// @Summary Get holdings
// @Tags trading
// @Produce json
// @Success 200 {array} model.FyersHolding
// @Failure 401 {object} model.ErrorResponse
// @Failure 502 {object} model.ErrorResponse
// @Router /api/trading/holdings [get]
func (h *TradingHandler) Holdings(c *gin.Context) {
	h.proxy(c, func(ctx context.Context, accessToken string) (interface{}, error) {
		return h.fyers.Holdings(ctx, accessToken)
	})
}

// Orders godoc
// @Summary Get the order book
// @Tags trading
// @Produce json
// @Success 200 {array} model.FyersOrder
// @Failure 401 {object} model.ErrorResponse
// @Failure 502 {object} model.ErrorResponse
// @Router /api/trading/orders [get]
func (h *TradingHandler) Orders(c *gin.Context) {
	h.proxy(c, func(ctx context.Context, accessToken string) (interface{}, error) {
		return h.fyers.Orders(ctx, accessToken)
	})
}

// Positions godoc
// @Summary Get open positions
// @Tags trading
// @Produce json
// @Success 200 {array} model.FyersPosition
// @Failure 401 {object} model.ErrorResponse
// @Failure 502 {object} model.ErrorResponse
// @Router /api/trading/positions [get]
func (h *TradingHandler) Positions(c *gin.Context) {
	h.proxy(c, func(ctx context.Context, accessToken string) (interface{}, error) {
		return h.fyers.Positions(ctx, accessToken)
	})
}

func (h *TradingHandler) proxy(c *gin.Context, fetch func(ctx context.Context, accessToken string) (interface{}, error)) {
	token, err := h.tokens.Latest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no fyers token"})
		return
	}

	data, err := fetch(c.Request.Context(), token.AccessToken)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "remote api error"})
		return
	}
	c.JSON(http.StatusOK, data)
}
