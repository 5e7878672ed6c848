package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swing-terminal/backend/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Profile godoc
// @Summary Get the user profile
// @Description Aggregates credential and token validity for the configured user.
// @Tags user
// @Produce json
// @Success 200 {object} model.UserProfileResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/user/profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.svc.Profile(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
