package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/swing-terminal/backend/internal/model"
	"github.com/swing-terminal/backend/internal/service"
)

type CredentialHandler struct {
	svc *service.CredentialService
}

func NewCredentialHandler(svc *service.CredentialService) *CredentialHandler {
	return &CredentialHandler{svc: svc}
}

// List godoc
// @Summary List API credentials
// @Description Secrets are masked in every response.
// @Tags credentials
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.CredentialResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/credentials [get]
func (h *CredentialHandler) List(c *gin.Context) {
	creds, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, creds)
}

// Active godoc
// @Summary Get the active credential set
// @Tags credentials
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.CredentialResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/credentials/active [get]
func (h *CredentialHandler) Active(c *gin.Context) {
	cred, err := h.svc.Active(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cred)
}

// Create godoc
// @Summary Store a new credential set
// @Description The new set becomes active; existing sets are deactivated in the same transaction.
// @Tags credentials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CredentialRequest true "App credentials"
// @Success 201 {object} model.CredentialResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/credentials [post]
func (h *CredentialHandler) Create(c *gin.Context) {
	var req model.CredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	cred, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cred)
}

// Update godoc
// @Summary Update a credential set
// @Tags credentials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Credential ID"
// @Param request body model.CredentialRequest true "App credentials"
// @Success 200 {object} model.StatusResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/credentials/{id} [put]
func (h *CredentialHandler) Update(c *gin.Context) {
	id, ok := credentialID(c)
	if !ok {
		return
	}

	var req model.CredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.svc.Update(c.Request.Context(), id, req); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "updated"})
}

// Delete godoc
// @Summary Delete a credential set
// @Tags credentials
// @Security BearerAuth
// @Param id path int true "Credential ID"
// @Success 204
// @Failure 404 {object} model.ErrorResponse
// @Router /api/credentials/{id} [delete]
func (h *CredentialHandler) Delete(c *gin.Context) {
	id, ok := credentialID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Activate godoc
// @Summary Activate a credential set
// @Description Every other set for the user is deactivated in the same transaction.
// @Tags credentials
// @Produce json
// @Security BearerAuth
// @Param id path int true "Credential ID"
// @Success 200 {object} model.StatusResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/credentials/{id}/activate [post]
func (h *CredentialHandler) Activate(c *gin.Context) {
	id, ok := credentialID(c)
	if !ok {
		return
	}

	if err := h.svc.Activate(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "activated"})
}

// Deactivate godoc
// @Summary Deactivate a credential set
// @Tags credentials
// @Produce json
// @Security BearerAuth
// @Param id path int true "Credential ID"
// @Success 200 {object} model.StatusResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/credentials/{id}/deactivate [post]
func (h *CredentialHandler) Deactivate(c *gin.Context) {
	id, ok := credentialID(c)
	if !ok {
		return
	}

	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "deactivated"})
}

func credentialID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credential id"})
		return 0, false
	}
	return id, true
}
