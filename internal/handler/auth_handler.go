package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-essay/internal/middleware"
	"github.com/stemsi/exstem-essay/internal/model"
	"github.com/stemsi/exstem-essay/internal/response"
	"github.com/stemsi/exstem-essay/internal/service"
	"github.com/stemsi/exstem-essay/internal/validator"
)

type authService interface {
	AdminLogin(ctx context.Context, req model.AdminLoginRequest) (*model.AdminLoginResponse, error)
	WriterLogin(ctx context.Context, req model.WriterLoginRequest) (*model.WriterLoginResponse, error)
	AdminProfile(ctx context.Context, adminID int64) (*model.Admin, []string, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService authService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService authService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.authService.AdminLogin(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// WriterLogin godoc
// POST /api/v1/auth/writer/login
func (h *AuthHandler) WriterLogin(c *gin.Context) {
	var req model.WriterLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.authService.WriterLogin(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// GetAdminProfile godoc
// GET /api/v1/auth/admin/me
// Returns the authenticated admin with the permissions of its role.
func (h *AuthHandler) GetAdminProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	admin, permissions, err := h.authService.AdminProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrAdminNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"admin": admin, "permissions": permissions})
}
