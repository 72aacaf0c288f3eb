package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/streamhub/internal/handlers/dto"
	"github.com/thereayou/streamhub/internal/middleware"
	"github.com/thereayou/streamhub/internal/services"
	"github.com/thereayou/streamhub/pkg/apperrors"
)

type AuthHandler struct {
	identity *services.IdentityService
}

func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("username, email and password are required"))
		return
	}

	res, err := h.identity.Register(c.Request.Context(), services.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{User: dto.NewUserResponse(res.User), Token: res.Token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("email and password are required"))
		return
	}

	res, err := h.identity.Verify(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{User: dto.NewUserResponse(res.User), Token: res.Token})
}

// Logout revokes the token the request was authenticated with.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.identity.Logout(c.Request.Context(), c.GetString(middleware.TokenKey)); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.identity.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
