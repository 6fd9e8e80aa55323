package handler

import (
	"net/http"

	"doc-chat-go/internal/middleware"
	"doc-chat-go/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves registration, login and profile lookup.
type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// Register handles POST /api/auth/register.
func (h *UserHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request payload"})
		return
	}

	profile, err := h.userService.Register(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profile)
}

// Login handles POST /api/auth/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request payload"})
		return
	}

	pair, err := h.userService.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh handles POST /api/auth/refresh.
func (h *UserHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request payload"})
		return
	}

	pair, err := h.userService.RefreshToken(req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pair)
}

// Profile handles GET /api/users/me. Requires authentication.
func (h *UserHandler) Profile(c *gin.Context) {
	principalID := middleware.Principal(c)
	if principalID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "unauthorized"})
		return
	}

	profile, err := h.userService.GetProfile(*principalID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profile)
}
