package main

import (
	"context"
	"net/http"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/gin-gonic/gin"
)

type userService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	Authenticate(ctx context.Context, req model.LoginRequest) (*model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

type UserHandler struct {
	users      userService
	jwtService *JWTService
}

func NewUserHandler(users userService, jwtService *JWTService) *UserHandler {
	return &UserHandler{
		users:      users,
		jwtService: jwtService,
	}
}

// RegisterUser handles user registration
func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user.ToUserResponse())
}

// LoginUser handles user login
func (h *UserHandler) LoginUser(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.LoginResponse{
		AccessToken: token,
		ExpiresIn:   h.jwtService.ExpiresIn(),
		User:        *user.ToUserResponse(),
	})
}

// GetProfile returns the authenticated user
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.ToUserResponse())
}
