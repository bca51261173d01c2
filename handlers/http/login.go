package httpHandler

import (
	"errors"
	"net/http"

	"warbler/auth"
	"warbler/monitoring"
	"warbler/usecases"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type LoginHandler struct {
	users  *usecases.UserUseCase
	tokens *auth.TokenIssuer
}

func NewLoginHandler(users *usecases.UserUseCase, tokens *auth.TokenIssuer) *LoginHandler {
	return &LoginHandler{users: users, tokens: tokens}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	ImageURL string `json:"image_url"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Success  bool   `json:"success"`
}

// Login authenticates the user and returns a bearer token.
// POST /api/v1/auth/login
func (h *LoginHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		monitoring.LoginFailure.WithLabelValues("invalid_form").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, usecases.ErrInvalidCredentials) {
		monitoring.LoginFailure.WithLabelValues("invalid_credentials").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if err != nil {
		logrus.WithError(err).Error("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		logrus.WithError(err).Error("could not sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	monitoring.LoginSuccess.Inc()
	c.JSON(http.StatusOK, LoginResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Success:  true,
	})
}

// Signup registers a user and returns a bearer token.
// POST /api/v1/auth/signup
func (h *LoginHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": formErrors(err),
		})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.ImageURL)
	if err != nil {
		apiError(c, err)
		return
	}
	monitoring.RegisterSuccess.Inc()

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, LoginResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Success:  true,
	})
}
