package handlers

import (
	"crypto/subtle"
	"net/http"

	"content-cache-api/internal/auth"

	"github.com/gin-gonic/gin"
	platformerrors "github.com/jmgilman/go/errors"
	"golang.org/x/crypto/bcrypt"
)

var errLoginDisabled = platformerrors.New(platformerrors.CodeInvalidConfig, "ADMIN_PASSWORD_HASH is not set")

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// AuthHandler checks the single operator account configured for the admin surface.
type AuthHandler struct {
	username     string
	passwordHash []byte
}

// NewAuthHandler takes the admin username and its bcrypt hash.
// An empty hash disables login.
func NewAuthHandler(username, passwordHash string) *AuthHandler {
	return &AuthHandler{username: username, passwordHash: []byte(passwordHash)}
}

// Login handles POST /api/admin/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Username and password are required.",
		})
		return
	}

	if len(h.passwordHash) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  "Admin login is not configured",
			"detail": platformerrors.ToJSON(errLoginDisabled),
		})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password))
	if !userOK || passErr != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid username or password",
		})
		return
	}

	token, err := auth.GenerateToken(h.username, auth.RoleAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:    token,
		Username: h.username,
		Message:  "Login successful",
	})
}
