package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"messenger/internal/auth"
	"messenger/internal/repositories"
	"messenger/internal/telemetry"
)

// AuthHandler manages registration, login and profile endpoints.
type AuthHandler struct {
	users    repositories.UserRepository
	tokens   *auth.TokenService
	hasher   *auth.PasswordHasher
	provider auth.IdentityProvider
	audit    *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, tokens *auth.TokenService, hasher *auth.PasswordHasher, provider auth.IdentityProvider, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, hasher: hasher, provider: provider, audit: audit}
}

// Register creates a new account and returns a token for it.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username    string `json:"username" binding:"required"`
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required"`
		DisplayName string `json:"displayName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Username, req.Email, &hash, req.DisplayName, "")
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		case errors.Is(err, repositories.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		}
		return
	}

	token, err := h.tokens.CreateForUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "user registered", requestIDFromContext(c), &user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"token":   token,
		"user":    user.Public(),
	})
}

// Login authenticates by email and password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || !user.PasswordHash.Valid || h.hasher.Verify(req.Password, user.PasswordHash.String) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.tokens.CreateForUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "user logged in", requestIDFromContext(c), &user.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user.Public(),
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt("userID")

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// GoogleSignIn verifies a Google ID token and signs the user in, creating
// the account on first use.
func (h *AuthHandler) GoogleSignIn(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no token provided"})
		return
	}

	identity, err := h.provider.Verify(c.Request.Context(), req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), identity.Email)
	switch {
	case err == nil:
		if identity.Picture != "" {
			// only fills the photo when the profile has none
			_ = h.users.SetProfilePhoto(c.Request.Context(), user.ID, identity.Picture)
		}
	case errors.Is(err, repositories.ErrUserNotFound):
		username, uerr := h.uniqueUsername(c, identity.Email)
		if uerr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
			return
		}
		displayName := identity.Name
		if displayName == "" {
			displayName = username
		}
		user, err = h.users.Create(c.Request.Context(), username, identity.Email, nil, displayName, identity.Picture)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
			return
		}
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	token, err := h.tokens.CreateForUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "google sign-in", requestIDFromContext(c), &user.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Google authentication successful",
		"token":   token,
		"user":    user.Public(),
	})
}

// UpdateProfile applies partial profile changes.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		DisplayName *string `json:"displayName"`
		Email       *string `json:"email"`
		Username    *string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID := c.GetInt("userID")
	user, err := h.users.UpdateProfile(c.Request.Context(), userID, req.DisplayName, req.Email, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, repositories.ErrUsernameTaken), errors.Is(err, repositories.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user.Public(),
	})
}

func (h *AuthHandler) uniqueUsername(c *gin.Context, email string) (string, error) {
	base := strings.Split(email, "@")[0]
	username := base
	for counter := 1; ; counter++ {
		taken, err := h.users.UsernameExists(c.Request.Context(), username)
		if err != nil {
			return "", err
		}
		if !taken {
			return username, nil
		}
		username = fmt.Sprintf("%s%d", base, counter)
	}
}
