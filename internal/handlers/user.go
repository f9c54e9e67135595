package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger/internal/models"
	"messenger/internal/repositories"
)

const searchLimit = 10

// UserHandler serves user lookup endpoints.
type UserHandler struct {
	users repositories.UserRepository
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(users repositories.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// Search finds users by username or display name substring. Queries
// shorter than two characters return an empty result rather than an error.
func (h *UserHandler) Search(c *gin.Context) {
	query := c.Query("q")
	userID := c.GetInt("userID")

	if len(query) < 2 {
		c.JSON(http.StatusOK, gin.H{"users": []models.PublicUser{}})
		return
	}

	users, err := h.users.Search(c.Request.Context(), query, userID, searchLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search users"})
		return
	}

	result := make([]models.PublicUser, 0, len(users))
	for _, user := range users {
		result = append(result, user.Public())
	}
	c.JSON(http.StatusOK, gin.H{"users": result})
}
