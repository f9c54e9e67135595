package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger/internal/assistant"
	"messenger/internal/repositories"
)

// AssistantHandler proxies user questions to the generative-text
// assistant under a selectable persona.
type AssistantHandler struct {
	users  repositories.UserRepository
	client assistant.Client
}

// NewAssistantHandler builds an AssistantHandler.
func NewAssistantHandler(users repositories.UserRepository, client assistant.Client) *AssistantHandler {
	return &AssistantHandler{users: users, client: client}
}

// Chat performs one round trip to the assistant.
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req struct {
		Persona string `json:"persona"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	userID := c.GetInt("userID")
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user not found"})
		return
	}

	persona := assistant.NormalizePersona(req.Persona)
	reply, err := h.client.Reply(c.Request.Context(), persona, user.DisplayName, req.Message)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response": reply,
		"persona":  persona,
	})
}
