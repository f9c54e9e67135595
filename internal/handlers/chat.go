package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger/internal/chat"
	"messenger/internal/models"
	"messenger/internal/repositories"
)

// ChatHandler manages chat and message endpoints.
type ChatHandler struct {
	chats     repositories.ChatRepository
	messages  repositories.MessageRepository
	reactions repositories.ReactionRepository
	users     repositories.UserRepository
	ingest    *chat.Ingest
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chats repositories.ChatRepository, messages repositories.MessageRepository, reactions repositories.ReactionRepository, users repositories.UserRepository, ingest *chat.Ingest) *ChatHandler {
	return &ChatHandler{
		chats:     chats,
		messages:  messages,
		reactions: reactions,
		users:     users,
		ingest:    ingest,
	}
}

// ListChats returns the caller's chats, most recently updated first.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")

	chats, err := h.chats.ListChatsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	views := make([]models.ChatView, 0, len(chats))
	for _, ch := range chats {
		view, err := h.chatView(c, ch)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
			return
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{"chats": views})
}

// CreateChat creates a chat with the caller as admin plus the named
// participants. Unknown usernames are silently skipped.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		Participants []string `json:"participants"`
		Name         string   `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID := c.GetInt("userID")
	participants, err := h.users.GetByUsernames(c.Request.Context(), req.Participants)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	otherIDs := make([]int, 0, len(participants))
	for _, p := range participants {
		if p.ID != userID {
			otherIDs = append(otherIDs, p.ID)
		}
	}
	if len(otherIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid participants found"})
		return
	}

	created, err := h.chats.CreateChat(c.Request.Context(), userID, otherIDs, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	view, err := h.chatView(c, created)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Chat created successfully",
		"chat":    view,
	})
}

// GetChatMessages returns a chat's messages in ascending timestamp order.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	userID := c.GetInt("userID")
	member, err := h.chats.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	msgs, err := h.messages.ListChatMessages(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	views, err := h.messageViews(c, chatID, msgs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

// PostChatMessage runs the ingest pipeline for a message sent over HTTP.
func (h *ChatHandler) PostChatMessage(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		Content  string          `json:"content"`
		Type     string          `json:"type"`
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID := c.GetInt("userID")
	view, err := h.ingest.Send(c.Request.Context(), userID, chatID, req.Content, req.Type, req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		case errors.Is(err, chat.ErrInvalidContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message content is required"})
		case errors.Is(err, chat.ErrInvalidType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message type"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": view})
}

// AddReaction attaches an emoji reaction to a message.
func (h *ChatHandler) AddReaction(c *gin.Context) {
	chatID, messageID, ok := parseIDs(c)
	if !ok {
		return
	}

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji is required"})
		return
	}

	msg, status := h.authorizedMessage(c, chatID, messageID)
	if status != 0 {
		return
	}

	userID := c.GetInt("userID")
	reaction, err := h.reactions.AddReaction(c.Request.Context(), msg.ID, userID, req.Emoji)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add reaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reaction": reaction})
}

// RemoveReaction removes the caller's emoji reaction from a message.
func (h *ChatHandler) RemoveReaction(c *gin.Context) {
	chatID, messageID, ok := parseIDs(c)
	if !ok {
		return
	}

	emoji := c.Query("emoji")
	if emoji == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji is required"})
		return
	}

	msg, status := h.authorizedMessage(c, chatID, messageID)
	if status != 0 {
		return
	}

	userID := c.GetInt("userID")
	if err := h.reactions.RemoveReaction(c.Request.Context(), msg.ID, userID, emoji); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove reaction"})
		return
	}

	c.Status(http.StatusNoContent)
}

// authorizedMessage loads a message and verifies both that it belongs to
// the chat and that the caller is a member. On failure it writes the error
// response and returns a non-zero status.
func (h *ChatHandler) authorizedMessage(c *gin.Context, chatID, messageID int) (models.Message, int) {
	userID := c.GetInt("userID")
	member, err := h.chats.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return models.Message{}, http.StatusInternalServerError
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return models.Message{}, http.StatusForbidden
	}

	msg, err := h.messages.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return models.Message{}, status
	}
	if msg.ChatID != chatID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message does not belong to chat"})
		return models.Message{}, http.StatusBadRequest
	}
	return msg, 0
}

func (h *ChatHandler) chatView(c *gin.Context, ch models.Chat) (models.ChatView, error) {
	participants, err := h.chats.ListParticipants(c.Request.Context(), ch.ID)
	if err != nil {
		return models.ChatView{}, err
	}

	view := models.ChatView{
		ID:           ch.ID,
		Name:         ch.Name.String,
		IsGroup:      ch.IsGroup,
		Participants: make([]models.PublicUser, 0, len(participants)),
		CreatedAt:    ch.CreatedAt,
		UpdatedAt:    ch.UpdatedAt,
	}
	byID := make(map[int]models.PublicUser, len(participants))
	for _, p := range participants {
		pub := p.Public()
		byID[p.ID] = pub
		view.Participants = append(view.Participants, pub)
	}

	if ch.LastMessageID.Valid {
		msg, err := h.messages.GetMessage(c.Request.Context(), int(ch.LastMessageID.Int64))
		if err == nil {
			last := models.MessageView{Message: msg, Reactions: []models.Reaction{}}
			if sender, ok := byID[msg.SenderID]; ok {
				last.Sender = &sender
			}
			view.LastMessage = &last
		}
	}
	return view, nil
}

func (h *ChatHandler) messageViews(c *gin.Context, chatID int, msgs []models.Message) ([]models.MessageView, error) {
	participants, err := h.chats.ListParticipants(c.Request.Context(), chatID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]models.PublicUser, len(participants))
	for _, p := range participants {
		byID[p.ID] = p.Public()
	}

	messageIDs := make([]int, 0, len(msgs))
	for _, m := range msgs {
		messageIDs = append(messageIDs, m.ID)
	}
	reactions, err := h.reactions.ListForMessages(c.Request.Context(), messageIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		view := models.MessageView{Message: m, Reactions: reactions[m.ID]}
		if view.Reactions == nil {
			view.Reactions = []models.Reaction{}
		}
		if sender, ok := byID[m.SenderID]; ok {
			view.Sender = &sender
		}
		views = append(views, view)
	}
	return views, nil
}

func parseIDs(c *gin.Context) (int, int, bool) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, 0, false
	}
	msgID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return 0, 0, false
	}
	return chatID, msgID, true
}
