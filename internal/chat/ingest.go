package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"messenger/internal/models"
	"messenger/internal/repositories"
)

var (
	ErrAccessDenied   = errors.New("access denied")
	ErrInvalidContent = errors.New("invalid message content")
	ErrInvalidType    = errors.New("invalid message type")
)

// Broadcaster fans a payload out to a chat room. Satisfied by ws.Router.
type Broadcaster interface {
	Broadcast(chatID int, payload interface{}, excludeConnID string)
}

// Ingest validates, persists and fans out new messages. Both the HTTP
// send path and the realtime send_message event go through it, so the
// broadcast payload is always the persisted record, never client input.
type Ingest struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	router   Broadcaster
}

// NewIngest constructs an Ingest.
func NewIngest(chats repositories.ChatRepository, messages repositories.MessageRepository, users repositories.UserRepository, router Broadcaster) *Ingest {
	return &Ingest{chats: chats, messages: messages, users: users, router: router}
}

// Send runs the full pipeline: membership gate, validation, persistence,
// last-message update, room fanout. The sender's own subscribed
// connections receive the broadcast too.
func (i *Ingest) Send(ctx context.Context, senderID, chatID int, content, msgType string, metadata json.RawMessage) (models.MessageView, error) {
	member, err := i.chats.IsParticipant(ctx, chatID, senderID)
	if err != nil {
		return models.MessageView{}, err
	}
	if !member {
		return models.MessageView{}, ErrAccessDenied
	}

	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !models.ValidMessageType(msgType) {
		return models.MessageView{}, ErrInvalidType
	}
	if msgType == models.MessageTypeText && strings.TrimSpace(content) == "" {
		return models.MessageView{}, ErrInvalidContent
	}

	msg, err := i.messages.CreateMessage(ctx, chatID, senderID, content, msgType, metadata)
	if err != nil {
		return models.MessageView{}, err
	}

	if err := i.chats.SetLastMessage(ctx, chatID, msg.ID); err != nil {
		log.Printf("update last message for chat %d: %v", chatID, err)
	}

	view := models.MessageView{Message: msg, Reactions: []models.Reaction{}}
	if sender, err := i.users.GetByID(ctx, senderID); err == nil {
		pub := sender.Public()
		view.Sender = &pub
	}

	i.router.Broadcast(chatID, models.ServerEvent{
		Type:    models.EventMessage,
		ChatID:  chatID,
		Message: &view,
	}, "")

	return view, nil
}
