package models

import (
	"encoding/json"
	"time"
)

// Message types.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeVideo = "video"
	MessageTypeAudio = "audio"
	MessageTypeFile  = "file"
)

// Delivery statuses. Only "sent" is assigned by this service; later
// transitions belong to a delivery-receipt flow that does not exist yet.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// Message is immutable once created except for status and reactions.
type Message struct {
	ID            int             `db:"id" json:"id"`
	ChatID        int             `db:"chat_id" json:"chatId"`
	SenderID      int             `db:"sender_id" json:"senderId"`
	Content       string          `db:"content" json:"content"`
	Type          string          `db:"message_type" json:"type"`
	Metadata      json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	Status        string          `db:"status" json:"status"`
	IsAIGenerated bool            `db:"is_ai_generated" json:"isAiGenerated"`
	CreatedAt     time.Time       `db:"created_at" json:"timestamp"`
}

// Reaction is an emoji attached to a message by a user. At most one row
// exists per (message, user, emoji).
type Reaction struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"messageId"`
	UserID    int       `db:"user_id" json:"userId"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// MessageView is the API representation of a message with its sender and
// reactions hydrated.
type MessageView struct {
	Message
	Sender    *PublicUser `json:"sender,omitempty"`
	Reactions []Reaction  `json:"reactions"`
}

func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeFile:
		return true
	}
	return false
}
