package models

import (
	"database/sql"
	"time"
)

// Chat is a direct or group conversation.
type Chat struct {
	ID            int            `db:"id" json:"id"`
	Name          sql.NullString `db:"name" json:"-"`
	IsGroup       bool           `db:"is_group" json:"isGroup"`
	LastMessageID sql.NullInt64  `db:"last_message_id" json:"-"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// Participant is a membership record. Its existence is the sole
// authorization predicate for room joins, sends and history reads.
type Participant struct {
	ID       int       `db:"id" json:"id"`
	ChatID   int       `db:"chat_id" json:"chatId"`
	UserID   int       `db:"user_id" json:"userId"`
	IsAdmin  bool      `db:"is_admin" json:"isAdmin"`
	JoinedAt time.Time `db:"joined_at" json:"joinedAt"`
}

// ChatView is the API representation of a chat with hydrated participants
// and last message.
type ChatView struct {
	ID           int          `json:"id"`
	Name         string       `json:"name,omitempty"`
	IsGroup      bool         `json:"isGroup"`
	Participants []PublicUser `json:"participants"`
	LastMessage  *MessageView `json:"lastMessage"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
