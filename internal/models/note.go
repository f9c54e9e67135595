package models

import (
	"encoding/json"
	"time"
)

// Note is a personal note owned by a single user.
type Note struct {
	ID            int             `db:"id" json:"id"`
	UserID        int             `db:"user_id" json:"-"`
	Title         string          `db:"title" json:"title"`
	Content       string          `db:"content" json:"content"`
	Tags          json.RawMessage `db:"tags" json:"tags"`
	IsAIGenerated bool            `db:"is_ai_generated" json:"isAiGenerated"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}
