package models

import (
	"database/sql"
	"time"
)

// User is a registered account. IsOnline and LastSeen are owned by the
// presence tracker; nothing else writes them.
type User struct {
	ID           int            `db:"id" json:"id"`
	Username     string         `db:"username" json:"username"`
	Email        string         `db:"email" json:"email"`
	PasswordHash sql.NullString `db:"password_hash" json:"-"`
	DisplayName  string         `db:"display_name" json:"displayName"`
	ProfilePhoto sql.NullString `db:"profile_photo" json:"-"`
	IsOnline     bool           `db:"is_online" json:"isOnline"`
	LastSeen     time.Time      `db:"last_seen" json:"lastSeen"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// PublicUser is the API view of a user.
type PublicUser struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	ProfilePhoto string    `json:"profilePhoto,omitempty"`
	IsOnline     bool      `json:"isOnline"`
	LastSeen     time.Time `json:"lastSeen"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public converts a User row into its API representation.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		ProfilePhoto: u.ProfilePhoto.String,
		IsOnline:     u.IsOnline,
		LastSeen:     u.LastSeen,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
