package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger/internal/models"
)

var (
	ErrChatNotFound   = errors.New("chat not found")
	ErrNoParticipants = errors.New("no valid participants found")
)

const chatColumns = `id, name, is_group, last_message_id, created_at, updated_at`

// ChatRepository is the membership store: it owns chats and the
// (chat, user) participant records that gate every chat operation.
type ChatRepository interface {
	CreateChat(ctx context.Context, creatorID int, participantIDs []int, name string) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID int, userID int) (bool, error)
	ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error)
	ListParticipants(ctx context.Context, chatID int) ([]models.User, error)
	PeerIDs(ctx context.Context, userID int) ([]int, error)
	SetLastMessage(ctx context.Context, chatID int, messageID int) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateChat creates a chat with the creator as admin plus the given
// participants. participantIDs must not include the creator.
func (r *ChatRepo) CreateChat(ctx context.Context, creatorID int, participantIDs []int, name string) (models.Chat, error) {
	if len(participantIDs) == 0 {
		return models.Chat{}, ErrNoParticipants
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer tx.Rollback()

	var chatName sql.NullString
	if name != "" {
		chatName = sql.NullString{String: name, Valid: true}
	}

	var chat models.Chat
	if err := tx.GetContext(ctx, &chat,
		`INSERT INTO chats (name, is_group) VALUES ($1, $2) RETURNING `+chatColumns,
		chatName, len(participantIDs) > 1); err != nil {
		return models.Chat{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_participants (chat_id, user_id, is_admin) VALUES ($1, $2, TRUE)`,
		chat.ID, creatorID); err != nil {
		return models.Chat{}, err
	}
	for _, userID := range participantIDs {
		if userID == creatorID {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			chat.ID, userID); err != nil {
			return models.Chat{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// ListChatsForUser returns the user's chats, most recently updated first.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats,
		`SELECT c.id, c.name, c.is_group, c.last_message_id, c.created_at, c.updated_at FROM chats c
         JOIN chat_participants p ON p.chat_id = c.id
         WHERE p.user_id=$1
         ORDER BY c.updated_at DESC`, userID)
	return chats, err
}

// ListParticipants returns the users belonging to the chat.
func (r *ChatRepo) ListParticipants(ctx context.Context, chatID int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT u.id, u.username, u.email, u.password_hash, u.display_name, u.profile_photo,
                u.is_online, u.last_seen, u.created_at, u.updated_at
         FROM users u
         JOIN chat_participants p ON p.user_id = u.id
         WHERE p.chat_id=$1
         ORDER BY p.joined_at ASC`, chatID)
	return users, err
}

// PeerIDs returns the distinct ids of users sharing at least one chat with
// the given user, excluding the user itself.
func (r *ChatRepo) PeerIDs(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT p2.user_id FROM chat_participants p1
         JOIN chat_participants p2 ON p2.chat_id = p1.chat_id
         WHERE p1.user_id=$1 AND p2.user_id<>$1`, userID)
	return ids, err
}

// SetLastMessage updates the chat's last-message pointer and bumps updated_at.
func (r *ChatRepo) SetLastMessage(ctx context.Context, chatID int, messageID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chats SET last_message_id=$2, updated_at=NOW() WHERE id=$1`, chatID, messageID)
	return err
}
