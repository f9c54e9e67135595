package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger/internal/models"
)

const reactionColumns = `id, message_id, user_id, emoji, created_at`

// ReactionRepository manages emoji reactions attached to messages.
type ReactionRepository interface {
	AddReaction(ctx context.Context, messageID, userID int, emoji string) (models.Reaction, error)
	RemoveReaction(ctx context.Context, messageID, userID int, emoji string) error
	ListForMessages(ctx context.Context, messageIDs []int) (map[int][]models.Reaction, error)
}

// ReactionRepo is a sqlx implementation of ReactionRepository.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs a ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// AddReaction inserts a reaction. Re-adding the same emoji is a no-op that
// returns the existing row.
func (r *ReactionRepo) AddReaction(ctx context.Context, messageID, userID int, emoji string) (models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.GetContext(ctx, &reaction,
		`INSERT INTO message_reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)
         ON CONFLICT (message_id, user_id, emoji) DO UPDATE SET emoji = EXCLUDED.emoji
         RETURNING `+reactionColumns,
		messageID, userID, emoji)
	return reaction, err
}

// RemoveReaction deletes a reaction; removing an absent reaction is a no-op.
func (r *ReactionRepo) RemoveReaction(ctx context.Context, messageID, userID int, emoji string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM message_reactions WHERE message_id=$1 AND user_id=$2 AND emoji=$3`,
		messageID, userID, emoji)
	return err
}

// ListForMessages returns reactions grouped by message id.
func (r *ReactionRepo) ListForMessages(ctx context.Context, messageIDs []int) (map[int][]models.Reaction, error) {
	result := make(map[int][]models.Reaction)
	if len(messageIDs) == 0 {
		return result, nil
	}
	var reactions []models.Reaction
	err := r.db.SelectContext(ctx, &reactions,
		`SELECT `+reactionColumns+` FROM message_reactions WHERE message_id = ANY($1) ORDER BY created_at ASC`,
		pq.Array(messageIDs))
	if err != nil {
		return nil, err
	}
	for _, reaction := range reactions {
		result[reaction.MessageID] = append(result[reaction.MessageID], reaction)
	}
	return result, nil
}
