package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger/internal/models"
)

var ErrNoteNotFound = errors.New("note not found")

const noteColumns = `id, user_id, title, content, tags, is_ai_generated, created_at, updated_at`

// NoteRepository manages personal notes. All operations are scoped to the
// owning user.
type NoteRepository interface {
	ListNotes(ctx context.Context, userID int) ([]models.Note, error)
	CreateNote(ctx context.Context, userID int, title, content string, tags json.RawMessage) (models.Note, error)
	UpdateNote(ctx context.Context, noteID, userID int, title, content *string, tags json.RawMessage) (models.Note, error)
	DeleteNote(ctx context.Context, noteID, userID int) error
}

// NoteRepo is a sqlx implementation of NoteRepository.
type NoteRepo struct {
	db *sqlx.DB
}

// NewNoteRepo constructs a NoteRepo.
func NewNoteRepo(db *sqlx.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

// ListNotes returns the user's notes, most recently updated first.
func (r *NoteRepo) ListNotes(ctx context.Context, userID int) ([]models.Note, error) {
	var notes []models.Note
	err := r.db.SelectContext(ctx, &notes,
		`SELECT `+noteColumns+` FROM notes WHERE user_id=$1 ORDER BY updated_at DESC`, userID)
	return notes, err
}

// CreateNote stores a new note.
func (r *NoteRepo) CreateNote(ctx context.Context, userID int, title, content string, tags json.RawMessage) (models.Note, error) {
	var tagsArg interface{}
	if len(tags) > 0 {
		tagsArg = []byte(tags)
	}
	var note models.Note
	err := r.db.GetContext(ctx, &note,
		`INSERT INTO notes (user_id, title, content, tags) VALUES ($1, $2, $3, $4) RETURNING `+noteColumns,
		userID, title, content, tagsArg)
	return note, err
}

// UpdateNote applies the provided fields to a note owned by the user.
func (r *NoteRepo) UpdateNote(ctx context.Context, noteID, userID int, title, content *string, tags json.RawMessage) (models.Note, error) {
	var tagsArg interface{}
	if len(tags) > 0 {
		tagsArg = []byte(tags)
	}
	var note models.Note
	err := r.db.GetContext(ctx, &note,
		`UPDATE notes SET
            title = COALESCE($3, title),
            content = COALESCE($4, content),
            tags = COALESCE($5, tags),
            updated_at = NOW()
         WHERE id=$1 AND user_id=$2 RETURNING `+noteColumns,
		noteID, userID, title, content, tagsArg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, ErrNoteNotFound
	}
	return note, err
}

// DeleteNote removes a note owned by the user.
func (r *NoteRepo) DeleteNote(ctx context.Context, noteID, userID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id=$1 AND user_id=$2`, noteID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNoteNotFound
	}
	return nil
}
