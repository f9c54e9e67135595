package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
)

const userColumns = `id, username, email, password_hash, display_name, profile_photo, is_online, last_seen, created_at, updated_at`

// UserRepository abstracts user persistence.
type UserRepository interface {
	Create(ctx context.Context, username, email string, passwordHash *string, displayName, profilePhoto string) (models.User, error)
	GetByID(ctx context.Context, userID int) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, userID int, displayName, email, username *string) (models.User, error)
	Search(ctx context.Context, query string, excludeUserID int, limit int) ([]models.User, error)
	SetOnline(ctx context.Context, userID int, online bool) error
	SetProfilePhoto(ctx context.Context, userID int, url string) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user. PasswordHash may be nil for identity-provider accounts.
func (r *UserRepo) Create(ctx context.Context, username, email string, passwordHash *string, displayName, profilePhoto string) (models.User, error) {
	var user models.User
	var photo sql.NullString
	if profilePhoto != "" {
		photo = sql.NullString{String: profilePhoto, Valid: true}
	}
	var hash sql.NullString
	if passwordHash != nil {
		hash = sql.NullString{String: *passwordHash, Valid: true}
	}
	err := r.db.GetContext(ctx, &user,
		`INSERT INTO users (username, email, password_hash, display_name, profile_photo)
         VALUES ($1, $2, $3, $4, $5) RETURNING `+userColumns,
		username, email, hash, displayName, photo)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return models.User{}, ErrEmailTaken
			}
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, err
	}
	return user, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByEmail fetches a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByUsernames resolves usernames to user rows; unknown names are absent
// from the result, not an error.
func (r *UserRepo) GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	if len(usernames) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE username = ANY($1)`, pq.Array(usernames))
	return users, err
}

// UsernameExists reports whether the username is taken.
func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE username=$1)`, username)
	return exists, err
}

// UpdateProfile applies the provided fields and returns the updated row.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID int, displayName, email, username *string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`UPDATE users SET
            display_name = COALESCE($2, display_name),
            email = COALESCE($3, email),
            username = COALESCE($4, username),
            updated_at = NOW()
         WHERE id=$1 RETURNING `+userColumns,
		userID, displayName, email, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return models.User{}, ErrEmailTaken
			}
			return models.User{}, ErrUsernameTaken
		}
	}
	return user, err
}

// Search finds users whose username or display name contains the query.
func (r *UserRepo) Search(ctx context.Context, query string, excludeUserID int, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users
         WHERE (username ILIKE '%' || $1 || '%' OR display_name ILIKE '%' || $1 || '%')
         AND id <> $2
         ORDER BY username LIMIT $3`,
		query, excludeUserID, limit)
	return users, err
}

// SetOnline updates the online flag and stamps last_seen.
func (r *UserRepo) SetOnline(ctx context.Context, userID int, online bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online=$2, last_seen=NOW() WHERE id=$1`, userID, online)
	return err
}

// SetProfilePhoto stores the photo URL if the user has none yet.
func (r *UserRepo) SetProfilePhoto(ctx context.Context, userID int, url string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET profile_photo=$2, updated_at=NOW() WHERE id=$1 AND profile_photo IS NULL`, userID, url)
	return err
}
