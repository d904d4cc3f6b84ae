package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrEmailTaken is returned when the email already has an account.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrUserNotFound is returned when no account matches.
	ErrUserNotFound = errors.New("auth: user not found")
)

const uniqueViolation = "23505"

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists users and their profiles in Postgres.
type Repository struct {
	db db
}

// NewRepository creates a user repository.
func NewRepository(db db) *Repository {
	return &Repository{db: db}
}

// Create inserts the account and its profile row in one transaction, so a
// user can never exist without preferences.
func (r *Repository) Create(ctx context.Context, u *User, passwordHash string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("auth: begin create user: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Email, passwordHash, u.FullName, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("auth: insert user: %w", err)
	}

	p := u.Preferences
	_, err = tx.Exec(ctx, `
		INSERT INTO profiles (user_id, profile_image, language, dark_mode, notify_email, notify_app, notify_results, notify_appointments, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.ProfileImage, p.Language, p.DarkMode, p.Notifications.Email, p.Notifications.App, p.Notifications.Results, p.Notifications.Appointments, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("auth: insert profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("auth: commit create user: %w", err)
	}
	return nil
}

const userColumns = `
	u.id::text, u.email, u.full_name, u.created_at,
	p.profile_image, p.language, p.dark_mode, p.notify_email, p.notify_app, p.notify_results, p.notify_appointments
`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.CreatedAt,
		&u.ProfileImage, &u.Preferences.Language, &u.Preferences.DarkMode,
		&u.Preferences.Notifications.Email, &u.Preferences.Notifications.App,
		&u.Preferences.Notifications.Results, &u.Preferences.Notifications.Appointments,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("auth: scan user: %w", err)
	}
	return &u, nil
}

// GetByEmail returns the account and its password hash for login.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, string, error) {
	var u User
	var hash string
	err := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`, u.password_hash
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.email = $1
	`, email).Scan(
		&u.ID, &u.Email, &u.FullName, &u.CreatedAt,
		&u.ProfileImage, &u.Preferences.Language, &u.Preferences.DarkMode,
		&u.Preferences.Notifications.Email, &u.Preferences.Notifications.App,
		&u.Preferences.Notifications.Results, &u.Preferences.Notifications.Appointments,
		&hash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("auth: get user by email: %w", err)
	}
	return &u, hash, nil
}

// GetByID returns the account and its profile.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1
	`, id))
}

// UpdateProfile applies a partial update and returns the fresh account.
func (r *Repository) UpdateProfile(ctx context.Context, id string, update Update) (*User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: begin update profile: %w", err)
	}
	defer tx.Rollback(ctx)

	if update.FullName != nil {
		tag, err := tx.Exec(ctx, `UPDATE users SET full_name = $1 WHERE id = $2`, *update.FullName, id)
		if err != nil {
			return nil, fmt.Errorf("auth: update name: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrUserNotFound
		}
	}

	if update.ProfileImage != nil {
		tag, err := tx.Exec(ctx, `UPDATE profiles SET profile_image = $1, updated_at = $2 WHERE user_id = $3`,
			*update.ProfileImage, time.Now().UTC(), id)
		if err != nil {
			return nil, fmt.Errorf("auth: update profile image: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrUserNotFound
		}
	}

	if update.Preferences != nil {
		p := *update.Preferences
		tag, err := tx.Exec(ctx, `
			UPDATE profiles
			SET language = $1, dark_mode = $2, notify_email = $3, notify_app = $4,
			    notify_results = $5, notify_appointments = $6, updated_at = $7
			WHERE user_id = $8
		`, p.Language, p.DarkMode, p.Notifications.Email, p.Notifications.App,
			p.Notifications.Results, p.Notifications.Appointments, time.Now().UTC(), id)
		if err != nil {
			return nil, fmt.Errorf("auth: update preferences: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrUserNotFound
		}
	}

	u, err := scanUser(tx.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1
	`, id))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("auth: commit update profile: %w", err)
	}
	return u, nil
}
