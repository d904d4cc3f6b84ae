package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func newTestUser() *User {
	return &User{
		ID:          "u-1",
		Email:       "ada@example.com",
		FullName:    "Ada Lovelace",
		Preferences: DefaultPreferences(),
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreateInsertsUserAndProfileInOneTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	u := newTestUser()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Email, "hash", u.FullName, u.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO profiles").
		WithArgs(u.ID, "", "en", false, true, true, true, true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	repo := NewRepository(mock)
	require.NoError(t, repo.Create(context.Background(), u, "hash"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateEmailRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	u := newTestUser()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Email, "hash", u.FullName, u.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	repo := NewRepository(mock)
	err = repo.Create(context.Background(), u, "hash")
	require.ErrorIs(t, err, ErrEmailTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProfileFailureRollsBackUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	u := newTestUser()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Email, "hash", u.FullName, u.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO profiles").
		WithArgs(u.ID, "", "en", false, true, true, true, true, pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	repo := NewRepository(mock)
	err = repo.Create(context.Background(), u, "hash")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrEmailTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func userRow() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "email", "full_name", "created_at",
		"profile_image", "language", "dark_mode", "notify_email", "notify_app", "notify_results", "notify_appointments",
	}).AddRow(
		"u-1", "ada@example.com", "Ada Lovelace", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		"", "en", false, true, true, true, true,
	)
}

func TestGetByEmailReturnsUserAndHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{
		"id", "email", "full_name", "created_at",
		"profile_image", "language", "dark_mode", "notify_email", "notify_app", "notify_results", "notify_appointments",
		"password_hash",
	}).AddRow(
		"u-1", "ada@example.com", "Ada Lovelace", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		"", "en", false, true, true, true, true,
		"stored-hash",
	)
	mock.ExpectQuery("FROM users u").WithArgs("ada@example.com").WillReturnRows(rows)

	repo := NewRepository(mock)
	u, hash, err := repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, "stored-hash", hash)
	require.Equal(t, "u-1", u.ID)
	require.Equal(t, DefaultPreferences(), u.Preferences)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmailUnknownUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM users u").WithArgs("ghost@example.com").WillReturnError(pgx.ErrNoRows)

	repo := NewRepository(mock)
	_, _, err = repo.GetByEmail(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetByIDReturnsUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM users u").WithArgs("u-1").WillReturnRows(userRow())

	repo := NewRepository(mock)
	u, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", u.Email)
	require.True(t, u.Preferences.Notifications.Results)
}

func TestUpdateProfileAppliesBothFields(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	prefs := DefaultPreferences()
	prefs.DarkMode = true
	prefs.Language = "hi"
	name := "Ada L."

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET full_name").
		WithArgs(name, "u-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE profiles").
		WithArgs("hi", true, true, true, true, true, pgxmock.AnyArg(), "u-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("FROM users u").WithArgs("u-1").WillReturnRows(userRow())
	mock.ExpectCommit()

	repo := NewRepository(mock)
	u, err := repo.UpdateProfile(context.Background(), "u-1", Update{FullName: &name, Preferences: &prefs})
	require.NoError(t, err)
	require.Equal(t, "u-1", u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	name := "Nobody"
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET full_name").
		WithArgs(name, "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	repo := NewRepository(mock)
	_, err = repo.UpdateProfile(context.Background(), "ghost", Update{FullName: &name})
	require.ErrorIs(t, err, ErrUserNotFound)
}
