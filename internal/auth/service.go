package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardialink/portal-api/pkg/logging"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so a caller cannot probe which emails are registered.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	// ErrInvalidToken is returned for malformed, expired, or revoked tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrWeakPassword is returned when the password is too short.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
	// ErrInvalidEmail is returned when the registration email is blank or
	// not an address.
	ErrInvalidEmail = errors.New("auth: a valid email is required")
)

// UserRepository is the persistence surface the service needs.
type UserRepository interface {
	Create(ctx context.Context, u *User, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (*User, string, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, update Update) (*User, error)
}

// Sessions is the session lifecycle surface the service needs.
type Sessions interface {
	Create(ctx context.Context, sessionID, userID string) error
	Get(ctx context.Context, sessionID string) (*SessionRecord, error)
	Delete(ctx context.Context, sessionID string) error
}

// Service implements registration, login, and token validation.
type Service struct {
	repo      UserRepository
	sessions  Sessions
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *logging.Logger
	now       func() time.Time
}

// NewService creates the auth service.
func NewService(repo UserRepository, sessions Sessions, jwtSecret string, tokenTTL time.Duration, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      repo,
		sessions:  sessions,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates an account with default preferences and opens a session.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("auth: hash password: %w", err)
	}

	user := &User{
		ID:          uuid.NewString(),
		Email:       email,
		FullName:    strings.TrimSpace(fullName),
		Preferences: DefaultPreferences(),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, user, string(hash)); err != nil {
		return nil, "", err
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login verifies credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, hash, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// Logout tears down the session so its token stops validating immediately.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// GetUser returns the account and its profile.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// UpdateUser applies a partial profile update.
func (s *Service) UpdateUser(ctx context.Context, userID string, update Update) (*User, error) {
	return s.repo.UpdateProfile(ctx, userID, update)
}

// ValidateToken checks the signature, expiry, and that the session behind
// the token is still live. Satisfies middleware.SessionValidator.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (string, string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" || claims.ID == "" {
		return "", "", ErrInvalidToken
	}

	rec, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return "", "", ErrInvalidToken
		}
		return "", "", err
	}
	if rec.UserID != claims.Subject {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.ID, nil
}

func (s *Service) openSession(ctx context.Context, userID string) (string, error) {
	sessionID := uuid.NewString()
	if err := s.sessions.Create(ctx, sessionID, userID); err != nil {
		return "", err
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}
