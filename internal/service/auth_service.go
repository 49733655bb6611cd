package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// SessionStore persists login sessions. Get returns
// repository.ErrSessionNotFound for unknown tokens.
type SessionStore interface {
	Save(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
}

// RegisterInput is a new account.
type RegisterInput struct {
	Username string
	Password string
	FullName string
	Email    string
	Role     model.Role
}

// AuthService is the session directory: accounts, passwords and tokens.
type AuthService struct {
	lock     *StoreLock
	users    *repository.UserRepository
	sessions SessionStore
	ttl      time.Duration
	cost     int
	now      Clock
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	lock *StoreLock,
	users *repository.UserRepository,
	sessions SessionStore,
	ttl time.Duration,
	bcryptCost int,
	log zerolog.Logger,
) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		lock:     lock,
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		cost:     bcryptCost,
		now:      time.Now,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// SetClock replaces the time source.
func (s *AuthService) SetClock(c Clock) { s.now = c }

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates an account. An empty role means STUDENT.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if in.Role == "" {
		in.Role = model.RoleStudent
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	u := &model.User{
		Username:  strings.TrimSpace(in.Username),
		PassHash:  hash,
		Role:      in.Role,
		FullName:  in.FullName,
		Email:     in.Email,
		CreatedAt: s.now().Unix(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("User registered")
	return u, nil
}

// ResetPassword replaces the password of an existing account.
func (s *AuthService) ResetPassword(ctx context.Context, username, password string) (*model.User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}

	s.log.Info().Int64("user_id", u.ID).Msg("Password reset")
	return u, nil
}

// Login checks credentials and mints a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.Session, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.CheckPassword(u.PassHash, password); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &model.Session{
		Token:     newToken(),
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		ExpiresAt: now.Add(s.ttl).Unix(),
		CreatedAt: now.Unix(),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.log.Info().Int64("user_id", u.ID).Msg("User logged in")
	return sess, nil
}

// Validate resolves a token to a live session. Expired sessions are
// removed.
func (s *AuthService) Validate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	sess, err := s.sessions.Get(ctx, token)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.Expired(s.now().Unix()) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			s.log.Warn().Err(err).Msg("Failed to delete expired session")
		}
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Logout drops a session. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// expiredPurger is implemented by session stores that keep expired rows
// until told to drop them.
type expiredPurger interface {
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}

// PurgeExpiredSessions drops every expired session from stores that do not
// expire keys on their own. It returns the number removed.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	p, ok := s.sessions.(expiredPurger)
	if !ok {
		return 0, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	n, err := p.DeleteExpired(ctx, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}

// newToken returns 32 lowercase hex characters from a random UUID.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
