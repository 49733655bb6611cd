package repository

import (
	"context"
	"errors"

	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/model"
)

var ErrDuplicateUsername = errors.New("username already exists")

// UserRepository handles account data access.
type UserRepository struct {
	db database.Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.Querier) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user and fills in its ID.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (username, pass_hash, role, full_name, email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		u.Username, u.PassHash, u.Role, u.FullName, u.Email, u.CreatedAt,
	).Scan(&u.ID)
	if database.IsUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	return err
}

// GetByUsername retrieves a user by login name.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u := &model.User{}
	err := r.db.QueryRow(ctx,
		`SELECT id, username, pass_hash, role, full_name, email, created_at
		 FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PassHash, &u.Role, &u.FullName, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdatePassword replaces the password hash of a user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET pass_hash = ? WHERE id = ?`, hash, id)
	return err
}
