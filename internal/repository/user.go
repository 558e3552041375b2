package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/niolikon/taskboard/internal/model"
)

// UserRepository stores persisted owners and their credentials.
type UserRepository struct {
	db *Repository
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db *Repository) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new owner.
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO owners (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves an owner by id.
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, `WHERE id = $1`, id)
}

// GetUserByUsername retrieves an owner by username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getUser(ctx, `WHERE username = $1`, username)
}

// ResolveOwner implements OwnerResolver. Unknown ids are an ownership violation.
func (r *UserRepository) ResolveOwner(ctx context.Context, id string) (model.Owner, error) {
	user, err := r.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, OwnerNotFound(id)
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) getUser(ctx context.Context, where string, arg string) (*model.User, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM owners
		` + where

	var user model.User
	err := r.db.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
