package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/glucon/glucon-api/application/port/outbound"
	"github.com/glucon/glucon-api/domain/entity"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) outbound.UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user. Duplicate emails are rejected by the UNIQUE index
// and reported as outbound.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	if user == nil {
		return fmt.Errorf("user cannot be nil")
	}
	if user.Email == "" || user.PasswordHash == "" {
		return fmt.Errorf("email and password hash are required")
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.FirstName, user.LastName, user.Email, user.PasswordHash, toMillis(user.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", outbound.ErrEmailTaken, user.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read user id: %w", err)
	}
	user.ID = id
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}
	return r.findOne(ctx, `
		SELECT id, first_name, last_name, email, password_hash, created_at
		FROM users WHERE email = ? LIMIT 1
	`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.findOne(ctx, `
		SELECT id, first_name, last_name, email, password_hash, created_at
		FROM users WHERE id = ?
	`, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var (
		user      entity.User
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}
