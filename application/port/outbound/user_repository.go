package outbound

import (
	"context"
	"errors"

	"github.com/glucon/glucon-api/domain/entity"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned by Create when the storage-level unique
	// constraint on email rejects the insert.
	ErrEmailTaken = errors.New("email already registered")
)

type UserRepository interface {
	// Create inserts the user and sets user.ID to the allocated id.
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id int64) (*entity.User, error)
}
