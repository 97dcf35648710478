package repository

import (
	"context"

	"github.com/Romanticus/TRexpress/internal/model"
)

// UserStore is the persistence contract the auth core depends on. UserRepo
// implements it against MySQL; CachedUserRepo decorates any implementation
// with a Redis read-through cache. Handlers and tests only ever see this
// interface.
type UserStore interface {
	// Create inserts a fully-built user row. A violation of the unique
	// email index is reported as ErrEmailExists.
	Create(ctx context.Context, u *model.User) error
	// GetByID fetches a user by id; ErrUserNotFound when absent.
	GetByID(ctx context.Context, id string) (model.User, error)
	// GetByEmail fetches a user by normalized email; ErrUserNotFound when absent.
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// List returns one page of users ordered by creation time (newest
	// first) together with the total row count. page and limit are 1-based
	// and must be positive.
	List(ctx context.Context, page, limit int) ([]model.User, int, error)
	// UpdateActive flips the blocked flag of a user.
	UpdateActive(ctx context.Context, id string, active bool) error
	// UpdateRefreshHash overwrites the stored refresh token digest
	// (last write wins; pass "" to clear it).
	UpdateRefreshHash(ctx context.Context, id, hash string) error
}
