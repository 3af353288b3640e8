package user

import "context"

// Repository persists User accounts.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	UpdatePasswordHash(ctx context.Context, username, newHash string) error
}
