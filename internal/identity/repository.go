package identity

import (
	"context"
	"time"
)

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
	CreateUser(ctx context.Context, user User) (int64, error)
	UpdateRole(ctx context.Context, id int64, role Role) error
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}
