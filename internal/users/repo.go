package users

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

type Repo interface {
	// Upsert writes identity fields; an existing subscription tier is kept.
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	// GetTier returns "" when the user has no row or no tier.
	GetTier(ctx context.Context, userID string) (string, error)
	// SetTier creates the row if needed.
	SetTier(ctx context.Context, userID, tier string) error
}
