// Package repository provides table-scoped CRUD over sqlx for any record shape.
//
// A repository is parameterized by three shapes: S is the row as selected,
// I is the insert payload and U is a patch whose nil pointer fields are left
// untouched. Columns come from `db` struct tags.
package repository

import (
	"context"

	"cvbuilder-backend/internal/query"
)

// Repository is the uniform CRUD contract over one table.
type Repository[S, I, U any] interface {
	GetAll(ctx context.Context) ([]S, error)
	FindMany(ctx context.Context, opts query.Options) ([]S, error)
	// GetByID returns nil, nil when the id is absent.
	GetByID(ctx context.Context, id int64) (*S, error)
	Create(ctx context.Context, data I) (int64, error)
	// Update applies the non-nil fields of patch and returns the row as re-read.
	Update(ctx context.Context, id int64, patch U) (*S, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// ChildRepository scopes every read and write to one parent id.
// Parent mismatches look exactly like absent rows.
type ChildRepository[S, I, U any, P comparable] interface {
	Repository[S, I, U]
	ListForParent(ctx context.Context, parentID P, opts query.Options) ([]S, error)
	CreateForParent(ctx context.Context, parentID P, data I) (int64, error)
	// FindByParentAndID returns nil, nil when absent or owned by another parent.
	FindByParentAndID(ctx context.Context, parentID P, id int64) (*S, error)
	// UpdateForParent returns nil, nil when absent or owned by another parent.
	UpdateForParent(ctx context.Context, parentID P, id int64, patch U) (*S, error)
	// DeleteFromParent reports whether a row was removed.
	DeleteFromParent(ctx context.Context, parentID P, id int64) (bool, error)
}
