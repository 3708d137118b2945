package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"cvbuilder-backend/internal/query"
)

var _ ChildRepository[struct{}, struct{}, struct{}, int64] = (*ChildSQL[struct{}, struct{}, struct{}, int64])(nil)

// ChildSQL is a SQL repository whose rows belong to a parent through parentCol.
// Ownership is part of every statement's WHERE clause, so check and act are one round trip.
type ChildSQL[S, I, U any, P comparable] struct {
	*SQL[S, I, U]
	parentCol string
}

// NewChildSQL builds a child repository. The parent column is never patched.
func NewChildSQL[S, I, U any, P comparable](db *sqlx.DB, table, parentCol string) *ChildSQL[S, I, U, P] {
	base := NewSQL[S, I, U](db, table)
	base.fixed[parentCol] = true
	var patch U
	base.patchCols = base.writable(patch)
	return &ChildSQL[S, I, U, P]{SQL: base, parentCol: parentCol}
}

func (r *ChildSQL[S, I, U, P]) ListForParent(ctx context.Context, parentID P, opts query.Options) ([]S, error) {
	q, err := query.NewBuilder(r.table).Where(r.parentCol, parentID).Build(opts)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, q)
}

func (r *ChildSQL[S, I, U, P]) CreateForParent(ctx context.Context, parentID P, data I) (int64, error) {
	return r.insert(ctx, data, map[string]any{r.parentCol: parentID})
}

func (r *ChildSQL[S, I, U, P]) FindByParentAndID(ctx context.Context, parentID P, id int64) (*S, error) {
	return r.getOne(ctx, r.db, r.ownedBy(), id, parentID)
}

func (r *ChildSQL[S, I, U, P]) UpdateForParent(ctx context.Context, parentID P, id int64, patch U) (*S, error) {
	row, err := r.update(ctx, patch, r.ownedBy(), id, parentID)
	if errors.Is(err, ErrNoMatch) {
		return nil, nil
	}
	return row, err
}

func (r *ChildSQL[S, I, U, P]) DeleteFromParent(ctx context.Context, parentID P, id int64) (bool, error) {
	n, err := r.delete(ctx, r.ownedBy(), id, parentID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ChildSQL[S, I, U, P]) ownedBy() string {
	return "id = ? AND " + r.parentCol + " = ?"
}
