// Package crud turns repository outcomes into service errors and serves them over gin.
package crud

import (
	"context"
	"errors"

	"cvbuilder-backend/internal/query"
	"cvbuilder-backend/internal/repository"
	"cvbuilder-backend/internal/shared/apperr"
)

// Service adds existence semantics on top of a Repository.
type Service[S, I, U any] struct {
	Repo   repository.Repository[S, I, U]
	Entity string
}

// NewService constructs a Service for entity, used in error messages.
func NewService[S, I, U any](repo repository.Repository[S, I, U], entity string) *Service[S, I, U] {
	return &Service[S, I, U]{Repo: repo, Entity: entity}
}

func (s *Service[S, I, U]) List(ctx context.Context, opts query.Options) ([]S, error) {
	return s.Repo.FindMany(ctx, opts)
}

func (s *Service[S, I, U]) Get(ctx context.Context, id int64) (*S, error) {
	row, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.NotFound("%s %d not found", s.Entity, id)
	}
	return row, nil
}

func (s *Service[S, I, U]) Create(ctx context.Context, in I) (*S, error) {
	id, err := s.Repo.Create(ctx, in)
	if err != nil {
		return nil, translate(err, s.Entity)
	}
	row, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.BadRequest(repository.ErrInsertFailed, "%s %d vanished after insert", s.Entity, id)
	}
	return row, nil
}

// Update applies patch in one conditional statement; an id that matches nothing is not found.
func (s *Service[S, I, U]) Update(ctx context.Context, id int64, patch U) (*S, error) {
	row, err := s.Repo.Update(ctx, id, patch)
	if errors.Is(err, repository.ErrNoMatch) {
		return nil, apperr.NotFound("%s %d not found", s.Entity, id)
	}
	if err != nil {
		return nil, translate(err, s.Entity)
	}
	return row, nil
}

// Delete is idempotent like the repository underneath.
func (s *Service[S, I, U]) Delete(ctx context.Context, id int64) error {
	return s.Repo.Delete(ctx, id)
}

// ChildService scopes every operation to a parent; foreign rows read as not found.
type ChildService[S, I, U any, P comparable] struct {
	Repo   repository.ChildRepository[S, I, U, P]
	Entity string
}

func NewChildService[S, I, U any, P comparable](repo repository.ChildRepository[S, I, U, P], entity string) *ChildService[S, I, U, P] {
	return &ChildService[S, I, U, P]{Repo: repo, Entity: entity}
}

func (s *ChildService[S, I, U, P]) ListForParent(ctx context.Context, parentID P, opts query.Options) ([]S, error) {
	return s.Repo.ListForParent(ctx, parentID, opts)
}

func (s *ChildService[S, I, U, P]) CreateForParent(ctx context.Context, parentID P, in I) (*S, error) {
	id, err := s.Repo.CreateForParent(ctx, parentID, in)
	if err != nil {
		return nil, translate(err, s.Entity)
	}
	row, err := s.Repo.FindByParentAndID(ctx, parentID, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.BadRequest(repository.ErrInsertFailed, "%s %d vanished after insert", s.Entity, id)
	}
	return row, nil
}

func (s *ChildService[S, I, U, P]) FindByParentAndID(ctx context.Context, parentID P, id int64) (*S, error) {
	row, err := s.Repo.FindByParentAndID(ctx, parentID, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.NotFound("%s %d not found", s.Entity, id)
	}
	return row, nil
}

func (s *ChildService[S, I, U, P]) UpdateForParent(ctx context.Context, parentID P, id int64, patch U) (*S, error) {
	row, err := s.Repo.UpdateForParent(ctx, parentID, id, patch)
	if err != nil {
		return nil, translate(err, s.Entity)
	}
	if row == nil {
		return nil, apperr.NotFound("%s %d not found", s.Entity, id)
	}
	return row, nil
}

func (s *ChildService[S, I, U, P]) DeleteFromParent(ctx context.Context, parentID P, id int64) error {
	removed, err := s.Repo.DeleteFromParent(ctx, parentID, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("%s %d not found", s.Entity, id)
	}
	return nil
}

func translate(err error, entity string) error {
	switch {
	case errors.Is(err, repository.ErrInsertFailed):
		return apperr.BadRequest(err, "could not create %s", entity)
	case errors.Is(err, repository.ErrUpdateFailed):
		return apperr.BadRequest(err, "could not update %s", entity)
	}
	return err
}
