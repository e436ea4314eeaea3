package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
)

type ListService struct {
	repo  repo.ListRepository
	newID func() string
	now   func() time.Time
}

func NewListService(lists repo.ListRepository) *ListService {
	return &ListService{
		repo:  lists,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

func (s *ListService) Create(ctx context.Context, ownerID string, in model.ListInput) (model.List, error) {
	if err := requireOwner(ownerID); err != nil {
		return model.List{}, err
	}

	l := model.NewList(s.newID(), ownerID, in, s.now())
	if err := s.validate(ctx, l); err != nil {
		return l, err
	}
	return s.repo.Create(ctx, l)
}

func (s *ListService) Get(ctx context.Context, id, ownerID string) (model.List, error) {
	if err := requireOwner(ownerID); err != nil {
		return model.List{}, err
	}
	return s.repo.Get(ctx, id, ownerID)
}

func (s *ListService) List(ctx context.Context, ownerID string, q model.ListQuery) ([]model.List, int, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, 0, err
	}
	q.Page, q.PageSize = NormalizePage(q.Page, q.PageSize)
	return s.repo.List(ctx, ownerID, q)
}

func (s *ListService) Update(ctx context.Context, id string, patch model.ListPatch, ownerID string) (model.List, error) {
	if err := requireOwner(ownerID); err != nil {
		return model.List{}, err
	}

	existing, err := s.repo.Get(ctx, id, ownerID)
	if err != nil {
		return existing, err
	}
	if patch.Version != nil && *patch.Version != existing.Version {
		return existing, apperr.Newf(apperr.CodeConflict, "list %s is at version %d", id, existing.Version)
	}

	merged := patch.Apply(existing)
	if err := s.validate(ctx, merged); err != nil {
		return existing, err
	}
	return s.repo.Update(ctx, merged)
}

func (s *ListService) Delete(ctx context.Context, id, ownerID string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, ownerID)
}

func (s *ListService) validate(ctx context.Context, l model.List) error {
	if strings.TrimSpace(l.Name) == "" {
		return apperr.Validation("name is required")
	}
	if !model.ValidColor(l.Color) {
		return apperr.Newf(apperr.CodeValidation, "color %q is not a hex color", l.Color)
	}

	taken, err := s.repo.NameTaken(ctx, l.OwnerID, l.Name, l.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Newf(apperr.CodeValidation, "a list named %q already exists", l.Name)
	}
	return nil
}
