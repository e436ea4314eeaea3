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

type LabelService struct {
	repo  repo.LabelRepository
	newID func() string
	now   func() time.Time
}

func NewLabelService(labels repo.LabelRepository) *LabelService {
	return &LabelService{
		repo:  labels,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

func (s *LabelService) Create(ctx context.Context, ownerID string, in model.LabelInput) (model.Label, error) {
	if err := requireOwner(ownerID); err != nil {
		return model.Label{}, err
	}

	l := model.NewLabel(s.newID(), ownerID, in, s.now())
	if err := s.validate(ctx, l); err != nil {
		return l, err
	}
	return s.repo.Create(ctx, l)
}

func (s *LabelService) Get(ctx context.Context, id, ownerID string) (model.Label, error) {
	if err := requireOwner(ownerID); err != nil {
		return model.Label{}, err
	}
	return s.repo.Get(ctx, id, ownerID)
}

func (s *LabelService) List(ctx context.Context, ownerID string, q model.LabelQuery) ([]model.Label, int, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, 0, err
	}
	q.Page, q.PageSize = NormalizePage(q.Page, q.PageSize)
	return s.repo.List(ctx, ownerID, q)
}

func (s *LabelService) Update(ctx context.Context, id string, patch model.LabelPatch, ownerID string) (model.Label, error) {
	if err := requireOwner(ownerID); err != nil {
		return model.Label{}, err
	}

	existing, err := s.repo.Get(ctx, id, ownerID)
	if err != nil {
		return existing, err
	}
	merged := patch.Apply(existing)
	if err := s.validate(ctx, merged); err != nil {
		return existing, err
	}
	return s.repo.Update(ctx, merged)
}

// Delete refuses to drop a label that tasks still reference unless force is
// set, in which case the label is detached from every task. The repository
// does both in one step, so a failed delete leaves every task untouched.
func (s *LabelService) Delete(ctx context.Context, id, ownerID string, force bool) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	_, err := s.repo.Delete(ctx, id, ownerID, force)
	return err
}

func (s *LabelService) validate(ctx context.Context, l model.Label) error {
	if strings.TrimSpace(l.Name) == "" {
		return apperr.Validation("name is required")
	}
	if strings.TrimSpace(l.Icon) == "" {
		return apperr.Validation("icon is required")
	}
	if !model.ValidColor(l.Color) {
		return apperr.Newf(apperr.CodeValidation, "color %q is not a hex color", l.Color)
	}

	nameTaken, styleTaken, err := s.repo.Conflicts(ctx, l.OwnerID, l.Name, l.Icon, l.Color, l.ID)
	if err != nil {
		return err
	}
	if nameTaken {
		return apperr.Newf(apperr.CodeValidation, "a label named %q already exists", l.Name)
	}
	if styleTaken {
		return apperr.Validation("another label already uses this icon and color")
	}
	return nil
}
