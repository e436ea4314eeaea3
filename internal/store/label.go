package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

type LabelStore struct {
	status

	owner  string
	repo   LabelRepository
	cache  *Cache[model.Label]
	opt    *Optimistic[model.Label]
	tasks  *TaskStore
	logger *zap.Logger
	now    func() time.Time
}

func NewLabelStore(ownerID string, repo LabelRepository, tasks *TaskStore, logger *zap.Logger) (*LabelStore, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &LabelStore{
		owner:  ownerID,
		repo:   repo,
		cache:  NewCache[model.Label](),
		tasks:  tasks,
		logger: logger,
		now:    time.Now,
	}
	s.opt = NewOptimistic("label", s.cache, logger)
	return s, nil
}

func (s *LabelStore) Fetch(ctx context.Context) error {
	defer s.begin(LoadTasks)()

	labels, err := s.repo.List(ctx, s.owner, model.LabelQuery{})
	if err != nil {
		return s.record(err)
	}
	s.cache.Reset(labels)
	return nil
}

func (s *LabelStore) Get(id string) (model.Label, bool) { return s.cache.Get(id) }

// Labels returns the cached labels sorted by name.
func (s *LabelStore) Labels() []model.Label {
	out := s.cache.Values()
	slices.SortFunc(out, func(a, b model.Label) int {
		return cmp.Or(strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), strings.Compare(a.ID, b.ID))
	})
	return out
}

func (s *LabelStore) Create(ctx context.Context, in model.LabelInput) (model.Label, error) {
	defer s.begin(LoadCreating)()

	l, err := s.opt.Create(ctx,
		func(tempID string) model.Label { return model.NewLabel(tempID, s.owner, in, s.now()) },
		func(ctx context.Context) (model.Label, error) { return s.repo.Create(ctx, s.owner, in) },
	)
	return l, s.record(err)
}

func (s *LabelStore) Update(ctx context.Context, id string, patch model.LabelPatch) (model.Label, error) {
	defer s.begin(LoadUpdating)()

	l, err := s.opt.Update(ctx, id,
		func(cur model.Label) model.Label {
			merged := patch.Apply(cur)
			merged.UpdatedAt = s.now()
			return merged
		},
		func(ctx context.Context) (model.Label, error) { return s.repo.Update(ctx, id, patch, s.owner) },
	)
	return l, s.record(err)
}

// Delete removes a label. Without force the server refuses a label that
// tasks still use. With force the label is also dropped from cached tasks
// once the server confirms.
func (s *LabelStore) Delete(ctx context.Context, id string, force bool) error {
	defer s.begin(LoadDeleting)()

	err := s.opt.Delete(ctx, id, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id, s.owner, force)
	})
	if err != nil {
		return s.record(err)
	}
	if force && s.tasks != nil {
		n := s.tasks.DetachLabel(id)
		s.logger.Debug("label detached from cached tasks", zap.String("label", id), zap.Int("tasks", n))
	}
	return nil
}
