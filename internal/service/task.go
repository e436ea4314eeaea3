package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
)

var (
	ErrValidation = apperr.New(apperr.CodeValidation, "validation error")
	ErrNoOwner    = apperr.New(apperr.CodeUnauthorized, "owner id is required")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrNoOwner
	}
	return nil
}

type TaskService struct {
	repo  repo.TaskRepository
	lists repo.ListRepository
	newID func() string
	now   func() time.Time
}

func NewTaskService(tasks repo.TaskRepository, lists repo.ListRepository) *TaskService {
	return &TaskService{
		repo:  tasks,
		lists: lists,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in model.TaskInput, idempKey string) (model.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return model.Task{}, err
	}

	if idempKey != "" { // Обеспечение идемпотентности - если ключ уже сохранён, задачу повторно не создаём
		if existingID, err := s.repo.GetIdempotencyKey(ctx, idempKey, ownerID); err == nil {
			return s.repo.Get(ctx, existingID, ownerID)
		}
	}

	t := model.NewTask(s.newID(), ownerID, in, s.now())
	if err := s.validate(ctx, t); err != nil { // Валидация модели на корректность введенных данных
		return t, err
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return created, err
	}

	if idempKey != "" {
		if err := s.repo.SaveIdempotencyKey(ctx, idempKey, ownerID, created.ID); err != nil {
			return created, err
		}
	}

	return created, nil
}

func (s *TaskService) Get(ctx context.Context, id, ownerID string) (model.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return model.Task{}, err
	}
	return s.repo.Get(ctx, id, ownerID)
}

func (s *TaskService) List(ctx context.Context, ownerID string, q model.TaskQuery) ([]model.Task, int, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, 0, err
	}
	if q.Status != nil && !q.Status.Valid() {
		return nil, 0, apperr.Newf(apperr.CodeValidation, "unknown status %q", *q.Status)
	}
	q.Page, q.PageSize = NormalizePage(q.Page, q.PageSize)
	return s.repo.List(ctx, ownerID, q)
}

func (s *TaskService) Update(ctx context.Context, id string, patch model.TaskPatch, ownerID string) (model.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return model.Task{}, err
	}

	existing, err := s.repo.Get(ctx, id, ownerID)
	if err != nil {
		return existing, err
	}
	if patch.Version != nil && *patch.Version != existing.Version {
		return existing, apperr.Newf(apperr.CodeConflict, "task %s is at version %d", id, existing.Version)
	}

	merged := patch.Apply(existing)
	if err := s.validate(ctx, merged); err != nil {
		return existing, err
	}
	return s.repo.Update(ctx, merged)
}

func (s *TaskService) Delete(ctx context.Context, id, ownerID string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, ownerID)
}

func (s *TaskService) GetStats(ctx context.Context, ownerID string) (repo.Stats, error) {
	if err := requireOwner(ownerID); err != nil {
		return repo.Stats{}, err
	}
	return s.repo.GetStats(ctx, ownerID, s.now())
}

func (s *TaskService) validate(ctx context.Context, t model.Task) error {
	if strings.TrimSpace(t.Name) == "" {
		return apperr.Validation("name is required")
	}
	if !t.Status.Valid() {
		return apperr.Newf(apperr.CodeValidation, "unknown status %q", t.Status)
	}
	if !t.Priority.Valid() {
		return apperr.Newf(apperr.CodeValidation, "unknown priority %q", t.Priority)
	}
	if t.Estimate != nil && *t.Estimate < 0 {
		return apperr.Validation("estimate must not be negative")
	}
	if t.ListID == "" {
		return apperr.Validation("listId is required")
	}

	// список должен существовать и принадлежать тому же пользователю
	if _, err := s.lists.Get(ctx, t.ListID, t.OwnerID); err != nil {
		if errors.Is(err, repo.ErrorNotFound) || errors.Is(err, repo.ErrorForbidden) {
			return apperr.Newf(apperr.CodeValidation, "list %s does not exist", t.ListID)
		}
		return err
	}
	return nil
}
