package store

import (
	"context"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

// TaskRepository is the remote side of the task store. Every call carries
// the owner explicitly and fails with an *apperr.Error on any non-2xx
// outcome.
type TaskRepository interface {
	List(ctx context.Context, ownerID string, q model.TaskQuery) ([]model.Task, error)
	GetByID(ctx context.Context, id, ownerID string) (model.Task, error)
	Create(ctx context.Context, ownerID string, in model.TaskInput) (model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch, ownerID string) (model.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
}

type ListRepository interface {
	List(ctx context.Context, ownerID string, q model.ListQuery) ([]model.List, error)
	GetByID(ctx context.Context, id, ownerID string) (model.List, error)
	Create(ctx context.Context, ownerID string, in model.ListInput) (model.List, error)
	Update(ctx context.Context, id string, patch model.ListPatch, ownerID string) (model.List, error)
	Delete(ctx context.Context, id, ownerID string) error
}

type LabelRepository interface {
	List(ctx context.Context, ownerID string, q model.LabelQuery) ([]model.Label, error)
	GetByID(ctx context.Context, id, ownerID string) (model.Label, error)
	Create(ctx context.Context, ownerID string, in model.LabelInput) (model.Label, error)
	Update(ctx context.Context, id string, patch model.LabelPatch, ownerID string) (model.Label, error)
	// Delete with force detaches the label from every task first.
	Delete(ctx context.Context, id, ownerID string, force bool) error
}
