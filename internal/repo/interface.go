package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами.
// Every call is scoped by the owner id; there is no default owner.
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id, ownerID string) (model.Task, error)
	List(ctx context.Context, ownerID string, q model.TaskQuery) ([]model.Task, int, error)
	// Create and Update reject label ids the owner does not have.
	// Update writes t if the stored version equals t.Version and bumps it.
	Update(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
	SaveIdempotencyKey(ctx context.Context, key, ownerID, resourceID string) error
	GetIdempotencyKey(ctx context.Context, key, ownerID string) (string, error)
	GetStats(ctx context.Context, ownerID string, now time.Time) (Stats, error)
}

type ListRepository interface {
	Create(ctx context.Context, l model.List) (model.List, error)
	Get(ctx context.Context, id, ownerID string) (model.List, error)
	List(ctx context.Context, ownerID string, q model.ListQuery) ([]model.List, int, error)
	Update(ctx context.Context, l model.List) (model.List, error)
	// Delete removes the list together with its tasks.
	Delete(ctx context.Context, id, ownerID string) error
	NameTaken(ctx context.Context, ownerID, name, excludeID string) (bool, error)
}

type LabelRepository interface {
	Create(ctx context.Context, l model.Label) (model.Label, error)
	Get(ctx context.Context, id, ownerID string) (model.Label, error)
	List(ctx context.Context, ownerID string, q model.LabelQuery) ([]model.Label, int, error)
	Update(ctx context.Context, l model.Label) (model.Label, error)
	// Delete atomically rejects a label still used by tasks unless force is
	// set, in which case it is detached from them first. It returns how many
	// tasks lost the label.
	Delete(ctx context.Context, id, ownerID string, force bool) (int, error)
	// Conflicts reports whether another label of the owner already uses the
	// name, or the (icon, color) pair.
	Conflicts(ctx context.Context, ownerID, name, icon, color, excludeID string) (nameTaken, styleTaken bool, err error)
}

type Stats struct {
	ByStatus   map[model.Status]int `json:"byStatus"`
	Overdue    int                  `json:"overdue"`
	TotalTasks int                  `json:"totalTasks"`
}

var (
	_ TaskRepository  = (*TaskRepo)(nil)
	_ ListRepository  = (*ListRepo)(nil)
	_ LabelRepository = (*LabelRepo)(nil)
	_ TaskRepository  = (*MemoryTaskRepo)(nil)
	_ ListRepository  = (*MemoryListRepo)(nil)
	_ LabelRepository = (*MemoryLabelRepo)(nil)
)
