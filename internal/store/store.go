// Package store is the client-side state layer: entity caches with
// optimistic mutations, selectors over the cached tasks, a batch
// coordinator, and the view-level stores composed from them.
package store

import (
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
	"github.com/BuzzLyutic/tasklist/internal/worker"
)

type Config struct {
	User   User
	Tasks  TaskRepository
	Lists  ListRepository
	Labels LabelRepository
	Logger *zap.Logger

	// BatchWorkers bounds in-flight remote calls of a batch (default 10).
	BatchWorkers      int
	NotificationDelay time.Duration
}

// Stores is one user's set of stores. Build it with New; nothing in this
// package is global.
type Stores struct {
	App           *AppStore
	Tasks         *TaskStore
	Lists         *ListStore
	Labels        *LabelStore
	Notifications *NotificationStore
	Modals        *ModalStore
	Batches       *Coordinator
}

func New(cfg Config) (*Stores, error) {
	if err := requireOwner(cfg.User.ID); err != nil {
		return nil, err
	}
	if cfg.Tasks == nil || cfg.Lists == nil || cfg.Labels == nil {
		return nil, apperr.New(apperr.CodeInternal, "store: task, list and label repositories are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("owner", cfg.User.ID))

	batch := NewCoordinator(worker.NewPool(logger, cfg.BatchWorkers), logger)

	tasks, err := NewTaskStore(cfg.User.ID, cfg.Tasks, batch, logger)
	if err != nil {
		return nil, err
	}
	lists, err := NewListStore(cfg.User.ID, cfg.Lists, batch, tasks, logger)
	if err != nil {
		return nil, err
	}
	labels, err := NewLabelStore(cfg.User.ID, cfg.Labels, tasks, logger)
	if err != nil {
		return nil, err
	}
	app, err := NewAppStore(cfg.User, tasks)
	if err != nil {
		return nil, err
	}

	return &Stores{
		App:           app,
		Tasks:         tasks,
		Lists:         lists,
		Labels:        labels,
		Notifications: NewNotificationStore(cfg.NotificationDelay),
		Modals:        NewModalStore(),
		Batches:       batch,
	}, nil
}
