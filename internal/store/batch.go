package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/worker"
)

type BatchKind string

const (
	BatchUpdate BatchKind = "update"
	BatchDelete BatchKind = "delete"
	BatchMove   BatchKind = "move"
)

type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// BatchOperation tracks one batch from start until it is cleared.
type BatchOperation struct {
	ID         string      `json:"id"`
	Kind       BatchKind   `json:"kind"`
	TargetIDs  []string    `json:"targetIds"`
	Status     BatchStatus `json:"status"`
	Completed  int         `json:"completed"`
	Total      int         `json:"total"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
}

// Progress is the completed fraction in [0, 1].
func (b BatchOperation) Progress() float64 {
	if b.Total == 0 {
		return 1
	}
	return float64(b.Completed) / float64(b.Total)
}

type ItemResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Err     error  `json:"-"`
}

type BatchResult struct {
	OperationID string       `json:"operationId"`
	Total       int          `json:"total"`
	Successful  int          `json:"successful"`
	Failed      int          `json:"failed"`
	Results     []ItemResult `json:"results"`
}

// Errors returns the failed items' errors keyed by id.
func (r BatchResult) Errors() map[string]error {
	out := map[string]error{}
	for _, item := range r.Results {
		if !item.Success {
			out[item.ID] = item.Err
		}
	}
	return out
}

// Coordinator fans a batch out over a bounded worker pool. It always runs
// every item and records per-item outcomes.
type Coordinator struct {
	pool   *worker.Pool
	logger *zap.Logger
	now    func() time.Time

	mu  sync.Mutex
	ops map[string]*BatchOperation
}

func NewCoordinator(pool *worker.Pool, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pool == nil {
		pool = worker.NewPool(logger, worker.DefaultWorkers)
	}
	return &Coordinator{
		pool:   pool,
		logger: logger,
		now:    time.Now,
		ops:    make(map[string]*BatchOperation),
	}
}

// Run applies fn to every id and blocks until all calls have returned.
// Results are in the order of ids.
func (c *Coordinator) Run(ctx context.Context, kind BatchKind, ids []string, fn func(ctx context.Context, id string) error) BatchResult {
	op := &BatchOperation{
		ID:        uuid.NewString(),
		Kind:      kind,
		TargetIDs: slices.Clone(ids),
		Status:    BatchPending,
		Total:     len(ids),
		StartedAt: c.now(),
	}
	c.mu.Lock()
	c.ops[op.ID] = op
	op.Status = BatchProcessing
	c.mu.Unlock()

	bulkCtx := withBulk(ctx)
	errs := c.pool.Run(bulkCtx, len(ids), func(ctx context.Context, i int) error {
		return fn(ctx, ids[i])
	}, func(int, error) {
		c.mu.Lock()
		op.Completed++
		c.mu.Unlock()
	})

	res := BatchResult{OperationID: op.ID, Total: len(ids), Results: make([]ItemResult, len(ids))}
	for i, id := range ids {
		res.Results[i] = ItemResult{ID: id, Success: errs[i] == nil, Err: errs[i]}
		if errs[i] == nil {
			res.Successful++
		} else {
			res.Failed++
		}
	}

	finished := c.now()
	c.mu.Lock()
	op.FinishedAt = &finished
	op.Status = BatchCompleted
	if res.Total > 0 && res.Failed == res.Total {
		op.Status = BatchFailed
	}
	c.mu.Unlock()

	c.logger.Info("batch finished",
		zap.String("operation", op.ID),
		zap.String("kind", string(kind)),
		zap.Int("total", res.Total),
		zap.Int("successful", res.Successful),
		zap.Int("failed", res.Failed),
	)
	return res
}

func (c *Coordinator) Operation(id string) (BatchOperation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.ops[id]
	if !ok {
		return BatchOperation{}, false
	}
	return op.copy(), true
}

// Operations returns every retained operation, oldest first.
func (c *Coordinator) Operations() []BatchOperation {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]BatchOperation, 0, len(c.ops))
	for _, op := range c.ops {
		out = append(out, op.copy())
	}
	slices.SortFunc(out, func(a, b BatchOperation) int {
		return cmp.Or(a.StartedAt.Compare(b.StartedAt), strings.Compare(a.ID, b.ID))
	})
	return out
}

// Clear forgets a finished operation. Running operations are kept.
func (c *Coordinator) Clear(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if op, ok := c.ops[id]; ok && op.FinishedAt != nil {
		delete(c.ops, id)
	}
}

func (c *Coordinator) ClearFinished() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, op := range c.ops {
		if op.FinishedAt != nil {
			delete(c.ops, id)
		}
	}
}

func (b *BatchOperation) copy() BatchOperation {
	out := *b
	out.TargetIDs = slices.Clone(b.TargetIDs)
	if b.FinishedAt != nil {
		t := *b.FinishedAt
		out.FinishedAt = &t
	}
	return out
}
