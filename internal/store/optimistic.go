package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
)

const tempPrefix = "temp-"

func newTempID() string { return tempPrefix + uuid.NewString() }

// IsTempID reports whether id was generated locally for an unconfirmed create.
func IsTempID(id string) bool { return strings.HasPrefix(id, tempPrefix) }

type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
	OpBulk   OpKind = "bulk"
)

// Pending is the record of a mutation whose remote call has not resolved.
type Pending[T any] struct {
	Op        OpKind
	Data      T
	Snapshot  T
	Timestamp time.Time

	seq uint64
}

type bulkKey struct{}

// withBulk marks ctx so mutations issued under it are recorded as OpBulk.
func withBulk(ctx context.Context) context.Context {
	return context.WithValue(ctx, bulkKey{}, true)
}

func isBulk(ctx context.Context) bool {
	b, _ := ctx.Value(bulkKey{}).(bool)
	return b
}

// Optimistic applies mutations to a cache before the remote call is made and
// settles the cache (server copy or rollback) before returning. Errors from
// remote calls are returned unchanged.
type Optimistic[T Entity[T]] struct {
	kind   string
	cache  *Cache[T]
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[string]Pending[T]
	seq     uint64

	onRemove  func(id string)
	onReplace func(oldID, newID string)
}

func NewOptimistic[T Entity[T]](kind string, cache *Cache[T], logger *zap.Logger) *Optimistic[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimistic[T]{
		kind:    kind,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
		pending: make(map[string]Pending[T]),
	}
}

// OnRemove registers a hook run whenever an entity leaves the cache through
// this layer (optimistic delete or failed create).
func (o *Optimistic[T]) OnRemove(fn func(id string)) { o.onRemove = fn }

// OnReplace registers a hook run when a temporary id is swapped for the
// server's id.
func (o *Optimistic[T]) OnReplace(fn func(oldID, newID string)) { o.onReplace = fn }

func (o *Optimistic[T]) Pending(id string) (Pending[T], bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.pending[id]
	return p, ok
}

func (o *Optimistic[T]) PendingCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

func (o *Optimistic[T]) track(ctx context.Context, id string, op OpKind, data, snapshot T) uint64 {
	if isBulk(ctx) {
		op = OpBulk
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.seq++
	o.pending[id] = Pending[T]{
		Op:        op,
		Data:      data.Clone(),
		Snapshot:  snapshot.Clone(),
		Timestamp: o.now(),
		seq:       o.seq,
	}
	return o.seq
}

// settle drops the pending record for id unless a newer mutation of the same
// id replaced it in the meantime.
func (o *Optimistic[T]) settle(id string, seq uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if p, ok := o.pending[id]; ok && p.seq == seq {
		delete(o.pending, id)
	}
}

func (o *Optimistic[T]) notFound(id string) error {
	return apperr.Newf(apperr.CodePrecondition, "%s %s not found", o.kind, id)
}

// Create inserts build(tempID) into the cache, calls remote and swaps the
// temporary entity for the returned one. On failure the temporary entity is
// removed again.
func (o *Optimistic[T]) Create(ctx context.Context, build func(tempID string) T, remote func(ctx context.Context) (T, error)) (T, error) {
	tempID := newTempID()
	tentative := build(tempID)
	o.cache.Put(tentative)
	seq := o.track(ctx, tempID, OpCreate, tentative, tentative)

	created, err := remote(ctx)
	if err != nil {
		o.cache.Remove(tempID)
		o.settle(tempID, seq)
		if o.onRemove != nil {
			o.onRemove(tempID)
		}
		o.logger.Warn("optimistic create rolled back",
			zap.String("kind", o.kind),
			zap.String("temp_id", tempID),
			zap.Error(err),
		)
		var zero T
		return zero, err
	}

	o.cache.Replace(tempID, created)
	o.settle(tempID, seq)
	if o.onReplace != nil {
		o.onReplace(tempID, created.Key())
	}
	return created.Clone(), nil
}

// Update writes merge(current) into the cache, calls remote and stores its
// result. On failure the pre-mutation snapshot is restored. An id missing
// from the cache fails with PRECONDITION_FAILED and nothing is called.
func (o *Optimistic[T]) Update(ctx context.Context, id string, merge func(current T) T, remote func(ctx context.Context) (T, error)) (T, error) {
	snapshot, ok := o.cache.Get(id)
	if !ok {
		var zero T
		return zero, o.notFound(id)
	}

	tentative := merge(snapshot.Clone())
	o.cache.Put(tentative)
	seq := o.track(ctx, id, OpUpdate, tentative, snapshot)

	updated, err := remote(ctx)
	if err != nil {
		// если сущность успели удалить локально, не воскрешаем её
		if o.cache.Has(id) {
			o.cache.Put(snapshot)
		}
		o.settle(id, seq)
		o.logger.Warn("optimistic update rolled back",
			zap.String("kind", o.kind),
			zap.String("id", id),
			zap.Error(err),
		)
		var zero T
		return zero, err
	}

	if o.cache.Has(id) {
		o.cache.Put(updated)
	}
	o.settle(id, seq)
	return updated.Clone(), nil
}

// Delete removes id from the cache, calls remote and puts the entity back
// at its old position on failure.
func (o *Optimistic[T]) Delete(ctx context.Context, id string, remote func(ctx context.Context) error) error {
	snapshot, ok := o.cache.Get(id)
	if !ok {
		return o.notFound(id)
	}

	idx := o.cache.IndexOf(id)
	o.cache.Remove(id)
	seq := o.track(ctx, id, OpDelete, snapshot, snapshot)
	if o.onRemove != nil {
		o.onRemove(id)
	}

	if err := remote(ctx); err != nil {
		o.cache.Insert(idx, snapshot)
		o.settle(id, seq)
		o.logger.Warn("optimistic delete rolled back",
			zap.String("kind", o.kind),
			zap.String("id", id),
			zap.Error(err),
		)
		return err
	}

	o.settle(id, seq)
	return nil
}
