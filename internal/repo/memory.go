package repo

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

// Memory is an in-process implementation of all three repositories. It is
// used with STORAGE=memory and by tests that do not need Postgres.
type Memory struct {
	Tasks  *MemoryTaskRepo
	Lists  *MemoryListRepo
	Labels *MemoryLabelRepo
}

type memDB struct {
	mu     sync.RWMutex
	now    func() time.Time
	tasks  map[string]model.Task
	lists  map[string]model.List
	labels map[string]model.Label
	idemp  map[string]string
}

func NewMemory() *Memory {
	db := &memDB{
		now:    time.Now,
		tasks:  make(map[string]model.Task),
		lists:  make(map[string]model.List),
		labels: make(map[string]model.Label),
		idemp:  make(map[string]string),
	}
	return &Memory{
		Tasks:  &MemoryTaskRepo{db: db},
		Lists:  &MemoryListRepo{db: db},
		Labels: &MemoryLabelRepo{db: db},
	}
}

func page[T any](items []T, p, size int) []T {
	if size <= 0 {
		return items
	}
	start := (p - 1) * size
	if start < 0 {
		start = 0
	}
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

type MemoryTaskRepo struct {
	db *memDB
}

func (r *MemoryTaskRepo) Create(_ context.Context, t model.Task) (model.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.tasks[t.ID]; ok {
		return t, conflict("task", t.ID)
	}
	if _, ok := r.db.lists[t.ListID]; !ok {
		return t, notFound("list", t.ListID)
	}
	if err := r.db.checkLabels(t.OwnerID, t.Labels); err != nil {
		return t, err
	}
	now := r.db.now()
	t = t.Clone()
	t.Version = 1
	t.CreatedAt, t.UpdatedAt = now, now
	r.db.tasks[t.ID] = t
	return t.Clone(), nil
}

func (r *MemoryTaskRepo) Get(_ context.Context, id, ownerID string) (model.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tasks[id]
	if !ok {
		return model.Task{}, notFound("task", id)
	}
	if t.OwnerID != ownerID {
		return model.Task{}, forbidden("task", id)
	}
	return t.Clone(), nil
}

func (r *MemoryTaskRepo) List(_ context.Context, ownerID string, q model.TaskQuery) ([]model.Task, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	search := strings.ToLower(q.Search)
	var out []model.Task
	for _, t := range r.db.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if q.ListID != "" && t.ListID != q.ListID {
			continue
		}
		if q.LabelID != "" && !t.HasLabel(q.LabelID) {
			continue
		}
		if q.Status != nil && t.Status != *q.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Name), search) &&
			(t.Description == nil || !strings.Contains(strings.ToLower(*t.Description), search)) {
			continue
		}
		out = append(out, t.Clone())
	}
	slices.SortFunc(out, func(a, b model.Task) int {
		if c := strings.Compare(a.ListID, b.ListID); c != 0 {
			return c
		}
		if c := a.SortPosition() - b.SortPosition(); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return page(out, q.Page, q.PageSize), len(out), nil
}

func (r *MemoryTaskRepo) Update(_ context.Context, t model.Task) (model.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.tasks[t.ID]
	switch {
	case !ok:
		return t, notFound("task", t.ID)
	case cur.OwnerID != t.OwnerID:
		return t, forbidden("task", t.ID)
	case cur.Version != t.Version:
		return t, conflict("task", t.ID)
	}
	if _, ok := r.db.lists[t.ListID]; !ok {
		return t, notFound("list", t.ListID)
	}
	if err := r.db.checkLabels(t.OwnerID, t.Labels); err != nil {
		return t, err
	}
	t = t.Clone()
	t.CreatedAt = cur.CreatedAt
	t.Version = cur.Version + 1
	t.UpdatedAt = r.db.now()
	r.db.tasks[t.ID] = t
	return t.Clone(), nil
}

func (r *MemoryTaskRepo) Delete(_ context.Context, id, ownerID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tasks[id]
	if !ok {
		return notFound("task", id)
	}
	if t.OwnerID != ownerID {
		return forbidden("task", id)
	}
	delete(r.db.tasks, id)
	return nil
}

// checkLabels fails on the first label id the owner does not have; caller
// holds the lock.
func (db *memDB) checkLabels(ownerID string, labels []string) error {
	for _, id := range labels {
		if l, ok := db.labels[id]; !ok || l.OwnerID != ownerID {
			return unknownLabel(id)
		}
	}
	return nil
}

func (r *MemoryTaskRepo) SaveIdempotencyKey(_ context.Context, key, ownerID, resourceID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	k := ownerID + "\x00" + key
	if _, ok := r.db.idemp[k]; !ok {
		r.db.idemp[k] = resourceID
	}
	return nil
}

func (r *MemoryTaskRepo) GetIdempotencyKey(_ context.Context, key, ownerID string) (string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.idemp[ownerID+"\x00"+key]
	if !ok {
		return "", notFound("idempotency key", key)
	}
	return id, nil
}

func (r *MemoryTaskRepo) GetStats(_ context.Context, ownerID string, now time.Time) (Stats, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	stats := Stats{ByStatus: make(map[model.Status]int)}
	for _, t := range r.db.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		stats.ByStatus[t.Status]++
		stats.TotalTasks++
		if t.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats, nil
}

func (db *memDB) countLabel(labelID, ownerID string) int {
	n := 0
	for _, t := range db.tasks {
		if t.OwnerID == ownerID && t.HasLabel(labelID) {
			n++
		}
	}
	return n
}

type MemoryListRepo struct {
	db *memDB
}

// withCounts fills the derived counters; caller holds the lock.
func (r *MemoryListRepo) withCounts(l model.List) model.List {
	l = l.Clone()
	l.TaskCount, l.CompletedCount = 0, 0
	for _, t := range r.db.tasks {
		if t.ListID != l.ID {
			continue
		}
		l.TaskCount++
		if t.Status == model.StatusDone {
			l.CompletedCount++
		}
	}
	return l
}

func (r *MemoryListRepo) Create(_ context.Context, l model.List) (model.List, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.lists[l.ID]; ok {
		return l, conflict("list", l.ID)
	}
	now := r.db.now()
	l = l.Clone()
	l.Version = 1
	l.CreatedAt, l.UpdatedAt = now, now
	r.db.lists[l.ID] = l
	return r.withCounts(l), nil
}

func (r *MemoryListRepo) Get(_ context.Context, id, ownerID string) (model.List, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	l, ok := r.db.lists[id]
	if !ok {
		return model.List{}, notFound("list", id)
	}
	if l.OwnerID != ownerID {
		return model.List{}, forbidden("list", id)
	}
	return r.withCounts(l), nil
}

func (r *MemoryListRepo) List(_ context.Context, ownerID string, q model.ListQuery) ([]model.List, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []model.List
	for _, l := range r.db.lists {
		if l.OwnerID != ownerID {
			continue
		}
		if q.Favorite != nil && l.IsFavorite != *q.Favorite {
			continue
		}
		out = append(out, r.withCounts(l))
	}
	slices.SortFunc(out, func(a, b model.List) int {
		if c := a.Position - b.Position; c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return page(out, q.Page, q.PageSize), len(out), nil
}

func (r *MemoryListRepo) Update(_ context.Context, l model.List) (model.List, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.lists[l.ID]
	switch {
	case !ok:
		return l, notFound("list", l.ID)
	case cur.OwnerID != l.OwnerID:
		return l, forbidden("list", l.ID)
	case cur.Version != l.Version:
		return l, conflict("list", l.ID)
	}
	l = l.Clone()
	l.CreatedAt = cur.CreatedAt
	l.Version = cur.Version + 1
	l.UpdatedAt = r.db.now()
	l.TaskCount, l.CompletedCount = 0, 0
	r.db.lists[l.ID] = l
	return r.withCounts(l), nil
}

func (r *MemoryListRepo) Delete(_ context.Context, id, ownerID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	l, ok := r.db.lists[id]
	if !ok {
		return notFound("list", id)
	}
	if l.OwnerID != ownerID {
		return forbidden("list", id)
	}
	delete(r.db.lists, id)
	for tid, t := range r.db.tasks {
		if t.ListID == id {
			delete(r.db.tasks, tid)
		}
	}
	return nil
}

func (r *MemoryListRepo) NameTaken(_ context.Context, ownerID, name, excludeID string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, l := range r.db.lists {
		if l.OwnerID == ownerID && l.ID != excludeID && strings.EqualFold(l.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

type MemoryLabelRepo struct {
	db *memDB
}

func (r *MemoryLabelRepo) withCount(l model.Label) model.Label {
	l.TaskCount = r.db.countLabel(l.ID, l.OwnerID)
	return l
}

func (r *MemoryLabelRepo) Create(_ context.Context, l model.Label) (model.Label, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.labels[l.ID]; ok {
		return l, conflict("label", l.ID)
	}
	now := r.db.now()
	l.CreatedAt, l.UpdatedAt = now, now
	r.db.labels[l.ID] = l
	return r.withCount(l), nil
}

func (r *MemoryLabelRepo) Get(_ context.Context, id, ownerID string) (model.Label, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	l, ok := r.db.labels[id]
	if !ok {
		return model.Label{}, notFound("label", id)
	}
	if l.OwnerID != ownerID {
		return model.Label{}, forbidden("label", id)
	}
	return r.withCount(l), nil
}

func (r *MemoryLabelRepo) List(_ context.Context, ownerID string, q model.LabelQuery) ([]model.Label, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []model.Label
	for _, l := range r.db.labels {
		if l.OwnerID == ownerID {
			out = append(out, r.withCount(l))
		}
	}
	slices.SortFunc(out, func(a, b model.Label) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return page(out, q.Page, q.PageSize), len(out), nil
}

func (r *MemoryLabelRepo) Update(_ context.Context, l model.Label) (model.Label, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.labels[l.ID]
	if !ok {
		return l, notFound("label", l.ID)
	}
	if cur.OwnerID != l.OwnerID {
		return l, forbidden("label", l.ID)
	}
	l.CreatedAt = cur.CreatedAt
	l.UpdatedAt = r.db.now()
	r.db.labels[l.ID] = l
	return r.withCount(l), nil
}

func (r *MemoryLabelRepo) Delete(_ context.Context, id, ownerID string, force bool) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	l, ok := r.db.labels[id]
	if !ok {
		return 0, notFound("label", id)
	}
	if l.OwnerID != ownerID {
		return 0, forbidden("label", id)
	}

	used := r.db.countLabel(id, ownerID)
	if used > 0 && !force {
		return 0, labelInUse(used)
	}

	now := r.db.now()
	for tid, t := range r.db.tasks {
		if t.OwnerID != ownerID || !t.HasLabel(id) {
			continue
		}
		t.Labels = slices.DeleteFunc(slices.Clone(t.Labels), func(l string) bool { return l == id })
		t.Version++
		t.UpdatedAt = now
		r.db.tasks[tid] = t
	}
	delete(r.db.labels, id)
	return used, nil
}

func (r *MemoryLabelRepo) Conflicts(_ context.Context, ownerID, name, icon, color, excludeID string) (bool, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var nameTaken, styleTaken bool
	for _, l := range r.db.labels {
		if l.OwnerID != ownerID || l.ID == excludeID {
			continue
		}
		if strings.EqualFold(l.Name, name) {
			nameTaken = true
		}
		if l.Icon == icon && strings.EqualFold(l.Color, color) {
			styleTaken = true
		}
	}
	return nameTaken, styleTaken, nil
}
