package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
	"github.com/BuzzLyutic/tasklist/internal/model"
)

const copySuffix = " (copy)"

// TaskStore owns the task cache of one user together with selection,
// filter and view state.
type TaskStore struct {
	status

	owner  string
	repo   TaskRepository
	cache  *Cache[model.Task]
	opt    *Optimistic[model.Task]
	batch  *Coordinator
	logger *zap.Logger
	now    func() time.Time

	mu        sync.RWMutex
	selected  map[string]struct{}
	currentID string
	filter    model.TaskFilter
	view      ViewConfig
}

func NewTaskStore(ownerID string, repo TaskRepository, batch *Coordinator, logger *zap.Logger) (*TaskStore, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if batch == nil {
		batch = NewCoordinator(nil, logger)
	}

	s := &TaskStore{
		owner:    ownerID,
		repo:     repo,
		cache:    NewCache[model.Task](),
		batch:    batch,
		logger:   logger,
		now:      time.Now,
		selected: make(map[string]struct{}),
		view:     DefaultView(),
	}
	s.opt = NewOptimistic("task", s.cache, logger)
	s.opt.OnRemove(s.forget)
	s.opt.OnReplace(s.rekey)
	return s, nil
}

// forget drops id from selection and current task.
func (s *TaskStore) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selected, id)
	if s.currentID == id {
		s.currentID = ""
	}
}

func (s *TaskStore) rekey(oldID, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selected[oldID]; ok {
		delete(s.selected, oldID)
		s.selected[newID] = struct{}{}
	}
	if s.currentID == oldID {
		s.currentID = newID
	}
}

func (s *TaskStore) OwnerID() string { return s.owner }

// Fetch replaces the cache with the server's tasks matching q.
func (s *TaskStore) Fetch(ctx context.Context, q model.TaskQuery) error {
	defer s.begin(LoadTasks)()

	tasks, err := s.repo.List(ctx, s.owner, q)
	if err != nil {
		return s.record(err)
	}
	s.cache.Reset(tasks)

	s.mu.Lock()
	for id := range s.selected {
		if !s.cache.Has(id) {
			delete(s.selected, id)
		}
	}
	if s.currentID != "" && !s.cache.Has(s.currentID) {
		s.currentID = ""
	}
	s.mu.Unlock()
	return nil
}

func (s *TaskStore) Get(id string) (model.Task, bool) { return s.cache.Get(id) }

// Tasks returns every cached task in cache order.
func (s *TaskStore) Tasks() []model.Task { return s.cache.Values() }

func (s *TaskStore) Pending(id string) (Pending[model.Task], bool) { return s.opt.Pending(id) }

func (s *TaskStore) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	defer s.begin(LoadCreating)()

	t, err := s.opt.Create(ctx,
		func(tempID string) model.Task { return model.NewTask(tempID, s.owner, in, s.now()) },
		func(ctx context.Context) (model.Task, error) { return s.repo.Create(ctx, s.owner, in) },
	)
	return t, s.record(err)
}

func (s *TaskStore) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	defer s.begin(LoadUpdating)()
	return s.update(ctx, id, patch)
}

func (s *TaskStore) update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	t, err := s.opt.Update(ctx, id,
		func(cur model.Task) model.Task {
			merged := patch.Apply(cur)
			merged.UpdatedAt = s.now()
			return merged
		},
		func(ctx context.Context) (model.Task, error) { return s.repo.Update(ctx, id, patch, s.owner) },
	)
	return t, s.record(err)
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	defer s.begin(LoadDeleting)()
	return s.delete(ctx, id)
}

func (s *TaskStore) delete(ctx context.Context, id string) error {
	err := s.opt.Delete(ctx, id, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id, s.owner)
	})
	return s.record(err)
}

// Duplicate creates a copy of a cached task. The copy starts as todo and
// does not inherit labels or sub-items.
func (s *TaskStore) Duplicate(ctx context.Context, id string) (model.Task, error) {
	src, ok := s.cache.Get(id)
	if !ok {
		return model.Task{}, s.record(apperr.Newf(apperr.CodePrecondition, "task %s not found", id))
	}

	return s.Create(ctx, model.TaskInput{
		Name:        src.Name + copySuffix,
		Description: src.Description,
		ListID:      src.ListID,
		Status:      model.StatusTodo,
		Priority:    src.Priority,
		Date:        src.Date,
		Deadline:    src.Deadline,
		Estimate:    src.Estimate,
	})
}

// ToggleComplete flips a task between done and todo.
func (s *TaskStore) ToggleComplete(ctx context.Context, id string) (model.Task, error) {
	cur, ok := s.cache.Get(id)
	if !ok {
		return model.Task{}, s.record(apperr.Newf(apperr.CodePrecondition, "task %s not found", id))
	}
	next := model.StatusDone
	if cur.Status == model.StatusDone {
		next = model.StatusTodo
	}
	return s.Update(ctx, id, model.TaskPatch{Status: &next})
}

// Move puts a task into another list, optionally at a position.
func (s *TaskStore) Move(ctx context.Context, id, listID string, position *int) (model.Task, error) {
	return s.Update(ctx, id, model.TaskPatch{ListID: &listID, Position: position})
}

func (s *TaskStore) BatchUpdate(ctx context.Context, ids []string, patch model.TaskPatch) BatchResult {
	defer s.begin(LoadBatch)()
	res := s.batch.Run(ctx, BatchUpdate, ids, func(ctx context.Context, id string) error {
		_, err := s.update(ctx, id, patch)
		return err
	})
	s.recordBatch(res)
	return res
}

func (s *TaskStore) BatchDelete(ctx context.Context, ids []string) BatchResult {
	defer s.begin(LoadBatch)()
	res := s.batch.Run(ctx, BatchDelete, ids, s.delete)
	s.recordBatch(res)
	return res
}

func (s *TaskStore) BatchMove(ctx context.Context, ids []string, listID string) BatchResult {
	defer s.begin(LoadBatch)()
	res := s.batch.Run(ctx, BatchMove, ids, func(ctx context.Context, id string) error {
		_, err := s.update(ctx, id, model.TaskPatch{ListID: &listID})
		return err
	})
	s.recordBatch(res)
	return res
}

// recordBatch keeps the last failure of a batch as the store error.
func (s *TaskStore) recordBatch(res BatchResult) {
	for i := len(res.Results) - 1; i >= 0; i-- {
		if !res.Results[i].Success {
			s.record(res.Results[i].Err)
			return
		}
	}
}

func (s *TaskStore) Batches() *Coordinator { return s.batch }

// Select adds a cached task to the selection. Unknown ids are ignored.
func (s *TaskStore) Select(id string) {
	if !s.cache.Has(id) {
		return
	}
	s.mu.Lock()
	s.selected[id] = struct{}{}
	s.mu.Unlock()
}

func (s *TaskStore) Deselect(id string) {
	s.mu.Lock()
	delete(s.selected, id)
	s.mu.Unlock()
}

func (s *TaskStore) SelectMultiple(ids []string) {
	for _, id := range ids {
		s.Select(id)
	}
}

func (s *TaskStore) ClearSelection() {
	s.mu.Lock()
	clear(s.selected)
	s.mu.Unlock()
}

// SelectAllVisible selects every task the current filter and view show.
func (s *TaskStore) SelectAllVisible() {
	visible := s.FilteredTasks()
	s.mu.Lock()
	for _, t := range visible {
		s.selected[t.ID] = struct{}{}
	}
	s.mu.Unlock()
}

func (s *TaskStore) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[id]
	return ok
}

// Selected returns the selected ids, sorted.
func (s *TaskStore) Selected() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (s *TaskStore) SetCurrent(id string) error {
	if !s.cache.Has(id) {
		return apperr.Newf(apperr.CodePrecondition, "task %s not found", id)
	}
	s.mu.Lock()
	s.currentID = id
	s.mu.Unlock()
	return nil
}

func (s *TaskStore) ClearCurrent() {
	s.mu.Lock()
	s.currentID = ""
	s.mu.Unlock()
}

func (s *TaskStore) Current() (model.Task, bool) {
	s.mu.RLock()
	id := s.currentID
	s.mu.RUnlock()
	if id == "" {
		return model.Task{}, false
	}
	return s.cache.Get(id)
}

func (s *TaskStore) Filter() model.TaskFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *TaskStore) SetFilter(f model.TaskFilter) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
}

func (s *TaskStore) ResetFilter() { s.SetFilter(model.TaskFilter{}) }

func (s *TaskStore) SetSearch(q string) {
	s.mu.Lock()
	s.filter.Search = q
	s.mu.Unlock()
}

func (s *TaskStore) View() ViewConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

func (s *TaskStore) SetView(v ViewConfig) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

func (s *TaskStore) snapshot() (model.TaskFilter, ViewConfig) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter, s.view
}

// FilteredTasks is the visible, sorted task sequence.
func (s *TaskStore) FilteredTasks() []model.Task {
	f, v := s.snapshot()
	return Select(s.cache.Values(), f, v, s.now())
}

// GroupedTasks is FilteredTasks partitioned by the view's group key.
func (s *TaskStore) GroupedTasks() []Group {
	f, v := s.snapshot()
	return SelectGroups(s.cache.Values(), f, v, s.now())
}

// TasksByList returns the cached tasks of one list in default order,
// ignoring filter and view.
func (s *TaskStore) TasksByList(listID string) []model.Task {
	out := Filter(s.cache.Values(), func(t model.Task) bool { return t.ListID == listID })
	SortTasks(out, SortDefault, false)
	return out
}

type TaskStats struct {
	Total      int                    `json:"total"`
	Completed  int                    `json:"completed"`
	Overdue    int                    `json:"overdue"`
	ByStatus   map[model.Status]int   `json:"byStatus"`
	ByPriority map[model.Priority]int `json:"byPriority"`
}

// Stats counts over the whole cache, unfiltered.
func (s *TaskStore) Stats() TaskStats {
	now := s.now()
	st := TaskStats{
		ByStatus:   map[model.Status]int{},
		ByPriority: map[model.Priority]int{},
	}
	for _, t := range s.cache.Values() {
		st.Total++
		st.ByStatus[t.Status]++
		st.ByPriority[t.Priority]++
		if t.Status == model.StatusDone {
			st.Completed++
		}
		if t.IsOverdue(now) {
			st.Overdue++
		}
	}
	return st
}

// EvictList drops every cached task of a deleted list.
func (s *TaskStore) EvictList(listID string) {
	for _, t := range s.cache.Values() {
		if t.ListID == listID {
			s.cache.Remove(t.ID)
			s.forget(t.ID)
		}
	}
}

// DetachLabel removes a deleted label from every cached task. The server
// has already done the same.
func (s *TaskStore) DetachLabel(labelID string) int {
	n := 0
	for _, t := range s.cache.Values() {
		if !t.HasLabel(labelID) {
			continue
		}
		t.Labels = slices.DeleteFunc(t.Labels, func(id string) bool { return id == labelID })
		s.cache.Put(t)
		n++
	}
	return n
}
