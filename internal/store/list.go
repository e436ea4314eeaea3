package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
	"github.com/BuzzLyutic/tasklist/internal/model"
)

// RecentLimit caps the favorites and recently accessed sequences.
const RecentLimit = 10

type ListStore struct {
	status

	owner  string
	repo   ListRepository
	cache  *Cache[model.List]
	opt    *Optimistic[model.List]
	batch  *Coordinator
	tasks  *TaskStore
	logger *zap.Logger
	now    func() time.Time

	mu        sync.RWMutex
	currentID string
	favorites []string
	recent    []string
}

// NewListStore builds a list store. tasks, if set, loses the tasks of every
// list deleted through this store.
func NewListStore(ownerID string, repo ListRepository, batch *Coordinator, tasks *TaskStore, logger *zap.Logger) (*ListStore, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if batch == nil {
		batch = NewCoordinator(nil, logger)
	}

	s := &ListStore{
		owner:  ownerID,
		repo:   repo,
		cache:  NewCache[model.List](),
		batch:  batch,
		tasks:  tasks,
		logger: logger,
		now:    time.Now,
	}
	s.opt = NewOptimistic("list", s.cache, logger)
	s.opt.OnRemove(s.forget)
	s.opt.OnReplace(s.rekey)
	return s, nil
}

func (s *ListStore) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites = without(s.favorites, id)
	s.recent = without(s.recent, id)
	if s.currentID == id {
		s.currentID = ""
	}
}

func (s *ListStore) rekey(oldID, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seq := range [][]string{s.favorites, s.recent} {
		if i := slices.Index(seq, oldID); i >= 0 {
			seq[i] = newID
		}
	}
	if s.currentID == oldID {
		s.currentID = newID
	}
}

func without(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(x string) bool { return x == id })
}

// moveToFront puts id first and truncates to RecentLimit.
func moveToFront(ids []string, id string) []string {
	ids = without(ids, id)
	ids = slices.Insert(ids, 0, id)
	if len(ids) > RecentLimit {
		ids = ids[:RecentLimit]
	}
	return ids
}

func (s *ListStore) Fetch(ctx context.Context) error {
	defer s.begin(LoadTasks)()

	lists, err := s.repo.List(ctx, s.owner, model.ListQuery{})
	if err != nil {
		return s.record(err)
	}
	s.cache.Reset(lists)

	sorted := s.Lists()
	s.mu.Lock()
	defer s.mu.Unlock()

	// порядок уже отмеченных избранных сохраняем, новые добавляем в конец
	var favs []string
	for _, id := range s.favorites {
		if l, ok := s.cache.Get(id); ok && l.IsFavorite {
			favs = append(favs, id)
		}
	}
	for _, l := range sorted {
		if l.IsFavorite && !slices.Contains(favs, l.ID) {
			favs = append(favs, l.ID)
		}
	}
	if len(favs) > RecentLimit {
		favs = favs[:RecentLimit]
	}
	s.favorites = favs
	s.recent = slices.DeleteFunc(s.recent, func(id string) bool { return !s.cache.Has(id) })
	if s.currentID != "" && !s.cache.Has(s.currentID) {
		s.currentID = ""
	}
	return nil
}

func (s *ListStore) Get(id string) (model.List, bool) { return s.cache.Get(id) }

// Lists returns the cached lists ordered by position, then name.
func (s *ListStore) Lists() []model.List {
	out := s.cache.Values()
	slices.SortStableFunc(out, func(a, b model.List) int {
		return cmp.Or(
			cmp.Compare(a.Position, b.Position),
			strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
		)
	})
	return out
}

func (s *ListStore) Create(ctx context.Context, in model.ListInput) (model.List, error) {
	defer s.begin(LoadCreating)()

	l, err := s.opt.Create(ctx,
		func(tempID string) model.List { return model.NewList(tempID, s.owner, in, s.now()) },
		func(ctx context.Context) (model.List, error) { return s.repo.Create(ctx, s.owner, in) },
	)
	if err == nil && l.IsFavorite {
		s.markFavorite(l.ID, true)
	}
	return l, s.record(err)
}

func (s *ListStore) Update(ctx context.Context, id string, patch model.ListPatch) (model.List, error) {
	defer s.begin(LoadUpdating)()
	return s.update(ctx, id, patch)
}

func (s *ListStore) update(ctx context.Context, id string, patch model.ListPatch) (model.List, error) {
	l, err := s.opt.Update(ctx, id,
		func(cur model.List) model.List {
			merged := patch.Apply(cur)
			merged.UpdatedAt = s.now()
			return merged
		},
		func(ctx context.Context) (model.List, error) { return s.repo.Update(ctx, id, patch, s.owner) },
	)
	if err == nil && patch.IsFavorite != nil {
		s.markFavorite(id, l.IsFavorite)
	}
	return l, s.record(err)
}

// Delete removes a list; the server drops its tasks and so does the
// task store once the call succeeds.
func (s *ListStore) Delete(ctx context.Context, id string) error {
	defer s.begin(LoadDeleting)()

	err := s.opt.Delete(ctx, id, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id, s.owner)
	})
	if err != nil {
		return s.record(err)
	}
	if s.tasks != nil {
		s.tasks.EvictList(id)
	}
	return nil
}

// Duplicate copies name, color and emoji of a cached list. Tasks are not
// copied.
func (s *ListStore) Duplicate(ctx context.Context, id string) (model.List, error) {
	src, ok := s.cache.Get(id)
	if !ok {
		return model.List{}, s.record(apperr.Newf(apperr.CodePrecondition, "list %s not found", id))
	}
	return s.Create(ctx, model.ListInput{
		Name:  src.Name + copySuffix,
		Color: src.Color,
		Emoji: src.Emoji,
	})
}

func (s *ListStore) ToggleFavorite(ctx context.Context, id string) (model.List, error) {
	cur, ok := s.cache.Get(id)
	if !ok {
		return model.List{}, s.record(apperr.Newf(apperr.CodePrecondition, "list %s not found", id))
	}
	fav := !cur.IsFavorite
	return s.Update(ctx, id, model.ListPatch{IsFavorite: &fav})
}

func (s *ListStore) markFavorite(id string, fav bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fav {
		s.favorites = moveToFront(s.favorites, id)
	} else {
		s.favorites = without(s.favorites, id)
	}
}

// Reorder assigns positions 0..n-1 in the order of ids; repeated ids keep
// their first position. Lists already at their position are not sent.
func (s *ListStore) Reorder(ctx context.Context, ids []string) BatchResult {
	defer s.begin(LoadBatch)()

	order := make(map[string]int, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := order[id]; !ok {
			order[id] = len(unique)
			unique = append(unique, id)
		}
	}

	res := s.batch.Run(ctx, BatchUpdate, unique, func(ctx context.Context, id string) error {
		pos := order[id]
		if cur, ok := s.cache.Get(id); ok && cur.Position == pos {
			return nil
		}
		_, err := s.update(ctx, id, model.ListPatch{Position: &pos})
		return err
	})
	for _, r := range res.Results {
		if !r.Success {
			s.record(r.Err)
		}
	}
	return res
}

// SetCurrent focuses a list and records the access.
func (s *ListStore) SetCurrent(id string) error {
	if !s.cache.Has(id) {
		return apperr.Newf(apperr.CodePrecondition, "list %s not found", id)
	}
	s.mu.Lock()
	s.currentID = id
	s.recent = moveToFront(s.recent, id)
	s.mu.Unlock()
	return nil
}

func (s *ListStore) Current() (model.List, bool) {
	s.mu.RLock()
	id := s.currentID
	s.mu.RUnlock()
	if id == "" {
		return model.List{}, false
	}
	return s.cache.Get(id)
}

func (s *ListStore) ClearCurrent() {
	s.mu.Lock()
	s.currentID = ""
	s.mu.Unlock()
}

func (s *ListStore) resolve(ids []string) []model.List {
	out := make([]model.List, 0, len(ids))
	for _, id := range ids {
		if l, ok := s.cache.Get(id); ok {
			out = append(out, l)
		}
	}
	return out
}

// Favorites returns favorite lists, most recently favorited first.
func (s *ListStore) Favorites() []model.List {
	s.mu.RLock()
	ids := slices.Clone(s.favorites)
	s.mu.RUnlock()
	return s.resolve(ids)
}

// Recent returns the recently focused lists, most recent first.
func (s *ListStore) Recent() []model.List {
	s.mu.RLock()
	ids := slices.Clone(s.recent)
	s.mu.RUnlock()
	return s.resolve(ids)
}
