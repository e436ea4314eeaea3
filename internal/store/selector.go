package store

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
	"github.com/BuzzLyutic/tasklist/internal/model"
)

// Predicate reports whether a task belongs to a view.
type Predicate func(model.Task) bool

// Predicates turns filter state into a list of predicates, one per set
// field. A task passes the filter when it passes all of them.
func Predicates(f model.TaskFilter, showCompleted bool, now time.Time) []Predicate {
	var ps []Predicate

	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		ps = append(ps, func(t model.Task) bool {
			if strings.Contains(strings.ToLower(t.Name), q) {
				return true
			}
			return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), q)
		})
	}
	if len(f.Statuses) > 0 {
		ps = append(ps, func(t model.Task) bool { return slices.Contains(f.Statuses, t.Status) })
	}
	if len(f.Priorities) > 0 {
		ps = append(ps, func(t model.Task) bool { return slices.Contains(f.Priorities, t.Priority) })
	}
	if len(f.ListIDs) > 0 {
		ps = append(ps, func(t model.Task) bool { return slices.Contains(f.ListIDs, t.ListID) })
	}
	if len(f.LabelIDs) > 0 {
		// any of the given labels
		ps = append(ps, func(t model.Task) bool {
			return slices.ContainsFunc(f.LabelIDs, t.HasLabel)
		})
	}
	if f.HasDeadline {
		ps = append(ps, func(t model.Task) bool { return t.Deadline != nil })
	}
	if f.Overdue {
		ps = append(ps, func(t model.Task) bool { return t.IsOverdue(now) })
	}
	if f.DateFrom != nil || f.DateTo != nil {
		from, to := f.DateFrom, f.DateTo
		ps = append(ps, func(t model.Task) bool {
			d := t.EffectiveDate()
			if d == nil {
				return false
			}
			if from != nil && d.Before(*from) {
				return false
			}
			if to != nil && d.After(*to) {
				return false
			}
			return true
		})
	}
	if !showCompleted {
		ps = append(ps, func(t model.Task) bool { return !t.Status.Terminal() })
	}
	return ps
}

// Filter keeps the tasks accepted by every predicate, preserving order.
func Filter(tasks []model.Task, ps ...Predicate) []model.Task {
	out := make([]model.Task, 0, len(tasks))
next:
	for _, t := range tasks {
		for _, p := range ps {
			if !p(t) {
				continue next
			}
		}
		out = append(out, t)
	}
	return out
}

// GroupKey is the closed set of attributes tasks can be grouped by.
type GroupKey string

const (
	GroupNone     GroupKey = ""
	GroupStatus   GroupKey = "status"
	GroupPriority GroupKey = "priority"
	GroupList     GroupKey = "listId"
	GroupDate     GroupKey = "date"
	GroupDeadline GroupKey = "deadline"
)

// NoneBucket collects tasks lacking the grouping attribute. It is always last.
const NoneBucket = "none"

// AllBucket is the single bucket produced when grouping is off.
const AllBucket = "all"

type grouping struct {
	// extract returns the bucket key, ok=false puts the task in NoneBucket.
	extract func(model.Task) (string, bool)
	// bucketCmp orders bucket keys (NoneBucket excluded).
	bucketCmp func(a, b string) int
	// rank is the secondary order inside a bucket.
	rank func(model.Task) int
}

const dayLayout = "2006-01-02"

var groupings = map[GroupKey]grouping{
	GroupStatus: {
		extract:   func(t model.Task) (string, bool) { return string(t.Status), t.Status != "" },
		bucketCmp: func(a, b string) int { return cmp.Compare(model.Status(a).Rank(), model.Status(b).Rank()) },
		rank:      func(t model.Task) int { return t.Status.Rank() },
	},
	GroupPriority: {
		extract: func(t model.Task) (string, bool) {
			return string(t.Priority), t.Priority != "" && t.Priority != model.PriorityNone
		},
		bucketCmp: func(a, b string) int { return cmp.Compare(model.Priority(a).Rank(), model.Priority(b).Rank()) },
		rank:      func(t model.Task) int { return t.Priority.Rank() },
	},
	GroupList: {
		extract:   func(t model.Task) (string, bool) { return t.ListID, t.ListID != "" },
		bucketCmp: strings.Compare,
	},
	GroupDate: {
		extract:   dayOf(func(t model.Task) *time.Time { return t.Date }),
		bucketCmp: strings.Compare,
	},
	GroupDeadline: {
		extract:   dayOf(func(t model.Task) *time.Time { return t.Deadline }),
		bucketCmp: strings.Compare,
	},
}

func dayOf(field func(model.Task) *time.Time) func(model.Task) (string, bool) {
	return func(t model.Task) (string, bool) {
		d := field(t)
		if d == nil {
			return "", false
		}
		return d.UTC().Format(dayLayout), true
	}
}

// ParseGroupKey validates a group-by name. The empty string means no grouping.
func ParseGroupKey(s string) (GroupKey, error) {
	k := GroupKey(s)
	if k == GroupNone {
		return k, nil
	}
	if _, ok := groupings[k]; !ok {
		return GroupNone, apperr.Newf(apperr.CodeValidation, "cannot group by %q", s)
	}
	return k, nil
}

type Group struct {
	Key   string       `json:"key"`
	Tasks []model.Task `json:"tasks"`
}

// GroupTasks partitions tasks into buckets. Every input task lands in
// exactly one bucket.
func GroupTasks(tasks []model.Task, key GroupKey) []Group {
	g, ok := groupings[key]
	if !ok {
		return []Group{{Key: AllBucket, Tasks: slices.Clone(tasks)}}
	}

	buckets := map[string][]model.Task{}
	var keys []string
	var none []model.Task
	for _, t := range tasks {
		k, ok := g.extract(t)
		if !ok {
			none = append(none, t)
			continue
		}
		if _, seen := buckets[k]; !seen {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], t)
	}

	slices.SortFunc(keys, g.bucketCmp)

	inBucket := func(a, b model.Task) int {
		if g.rank != nil {
			if c := cmp.Compare(g.rank(a), g.rank(b)); c != 0 {
				return c
			}
		}
		return byName(a, b)
	}

	out := make([]Group, 0, len(keys)+1)
	for _, k := range keys {
		items := buckets[k]
		slices.SortStableFunc(items, inBucket)
		out = append(out, Group{Key: k, Tasks: items})
	}
	if len(none) > 0 {
		slices.SortStableFunc(none, inBucket)
		out = append(out, Group{Key: NoneBucket, Tasks: none})
	}
	return out
}

// SortKey is the closed set of explicit sort orders.
type SortKey string

const (
	SortDefault   SortKey = ""
	SortName      SortKey = "name"
	SortPriority  SortKey = "priority"
	SortDeadline  SortKey = "deadline"
	SortCreatedAt SortKey = "createdAt"
)

var sorters = map[SortKey]func(a, b model.Task) int{
	SortDefault:  defaultOrder,
	SortName:     byName,
	SortPriority: func(a, b model.Task) int { return cmp.Or(cmp.Compare(a.Priority.Rank(), b.Priority.Rank()), byName(a, b)) },
	SortDeadline: func(a, b model.Task) int {
		// без дедлайна всегда в конце
		switch {
		case a.Deadline == nil && b.Deadline == nil:
			return byName(a, b)
		case a.Deadline == nil:
			return 1
		case b.Deadline == nil:
			return -1
		}
		return cmp.Or(a.Deadline.Compare(*b.Deadline), byName(a, b))
	},
	SortCreatedAt: func(a, b model.Task) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
	},
}

func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(s)
	if _, ok := sorters[k]; !ok {
		return SortDefault, apperr.Newf(apperr.CodeValidation, "cannot sort by %q", s)
	}
	return k, nil
}

// defaultOrder: list id, position (missing = 0), newest first, id.
func defaultOrder(a, b model.Task) int {
	return cmp.Or(
		strings.Compare(a.ListID, b.ListID),
		cmp.Compare(a.SortPosition(), b.SortPosition()),
		b.CreatedAt.Compare(a.CreatedAt),
		strings.Compare(a.ID, b.ID),
	)
}

func byName(a, b model.Task) int {
	return cmp.Or(
		strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
		strings.Compare(a.ID, b.ID),
	)
}

// SortTasks sorts in place by key; desc reverses the order.
func SortTasks(tasks []model.Task, key SortKey, desc bool) {
	less, ok := sorters[key]
	if !ok {
		less = defaultOrder
	}
	if desc {
		slices.SortStableFunc(tasks, func(a, b model.Task) int { return less(b, a) })
		return
	}
	slices.SortStableFunc(tasks, less)
}

// ViewConfig is the presentation state applied on top of the filter.
type ViewConfig struct {
	ShowCompleted bool     `json:"showCompleted"`
	GroupBy       GroupKey `json:"groupBy,omitempty"`
	SortBy        SortKey  `json:"sortBy,omitempty"`
	SortDesc      bool     `json:"sortDesc,omitempty"`
}

func DefaultView() ViewConfig {
	return ViewConfig{ShowCompleted: true}
}

// Select filters and sorts tasks for a view.
func Select(tasks []model.Task, f model.TaskFilter, v ViewConfig, now time.Time) []model.Task {
	out := Filter(tasks, Predicates(f, v.ShowCompleted, now)...)
	SortTasks(out, v.SortBy, v.SortDesc)
	return out
}

// SelectGroups filters, sorts and groups tasks for a view.
func SelectGroups(tasks []model.Task, f model.TaskFilter, v ViewConfig, now time.Time) []Group {
	return GroupTasks(Select(tasks, f, v, now), v.GroupBy)
}
