package model

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
	StatusArchived   Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusArchived:
		return true
	}
	return false
}

// Terminal statuses only affect display filtering, transitions are free.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusArchived
}

// Rank orders statuses for grouping: todo first, archived last.
func (s Status) Rank() int {
	switch s {
	case StatusTodo:
		return 0
	case StatusInProgress:
		return 1
	case StatusDone:
		return 2
	case StatusArchived:
		return 3
	}
	return 4
}

type Priority string

const (
	PriorityNone   Priority = "none"
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank: high < medium < low < none.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

type Subtask struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type Reminder struct {
	ID       string    `json:"id"`
	RemindAt time.Time `json:"remindAt"`
	Method   string    `json:"method,omitempty"`
}

type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size"`
}

type Task struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	ListID      string       `json:"listId"`
	OwnerID     string       `json:"ownerId"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority"`
	Date        *time.Time   `json:"date,omitempty"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	Estimate    *int         `json:"estimate,omitempty"` // minutes
	Labels      []string     `json:"labels"`
	Subtasks    []Subtask    `json:"subtasks"`
	Reminders   []Reminder   `json:"reminders"`
	Attachments []Attachment `json:"attachments"`
	Position    *int         `json:"position,omitempty"`
	Version     int          `json:"version"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (t Task) Key() string { return t.ID }

// Clone returns a deep copy; cached snapshots must not share slices or
// pointers with values handed to callers.
func (t Task) Clone() Task {
	c := t
	c.Description = clonePtr(t.Description)
	c.Date = clonePtr(t.Date)
	c.Deadline = clonePtr(t.Deadline)
	c.Estimate = clonePtr(t.Estimate)
	c.Position = clonePtr(t.Position)
	c.Labels = slices.Clone(t.Labels)
	c.Subtasks = slices.Clone(t.Subtasks)
	c.Reminders = slices.Clone(t.Reminders)
	c.Attachments = slices.Clone(t.Attachments)
	return c
}

// EffectiveDate is the scheduled date if present, else the deadline.
func (t Task) EffectiveDate() *time.Time {
	if t.Date != nil {
		return t.Date
	}
	return t.Deadline
}

func (t Task) IsOverdue(now time.Time) bool {
	if t.Deadline == nil || t.Status.Terminal() {
		return false
	}
	return t.Deadline.Before(now)
}

func (t Task) HasLabel(id string) bool {
	return slices.Contains(t.Labels, id)
}

func (t Task) SortPosition() int {
	if t.Position == nil {
		return 0
	}
	return *t.Position
}

type TaskInput struct {
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	ListID      string       `json:"listId"`
	Status      Status       `json:"status,omitempty"`
	Priority    Priority     `json:"priority,omitempty"`
	Date        *time.Time   `json:"date,omitempty"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	Estimate    *int         `json:"estimate,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	Subtasks    []Subtask    `json:"subtasks,omitempty"`
	Reminders   []Reminder   `json:"reminders,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Position    *int         `json:"position,omitempty"`
}

// NewTask builds a task from input, filling the defaults the server would.
func NewTask(id, ownerID string, in TaskInput, now time.Time) Task {
	t := Task{
		ID:          id,
		Name:        in.Name,
		Description: clonePtr(in.Description),
		ListID:      in.ListID,
		OwnerID:     ownerID,
		Status:      in.Status,
		Priority:    in.Priority,
		Date:        clonePtr(in.Date),
		Deadline:    clonePtr(in.Deadline),
		Estimate:    clonePtr(in.Estimate),
		Labels:      nonNil(in.Labels),
		Subtasks:    nonNil(in.Subtasks),
		Reminders:   nonNil(in.Reminders),
		Attachments: nonNil(in.Attachments),
		Position:    clonePtr(in.Position),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityNone
	}
	return t
}

// TaskPatch is a partial update; nil fields are left untouched. Optional
// fields are emptied through the Clear flags, which an explicit JSON null
// also sets.
type TaskPatch struct {
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
	ListID      *string       `json:"listId,omitempty"`
	Status      *Status       `json:"status,omitempty"`
	Priority    *Priority     `json:"priority,omitempty"`
	Date        *time.Time    `json:"date,omitempty"`
	Deadline    *time.Time    `json:"deadline,omitempty"`
	Estimate    *int          `json:"estimate,omitempty"`
	Labels      *[]string     `json:"labels,omitempty"`
	Subtasks    *[]Subtask    `json:"subtasks,omitempty"`
	Reminders   *[]Reminder   `json:"reminders,omitempty"`
	Attachments *[]Attachment `json:"attachments,omitempty"`
	Position    *int          `json:"position,omitempty"`
	// Version, when set, must match the stored version.
	Version *int `json:"version,omitempty"`

	ClearDescription bool `json:"clearDescription,omitempty"`
	ClearDate        bool `json:"clearDate,omitempty"`
	ClearDeadline    bool `json:"clearDeadline,omitempty"`
	ClearEstimate    bool `json:"clearEstimate,omitempty"`
	ClearPosition    bool `json:"clearPosition,omitempty"`
}

func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	type plain TaskPatch
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	nulls, err := nullKeys(data)
	if err != nil {
		return err
	}
	p.ClearDescription = p.ClearDescription || nulls["description"]
	p.ClearDate = p.ClearDate || nulls["date"]
	p.ClearDeadline = p.ClearDeadline || nulls["deadline"]
	p.ClearEstimate = p.ClearEstimate || nulls["estimate"]
	p.ClearPosition = p.ClearPosition || nulls["position"]
	return nil
}

// nullKeys returns the top-level keys of a JSON object that are set to null.
func nullKeys(data []byte) (map[string]bool, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]bool)
	for k, v := range raw {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			out[k] = true
		}
	}
	return out, nil
}

func (p TaskPatch) Empty() bool {
	return p == TaskPatch{}
}

// Apply returns t with every provided field overwritten. Timestamps and
// version are left to the caller.
func (p TaskPatch) Apply(t Task) Task {
	t = t.Clone()
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = clonePtr(p.Description)
	}
	if p.ListID != nil {
		t.ListID = *p.ListID
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Date != nil {
		t.Date = clonePtr(p.Date)
	}
	if p.Deadline != nil {
		t.Deadline = clonePtr(p.Deadline)
	}
	if p.Estimate != nil {
		t.Estimate = clonePtr(p.Estimate)
	}
	if p.Labels != nil {
		t.Labels = nonNil(slices.Clone(*p.Labels))
	}
	if p.Subtasks != nil {
		t.Subtasks = nonNil(slices.Clone(*p.Subtasks))
	}
	if p.Reminders != nil {
		t.Reminders = nonNil(slices.Clone(*p.Reminders))
	}
	if p.Attachments != nil {
		t.Attachments = nonNil(slices.Clone(*p.Attachments))
	}
	if p.Position != nil {
		t.Position = clonePtr(p.Position)
	}

	if p.ClearDescription {
		t.Description = nil
	}
	if p.ClearDate {
		t.Date = nil
	}
	if p.ClearDeadline {
		t.Deadline = nil
	}
	if p.ClearEstimate {
		t.Estimate = nil
	}
	if p.ClearPosition {
		t.Position = nil
	}
	return t
}

// TaskQuery is what the API accepts when listing tasks.
type TaskQuery struct {
	ListID   string
	LabelID  string
	Status   *Status
	Search   string
	Page     int
	PageSize int
}

// TaskFilter is the client-side filter state applied by the selectors.
// Unset fields do not constrain.
type TaskFilter struct {
	Search      string     `json:"search,omitempty"`
	Statuses    []Status   `json:"statuses,omitempty"`
	Priorities  []Priority `json:"priorities,omitempty"`
	ListIDs     []string   `json:"listIds,omitempty"`
	LabelIDs    []string   `json:"labelIds,omitempty"`
	HasDeadline bool       `json:"hasDeadline,omitempty"`
	Overdue     bool       `json:"overdue,omitempty"`
	DateFrom    *time.Time `json:"dateFrom,omitempty"`
	DateTo      *time.Time `json:"dateTo,omitempty"`
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func Ptr[T any](v T) *T { return &v }
