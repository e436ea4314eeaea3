package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultNotificationDelay = 5 * time.Second

type NotificationKind string

const (
	NotifyInfo    NotificationKind = "info"
	NotifySuccess NotificationKind = "success"
	NotifyWarning NotificationKind = "warning"
	NotifyError   NotificationKind = "error"
)

type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NotificationStore keeps transient messages. Each one is dismissed
// automatically after its delay; timers touch nothing but this store.
type NotificationStore struct {
	delay time.Duration
	now   func() time.Time

	mu     sync.Mutex
	items  []Notification
	timers map[string]*time.Timer
}

// NewNotificationStore uses DefaultNotificationDelay when delay is zero. A
// negative delay turns auto-dismissal off.
func NewNotificationStore(delay time.Duration) *NotificationStore {
	if delay == 0 {
		delay = DefaultNotificationDelay
	}
	return &NotificationStore{
		delay:  delay,
		now:    time.Now,
		timers: make(map[string]*time.Timer),
	}
}

func (s *NotificationStore) Notify(kind NotificationKind, title, message string) string {
	return s.NotifyFor(kind, title, message, s.delay)
}

// NotifyFor adds a notification dismissed after d; d <= 0 keeps it until
// dismissed by hand.
func (s *NotificationStore) NotifyFor(kind NotificationKind, title, message string, d time.Duration) string {
	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, n)
	if d > 0 {
		s.timers[n.ID] = time.AfterFunc(d, func() { s.Dismiss(n.ID) })
	}
	return n.ID
}

// Error is a shortcut for an error notification carrying err's text.
func (s *NotificationStore) Error(title string, err error) string {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return s.Notify(NotifyError, title, msg)
}

func (s *NotificationStore) Dismiss(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

func (s *NotificationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.items = nil
}

// List returns the live notifications, oldest first.
func (s *NotificationStore) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}
