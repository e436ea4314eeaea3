package store

import (
	"sync"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

const DefaultActiveView = "inbox"

// AppStore is the session state: who is signed in and how the shell looks.
type AppStore struct {
	mu          sync.RWMutex
	user        User
	theme       Theme
	sidebarOpen bool
	activeView  string
	search      string

	tasks *TaskStore
}

func NewAppStore(user User, tasks *TaskStore) (*AppStore, error) {
	if err := requireOwner(user.ID); err != nil {
		return nil, err
	}
	return &AppStore{
		user:        user,
		theme:       ThemeSystem,
		sidebarOpen: true,
		activeView:  DefaultActiveView,
		tasks:       tasks,
	}, nil
}

func (s *AppStore) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *AppStore) OwnerID() string { return s.User().ID }

func (s *AppStore) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

func (s *AppStore) SetTheme(t Theme) error {
	if !t.Valid() {
		return apperr.Newf(apperr.CodeValidation, "unknown theme %q", t)
	}
	s.mu.Lock()
	s.theme = t
	s.mu.Unlock()
	return nil
}

func (s *AppStore) SidebarOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sidebarOpen
}

// ToggleSidebar flips the sidebar and returns its new state.
func (s *AppStore) ToggleSidebar() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebarOpen = !s.sidebarOpen
	return s.sidebarOpen
}

func (s *AppStore) ActiveView() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeView
}

func (s *AppStore) SetActiveView(v string) {
	s.mu.Lock()
	s.activeView = v
	s.mu.Unlock()
}

func (s *AppStore) Search() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

// SetSearch stores the query and pushes it into the task filter.
func (s *AppStore) SetSearch(q string) {
	s.mu.Lock()
	s.search = q
	s.mu.Unlock()
	if s.tasks != nil {
		s.tasks.SetSearch(q)
	}
}
