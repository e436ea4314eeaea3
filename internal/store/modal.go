package store

import (
	"slices"
	"sync"
)

type Modal struct {
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// ModalStore is a stack of open modals; the last opened one is on top.
type ModalStore struct {
	mu    sync.Mutex
	stack []Modal
}

func NewModalStore() *ModalStore { return &ModalStore{} }

func (s *ModalStore) Open(name string, payload any) {
	s.mu.Lock()
	s.stack = append(s.stack, Modal{Name: name, Payload: payload})
	s.mu.Unlock()
}

// Close pops the top modal.
func (s *ModalStore) Close() (Modal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) == 0 {
		return Modal{}, false
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return top, true
}

func (s *ModalStore) CloseAll() {
	s.mu.Lock()
	s.stack = nil
	s.mu.Unlock()
}

func (s *ModalStore) Top() (Modal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) == 0 {
		return Modal{}, false
	}
	return s.stack[len(s.stack)-1], true
}

func (s *ModalStore) IsOpen(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.ContainsFunc(s.stack, func(m Modal) bool { return m.Name == name })
}

func (s *ModalStore) Stack() []Modal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.stack)
}
