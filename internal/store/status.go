package store

import (
	"strings"
	"sync"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
)

type LoadingKey string

const (
	LoadTasks    LoadingKey = "tasks"
	LoadCreating LoadingKey = "creating"
	LoadUpdating LoadingKey = "updating"
	LoadDeleting LoadingKey = "deleting"
	LoadBatch    LoadingKey = "batch"
)

// status holds the loading flags and the last error of a store.
type status struct {
	smu     sync.Mutex
	loading map[LoadingKey]int
	err     error
}

// begin raises the flag for k until the returned func is called. Flags are
// counters so overlapping operations of one kind keep it raised.
func (s *status) begin(k LoadingKey) func() {
	s.smu.Lock()
	if s.loading == nil {
		s.loading = make(map[LoadingKey]int)
	}
	s.loading[k]++
	s.smu.Unlock()

	return func() {
		s.smu.Lock()
		s.loading[k]--
		s.smu.Unlock()
	}
}

func (s *status) Loading(k LoadingKey) bool {
	s.smu.Lock()
	defer s.smu.Unlock()
	return s.loading[k] > 0
}

// record keeps err as the store's last error and returns it.
func (s *status) record(err error) error {
	if err == nil {
		return nil
	}
	s.smu.Lock()
	s.err = err
	s.smu.Unlock()
	return err
}

// Err is the error of the most recent failed operation.
func (s *status) Err() error {
	s.smu.Lock()
	defer s.smu.Unlock()
	return s.err
}

func (s *status) ClearError() {
	s.smu.Lock()
	s.err = nil
	s.smu.Unlock()
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return apperr.New(apperr.CodeUnauthorized, "owner id is required")
	}
	return nil
}
