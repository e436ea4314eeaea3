package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
)

// MockTaskRepository - мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, t model.Task) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Get(ctx context.Context, id, ownerID string) (model.Task, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, ownerID string, q model.TaskQuery) ([]model.Task, int, error) {
	args := m.Called(ctx, ownerID, q)
	return args.Get(0).([]model.Task), args.Int(1), args.Error(2)
}

func (m *MockTaskRepository) Update(ctx context.Context, t model.Task) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockTaskRepository) SaveIdempotencyKey(ctx context.Context, key, ownerID, resourceID string) error {
	args := m.Called(ctx, key, ownerID, resourceID)
	return args.Error(0)
}

func (m *MockTaskRepository) GetIdempotencyKey(ctx context.Context, key, ownerID string) (string, error) {
	args := m.Called(ctx, key, ownerID)
	return args.String(0), args.Error(1)
}

func (m *MockTaskRepository) GetStats(ctx context.Context, ownerID string, now time.Time) (repo.Stats, error) {
	args := m.Called(ctx, ownerID, now)
	return args.Get(0).(repo.Stats), args.Error(1)
}

type MockListRepository struct {
	mock.Mock
}

func (m *MockListRepository) Create(ctx context.Context, l model.List) (model.List, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(model.List), args.Error(1)
}

func (m *MockListRepository) Get(ctx context.Context, id, ownerID string) (model.List, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Get(0).(model.List), args.Error(1)
}

func (m *MockListRepository) List(ctx context.Context, ownerID string, q model.ListQuery) ([]model.List, int, error) {
	args := m.Called(ctx, ownerID, q)
	return args.Get(0).([]model.List), args.Int(1), args.Error(2)
}

func (m *MockListRepository) Update(ctx context.Context, l model.List) (model.List, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(model.List), args.Error(1)
}

func (m *MockListRepository) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockListRepository) NameTaken(ctx context.Context, ownerID, name, excludeID string) (bool, error) {
	args := m.Called(ctx, ownerID, name, excludeID)
	return args.Bool(0), args.Error(1)
}

type MockLabelRepository struct {
	mock.Mock
}

func (m *MockLabelRepository) Create(ctx context.Context, l model.Label) (model.Label, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(model.Label), args.Error(1)
}

func (m *MockLabelRepository) Get(ctx context.Context, id, ownerID string) (model.Label, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Get(0).(model.Label), args.Error(1)
}

func (m *MockLabelRepository) List(ctx context.Context, ownerID string, q model.LabelQuery) ([]model.Label, int, error) {
	args := m.Called(ctx, ownerID, q)
	return args.Get(0).([]model.Label), args.Int(1), args.Error(2)
}

func (m *MockLabelRepository) Update(ctx context.Context, l model.Label) (model.Label, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(model.Label), args.Error(1)
}

func (m *MockLabelRepository) Delete(ctx context.Context, id, ownerID string, force bool) (int, error) {
	args := m.Called(ctx, id, ownerID, force)
	return args.Int(0), args.Error(1)
}

func (m *MockLabelRepository) Conflicts(ctx context.Context, ownerID, name, icon, color, excludeID string) (bool, bool, error) {
	args := m.Called(ctx, ownerID, name, icon, color, excludeID)
	return args.Bool(0), args.Bool(1), args.Error(2)
}
