package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) List(ctx context.Context, ownerID string, q model.TaskQuery) ([]model.Task, error) {
	args := m.Called(ctx, ownerID, q)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id, ownerID string) (model.Task, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, ownerID string, in model.TaskInput) (model.Task, error) {
	args := m.Called(ctx, ownerID, in)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, id string, patch model.TaskPatch, ownerID string) (model.Task, error) {
	args := m.Called(ctx, id, patch, ownerID)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

type MockListRepository struct {
	mock.Mock
}

func (m *MockListRepository) List(ctx context.Context, ownerID string, q model.ListQuery) ([]model.List, error) {
	args := m.Called(ctx, ownerID, q)
	return args.Get(0).([]model.List), args.Error(1)
}

func (m *MockListRepository) GetByID(ctx context.Context, id, ownerID string) (model.List, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Get(0).(model.List), args.Error(1)
}

func (m *MockListRepository) Create(ctx context.Context, ownerID string, in model.ListInput) (model.List, error) {
	args := m.Called(ctx, ownerID, in)
	return args.Get(0).(model.List), args.Error(1)
}

func (m *MockListRepository) Update(ctx context.Context, id string, patch model.ListPatch, ownerID string) (model.List, error) {
	args := m.Called(ctx, id, patch, ownerID)
	return args.Get(0).(model.List), args.Error(1)
}

func (m *MockListRepository) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

type MockLabelRepository struct {
	mock.Mock
}

func (m *MockLabelRepository) List(ctx context.Context, ownerID string, q model.LabelQuery) ([]model.Label, error) {
	args := m.Called(ctx, ownerID, q)
	return args.Get(0).([]model.Label), args.Error(1)
}

func (m *MockLabelRepository) GetByID(ctx context.Context, id, ownerID string) (model.Label, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Get(0).(model.Label), args.Error(1)
}

func (m *MockLabelRepository) Create(ctx context.Context, ownerID string, in model.LabelInput) (model.Label, error) {
	args := m.Called(ctx, ownerID, in)
	return args.Get(0).(model.Label), args.Error(1)
}

func (m *MockLabelRepository) Update(ctx context.Context, id string, patch model.LabelPatch, ownerID string) (model.Label, error) {
	args := m.Called(ctx, id, patch, ownerID)
	return args.Get(0).(model.Label), args.Error(1)
}

func (m *MockLabelRepository) Delete(ctx context.Context, id, ownerID string, force bool) error {
	args := m.Called(ctx, id, ownerID, force)
	return args.Error(0)
}
