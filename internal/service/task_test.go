package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
)

func inbox() model.List {
	return model.List{ID: "L1", OwnerID: "u1", Name: "Inbox", Color: "#fff"}
}

func TestTaskService_Create(t *testing.T) {
	tests := []struct {
		name      string
		input     model.TaskInput
		idempKey  string
		setupMock func(*MockTaskRepository, *MockListRepository)
		wantErr   error
	}{
		{
			name:  "successful creation without idempotency key",
			input: model.TaskInput{Name: "Buy milk", ListID: "L1"},
			setupMock: func(m *MockTaskRepository, l *MockListRepository) {
				l.On("Get", mock.Anything, "L1", "u1").Return(inbox(), nil)
				m.On("Create", mock.Anything, mock.MatchedBy(func(t model.Task) bool {
					return t.Name == "Buy milk" && t.Status == model.StatusTodo && t.OwnerID == "u1" && t.ID != ""
				})).Return(model.Task{ID: "T9", Name: "Buy milk", ListID: "L1", Status: model.StatusTodo}, nil)
			},
		},
		{
			name:      "validation error - empty name",
			input:     model.TaskInput{Name: "  ", ListID: "L1"},
			setupMock: func(m *MockTaskRepository, l *MockListRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "validation error - unknown priority",
			input:     model.TaskInput{Name: "x", ListID: "L1", Priority: "urgent"},
			setupMock: func(m *MockTaskRepository, l *MockListRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:  "validation error - list of another user",
			input: model.TaskInput{Name: "x", ListID: "L2"},
			setupMock: func(m *MockTaskRepository, l *MockListRepository) {
				l.On("Get", mock.Anything, "L2", "u1").Return(model.List{}, apperr.Forbidden("list L2 belongs to another user"))
			},
			wantErr: ErrValidation,
		},
		{
			name:     "idempotency - key exists",
			input:    model.TaskInput{Name: "Buy milk", ListID: "L1"},
			idempKey: "key-123",
			setupMock: func(m *MockTaskRepository, l *MockListRepository) {
				m.On("GetIdempotencyKey", mock.Anything, "key-123", "u1").Return("T42", nil)
				m.On("Get", mock.Anything, "T42", "u1").Return(model.Task{ID: "T42", Name: "Buy milk"}, nil)
			},
		},
		{
			name:     "idempotency - new key",
			input:    model.TaskInput{Name: "Buy milk", ListID: "L1"},
			idempKey: "key-456",
			setupMock: func(m *MockTaskRepository, l *MockListRepository) {
				m.On("GetIdempotencyKey", mock.Anything, "key-456", "u1").Return("", repo.ErrorNotFound)
				l.On("Get", mock.Anything, "L1", "u1").Return(inbox(), nil)
				m.On("Create", mock.Anything, mock.Anything).Return(model.Task{ID: "T1", Name: "Buy milk"}, nil)
				m.On("SaveIdempotencyKey", mock.Anything, "key-456", "u1", "T1").Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			mockLists := new(MockListRepository)
			tt.setupMock(mockRepo, mockLists)

			service := NewTaskService(mockRepo, mockLists)
			result, err := service.Create(context.Background(), "u1", tt.input, tt.idempKey)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, result.ID)
			}

			mockRepo.AssertExpectations(t)
			mockLists.AssertExpectations(t)
		})
	}
}

func TestTaskService_RequiresOwner(t *testing.T) {
	service := NewTaskService(new(MockTaskRepository), new(MockListRepository))

	_, err := service.Create(context.Background(), "", model.TaskInput{Name: "x", ListID: "L1"}, "")
	assert.ErrorIs(t, err, ErrNoOwner)

	_, _, err = service.List(context.Background(), " ", model.TaskQuery{})
	assert.ErrorIs(t, err, ErrNoOwner)

	assert.ErrorIs(t, service.Delete(context.Background(), "T1", ""), ErrNoOwner)
}

func TestTaskService_List(t *testing.T) {
	tests := []struct {
		name         string
		query        model.TaskQuery
		wantPage     int
		wantPageSize int
	}{
		{name: "defaults", query: model.TaskQuery{}, wantPage: 1, wantPageSize: 20},
		{name: "custom page size", query: model.TaskQuery{Page: 3, PageSize: 50}, wantPage: 3, wantPageSize: 50},
		{name: "page size too high", query: model.TaskQuery{Page: 1, PageSize: 200}, wantPage: 1, wantPageSize: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			mockRepo.On("List", mock.Anything, "u1", mock.MatchedBy(func(q model.TaskQuery) bool {
				return q.Page == tt.wantPage && q.PageSize == tt.wantPageSize
			})).Return([]model.Task{}, 0, nil)

			service := NewTaskService(mockRepo, new(MockListRepository))
			_, _, err := service.List(context.Background(), "u1", tt.query)

			require.NoError(t, err)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_Update(t *testing.T) {
	existing := model.Task{ID: "T1", OwnerID: "u1", ListID: "L1", Name: "Old", Status: model.StatusTodo, Priority: model.PriorityLow, Version: 3}

	t.Run("merges patch over stored task", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockLists := new(MockListRepository)
		mockRepo.On("Get", mock.Anything, "T1", "u1").Return(existing, nil)
		mockLists.On("Get", mock.Anything, "L1", "u1").Return(inbox(), nil)
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(t model.Task) bool {
			return t.Name == "Old" && t.Status == model.StatusDone && t.Priority == model.PriorityLow && t.Version == 3
		})).Return(model.Task{ID: "T1", Name: "Old", Status: model.StatusDone, Version: 4}, nil)

		service := NewTaskService(mockRepo, mockLists)
		result, err := service.Update(context.Background(), "T1", model.TaskPatch{Status: model.Ptr(model.StatusDone)}, "u1")

		require.NoError(t, err)
		assert.Equal(t, 4, result.Version)
		mockRepo.AssertExpectations(t)
	})

	t.Run("stale version", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, "T1", "u1").Return(existing, nil)

		service := NewTaskService(mockRepo, new(MockListRepository))
		_, err := service.Update(context.Background(), "T1", model.TaskPatch{Version: model.Ptr(2)}, "u1")

		assert.ErrorIs(t, err, repo.ErrorConflict)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, "T404", "u1").Return(model.Task{}, apperr.NotFound("task T404 not found"))

		service := NewTaskService(mockRepo, new(MockListRepository))
		_, err := service.Update(context.Background(), "T404", model.TaskPatch{Name: model.Ptr("x")}, "u1")

		assert.ErrorIs(t, err, repo.ErrorNotFound)
	})
}

func TestTaskService_GetStats(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	expectedStats := repo.Stats{
		ByStatus: map[model.Status]int{
			model.StatusTodo:       5,
			model.StatusInProgress: 2,
			model.StatusDone:       10,
		},
		Overdue:    1,
		TotalTasks: 17,
	}

	mockRepo.On("GetStats", mock.Anything, "u1", mock.Anything).Return(expectedStats, nil)

	service := NewTaskService(mockRepo, new(MockListRepository))
	stats, err := service.GetStats(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, expectedStats, stats)
	mockRepo.AssertExpectations(t)
}
