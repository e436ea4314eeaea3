package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
	"github.com/BuzzLyutic/tasklist/internal/handler"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
	"github.com/BuzzLyutic/tasklist/internal/service"
)

func setupServer(t *testing.T) *Client {
	t.Helper()
	mem := repo.NewMemory()
	srv := httptest.NewServer(handler.NewRouter(handler.Services{
		Tasks:  service.NewTaskService(mem.Tasks, mem.Lists),
		Lists:  service.NewListService(mem.Lists),
		Labels: service.NewLabelService(mem.Labels),
	}, zap.NewNop()))
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client())
}

func TestTaskClient_RoundTrip(t *testing.T) {
	c := setupServer(t)
	ctx := context.Background()

	list, err := c.Lists().Create(ctx, "u1", model.ListInput{Name: "Inbox"})
	require.NoError(t, err)

	task, err := c.Tasks().Create(ctx, "u1", model.TaskInput{Name: "Buy milk", ListID: list.ID})
	require.NoError(t, err)
	assert.Equal(t, model.StatusTodo, task.Status)

	got, err := c.Tasks().GetByID(ctx, task.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	updated, err := c.Tasks().Update(ctx, task.ID, model.TaskPatch{Status: model.Ptr(model.StatusDone)}, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, updated.Status)
	assert.Equal(t, task.Version+1, updated.Version)

	require.NoError(t, c.Tasks().Delete(ctx, task.ID, "u1"))

	_, err = c.Tasks().GetByID(ctx, task.ID, "u1")
	assert.ErrorIs(t, err, apperr.NotFound(""))
}

func TestClient_ErrorMapping(t *testing.T) {
	c := setupServer(t)
	ctx := context.Background()

	list, err := c.Lists().Create(ctx, "u1", model.ListInput{Name: "Inbox"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		call     func() error
		wantCode apperr.Code
		wantHTTP int
	}{
		{
			name: "validation",
			call: func() error {
				_, err := c.Lists().Create(ctx, "u1", model.ListInput{Name: "inbox"})
				return err
			},
			wantCode: apperr.CodeValidation,
			wantHTTP: http.StatusBadRequest,
		},
		{
			name: "forbidden",
			call: func() error {
				_, err := c.Lists().GetByID(ctx, list.ID, "u2")
				return err
			},
			wantCode: apperr.CodeForbidden,
			wantHTTP: http.StatusForbidden,
		},
		{
			name: "not found",
			call: func() error {
				return c.Labels().Delete(ctx, "missing", "u1", false)
			},
			wantCode: apperr.CodeNotFound,
			wantHTTP: http.StatusNotFound,
		},
		{
			name: "missing owner is rejected locally",
			call: func() error {
				_, err := c.Tasks().List(ctx, " ", model.TaskQuery{})
				return err
			},
			wantCode: apperr.CodeUnauthorized,
			wantHTTP: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)

			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantHTTP, appErr.StatusCode)
		})
	}
}

func TestClient_ErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Tasks().GetByID(context.Background(), "T1", "u1")

	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
}

func TestTaskClient_ListFetchesAllPages(t *testing.T) {
	c := setupServer(t)
	ctx := context.Background()

	list, err := c.Lists().Create(ctx, "u1", model.ListInput{Name: "Bulk"})
	require.NoError(t, err)

	const n = fetchPageSize + 5
	for i := 0; i < n; i++ {
		_, err := c.Tasks().Create(ctx, "u1", model.TaskInput{Name: fmt.Sprintf("task %03d", i), ListID: list.ID})
		require.NoError(t, err)
	}

	tasks, err := c.Tasks().List(ctx, "u1", model.TaskQuery{ListID: list.ID})
	require.NoError(t, err)
	assert.Len(t, tasks, n)

	seen := map[string]bool{}
	for _, task := range tasks {
		assert.False(t, seen[task.ID], "task %s returned twice", task.ID)
		seen[task.ID] = true
	}
}

func TestTaskClient_CreateIdempotent(t *testing.T) {
	c := setupServer(t)
	ctx := context.Background()

	list, err := c.Lists().Create(ctx, "u1", model.ListInput{Name: "Inbox"})
	require.NoError(t, err)

	in := model.TaskInput{Name: "once", ListID: list.ID}
	first, err := c.Tasks().CreateIdempotent(ctx, "u1", "retry-1", in)
	require.NoError(t, err)
	second, err := c.Tasks().CreateIdempotent(ctx, "u1", "retry-1", in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestLabelClient_ForceDelete(t *testing.T) {
	c := setupServer(t)
	ctx := context.Background()

	list, err := c.Lists().Create(ctx, "u1", model.ListInput{Name: "Inbox"})
	require.NoError(t, err)
	label, err := c.Labels().Create(ctx, "u1", model.LabelInput{Name: "home", Color: "#00ff00", Icon: "house"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.Tasks().Create(ctx, "u1", model.TaskInput{Name: fmt.Sprint("t", i), ListID: list.ID, Labels: []string{label.ID}})
		require.NoError(t, err)
	}

	err = c.Labels().Delete(ctx, label.ID, "u1", false)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	tasks, err := c.Tasks().List(ctx, "u1", model.TaskQuery{LabelID: label.ID})
	require.NoError(t, err)
	assert.Len(t, tasks, 3, "no task may be touched by a rejected delete")

	require.NoError(t, c.Labels().Delete(ctx, label.ID, "u1", true))

	tasks, err = c.Tasks().List(ctx, "u1", model.TaskQuery{LabelID: label.ID})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	labels, err := c.Labels().List(ctx, "u1", model.LabelQuery{})
	require.NoError(t, err)
	assert.Empty(t, labels)
}
