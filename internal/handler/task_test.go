package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
	"github.com/BuzzLyutic/tasklist/internal/service"
	"github.com/BuzzLyutic/tasklist/pkg/respond"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	mem := repo.NewMemory()
	return NewRouter(Services{
		Tasks:  service.NewTaskService(mem.Tasks, mem.Lists),
		Lists:  service.NewListService(mem.Lists),
		Labels: service.NewLabelService(mem.Labels),
	}, zap.NewNop())
}

type call struct {
	method  string
	path    string
	owner   string
	body    any
	headers map[string]string
}

func do(t *testing.T, h http.Handler, c call) (*httptest.ResponseRecorder, respond.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.owner != "" {
		req.Header.Set(OwnerHeader, c.owner)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env respond.Envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decodeData[T any](t *testing.T, env respond.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func createList(t *testing.T, h http.Handler, owner, name string) model.List {
	t.Helper()
	w, env := do(t, h, call{method: http.MethodPost, path: "/api/lists", owner: owner, body: model.ListInput{Name: name}})
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeData[model.List](t, env)
}

func createTask(t *testing.T, h http.Handler, owner string, in model.TaskInput) model.Task {
	t.Helper()
	w, env := do(t, h, call{method: http.MethodPost, path: "/api/tasks", owner: owner, body: in})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[model.Task](t, env)
}

func TestHealth(t *testing.T) {
	h := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequireOwner(t *testing.T) {
	h := setupRouter(t)

	w, env := do(t, h, call{method: http.MethodGet, path: "/api/tasks"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	assert.Equal(t, http.StatusUnauthorized, env.Error.StatusCode)
}

func TestTaskHandler_Create(t *testing.T) {
	h := setupRouter(t)
	inbox := createList(t, h, "u1", "Inbox")

	tests := []struct {
		name          string
		body          any
		idempKey      string
		wantCode      int
		checkResponse func(*testing.T, *httptest.ResponseRecorder, respond.Envelope)
	}{
		{
			name:     "successful creation",
			body:     model.TaskInput{Name: "Test Task", ListID: inbox.ID},
			wantCode: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder, env respond.Envelope) {
				task := decodeData[model.Task](t, env)
				assert.NotEmpty(t, task.ID)
				assert.Equal(t, "Test Task", task.Name)
				assert.Equal(t, model.StatusTodo, task.Status)
				assert.Equal(t, model.PriorityNone, task.Priority)
				assert.Equal(t, 1, task.Version)
				assert.Contains(t, w.Header().Get("Location"), "/api/tasks/")
			},
		},
		{
			name:     "empty body",
			body:     nil,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "validation error",
			body:     model.TaskInput{Name: "", ListID: inbox.ID},
			wantCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder, env respond.Envelope) {
				require.NotNil(t, env.Error)
				assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
			},
		},
		{
			name:     "unknown list",
			body:     model.TaskInput{Name: "x", ListID: "nope"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "with idempotency key",
			body:     model.TaskInput{Name: "Idempotent Task", ListID: inbox.ID},
			idempKey: "test-key-123",
			wantCode: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := call{method: http.MethodPost, path: "/api/tasks", owner: "u1", body: tt.body}
			if tt.idempKey != "" {
				c.headers = map[string]string{"Idempotency-Key": tt.idempKey}
			}
			w, env := do(t, h, c)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, w, env)
			}
		})
	}
}

func TestTaskHandler_Idempotency(t *testing.T) {
	h := setupRouter(t)
	inbox := createList(t, h, "u1", "Inbox")

	c := call{
		method:  http.MethodPost,
		path:    "/api/tasks",
		owner:   "u1",
		body:    model.TaskInput{Name: "once", ListID: inbox.ID},
		headers: map[string]string{"Idempotency-Key": "k1"},
	}
	_, first := do(t, h, c)
	_, second := do(t, h, c)

	assert.Equal(t, decodeData[model.Task](t, first).ID, decodeData[model.Task](t, second).ID)

	w, env := do(t, h, call{method: http.MethodGet, path: "/api/tasks", owner: "u1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]model.Task](t, env), 1)
}

func TestTaskHandler_Get(t *testing.T) {
	h := setupRouter(t)
	inbox := createList(t, h, "u1", "Inbox")
	task := createTask(t, h, "u1", model.TaskInput{Name: "mine", ListID: inbox.ID})

	tests := []struct {
		name     string
		id       string
		owner    string
		wantCode int
		wantErr  string
	}{
		{name: "existing task", id: task.ID, owner: "u1", wantCode: http.StatusOK},
		{name: "non-existing task", id: "missing", owner: "u1", wantCode: http.StatusNotFound, wantErr: "NOT_FOUND"},
		{name: "task of another user", id: task.ID, owner: "u2", wantCode: http.StatusForbidden, wantErr: "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, h, call{method: http.MethodGet, path: "/api/tasks/" + tt.id, owner: tt.owner})

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantErr, env.Error.Code)
				return
			}
			assert.Equal(t, task.ID, decodeData[model.Task](t, env).ID)
		})
	}
}

func TestTaskHandler_List(t *testing.T) {
	h := setupRouter(t)
	work := createList(t, h, "u1", "Work")
	home := createList(t, h, "u1", "Home")

	for i := 0; i < 5; i++ {
		createTask(t, h, "u1", model.TaskInput{Name: fmt.Sprintf("work %d", i), ListID: work.ID})
	}
	createTask(t, h, "u1", model.TaskInput{Name: "home", ListID: home.ID, Status: model.StatusDone})

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantTotal int
		wantNext  bool
	}{
		{name: "all", query: "", wantCount: 6, wantTotal: 6},
		{name: "by list", query: "?listId=" + work.ID, wantCount: 5, wantTotal: 5},
		{name: "by status", query: "?status=done", wantCount: 1, wantTotal: 1},
		{name: "paged", query: "?page=1&pageSize=2", wantCount: 2, wantTotal: 6, wantNext: true},
		{name: "search", query: "?search=HOME", wantCount: 1, wantTotal: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, h, call{method: http.MethodGet, path: "/api/tasks" + tt.query, owner: "u1"})

			require.Equal(t, http.StatusOK, w.Code)
			assert.Len(t, decodeData[[]model.Task](t, env), tt.wantCount)
			require.NotNil(t, env.Pagination)
			assert.Equal(t, tt.wantTotal, env.Pagination.Total)
			assert.Equal(t, tt.wantNext, env.Pagination.HasNext)
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		w, _ := do(t, h, call{method: http.MethodGet, path: "/api/tasks?status=blocked", owner: "u1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_Update(t *testing.T) {
	h := setupRouter(t)
	inbox := createList(t, h, "u1", "Inbox")
	task := createTask(t, h, "u1", model.TaskInput{Name: "draft", ListID: inbox.ID})

	w, env := do(t, h, call{
		method: http.MethodPatch,
		path:   "/api/tasks/" + task.ID,
		owner:  "u1",
		body:   model.TaskPatch{Name: model.Ptr("final"), Status: model.Ptr(model.StatusInProgress)},
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeData[model.Task](t, env)
	assert.Equal(t, "final", updated.Name)
	assert.Equal(t, model.StatusInProgress, updated.Status)
	assert.Equal(t, 2, updated.Version)

	t.Run("stale version", func(t *testing.T) {
		w, env := do(t, h, call{
			method: http.MethodPatch,
			path:   "/api/tasks/" + task.ID,
			owner:  "u1",
			body:   model.TaskPatch{Name: model.Ptr("late"), Version: model.Ptr(1)},
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "CONFLICT", env.Error.Code)
	})

	t.Run("another user", func(t *testing.T) {
		w, _ := do(t, h, call{
			method: http.MethodPatch,
			path:   "/api/tasks/" + task.ID,
			owner:  "u2",
			body:   model.TaskPatch{Name: model.Ptr("stolen")},
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestTaskHandler_ClearDeadline(t *testing.T) {
	h := setupRouter(t)
	inbox := createList(t, h, "u1", "Inbox")
	due := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	task := createTask(t, h, "u1", model.TaskInput{Name: "late", ListID: inbox.ID, Deadline: &due})
	require.NotNil(t, task.Deadline)

	w, env := do(t, h, call{
		method: http.MethodPatch,
		path:   "/api/tasks/" + task.ID,
		owner:  "u1",
		body:   json.RawMessage(`{"deadline":null}`),
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeData[model.Task](t, env)
	assert.Nil(t, updated.Deadline)
	assert.Equal(t, 2, updated.Version)

	w, env = do(t, h, call{method: http.MethodGet, path: "/api/tasks/stats", owner: "u1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decodeData[repo.Stats](t, env).Overdue)
}

func TestTaskHandler_DeleteAndStats(t *testing.T) {
	h := setupRouter(t)
	inbox := createList(t, h, "u1", "Inbox")
	a := createTask(t, h, "u1", model.TaskInput{Name: "a", ListID: inbox.ID})
	createTask(t, h, "u1", model.TaskInput{Name: "b", ListID: inbox.ID, Status: model.StatusDone})

	w, _ := do(t, h, call{method: http.MethodDelete, path: "/api/tasks/" + a.ID, owner: "u1"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(t, h, call{method: http.MethodDelete, path: "/api/tasks/" + a.ID, owner: "u1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := do(t, h, call{method: http.MethodGet, path: "/api/tasks/stats", owner: "u1"})
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeData[repo.Stats](t, env)
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.ByStatus[model.StatusDone])
}
