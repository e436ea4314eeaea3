package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/handler"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
	"github.com/BuzzLyutic/tasklist/internal/service"
)

func setupServer(t *testing.T) *repo.Memory {
	t.Helper()
	mem := repo.NewMemory()
	srv := httptest.NewServer(handler.NewRouter(handler.Services{
		Tasks:  service.NewTaskService(mem.Tasks, mem.Lists),
		Lists:  service.NewListService(mem.Lists),
		Labels: service.NewLabelService(mem.Labels),
	}, zap.NewNop()))
	t.Cleanup(srv.Close)

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SERVER_URL", srv.URL)
	t.Setenv("USER_ID", "u1")
	t.Setenv("LOG_LEVEL", "error")
	return mem
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTasksCommands(t *testing.T) {
	mem := setupServer(t)
	svc := service.NewListService(mem.Lists)
	list, err := svc.Create(context.Background(), "u1", model.ListInput{Name: "Inbox"})
	require.NoError(t, err)

	out, err := run(t, "tasks", "add", "Buy", "milk", "--priority", "high")
	require.NoError(t, err)
	milk := strings.TrimSpace(out)
	assert.NotEmpty(t, milk)

	_, err = run(t, "tasks", "add", "Call mom", "--list", list.ID)
	require.NoError(t, err)

	out, err = run(t, "tasks", "list", "--group", "priority")
	require.NoError(t, err)
	assert.Contains(t, out, "== high (1)")
	assert.Contains(t, out, "Buy milk  !high")
	assert.Contains(t, out, "Call mom")

	out, err = run(t, "tasks", "done", milk)
	require.NoError(t, err)
	assert.Contains(t, out, "1/1 succeeded")

	out, err = run(t, "tasks", "list", "--hide-done")
	require.NoError(t, err)
	assert.NotContains(t, out, "Buy milk")

	out, err = run(t, "tasks", "rm", milk, "missing")
	assert.Error(t, err)
	assert.Contains(t, out, "missing:")
	assert.Contains(t, out, "1/2 succeeded")
}

func TestTasksCommands_Errors(t *testing.T) {
	setupServer(t)

	_, err := run(t, "tasks", "add", "orphan")
	assert.ErrorContains(t, err, "no lists yet")

	_, err = run(t, "tasks", "list", "--group", "color")
	assert.Error(t, err)

	t.Setenv("USER_ID", "")
	_, err = run(t, "tasks", "list")
	assert.ErrorContains(t, err, "USER_ID")
}
