package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/store"
)

var (
	_ store.TaskRepository  = (*TaskClient)(nil)
	_ store.ListRepository  = (*ListClient)(nil)
	_ store.LabelRepository = (*LabelClient)(nil)
)

type TaskClient struct{ c *Client }

// List fetches every task matching q; paging fields of q are ignored.
func (tc *TaskClient) List(ctx context.Context, ownerID string, q model.TaskQuery) ([]model.Task, error) {
	query := url.Values{}
	if q.ListID != "" {
		query.Set("listId", q.ListID)
	}
	if q.LabelID != "" {
		query.Set("labelId", q.LabelID)
	}
	if q.Status != nil {
		query.Set("status", string(*q.Status))
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	return fetchAll[model.Task](ctx, tc.c, "/api/tasks", ownerID, query)
}

func (tc *TaskClient) GetByID(ctx context.Context, id, ownerID string) (model.Task, error) {
	var t model.Task
	_, err := tc.c.do(ctx, request{method: http.MethodGet, path: "/api/tasks/" + url.PathEscape(id), owner: ownerID}, &t)
	return t, err
}

func (tc *TaskClient) Create(ctx context.Context, ownerID string, in model.TaskInput) (model.Task, error) {
	var t model.Task
	_, err := tc.c.do(ctx, request{method: http.MethodPost, path: "/api/tasks", owner: ownerID, body: in}, &t)
	return t, err
}

// CreateIdempotent sends key as Idempotency-Key so a retried create returns
// the task made by the first attempt.
func (tc *TaskClient) CreateIdempotent(ctx context.Context, ownerID, key string, in model.TaskInput) (model.Task, error) {
	var t model.Task
	_, err := tc.c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/api/tasks",
		owner:   ownerID,
		body:    in,
		headers: map[string]string{"Idempotency-Key": key},
	}, &t)
	return t, err
}

func (tc *TaskClient) Update(ctx context.Context, id string, patch model.TaskPatch, ownerID string) (model.Task, error) {
	var t model.Task
	_, err := tc.c.do(ctx, request{method: http.MethodPatch, path: "/api/tasks/" + url.PathEscape(id), owner: ownerID, body: patch}, &t)
	return t, err
}

func (tc *TaskClient) Delete(ctx context.Context, id, ownerID string) error {
	_, err := tc.c.do(ctx, request{method: http.MethodDelete, path: "/api/tasks/" + url.PathEscape(id), owner: ownerID}, nil)
	return err
}

type ListClient struct{ c *Client }

func (lc *ListClient) List(ctx context.Context, ownerID string, q model.ListQuery) ([]model.List, error) {
	query := url.Values{}
	if q.Favorite != nil {
		query.Set("favorite", strconv.FormatBool(*q.Favorite))
	}
	return fetchAll[model.List](ctx, lc.c, "/api/lists", ownerID, query)
}

func (lc *ListClient) GetByID(ctx context.Context, id, ownerID string) (model.List, error) {
	var l model.List
	_, err := lc.c.do(ctx, request{method: http.MethodGet, path: "/api/lists/" + url.PathEscape(id), owner: ownerID}, &l)
	return l, err
}

func (lc *ListClient) Create(ctx context.Context, ownerID string, in model.ListInput) (model.List, error) {
	var l model.List
	_, err := lc.c.do(ctx, request{method: http.MethodPost, path: "/api/lists", owner: ownerID, body: in}, &l)
	return l, err
}

func (lc *ListClient) Update(ctx context.Context, id string, patch model.ListPatch, ownerID string) (model.List, error) {
	var l model.List
	_, err := lc.c.do(ctx, request{method: http.MethodPatch, path: "/api/lists/" + url.PathEscape(id), owner: ownerID, body: patch}, &l)
	return l, err
}

func (lc *ListClient) Delete(ctx context.Context, id, ownerID string) error {
	_, err := lc.c.do(ctx, request{method: http.MethodDelete, path: "/api/lists/" + url.PathEscape(id), owner: ownerID}, nil)
	return err
}

type LabelClient struct{ c *Client }

func (lc *LabelClient) List(ctx context.Context, ownerID string, q model.LabelQuery) ([]model.Label, error) {
	return fetchAll[model.Label](ctx, lc.c, "/api/labels", ownerID, nil)
}

func (lc *LabelClient) GetByID(ctx context.Context, id, ownerID string) (model.Label, error) {
	var l model.Label
	_, err := lc.c.do(ctx, request{method: http.MethodGet, path: "/api/labels/" + url.PathEscape(id), owner: ownerID}, &l)
	return l, err
}

func (lc *LabelClient) Create(ctx context.Context, ownerID string, in model.LabelInput) (model.Label, error) {
	var l model.Label
	_, err := lc.c.do(ctx, request{method: http.MethodPost, path: "/api/labels", owner: ownerID, body: in}, &l)
	return l, err
}

func (lc *LabelClient) Update(ctx context.Context, id string, patch model.LabelPatch, ownerID string) (model.Label, error) {
	var l model.Label
	_, err := lc.c.do(ctx, request{method: http.MethodPatch, path: "/api/labels/" + url.PathEscape(id), owner: ownerID, body: patch}, &l)
	return l, err
}

func (lc *LabelClient) Delete(ctx context.Context, id, ownerID string, force bool) error {
	req := request{method: http.MethodDelete, path: "/api/labels/" + url.PathEscape(id), owner: ownerID}
	if force {
		req.query = url.Values{"force": []string{"true"}}
	}
	_, err := lc.c.do(ctx, req, nil)
	return err
}
