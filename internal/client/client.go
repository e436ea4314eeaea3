// Package client talks to the tasklist REST API and turns every non-2xx
// response into an *apperr.Error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
	"github.com/BuzzLyutic/tasklist/pkg/respond"
)

const (
	ownerHeader   = "X-User-ID"
	fetchPageSize = 100
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL. A nil httpClient gets
// a client with a 10s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) Tasks() *TaskClient   { return &TaskClient{c: c} }
func (c *Client) Lists() *ListClient   { return &ListClient{c: c} }
func (c *Client) Labels() *LabelClient { return &LabelClient{c: c} }

type request struct {
	method  string
	path    string
	owner   string
	query   url.Values
	body    any
	headers map[string]string
}

// do sends req and decodes the envelope's data into out (if non-nil).
func (c *Client) do(ctx context.Context, req request, out any) (*respond.Pagination, error) {
	if strings.TrimSpace(req.owner) == "" {
		return nil, apperr.New(apperr.CodeUnauthorized, "owner id is required")
	}

	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, err, "encode request")
		}
		body = bytes.NewReader(buf)
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(ownerHeader, req.owner)
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, fmt.Sprintf("%s %s", req.method, req.path))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "read response")
	}

	var env respond.Envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, responseError(resp.StatusCode, env, decodeErr)
	}
	if decodeErr != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, decodeErr, "decode response")
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, err, "decode response data")
		}
	}
	return env.Pagination, nil
}

func responseError(status int, env respond.Envelope, decodeErr error) error {
	if decodeErr == nil && env.Error != nil {
		e := apperr.New(apperr.Code(env.Error.Code), env.Error.Message)
		e.StatusCode = env.Error.StatusCode
		if e.StatusCode == 0 {
			e.StatusCode = status
		}
		if !env.Error.Timestamp.IsZero() {
			e.Timestamp = env.Error.Timestamp
		}
		return e
	}
	e := apperr.New(apperr.CodeFromStatus(status), http.StatusText(status))
	e.StatusCode = status
	return e
}

// fetchAll walks every page of a list endpoint.
func fetchAll[T any](ctx context.Context, c *Client, path, owner string, query url.Values) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("pageSize", fmt.Sprint(fetchPageSize))

	out := []T{}
	for page := 1; ; page++ {
		query.Set("page", fmt.Sprint(page))

		var items []T
		p, err := c.do(ctx, request{method: http.MethodGet, path: path, owner: owner, query: query}, &items)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if p == nil || !p.HasNext {
			return out, nil
		}
	}
}
