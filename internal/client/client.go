// Package client talks to the Workspace API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"workspace/internal/dto"
	"workspace/internal/service"
)

// APIError is a non-2xx response. It matches the service sentinels with
// errors.Is, so callers can branch on ErrNotFound and friends.
type APIError struct {
	Status  int
	Code    string
	Message string
}

var sentinelByCode = map[string]error{
	dto.CodeUnauthorized:     service.ErrUnauthorized,
	dto.CodeValidation:       service.ErrValidation,
	dto.CodeNotFound:         service.ErrNotFound,
	dto.CodeInvalidOperation: service.ErrInvalidOperation,
	dto.CodeTransaction:      service.ErrTransaction,
	dto.CodeDependency:       service.ErrDependency,
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Is matches on the body code when the server sent a known one. Otherwise
// it falls back to the status, where a 400 matches both ErrValidation and
// ErrInvalidOperation.
func (e *APIError) Is(target error) bool {
	if sentinel, ok := sentinelByCode[e.Code]; ok {
		return target == sentinel
	}
	switch e.Status {
	case http.StatusUnauthorized:
		return target == service.ErrUnauthorized
	case http.StatusBadRequest:
		return target == service.ErrValidation || target == service.ErrInvalidOperation
	case http.StatusNotFound:
		return target == service.ErrNotFound
	case http.StatusServiceUnavailable:
		return target == service.ErrDependency
	case http.StatusInternalServerError:
		return target == service.ErrTransaction
	}
	return false
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListTopics(ctx context.Context) ([]dto.Topic, error) {
	var out []dto.Topic
	err := c.do(ctx, http.MethodGet, "/topics", nil, &out)
	return out, err
}

func (c *Client) CreateTopic(ctx context.Context, name string) (*dto.Topic, error) {
	var out dto.Topic
	if err := c.do(ctx, http.MethodPost, "/topics", dto.CreateTopicRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenameTopic(ctx context.Context, topicUUID, name string) (*dto.Topic, error) {
	var out dto.Topic
	path := "/topics/" + url.PathEscape(topicUUID)
	if err := c.do(ctx, http.MethodPut, path, dto.RenameTopicRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTodos(ctx context.Context, topicUUID string) ([]dto.Todo, error) {
	var out []dto.Todo
	err := c.do(ctx, http.MethodGet, "/todos?topicId="+url.QueryEscape(topicUUID), nil, &out)
	return out, err
}

func (c *Client) GetTodo(ctx context.Context, id string) (*dto.Todo, error) {
	var out dto.Todo
	if err := c.do(ctx, http.MethodGet, "/todos/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTodo(ctx context.Context, req dto.CreateTodoRequest) (*dto.Todo, error) {
	var out dto.Todo
	if err := c.do(ctx, http.MethodPost, "/todos", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTodo(ctx context.Context, id string, req dto.UpdateTodoRequest) (*dto.Todo, error) {
	var out dto.Todo
	if err := c.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTodo removes a todo with its subtree and returns the removed ids.
func (c *Client) DeleteTodo(ctx context.Context, id string) ([]string, error) {
	var out dto.DeleteResponse
	if err := c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Deleted, nil
}

// ReparentTodo moves a todo under newParentID, or to the root when it is nil.
func (c *Client) ReparentTodo(ctx context.Context, id string, newParentID *string) (*dto.Todo, error) {
	var out dto.Todo
	path := "/todos/" + url.PathEscape(id) + "/reparent"
	if err := c.do(ctx, http.MethodPatch, path, dto.ReparentRequest{NewParentID: newParentID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body dto.ErrorResponse
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
