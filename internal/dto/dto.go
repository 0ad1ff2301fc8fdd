// Package dto holds the JSON shapes exchanged between the Workspace API and
// its clients.
package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"workspace/internal/model"
)

// Todo is the wire form of a todo. ParentID is null for roots. The client
// side also uses it for optimistic entries whose ID is still temporary.
type Todo struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Status    model.Status   `json:"status"`
	Priority  model.Priority `json:"priority"`
	DueDate   *model.Date    `json:"dueDate,omitempty"`
	TopicID   string         `json:"topicId"`
	OwnerID   string         `json:"ownerId,omitempty"`
	ParentID  *string        `json:"parentId"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Topic is the wire form of a topic. ID carries the external uuid.
type Topic struct {
	ID        string    `json:"id"`
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Todos     []Todo    `json:"todos"`
}

type CreateTopicRequest struct {
	Name string `json:"name" binding:"required"`
}

type RenameTopicRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateTodoRequest struct {
	Content  string         `json:"content" binding:"required"`
	TopicID  string         `json:"topicId" binding:"required"`
	Priority model.Priority `json:"priority,omitempty"`
	DueDate  *model.Date    `json:"dueDate,omitempty"`
}

// UpdateTodoRequest is a partial update; absent fields are left alone.
type UpdateTodoRequest struct {
	Content  *string         `json:"content,omitempty"`
	Priority *model.Priority `json:"priority,omitempty"`
	Status   *model.Status   `json:"status,omitempty"`
	DueDate  OptionalDate    `json:"dueDate,omitzero"`
}

// IsEmpty reports whether the request changes nothing.
func (r UpdateTodoRequest) IsEmpty() bool {
	return r.Content == nil && r.Priority == nil && r.Status == nil && !r.DueDate.Set
}

// OptionalDate tells an absent dueDate apart from an explicit null or "",
// both of which clear the date.
type OptionalDate struct {
	Set   bool
	Value *model.Date
}

// SetDate returns an OptionalDate that sets d, or clears the date when d is nil.
func SetDate(d *model.Date) OptionalDate {
	return OptionalDate{Set: true, Value: d}
}

func (o OptionalDate) IsZero() bool {
	return !o.Set
}

func (o OptionalDate) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *OptionalDate) UnmarshalJSON(b []byte) error {
	o.Set = true
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		o.Value = nil
		return nil
	}
	var d model.Date
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return err
	}
	o.Value = &d
	return nil
}

// ReparentRequest moves a todo; a null or missing newParentId makes it a root.
type ReparentRequest struct {
	NewParentID *string `json:"newParentId"`
}

type DeleteResponse struct {
	Status  string   `json:"status"`
	Deleted []string `json:"deleted"`
}

// ErrorResponse is the body of every non-2xx answer. Code tells apart
// failures that share a status, such as a malformed field and a move that
// would create a cycle.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const (
	CodeUnauthorized     = "unauthorized"
	CodeValidation       = "validation"
	CodeNotFound         = "not_found"
	CodeInvalidOperation = "invalid_operation"
	CodeTransaction      = "transaction"
	CodeDependency       = "dependency"
)

func FromTodo(t model.Todo) Todo {
	out := Todo{
		ID:        t.ID.String(),
		Content:   t.Content,
		Status:    t.Status,
		Priority:  t.Priority,
		DueDate:   t.DueDate,
		TopicID:   t.TopicUUID,
		OwnerID:   t.OwnerID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.ParentID != nil {
		p := t.ParentID.String()
		out.ParentID = &p
	}
	return out
}

func FromTodos(todos []model.Todo) []Todo {
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		out = append(out, FromTodo(t))
	}
	return out
}

func FromTopic(t model.Topic) Topic {
	return Topic{
		ID:        t.UUID,
		UUID:      t.UUID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Todos:     FromTodos(t.Todos),
	}
}

func FromTopics(topics []model.Topic) []Topic {
	out := make([]Topic, 0, len(topics))
	for _, t := range topics {
		out = append(out, FromTopic(t))
	}
	return out
}
