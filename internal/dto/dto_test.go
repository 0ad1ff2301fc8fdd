package dto

import (
	"encoding/json"
	"testing"

	"workspace/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateTodoRequest_DueDate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		set     bool
		wantNil bool
	}{
		{name: "absent", body: `{"content":"x"}`, set: false, wantNil: true},
		{name: "null clears", body: `{"dueDate":null}`, set: true, wantNil: true},
		{name: "empty string clears", body: `{"dueDate":""}`, set: true, wantNil: true},
		{name: "date sets", body: `{"dueDate":"2026-05-01"}`, set: true, wantNil: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateTodoRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			assert.Equal(t, tt.set, req.DueDate.Set)
			assert.Equal(t, tt.wantNil, req.DueDate.Value == nil)
		})
	}
}

func TestUpdateTodoRequest_Marshal(t *testing.T) {
	p := model.PriorityP2
	b, err := json.Marshal(UpdateTodoRequest{Priority: &p})
	require.NoError(t, err)
	assert.JSONEq(t, `{"priority":"P2"}`, string(b))

	b, err = json.Marshal(UpdateTodoRequest{DueDate: SetDate(nil)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"dueDate":null}`, string(b))

	d := model.Date{Year: 2026, Month: 1, Day: 9}
	b, err = json.Marshal(UpdateTodoRequest{DueDate: SetDate(&d)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"dueDate":"2026-01-09"}`, string(b))
}

func TestUpdateTodoRequest_BadDate(t *testing.T) {
	var req UpdateTodoRequest
	err := json.Unmarshal([]byte(`{"dueDate":"tomorrow"}`), &req)
	assert.Error(t, err)
}

func TestFromTodo(t *testing.T) {
	parent := uuid.New()
	root := model.Todo{ID: uuid.New(), Content: "root", TopicUUID: "abc"}
	child := model.Todo{ID: uuid.New(), Content: "child", TopicUUID: "abc", ParentID: &parent}

	r := FromTodo(root)
	c := FromTodo(child)

	assert.Nil(t, r.ParentID)
	assert.Equal(t, "abc", r.TopicID)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, parent.String(), *c.ParentID)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"parentId":null`)
	assert.NotContains(t, string(b), "dueDate")
}

func TestFromTopic_AlwaysHasTodos(t *testing.T) {
	topic := FromTopic(model.Topic{Name: "Inbox", UUID: "0123"})

	b, err := json.Marshal(topic)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"todos":[]`)
	assert.Equal(t, "0123", topic.ID)
}
