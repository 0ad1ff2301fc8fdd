package treeview

import (
	"fmt"
	"strings"

	"workspace/internal/dto"
	"workspace/internal/model"
)

// Field is an inline-editable attribute of a todo.
type Field int

const (
	FieldNone Field = iota
	FieldContent
	FieldPriority
	FieldDueDate
)

func (f Field) String() string {
	switch f {
	case FieldContent:
		return "content"
	case FieldPriority:
		return "priority"
	case FieldDueDate:
		return "dueDate"
	default:
		return "none"
	}
}

// EditState is where one todo is in the inline edit cycle.
type EditState int

const (
	Viewing EditState = iota
	Editing
	Saving
)

func (s EditState) String() string {
	switch s {
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return "viewing"
	}
}

// editor is the single inline edit session of a view, plus the number of
// saves still in flight per todo.
type editor struct {
	todoID string
	field  Field
	buffer string
	saving map[string]int
}

func newEditor() editor {
	return editor{saving: make(map[string]int)}
}

func (e *editor) reset() {
	e.todoID = ""
	e.field = FieldNone
	e.buffer = ""
}

// fieldText renders the committed value of f as edit buffer text.
func fieldText(t dto.Todo, f Field) string {
	switch f {
	case FieldContent:
		return t.Content
	case FieldPriority:
		return string(t.Priority)
	case FieldDueDate:
		if t.DueDate == nil {
			return ""
		}
		return t.DueDate.String()
	}
	return ""
}

// BeginEdit opens field of id for editing with the committed value in the
// buffer. An edit open on another field or todo is committed first, as if
// it lost focus.
func (v *View) BeginEdit(id string, field Field) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if field == FieldNone {
		return ErrInvalidValue
	}
	i, err := v.mutable(id)
	if err != nil {
		return err
	}
	if v.editor.todoID == id && v.editor.field == field {
		return nil
	}
	if v.editor.todoID != "" {
		if _, err := v.commit(); err != nil {
			return err
		}
	}
	if v.editor.saving[id] > 0 {
		return ErrSaveOutstanding
	}

	v.editor.todoID = id
	v.editor.field = field
	v.editor.buffer = fieldText(v.todos[i], field)
	return nil
}

// SetBuffer replaces the text of the open edit.
func (v *View) SetBuffer(text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.editor.todoID == "" {
		return ErrNotEditing
	}
	v.editor.buffer = text
	return nil
}

func (v *View) Buffer() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.editor.buffer
}

// Editing returns the todo and field being edited, or "" and FieldNone.
func (v *View) Editing() (string, Field) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.editor.todoID, v.editor.field
}

func (v *View) EditState(id string) EditState {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case v.editor.todoID == id:
		return Editing
	case v.editor.saving[id] > 0:
		return Saving
	default:
		return Viewing
	}
}

// Cancel drops the open edit without saving.
func (v *View) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.editor.reset()
}

// Commit saves the open edit. An unchanged value closes the edit without a
// request. Empty content is refused and the edit stays open.
func (v *View) Commit() (*Pending, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.commit()
}

func (v *View) commit() (*Pending, error) {
	id := v.editor.todoID
	if id == "" {
		return nil, ErrNotEditing
	}
	i := v.indexOf(id)
	if i < 0 {
		v.editor.reset()
		return nil, ErrUnknownTodo
	}

	req, changed, err := editRequest(v.todos[i], v.editor.field, v.editor.buffer)
	if err != nil {
		return nil, err
	}
	v.editor.reset()
	if !changed {
		return nil, nil
	}

	v.editor.saving[id]++
	settled := func() {
		v.editor.saving[id]--
		if v.editor.saving[id] <= 0 {
			delete(v.editor.saving, id)
		}
	}
	p, err := v.update(i, req, settled)
	if p == nil {
		settled()
	}
	return p, err
}

// editRequest turns the buffer into a single-field update against the
// committed todo t.
func editRequest(t dto.Todo, field Field, buffer string) (dto.UpdateTodoRequest, bool, error) {
	var req dto.UpdateTodoRequest
	text := strings.TrimSpace(buffer)
	if text == fieldText(t, field) {
		return req, false, nil
	}

	switch field {
	case FieldContent:
		if text == "" {
			return req, false, ErrEmptyContent
		}
		req.Content = &text
	case FieldPriority:
		p := model.Priority(strings.ToUpper(text))
		if p == "" {
			p = model.PriorityNone
		}
		if !p.IsValid() {
			return req, false, fmt.Errorf("%w: priority %q", ErrInvalidValue, text)
		}
		if p == t.Priority {
			return req, false, nil
		}
		req.Priority = &p
	case FieldDueDate:
		if text == "" {
			req.DueDate = dto.SetDate(nil)
			break
		}
		d, err := model.ParseDate(text)
		if err != nil {
			return req, false, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		req.DueDate = dto.SetDate(&d)
	default:
		return req, false, ErrNotEditing
	}
	return req, true, nil
}
