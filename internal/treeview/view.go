package treeview

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"workspace/internal/dto"
	"workspace/internal/model"

	"github.com/google/uuid"
)

var (
	ErrEmptyContent    = errors.New("content must not be empty")
	ErrEmptyName       = errors.New("topic name must not be empty")
	ErrInvalidValue    = errors.New("invalid value")
	ErrUnknownTodo     = errors.New("unknown todo")
	ErrPendingCreate   = errors.New("todo is still being created")
	ErrSaveOutstanding = errors.New("a save for this todo is still outstanding")
	ErrNotEditing      = errors.New("no edit in progress")
	ErrInvalidMove     = errors.New("cannot move a todo under itself or one of its descendants")
	ErrDragInProgress  = errors.New("another drag is in progress")
	ErrNoDrag          = errors.New("nothing is being dragged")
)

const tempPrefix = "tmp-"

// IsTemporary reports whether id was made up locally for a create that the
// server has not confirmed yet.
func IsTemporary(id string) bool {
	return strings.HasPrefix(id, tempPrefix)
}

// API is the slice of the Workspace API the view needs. *client.Client
// satisfies it.
type API interface {
	ListTodos(ctx context.Context, topicUUID string) ([]dto.Todo, error)
	CreateTodo(ctx context.Context, req dto.CreateTodoRequest) (*dto.Todo, error)
	UpdateTodo(ctx context.Context, id string, req dto.UpdateTodoRequest) (*dto.Todo, error)
	DeleteTodo(ctx context.Context, id string) ([]string, error)
	ReparentTodo(ctx context.Context, id string, newParentID *string) (*dto.Todo, error)
	RenameTopic(ctx context.Context, topicUUID, name string) (*dto.Topic, error)
}

// Failure is reported when the server refused a mutation and the view
// rolled it back.
type Failure struct {
	Op     string
	TodoID string
	Err    error
}

// Draft is the input for the next new todo.
type Draft struct {
	Content  string
	Priority model.Priority
	DueDate  *model.Date
}

// Pending tracks one request sent in the background.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) finish(err error) {
	p.err = err
	close(p.done)
}

// Wait blocks until the request settled and returns its error. A nil
// Pending stands for a no-op and returns immediately.
func (p *Pending) Wait() error {
	if p == nil {
		return nil
	}
	<-p.done
	return p.err
}

// Done is closed once the request settled.
func (p *Pending) Done() <-chan struct{} {
	if p == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.done
}

type Option func(*View)

// WithNotify sets the callback that receives rollbacks.
func WithNotify(fn func(Failure)) Option {
	return func(v *View) { v.notify = fn }
}

// WithClock overrides time.Now, used for timestamps and due date labels.
func WithClock(now func() time.Time) Option {
	return func(v *View) { v.now = now }
}

// View holds the local state of one topic. The flat todo list is the only
// source of truth; the forest is derived from it on demand.
type View struct {
	mu sync.Mutex
	wg sync.WaitGroup

	api       API
	topicUUID string
	topicName string
	todos     []dto.Todo
	draft     Draft
	expand    *ExpandState
	editor    editor
	dragging  string

	// Local changes still to be laid over a fresh server list. inflight is
	// keyed by dispatch order; landed holds those that succeeded while a
	// Refresh was fetching.
	seq        uint64
	inflight   map[uint64]func()
	landed     []replay
	refreshing int

	notify func(Failure)
	now    func() time.Time
}

func NewView(api API, topic dto.Topic, opts ...Option) *View {
	v := &View{
		api:       api,
		topicUUID: topic.UUID,
		topicName: topic.Name,
		todos:     append([]dto.Todo(nil), topic.Todos...),
		expand:    NewExpandState(),
		editor:    newEditor(),
		inflight:  make(map[uint64]func()),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.expand.Sync(v.todos)
	return v
}

func (v *View) TopicName() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.topicName
}

// Todos returns a copy of the flat list in its current order.
func (v *View) Todos() []dto.Todo {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]dto.Todo(nil), v.todos...)
}

func (v *View) Todo(id string) (dto.Todo, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexOf(id); i >= 0 {
		return v.todos[i], true
	}
	return dto.Todo{}, false
}

func (v *View) Forest() []*Node {
	v.mu.Lock()
	defer v.mu.Unlock()
	return BuildForest(v.todos)
}

func (v *View) Draft() Draft {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.draft
}

func (v *View) SetDraft(d Draft) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draft = d
}

func (v *View) ToggleExpand(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expand.Toggle(id)
}

// ChildrenVisible applies the display rules of ExpandState to n.
func (v *View) ChildrenVisible(n *Node) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expand.Visible(n, v.editor.todoID)
}

// Settle waits for every request sent so far.
func (v *View) Settle() {
	v.wg.Wait()
}

// Refresh reloads the topic from the server. Entries still waiting for
// their create to settle are kept, and outstanding updates, deletes and
// moves are applied again on top of the fresh list.
func (v *View) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.refreshing++
	v.mu.Unlock()

	fresh, err := v.api.ListTodos(ctx, v.topicUUID)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.refreshing--
	landed := v.landed
	if v.refreshing == 0 {
		v.landed = nil
	}
	if err != nil {
		return err
	}

	next := append([]dto.Todo(nil), fresh...)
	for _, t := range v.todos {
		if IsTemporary(t.ID) {
			next = append(next, t)
		}
	}
	v.todos = next
	v.replayOutstanding(landed)
	v.expand.Sync(v.todos)
	if v.editor.todoID != "" && v.indexOf(v.editor.todoID) < 0 {
		v.editor.reset()
	}
	if v.dragging != "" && v.indexOf(v.dragging) < 0 {
		v.dragging = ""
	}
	return nil
}

type replay struct {
	seq   uint64
	apply func()
}

// replayOutstanding re-applies, in dispatch order, the local changes the
// fresh list may not reflect yet.
func (v *View) replayOutstanding(landed []replay) {
	all := append([]replay(nil), landed...)
	for seq, fn := range v.inflight {
		all = append(all, replay{seq: seq, apply: fn})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })
	for _, r := range all {
		r.apply()
	}
}

func (v *View) indexOf(id string) int {
	for i := range v.todos {
		if v.todos[i].ID == id {
			return i
		}
	}
	return -1
}

// mutable finds id and refuses entries whose create has not settled.
func (v *View) mutable(id string) (int, error) {
	if IsTemporary(id) {
		return -1, ErrPendingCreate
	}
	i := v.indexOf(id)
	if i < 0 {
		return -1, ErrUnknownTodo
	}
	return i, nil
}

// saga is one optimistic mutation: the local change is already applied,
// send talks to the server, and exactly one of apply or undo runs after.
// replay makes the local change again on a list reloaded meanwhile.
type saga struct {
	op     string
	id     string
	send   func(ctx context.Context) (apply func(), err error)
	undo   func()
	after  func()
	replay func()
}

// dispatch runs s.send in the background. It must be called with v.mu held.
func (v *View) dispatch(s saga) *Pending {
	p := newPending()
	v.seq++
	seq := v.seq
	if s.replay != nil {
		v.inflight[seq] = s.replay
	}
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()

		apply, err := s.send(context.Background())

		v.mu.Lock()
		delete(v.inflight, seq)
		if err != nil {
			s.undo()
		} else {
			if apply != nil {
				apply()
			}
			if s.replay != nil && v.refreshing > 0 {
				v.landed = append(v.landed, replay{seq: seq, apply: s.replay})
			}
		}
		if s.after != nil {
			s.after()
		}
		v.expand.Sync(v.todos)
		notify := v.notify
		v.mu.Unlock()

		if err != nil && notify != nil {
			notify(Failure{Op: s.op, TodoID: s.id, Err: err})
		}
		p.finish(err)
	}()
	return p
}

// Create appends the draft as a new todo under a temporary id and clears
// the draft. On success the entry is replaced in place by the server copy;
// on failure it is removed and the draft comes back.
func (v *View) Create() (*Pending, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	draft := v.draft
	content := strings.TrimSpace(draft.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	priority := draft.Priority
	if priority == "" {
		priority = model.PriorityNone
	}
	if !priority.IsValid() {
		return nil, ErrInvalidValue
	}

	tempID := tempPrefix + uuid.NewString()
	now := v.now()
	v.todos = append(v.todos, dto.Todo{
		ID:        tempID,
		Content:   content,
		Status:    model.StatusPending,
		Priority:  priority,
		DueDate:   draft.DueDate,
		TopicID:   v.topicUUID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	v.draft = Draft{}

	req := dto.CreateTodoRequest{
		Content:  content,
		TopicID:  v.topicUUID,
		Priority: priority,
		DueDate:  draft.DueDate,
	}
	return v.dispatch(saga{
		op: "create",
		id: tempID,
		send: func(ctx context.Context) (func(), error) {
			created, err := v.api.CreateTodo(ctx, req)
			if err != nil {
				return nil, err
			}
			return func() {
				i := v.indexOf(tempID)
				switch j := v.indexOf(created.ID); {
				case j >= 0:
					v.todos[j] = *created
					if i >= 0 {
						v.todos = removeAt(v.todos, i)
					}
				case i >= 0:
					v.todos[i] = *created
				default:
					v.todos = append(v.todos, *created)
				}
			}, nil
		},
		undo: func() {
			if i := v.indexOf(tempID); i >= 0 {
				v.todos = removeAt(v.todos, i)
			}
			if strings.TrimSpace(v.draft.Content) == "" {
				v.draft = draft
			}
		},
	}), nil
}

// Update changes the fields present in req. A nil Pending means there was
// nothing to change.
func (v *View) Update(id string, req dto.UpdateTodoRequest) (*Pending, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	i, err := v.mutable(id)
	if err != nil {
		return nil, err
	}
	return v.update(i, req, nil)
}

// Toggle flips the completion state of one todo. Children are untouched.
func (v *View) Toggle(id string) (*Pending, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	i, err := v.mutable(id)
	if err != nil {
		return nil, err
	}
	next := v.todos[i].Status.Toggled()
	return v.update(i, dto.UpdateTodoRequest{Status: &next}, nil)
}

func (v *View) update(i int, req dto.UpdateTodoRequest, after func()) (*Pending, error) {
	if req.Content != nil {
		trimmed := strings.TrimSpace(*req.Content)
		if trimmed == "" {
			return nil, ErrEmptyContent
		}
		req.Content = &trimmed
	}
	if req.Priority != nil && !req.Priority.IsValid() {
		return nil, ErrInvalidValue
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, ErrInvalidValue
	}
	if req.IsEmpty() {
		return nil, nil
	}

	id := v.todos[i].ID
	before := v.todos[i]
	applyFields(&v.todos[i], req)

	return v.dispatch(saga{
		op: "update",
		id: id,
		send: func(ctx context.Context) (func(), error) {
			updated, err := v.api.UpdateTodo(ctx, id, req)
			if err != nil {
				return nil, err
			}
			return func() {
				if j := v.indexOf(id); j >= 0 {
					copyFields(&v.todos[j], *updated, req)
					v.todos[j].UpdatedAt = updated.UpdatedAt
				}
			}, nil
		},
		undo: func() {
			if j := v.indexOf(id); j >= 0 {
				copyFields(&v.todos[j], before, req)
			}
		},
		after: after,
		replay: func() {
			if j := v.indexOf(id); j >= 0 {
				applyFields(&v.todos[j], req)
			}
		},
	}), nil
}

// applyFields writes the requested values onto t.
func applyFields(t *dto.Todo, req dto.UpdateTodoRequest) {
	if req.Content != nil {
		t.Content = *req.Content
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.DueDate.Set {
		t.DueDate = req.DueDate.Value
	}
}

// copyFields copies from src only the fields req touched, so concurrent
// edits of other fields are left alone.
func copyFields(dst *dto.Todo, src dto.Todo, req dto.UpdateTodoRequest) {
	if req.Content != nil {
		dst.Content = src.Content
	}
	if req.Priority != nil {
		dst.Priority = src.Priority
	}
	if req.Status != nil {
		dst.Status = src.Status
	}
	if req.DueDate.Set {
		dst.DueDate = src.DueDate
	}
}

type removed struct {
	index int
	todo  dto.Todo
}

// Delete removes a todo and its subtree at once. On failure every entry is
// put back at the index it had.
func (v *View) Delete(id string) (*Pending, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.mutable(id); err != nil {
		return nil, err
	}

	gone := v.removeSubtree(id)

	return v.dispatch(saga{
		op: "delete",
		id: id,
		send: func(ctx context.Context) (func(), error) {
			ids, err := v.api.DeleteTodo(ctx, id)
			if err != nil {
				return nil, err
			}
			return func() {
				for _, d := range ids {
					if j := v.indexOf(d); j >= 0 {
						v.todos = removeAt(v.todos, j)
					}
				}
			}, nil
		},
		undo: func() {
			for _, r := range gone {
				if v.indexOf(r.todo.ID) >= 0 {
					continue
				}
				at := r.index
				if at > len(v.todos) {
					at = len(v.todos)
				}
				v.todos = insertAt(v.todos, at, r.todo)
			}
		},
		replay: func() { v.removeSubtree(id) },
	}), nil
}

// removeSubtree takes id and its descendants out of the list and closes an
// edit or drag on any of them.
func (v *View) removeSubtree(id string) []removed {
	doomed := map[string]bool{id: true}
	for _, d := range Descendants(v.todos, id) {
		doomed[d] = true
	}

	var gone []removed
	kept := make([]dto.Todo, 0, len(v.todos))
	for i, t := range v.todos {
		if doomed[t.ID] {
			gone = append(gone, removed{index: i, todo: t})
			continue
		}
		kept = append(kept, t)
	}
	v.todos = kept
	if doomed[v.editor.todoID] {
		v.editor.reset()
	}
	if doomed[v.dragging] {
		v.dragging = ""
	}
	return gone
}

// Reparent moves id under newParentID, or to the root when it is nil. Moves
// that would put a todo under itself or a descendant are refused without a
// request.
func (v *View) Reparent(id string, newParentID *string) (*Pending, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reparent(id, newParentID)
}

func (v *View) reparent(id string, newParentID *string) (*Pending, error) {
	i, err := v.mutable(id)
	if err != nil {
		return nil, err
	}

	var target *string
	if newParentID != nil {
		p := *newParentID
		if p == id {
			return nil, ErrInvalidMove
		}
		if _, err := v.mutable(p); err != nil {
			return nil, err
		}
		for _, d := range Descendants(v.todos, id) {
			if d == p {
				return nil, ErrInvalidMove
			}
		}
		target = &p
	}

	before := v.todos[i].ParentID
	if samePtr(before, target) {
		return nil, nil
	}
	v.todos[i].ParentID = target

	return v.dispatch(saga{
		op: "reparent",
		id: id,
		send: func(ctx context.Context) (func(), error) {
			moved, err := v.api.ReparentTodo(ctx, id, target)
			if err != nil {
				return nil, err
			}
			return func() {
				if j := v.indexOf(id); j >= 0 {
					v.todos[j].ParentID = moved.ParentID
					v.todos[j].UpdatedAt = moved.UpdatedAt
				}
			}, nil
		},
		undo: func() {
			if j := v.indexOf(id); j >= 0 {
				v.todos[j].ParentID = before
			}
		},
		replay: func() {
			if j := v.indexOf(id); j >= 0 {
				v.todos[j].ParentID = target
			}
		},
	}), nil
}

// BeginDrag starts a drag gesture. Only one drag can be active.
func (v *View) BeginDrag(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.dragging != "" {
		return ErrDragInProgress
	}
	if _, err := v.mutable(id); err != nil {
		return err
	}
	v.dragging = id
	return nil
}

func (v *View) CancelDrag() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dragging = ""
}

// DropOn ends the drag by moving the dragged todo under target. Dropping a
// todo onto itself does nothing.
func (v *View) DropOn(target string) (*Pending, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.dragging
	if id == "" {
		return nil, ErrNoDrag
	}
	v.dragging = ""
	if id == target {
		return nil, nil
	}
	return v.reparent(id, &target)
}

// DropOnRoot ends the drag by making the dragged todo a root.
func (v *View) DropOnRoot() (*Pending, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.dragging
	if id == "" {
		return nil, ErrNoDrag
	}
	v.dragging = ""
	return v.reparent(id, nil)
}

// RenameTopic renames the topic optimistically.
func (v *View) RenameTopic(name string) (*Pending, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if name == v.topicName {
		return nil, nil
	}
	before := v.topicName
	v.topicName = name

	return v.dispatch(saga{
		op: "rename",
		send: func(ctx context.Context) (func(), error) {
			topic, err := v.api.RenameTopic(ctx, v.topicUUID, name)
			if err != nil {
				return nil, err
			}
			return func() { v.topicName = topic.Name }, nil
		},
		undo: func() {
			if v.topicName == name {
				v.topicName = before
			}
		},
	}), nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func removeAt(todos []dto.Todo, i int) []dto.Todo {
	return append(todos[:i], todos[i+1:]...)
}

func insertAt(todos []dto.Todo, i int, t dto.Todo) []dto.Todo {
	todos = append(todos, dto.Todo{})
	copy(todos[i+1:], todos[i:])
	todos[i] = t
	return todos
}
