package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"workspace/internal/model"
	"workspace/internal/repository"

	"github.com/google/uuid"
)

// memTodoStore is an in-memory TodoStore. Transactions run against a copy of
// the rows that replaces the original only when fn succeeds.
type memTodoStore struct {
	mu   *sync.Mutex
	rows map[uuid.UUID]model.Todo
	inTx bool

	childCalls int

	// deleteLimit > 0 makes DeleteOwned remove at most that many rows.
	deleteLimit int

	// deleteErr is returned by DeleteOwned after the partial removal.
	deleteErr error

	// setParentErr is returned by SetParent after the row was rewritten.
	setParentErr error
}

func newMemTodoStore() *memTodoStore {
	return &memTodoStore{mu: &sync.Mutex{}, rows: map[uuid.UUID]model.Todo{}}
}

func (s *memTodoStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memTodoStore) Create(_ context.Context, todo *model.Todo) error {
	defer s.lock()()
	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}
	now := time.Now()
	todo.CreatedAt, todo.UpdatedAt = now, now
	s.rows[todo.ID] = *todo
	return nil
}

func (s *memTodoStore) get(ownerID string, id uuid.UUID) (*model.Todo, error) {
	row, ok := s.rows[id]
	if !ok || row.OwnerID != ownerID {
		return nil, repository.ErrTodoNotFound
	}
	return &row, nil
}

func (s *memTodoStore) GetOwned(_ context.Context, ownerID string, id uuid.UUID) (*model.Todo, error) {
	defer s.lock()()
	return s.get(ownerID, id)
}

func (s *memTodoStore) GetOwnedForUpdate(ctx context.Context, ownerID string, id uuid.UUID) (*model.Todo, error) {
	return s.GetOwned(ctx, ownerID, id)
}

func (s *memTodoStore) ListByTopic(_ context.Context, ownerID string, topicID uuid.UUID) ([]model.Todo, error) {
	defer s.lock()()
	var out []model.Todo
	for _, row := range s.rows {
		if row.OwnerID == ownerID && row.TopicID == topicID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memTodoStore) ChildIDs(_ context.Context, ownerID string, parentIDs []uuid.UUID) ([]uuid.UUID, error) {
	defer s.lock()()
	s.childCalls++
	parents := make(map[uuid.UUID]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = struct{}{}
	}
	var out []uuid.UUID
	for id, row := range s.rows {
		if row.OwnerID != ownerID || row.ParentID == nil {
			continue
		}
		if _, ok := parents[*row.ParentID]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *memTodoStore) UpdateFields(_ context.Context, ownerID string, id uuid.UUID, fields map[string]interface{}) error {
	defer s.lock()()
	row, err := s.get(ownerID, id)
	if err != nil {
		return err
	}
	for k, v := range fields {
		switch k {
		case "content":
			row.Content = v.(string)
		case "priority":
			row.Priority = model.Priority(v.(string))
		case "status":
			row.Status = model.Status(v.(string))
		case "due_date":
			if v == nil {
				row.DueDate = nil
			} else {
				d := v.(model.Date)
				row.DueDate = &d
			}
		case "parent_id":
			if v == nil {
				row.ParentID = nil
			} else {
				p := v.(uuid.UUID)
				row.ParentID = &p
			}
		}
	}
	row.UpdatedAt = time.Now()
	s.rows[id] = *row
	return nil
}

func (s *memTodoStore) SetParent(ctx context.Context, ownerID string, id uuid.UUID, parentID *uuid.UUID) error {
	var parent interface{}
	if parentID != nil {
		parent = *parentID
	}
	if err := s.UpdateFields(ctx, ownerID, id, map[string]interface{}{"parent_id": parent}); err != nil {
		return err
	}
	return s.setParentErr
}

func (s *memTodoStore) DeleteOwned(_ context.Context, ownerID string, ids []uuid.UUID) (int64, error) {
	defer s.lock()()
	var n int64
	for _, id := range ids {
		if s.deleteLimit > 0 && n >= int64(s.deleteLimit) {
			break
		}
		if row, ok := s.rows[id]; ok && row.OwnerID == ownerID {
			delete(s.rows, id)
			n++
		}
	}
	return n, s.deleteErr
}

func (s *memTodoStore) Transaction(ctx context.Context, fn func(tx repository.TodoStore) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTodoStore{
		mu:           s.mu,
		rows:         make(map[uuid.UUID]model.Todo, len(s.rows)),
		inTx:         true,
		deleteLimit:  s.deleteLimit,
		deleteErr:    s.deleteErr,
		setParentErr: s.setParentErr,
	}
	for id, row := range s.rows {
		tx.rows[id] = row
	}
	err := fn(tx)
	s.childCalls += tx.childCalls
	if err != nil {
		return err
	}
	s.rows = tx.rows
	return nil
}

func (s *memTodoStore) count() int {
	defer s.lock()()
	return len(s.rows)
}

func (s *memTodoStore) snapshot() map[uuid.UUID]model.Todo {
	defer s.lock()()
	out := make(map[uuid.UUID]model.Todo, len(s.rows))
	for id, row := range s.rows {
		out[id] = row
	}
	return out
}

// memTopicStore is an in-memory TopicStore keyed by external uuid.
type memTopicStore struct {
	mu        sync.Mutex
	rows      map[string]model.Topic
	todos     *memTodoStore
	listCalls int
	failList  error
}

func newMemTopicStore(todos *memTodoStore) *memTopicStore {
	return &memTopicStore{rows: map[string]model.Topic{}, todos: todos}
}

func (s *memTopicStore) Create(_ context.Context, topic *model.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if topic.ID == uuid.Nil {
		topic.ID = uuid.New()
	}
	now := time.Now()
	topic.CreatedAt, topic.UpdatedAt = now, now
	s.rows[topic.UUID] = *topic
	return nil
}

func (s *memTopicStore) GetByUUID(_ context.Context, ownerID, topicUUID string) (*model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[topicUUID]
	if !ok || row.OwnerID != ownerID {
		return nil, repository.ErrTopicNotFound
	}
	return &row, nil
}

func (s *memTopicStore) ListByOwner(_ context.Context, ownerID string) ([]model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Topic
	for _, row := range s.rows {
		if row.OwnerID == ownerID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memTopicStore) ListWithTodos(ctx context.Context, ownerID string) ([]model.Topic, error) {
	s.mu.Lock()
	s.listCalls++
	fail := s.failList
	s.mu.Unlock()
	if fail != nil {
		return nil, fail
	}

	topics, err := s.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range topics {
		if s.todos != nil {
			topics[i].Todos, _ = s.todos.ListByTopic(ctx, ownerID, topics[i].ID)
		}
	}
	return topics, nil
}

func (s *memTopicStore) Rename(_ context.Context, ownerID, topicUUID, name string) (*model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[topicUUID]
	if !ok || row.OwnerID != ownerID {
		return nil, repository.ErrTopicNotFound
	}
	row.Name = name
	row.UpdatedAt = time.Now()
	s.rows[topicUUID] = row
	return &row, nil
}

// recordingCache is an in-memory WorkspaceCache that counts invalidations.
// Like the Redis cache it files snapshots per generation.
type recordingCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	gens        map[string]int64
	invalidated map[string]int
	failAll     bool
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		entries:     map[string][]byte{},
		gens:        map[string]int64{},
		invalidated: map[string]int{},
	}
}

var errCacheDown = errors.New("cache down")

func entryKey(ownerID string, gen int64) string {
	return fmt.Sprintf("%s/%d", ownerID, gen)
}

func (c *recordingCache) Get(_ context.Context, ownerID string) ([]byte, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAll {
		return nil, 0, false, errCacheDown
	}
	gen := c.gens[ownerID]
	data, ok := c.entries[entryKey(ownerID, gen)]
	return data, gen, ok, nil
}

func (c *recordingCache) Set(_ context.Context, ownerID string, gen int64, snapshot []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAll {
		return errCacheDown
	}
	c.entries[entryKey(ownerID, gen)] = snapshot
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated[ownerID]++
	if c.failAll {
		return errCacheDown
	}
	delete(c.entries, entryKey(ownerID, c.gens[ownerID]))
	c.gens[ownerID]++
	return nil
}

func (c *recordingCache) invalidations(ownerID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated[ownerID]
}
