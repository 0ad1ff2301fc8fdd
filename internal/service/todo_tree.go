package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"workspace/internal/cache"
	"workspace/internal/model"
	"workspace/internal/repository"

	"github.com/google/uuid"
)

// childBatchSize bounds the IN list of a single children lookup.
const childBatchSize = 500

// TodoTree owns every mutation of the todo graph. Hierarchy is stored only as
// parent_id on the child; children are always derived by query.
type TodoTree struct {
	todos  repository.TodoStore
	topics repository.TopicStore
	cache  cache.WorkspaceCache
	logger *slog.Logger
}

func NewTodoTree(todos repository.TodoStore, topics repository.TopicStore, wc cache.WorkspaceCache, logger *slog.Logger) *TodoTree {
	if wc == nil {
		wc = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoTree{todos: todos, topics: topics, cache: wc, logger: logger}
}

type CreateTodoInput struct {
	TopicUUID string
	Content   string
	Priority  model.Priority
	DueDate   *model.Date
}

// TodoPatch carries the fields of a partial update. Nil pointers are left alone;
// DueDateSet with a nil DueDate clears the due date.
type TodoPatch struct {
	Content    *string
	Priority   *model.Priority
	Status     *model.Status
	DueDate    *model.Date
	DueDateSet bool
}

func (p TodoPatch) IsEmpty() bool {
	return p.Content == nil && p.Priority == nil && p.Status == nil && !p.DueDateSet
}

func (s *TodoTree) Create(ctx context.Context, ownerID string, in CreateTodoInput) (*model.Todo, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, validationError("content must not be empty")
	}
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityNone
	}
	if !priority.IsValid() {
		return nil, validationError("unknown priority %q", priority)
	}
	if strings.TrimSpace(in.TopicUUID) == "" {
		return nil, validationError("topicId is required")
	}

	topic, err := s.topics.GetByUUID(ctx, ownerID, in.TopicUUID)
	if err != nil {
		return nil, storageError(err)
	}

	todo := &model.Todo{
		Content:   content,
		Status:    model.StatusPending,
		Priority:  priority,
		DueDate:   in.DueDate,
		TopicID:   topic.ID,
		TopicUUID: topic.UUID,
		OwnerID:   ownerID,
	}
	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, storageError(err)
	}

	invalidate(ctx, s.cache, s.logger, ownerID)
	return todo, nil
}

func (s *TodoTree) Get(ctx context.Context, ownerID string, id uuid.UUID) (*model.Todo, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	todo, err := s.todos.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, storageError(err)
	}
	return todo, nil
}

// ListByTopic returns the todos of one of the owner's topics as a flat list.
func (s *TodoTree) ListByTopic(ctx context.Context, ownerID, topicUUID string) ([]model.Todo, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	topic, err := s.topics.GetByUUID(ctx, ownerID, topicUUID)
	if err != nil {
		return nil, storageError(err)
	}
	todos, err := s.todos.ListByTopic(ctx, ownerID, topic.ID)
	if err != nil {
		return nil, storageError(err)
	}
	return todos, nil
}

// UpdateFields applies a partial update. Validation happens before anything is
// written, and the parent link is never touched here.
func (s *TodoTree) UpdateFields(ctx context.Context, ownerID string, id uuid.UUID, patch TodoPatch) (*model.Todo, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	fields := make(map[string]interface{}, 4)
	if patch.Content != nil {
		content := strings.TrimSpace(*patch.Content)
		if content == "" {
			return nil, validationError("content must not be empty")
		}
		fields["content"] = content
	}
	if patch.Priority != nil {
		if !patch.Priority.IsValid() {
			return nil, validationError("unknown priority %q", *patch.Priority)
		}
		fields["priority"] = string(*patch.Priority)
	}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return nil, validationError("unknown status %q", *patch.Status)
		}
		fields["status"] = string(*patch.Status)
	}
	if patch.DueDateSet {
		if patch.DueDate == nil {
			fields["due_date"] = nil
		} else {
			fields["due_date"] = *patch.DueDate
		}
	}

	if len(fields) == 0 {
		return s.Get(ctx, ownerID, id)
	}

	if err := s.todos.UpdateFields(ctx, ownerID, id, fields); err != nil {
		return nil, storageError(err)
	}
	invalidate(ctx, s.cache, s.logger, ownerID)

	return s.Get(ctx, ownerID, id)
}

// ToggleStatus flips PENDING and COMPLETED. Children keep their own status.
func (s *TodoTree) ToggleStatus(ctx context.Context, ownerID string, id uuid.UUID) (*model.Todo, error) {
	todo, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	next := todo.Status.Toggled()
	return s.UpdateFields(ctx, ownerID, id, TodoPatch{Status: &next})
}

// Reparent moves a todo under newParentID, or to the root when it is nil.
// The move is rejected when the target is the todo itself, one of its
// descendants, or a todo of another topic. All reads and the write happen in
// one serializable transaction.
func (s *TodoTree) Reparent(ctx context.Context, ownerID string, id uuid.UUID, newParentID *uuid.UUID) (*model.Todo, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	if newParentID != nil && *newParentID == id {
		return nil, invalidOperation("a todo cannot be its own parent")
	}

	var moved *model.Todo
	err := s.todos.Transaction(ctx, func(tx repository.TodoStore) error {
		todo, err := tx.GetOwnedForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}

		if newParentID != nil {
			parent, err := tx.GetOwnedForUpdate(ctx, ownerID, *newParentID)
			if err != nil {
				return err
			}
			if parent.TopicID != todo.TopicID {
				return invalidOperation("cannot move a todo to another topic")
			}

			descendants, err := collectDescendants(ctx, tx, ownerID, id)
			if err != nil {
				return err
			}
			for _, d := range descendants {
				if d == *newParentID {
					return invalidOperation("cannot move a todo under its own descendant")
				}
			}
		}

		if sameParent(todo.ParentID, newParentID) {
			moved = todo
			return nil
		}

		if err := tx.SetParent(ctx, ownerID, id, newParentID); err != nil {
			return err
		}
		moved, err = tx.GetOwned(ctx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, txError(err)
	}

	s.logger.InfoContext(ctx, "todo reparented", "owner", ownerID, "todo", id, "parent", parentString(newParentID))
	invalidate(ctx, s.cache, s.logger, ownerID)
	return moved, nil
}

// CascadeDelete removes a todo and every transitive child in one transaction
// and returns the ids that were removed.
func (s *TodoTree) CascadeDelete(ctx context.Context, ownerID string, id uuid.UUID) ([]uuid.UUID, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	var deleted []uuid.UUID
	err := s.todos.Transaction(ctx, func(tx repository.TodoStore) error {
		if _, err := tx.GetOwnedForUpdate(ctx, ownerID, id); err != nil {
			return err
		}

		descendants, err := collectDescendants(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		ids := append([]uuid.UUID{id}, descendants...)

		n, err := tx.DeleteOwned(ctx, ownerID, ids)
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			return fmt.Errorf("%w: removed %d of %d records", ErrTransaction, n, len(ids))
		}
		deleted = ids
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	s.logger.InfoContext(ctx, "todo subtree deleted", "owner", ownerID, "todo", id, "count", len(deleted))
	invalidate(ctx, s.cache, s.logger, ownerID)
	return deleted, nil
}

// collectDescendants walks the children relation breadth first with an
// explicit worklist. The root itself is not part of the result. A node seen
// twice means the stored graph already has a cycle; it is visited only once.
func collectDescendants(ctx context.Context, store repository.TodoStore, ownerID string, rootID uuid.UUID) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]struct{}{rootID: {}}
	var out []uuid.UUID

	frontier := []uuid.UUID{rootID}
	for len(frontier) > 0 {
		var next []uuid.UUID
		for start := 0; start < len(frontier); start += childBatchSize {
			end := start + childBatchSize
			if end > len(frontier) {
				end = len(frontier)
			}
			children, err := store.ChildIDs(ctx, ownerID, frontier[start:end])
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				if _, ok := seen[child]; ok {
					continue
				}
				seen[child] = struct{}{}
				out = append(out, child)
				next = append(next, child)
			}
		}
		frontier = next
	}
	return out, nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func parentString(id *uuid.UUID) string {
	if id == nil {
		return "root"
	}
	return id.String()
}
