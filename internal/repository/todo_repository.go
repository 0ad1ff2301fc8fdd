package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"workspace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TodoStore is the persistence surface the tree engine works against.
// Every method is scoped to the owning user.
type TodoStore interface {
	Create(ctx context.Context, todo *model.Todo) error
	GetOwned(ctx context.Context, ownerID string, id uuid.UUID) (*model.Todo, error)
	GetOwnedForUpdate(ctx context.Context, ownerID string, id uuid.UUID) (*model.Todo, error)
	ListByTopic(ctx context.Context, ownerID string, topicID uuid.UUID) ([]model.Todo, error)
	ChildIDs(ctx context.Context, ownerID string, parentIDs []uuid.UUID) ([]uuid.UUID, error)
	UpdateFields(ctx context.Context, ownerID string, id uuid.UUID, fields map[string]interface{}) error
	SetParent(ctx context.Context, ownerID string, id uuid.UUID, parentID *uuid.UUID) error
	DeleteOwned(ctx context.Context, ownerID string, ids []uuid.UUID) (int64, error)

	// Transaction runs fn against a store bound to a single serializable
	// transaction. A non-nil error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx TodoStore) error) error
}

var _ TodoStore = (*TodoRepository)(nil)

type TodoRepository struct {
	db *gorm.DB
}

func NewTodoRepository(db *gorm.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create adds a new todo to the database
func (r *TodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	return r.db.WithContext(ctx).Create(todo).Error
}

// GetOwned retrieves a todo by its ID if it belongs to the owner
func (r *TodoRepository) GetOwned(ctx context.Context, ownerID string, id uuid.UUID) (*model.Todo, error) {
	return r.first(r.db.WithContext(ctx), ownerID, id)
}

// GetOwnedForUpdate is GetOwned with a row lock held until the transaction ends.
func (r *TodoRepository) GetOwnedForUpdate(ctx context.Context, ownerID string, id uuid.UUID) (*model.Todo, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), ownerID, id)
}

func (r *TodoRepository) first(db *gorm.DB, ownerID string, id uuid.UUID) (*model.Todo, error) {
	var todo model.Todo
	if err := db.Where("id = ? AND owner_id = ?", id, ownerID).First(&todo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return &todo, nil
}

// ListByTopic retrieves all todos of a topic, newest first
func (r *TodoRepository) ListByTopic(ctx context.Context, ownerID string, topicID uuid.UUID) ([]model.Todo, error) {
	var todos []model.Todo
	err := r.db.WithContext(ctx).
		Where("topic_id = ? AND owner_id = ?", topicID, ownerID).
		Order("created_at DESC").
		Find(&todos).Error
	return todos, err
}

// ChildIDs returns the ids of every todo whose parent is one of parentIDs.
func (r *TodoRepository) ChildIDs(ctx context.Context, ownerID string, parentIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Todo{}).
		Where("owner_id = ? AND parent_id IN ?", ownerID, parentIDs).
		Pluck("id", &ids).Error
	return ids, err
}

// UpdateFields writes the given columns of a single todo
func (r *TodoRepository) UpdateFields(ctx context.Context, ownerID string, id uuid.UUID, fields map[string]interface{}) error {
	values := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&model.Todo{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// SetParent points a todo at a new parent, or makes it a root when parentID is nil
func (r *TodoRepository) SetParent(ctx context.Context, ownerID string, id uuid.UUID, parentID *uuid.UUID) error {
	var parent interface{}
	if parentID != nil {
		parent = *parentID
	}
	return r.UpdateFields(ctx, ownerID, id, map[string]interface{}{"parent_id": parent})
}

// DeleteOwned removes the listed todos in one statement and reports how many went
func (r *TodoRepository) DeleteOwned(ctx context.Context, ownerID string, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Delete(&model.Todo{})
	return result.RowsAffected, result.Error
}

func (r *TodoRepository) Transaction(ctx context.Context, fn func(tx TodoStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TodoRepository{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}
