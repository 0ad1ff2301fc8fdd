package repository

import (
	"context"
	"errors"
	"time"

	"workspace/internal/model"

	"gorm.io/gorm"
)

type TopicStore interface {
	Create(ctx context.Context, topic *model.Topic) error
	GetByUUID(ctx context.Context, ownerID, topicUUID string) (*model.Topic, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Topic, error)
	ListWithTodos(ctx context.Context, ownerID string) ([]model.Topic, error)
	Rename(ctx context.Context, ownerID, topicUUID, name string) (*model.Topic, error)
}

var _ TopicStore = (*TopicRepository)(nil)

type TopicRepository struct {
	db *gorm.DB
}

func NewTopicRepository(db *gorm.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

func (r *TopicRepository) Create(ctx context.Context, topic *model.Topic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}

// GetByUUID looks a topic up by its external identifier, scoped to the owner.
func (r *TopicRepository) GetByUUID(ctx context.Context, ownerID, topicUUID string) (*model.Topic, error) {
	var topic model.Topic
	err := r.db.WithContext(ctx).
		Where("uuid = ? AND owner_id = ?", topicUUID, ownerID).
		First(&topic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, err
	}
	return &topic, nil
}

func (r *TopicRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Topic, error) {
	var topics []model.Topic
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&topics).Error
	return topics, err
}

// ListWithTodos returns the owner's topics with their todos preloaded.
func (r *TopicRepository) ListWithTodos(ctx context.Context, ownerID string) ([]model.Topic, error) {
	var topics []model.Topic
	err := r.db.WithContext(ctx).
		Preload("Todos", func(db *gorm.DB) *gorm.DB {
			return db.Where("owner_id = ?", ownerID).Order("created_at DESC")
		}).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&topics).Error
	return topics, err
}

func (r *TopicRepository) Rename(ctx context.Context, ownerID, topicUUID, name string) (*model.Topic, error) {
	result := r.db.WithContext(ctx).Model(&model.Topic{}).
		Where("uuid = ? AND owner_id = ?", topicUUID, ownerID).
		Updates(map[string]interface{}{
			"name":       name,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrTopicNotFound
	}
	return r.GetByUUID(ctx, ownerID, topicUUID)
}
