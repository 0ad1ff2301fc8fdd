package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"workspace/internal/cache"
	"workspace/internal/model"
	"workspace/internal/repository"
)

// TopicService is the Topic Store: owner-scoped topic CRUD plus the cached
// workspace listing.
type TopicService struct {
	topics repository.TopicStore
	cache  cache.WorkspaceCache
	logger *slog.Logger
}

func NewTopicService(topics repository.TopicStore, wc cache.WorkspaceCache, logger *slog.Logger) *TopicService {
	if wc == nil {
		wc = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicService{topics: topics, cache: wc, logger: logger}
}

func (s *TopicService) Create(ctx context.Context, ownerID, name string) (*model.Topic, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("topic name must not be empty")
	}

	topic := &model.Topic{
		Name:    name,
		OwnerID: ownerID,
		UUID:    model.NewTopicUUID(),
	}
	if err := s.topics.Create(ctx, topic); err != nil {
		return nil, storageError(err)
	}

	s.logger.InfoContext(ctx, "topic created", "owner", ownerID, "uuid", topic.UUID)
	invalidate(ctx, s.cache, s.logger, ownerID)
	return topic, nil
}

func (s *TopicService) Rename(ctx context.Context, ownerID, topicUUID, name string) (*model.Topic, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("topic name must not be empty")
	}

	topic, err := s.topics.Rename(ctx, ownerID, topicUUID, name)
	if err != nil {
		return nil, storageError(err)
	}

	invalidate(ctx, s.cache, s.logger, ownerID)
	return topic, nil
}

func (s *TopicService) GetByUUID(ctx context.Context, ownerID, topicUUID string) (*model.Topic, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	topic, err := s.topics.GetByUUID(ctx, ownerID, topicUUID)
	if err != nil {
		return nil, storageError(err)
	}
	return topic, nil
}

func (s *TopicService) List(ctx context.Context, ownerID string) ([]model.Topic, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	topics, err := s.topics.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageError(err)
	}
	return topics, nil
}

// ListWithTodos returns every topic of the owner with its todos nested,
// serving from the workspace cache when a snapshot is present. A miss is
// filled under the generation seen before the storage read.
func (s *TopicService) ListWithTodos(ctx context.Context, ownerID string) ([]model.Topic, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	data, gen, ok, err := s.cache.Get(ctx, ownerID)
	fill := err == nil
	if err != nil {
		s.logger.WarnContext(ctx, "workspace cache read failed", "owner", ownerID, "error", err)
	} else if ok {
		var topics []model.Topic
		if err := json.Unmarshal(data, &topics); err == nil {
			return topics, nil
		}
		s.logger.WarnContext(ctx, "discarding corrupt workspace snapshot", "owner", ownerID)
	}

	topics, err := s.topics.ListWithTodos(ctx, ownerID)
	if err != nil {
		return nil, storageError(err)
	}
	if !fill {
		return topics, nil
	}

	if data, err := json.Marshal(topics); err == nil {
		if err := s.cache.Set(ctx, ownerID, gen, data); err != nil {
			s.logger.WarnContext(ctx, "workspace cache write failed", "owner", ownerID, "error", err)
		}
	}
	return topics, nil
}

func invalidate(ctx context.Context, wc cache.WorkspaceCache, logger *slog.Logger, ownerID string) {
	if err := wc.Invalidate(ctx, ownerID); err != nil {
		logger.WarnContext(ctx, "workspace cache invalidation failed", "owner", ownerID, "error", err)
	}
}
