package handler

import (
	"context"
	"net/http"

	"workspace/internal/dto"
	"workspace/internal/model"

	"github.com/gin-gonic/gin"
)

// TopicService is the part of the Topic Store the API exposes.
type TopicService interface {
	Create(ctx context.Context, ownerID, name string) (*model.Topic, error)
	Rename(ctx context.Context, ownerID, topicUUID, name string) (*model.Topic, error)
	ListWithTodos(ctx context.Context, ownerID string) ([]model.Topic, error)
}

type TopicHandler struct {
	topics TopicService
}

func NewTopicHandler(topics TopicService) *TopicHandler {
	return &TopicHandler{topics: topics}
}

// List godoc
// @Summary      List topics with their todos
// @Tags         Topics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   dto.Topic
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /topics [get]
func (h *TopicHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	topics, err := h.topics.ListWithTodos(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTopics(topics))
}

// Create godoc
// @Summary      Create a topic
// @Tags         Topics
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateTopicRequest  true  "Topic"
// @Success      201   {object}  dto.Topic
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /topics [post]
func (h *TopicHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Topic name is required")
		return
	}

	topic, err := h.topics.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromTopic(*topic))
}

// Rename godoc
// @Summary      Rename a topic
// @Tags         Topics
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        uuid  path      string                  true  "Topic uuid"
// @Param        body  body      dto.RenameTopicRequest  true  "New name"
// @Success      200   {object}  dto.Topic
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /topics/{uuid} [put]
func (h *TopicHandler) Rename(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.RenameTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Topic name is required")
		return
	}

	topic, err := h.topics.Rename(c.Request.Context(), userID, c.Param("uuid"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTopic(*topic))
}
