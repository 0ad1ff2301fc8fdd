package handler

import (
	"context"
	"net/http"
	"strings"

	"workspace/internal/dto"
	"workspace/internal/model"
	"workspace/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TodoService is the Todo Tree Engine as seen by the API.
type TodoService interface {
	Create(ctx context.Context, ownerID string, in service.CreateTodoInput) (*model.Todo, error)
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*model.Todo, error)
	ListByTopic(ctx context.Context, ownerID, topicUUID string) ([]model.Todo, error)
	UpdateFields(ctx context.Context, ownerID string, id uuid.UUID, patch service.TodoPatch) (*model.Todo, error)
	Reparent(ctx context.Context, ownerID string, id uuid.UUID, newParentID *uuid.UUID) (*model.Todo, error)
	CascadeDelete(ctx context.Context, ownerID string, id uuid.UUID) ([]uuid.UUID, error)
}

type TodoHandler struct {
	todos TodoService
}

func NewTodoHandler(todos TodoService) *TodoHandler {
	return &TodoHandler{todos: todos}
}

// List godoc
// @Summary      List the todos of a topic
// @Tags         Todos
// @Produce      json
// @Security     BearerAuth
// @Param        topicId  query     string  true  "Topic uuid"
// @Success      200      {array}   dto.Todo
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	topicID := strings.TrimSpace(c.Query("topicId"))
	if topicID == "" {
		badRequest(c, "topicId query parameter is required")
		return
	}

	todos, err := h.todos.ListByTopic(c.Request.Context(), userID, topicID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTodos(todos))
}

// GetByID godoc
// @Summary      Get a todo
// @Tags         Todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Todo id"
// @Success      200  {object}  dto.Todo
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	todo, err := h.todos.Get(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTodo(*todo))
}

// Create godoc
// @Summary      Create a root todo in a topic
// @Tags         Todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateTodoRequest  true  "Todo"
// @Success      201   {object}  dto.Todo
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Content and topicId are required")
		return
	}

	todo, err := h.todos.Create(c.Request.Context(), userID, service.CreateTodoInput{
		TopicUUID: req.TopicID,
		Content:   req.Content,
		Priority:  req.Priority,
		DueDate:   req.DueDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromTodo(*todo))
}

// Update godoc
// @Summary      Update content, priority, due date or status
// @Tags         Todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Todo id"
// @Param        body  body      dto.UpdateTodoRequest  true  "Fields to change"
// @Success      200   {object}  dto.Todo
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /todos/{id} [put]
func (h *TodoHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	todo, err := h.todos.UpdateFields(c.Request.Context(), userID, id, service.TodoPatch{
		Content:    req.Content,
		Priority:   req.Priority,
		Status:     req.Status,
		DueDate:    req.DueDate.Value,
		DueDateSet: req.DueDate.Set,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTodo(*todo))
}

// Delete godoc
// @Summary      Delete a todo and all of its descendants
// @Tags         Todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Todo id"
// @Success      200  {object}  dto.DeleteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.todos.CascadeDelete(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	ids := make([]string, 0, len(deleted))
	for _, d := range deleted {
		ids = append(ids, d.String())
	}
	c.JSON(http.StatusOK, dto.DeleteResponse{Status: "ok", Deleted: ids})
}

// Reparent godoc
// @Summary      Move a todo under another todo or to the root
// @Tags         Todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Todo id"
// @Param        body  body      dto.ReparentRequest  true  "New parent, null for root"
// @Success      200   {object}  dto.Todo
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /todos/{id}/reparent [patch]
func (h *TodoHandler) Reparent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.ReparentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	var parentID *uuid.UUID
	if req.NewParentID != nil && *req.NewParentID != "" {
		p, err := uuid.Parse(*req.NewParentID)
		if err != nil {
			badRequest(c, "Invalid newParentId format")
			return
		}
		parentID = &p
	}

	todo, err := h.todos.Reparent(c.Request.Context(), userID, id, parentID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTodo(*todo))
}
