package repository

import "errors"

// Common repository errors
var (
	// ErrTopicNotFound is returned when a topic is missing or owned by someone else
	ErrTopicNotFound = errors.New("topic not found")

	// ErrTodoNotFound is returned when a todo is missing or owned by someone else
	ErrTodoNotFound = errors.New("todo not found")
)
