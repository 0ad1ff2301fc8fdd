package model

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Toggled returns the opposite completion state.
func (s Status) Toggled() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

type Priority string

// P00 is the most urgent level, NONE the least.
const (
	PriorityNone Priority = "NONE"
	PriorityP00  Priority = "P00"
	PriorityP0   Priority = "P0"
	PriorityP1   Priority = "P1"
	PriorityP2   Priority = "P2"
	PriorityP3   Priority = "P3"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityNone, PriorityP00, PriorityP0, PriorityP1, PriorityP2, PriorityP3:
		return true
	}
	return false
}

// Rank orders priorities for sorting: P00=0 through P3=4, anything else 5.
func (p Priority) Rank() int {
	switch p {
	case PriorityP00:
		return 0
	case PriorityP0:
		return 1
	case PriorityP1:
		return 2
	case PriorityP2:
		return 3
	case PriorityP3:
		return 4
	default:
		return 5
	}
}

type Todo struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Content   string     `gorm:"not null"`
	Status    Status     `gorm:"type:varchar(16);not null;default:PENDING"`
	Priority  Priority   `gorm:"type:varchar(8);not null;default:NONE"`
	DueDate   *Date      `gorm:"type:date"`
	TopicID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	TopicUUID string     `gorm:"column:topic_uuid;not null"`
	OwnerID   string     `gorm:"not null;index:idx_todos_owner_parent,priority:1"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index:idx_todos_owner_parent,priority:2"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *Todo) IsRoot() bool {
	return t.ParentID == nil
}
