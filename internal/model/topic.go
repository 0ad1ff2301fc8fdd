package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Topic struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name      string    `gorm:"not null"`
	OwnerID   string    `gorm:"not null;index"`
	UUID      string    `gorm:"column:uuid;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Todos []Todo `gorm:"foreignKey:TopicID"`
}

// NewTopicUUID returns a fresh 32 character hex identifier for external references.
func NewTopicUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
