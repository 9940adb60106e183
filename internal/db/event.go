package db

import (
	"time"

	"gorm.io/datatypes"
)

// Event is an append-only audit row for lifecycle and submission activity.
type Event struct {
	ID        uint           `gorm:"primaryKey"`
	GameID    string         `gorm:"size:36;index"`
	UserID    *int64         `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
