package db

import "time"

type Game struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    string    `gorm:"size:36;uniqueIndex;not null"`
	Prompt    string    `gorm:"size:512;not null"`
	PhotoID   string    `gorm:"size:128"`
	Status    string    `gorm:"size:16;not null;default:pending;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
