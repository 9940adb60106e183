package db

import "time"

// Result rows are append-only; the row count per (game, user) doubles as
// the attempt counter.
type Result struct {
	ID         uint      `gorm:"primaryKey"`
	GameID     string    `gorm:"size:36;not null;index:idx_results_game_user"`
	UserID     int64     `gorm:"not null;index:idx_results_game_user"`
	Username   string    `gorm:"size:128"`
	PromptText string    `gorm:"size:512;not null"`
	Score      int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}
