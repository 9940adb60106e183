package db

import "time"

type Participant struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    string    `gorm:"size:36;not null;uniqueIndex:idx_participants_game_user"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_participants_game_user"`
	CreatedAt time.Time `gorm:"not null"`
}
