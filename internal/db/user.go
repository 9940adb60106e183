package db

import "time"

type User struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false"`
	Username  string    `gorm:"size:128"`
	Phone     string    `gorm:"size:32"`
	State     string    `gorm:"size:16;not null;default:new"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
