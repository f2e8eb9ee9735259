package postgres

import (
	"time"
)

/*
 * 'User' contains the blueprint definition of a Roomly account. Rooms and
 * parties reference users by their unique username.
 */
type User struct {
	Email        string    `gorm:"primaryKey;size:100;not null"`
	Username     string    `gorm:"size:50;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	FullName     string    `gorm:"size:100"`
	Bio          string    `gorm:"size:500"`
	IsRoomOwner  bool      `gorm:"default:false"`
	MemberSince  time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}
