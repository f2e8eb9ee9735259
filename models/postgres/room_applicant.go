package postgres

import (
	"time"
)

/*
 * 'RoomApplicant' is one user's individual application for a single_tenant
 * room. The composite primary key makes duplicate applications impossible
 * at the store level.
 */
type RoomApplicant struct {
	// NOTE: composite primary key definition
	RoomID    string    `gorm:"primaryKey;size:50;not null"`
	Username  string    `gorm:"primaryKey;size:50;not null;index"`
	AppliedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationship with the room and the applying user
	Room Room `gorm:"foreignKey:RoomID"`
	User User `gorm:"foreignKey:Username;references:Username"`
}
