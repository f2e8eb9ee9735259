package postgres

import (
	"time"
)

/*
 * 'PartyMember' links a user to a party. RoomID is denormalized from the
 * party so the unique (room_id, username) index can reject membership in
 * two parties for the same room inside the insert itself. Seq records join
 * order and decides leader succession (lowest wins).
 */
type PartyMember struct {
	// NOTE: composite primary key definition
	PartyID  string    `gorm:"primaryKey;size:50;not null"`
	Username string    `gorm:"primaryKey;size:50;not null;uniqueIndex:idx_party_members_room_user"`
	RoomID   string    `gorm:"size:50;not null;uniqueIndex:idx_party_members_room_user"`
	Seq      int64     `gorm:"autoIncrement"`
	JoinedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationship with the party and the user
	Party Party `gorm:"foreignKey:PartyID"`
	User  User  `gorm:"foreignKey:Username;references:Username"`
}
