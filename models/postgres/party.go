package postgres

import (
	constants "Roomly/constants/allocation"
	"time"

	"gorm.io/gorm"
)

/*
 * 'Party' is a group of users jointly applying for a multi_tenant room.
 * A party is scoped to exactly one room for its whole life. MemberCount is
 * kept in lockstep with the PartyMember rows and acts as the guard column
 * for conditional joins: status is open while MemberCount < MaxMembers,
 * full once they match, and closed (terminal) when the party wins a room.
 */
type Party struct {
	ID             string    `gorm:"primaryKey;size:50;not null"`
	RoomID         string    `gorm:"size:50;not null;index:idx_parties_room"`
	LeaderUsername string    `gorm:"size:50;not null"`
	MaxMembers     int       `gorm:"not null"`
	MemberCount    int       `gorm:"default:1"`
	Status         string    `gorm:"size:20;default:'open';index:idx_parties_status"`
	Description    string    `gorm:"size:500"`
	CreatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationships
	Room    Room           `gorm:"foreignKey:RoomID"`
	Leader  User           `gorm:"foreignKey:LeaderUsername;references:Username"`
	Members []*PartyMember `gorm:"foreignKey:PartyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Ensure the generated id is truly unique before inserting
func (p *Party) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID != "" {
		return nil
	}
	for {
		newID := generateShortID(constants.PartyIDLength)
		var existing Party
		if err := tx.Where("id = ?", newID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				p.ID = newID
				return nil
			}
			return err
		}
	}
}
