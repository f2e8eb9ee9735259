package postgres

import (
	constants "Roomly/constants/allocation"
	"math/rand"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
 * 'Room' defines the structure of a rental listing. Its status lifecycle is
 * available -> pending (first application) -> taken (selection, terminal).
 * RoomType decides which application path is legal: single_tenant rooms
 * collect RoomApplicant rows, multi_tenant rooms collect Party rows.
 */
type Room struct {
	ID            string `gorm:"primaryKey;size:50;not null"`
	OwnerUsername string `gorm:"size:50;not null;index:idx_rooms_owner"`
	Title         string `gorm:"size:200;not null"`
	Description   string `gorm:"size:2000"`
	Location      string `gorm:"size:100;index:idx_rooms_location"`
	Price         int    `gorm:"default:0"`
	Deposit       int    `gorm:"default:0"`
	Size          int    `gorm:"default:0"` // square meters
	RoomType      string `gorm:"size:20;not null;index:idx_rooms_type"`
	Status        string `gorm:"size:20;default:'available';index:idx_rooms_status"`
	MaxOccupants  int    `gorm:"default:1"` // only meaningful for multi_tenant rooms

	// Tagged reference to the winning applicant: kind is 'user' for
	// single_tenant rooms, 'party' for multi_tenant ones. Both stay empty
	// until the owner selects. status == 'taken' iff SelectedID != "".
	SelectedKind string `gorm:"size:10;default:''"`
	SelectedID   string `gorm:"size:50;default:''"`

	Amenities     datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	AvailableFrom time.Time      `gorm:"default:CURRENT_TIMESTAMP"`
	CreatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationships
	Owner      User             `gorm:"foreignKey:OwnerUsername;references:Username"`
	Applicants []*RoomApplicant `gorm:"foreignKey:RoomID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Parties    []*Party         `gorm:"foreignKey:RoomID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// IsAvailable reports whether the room can still receive applications.
// Derived from Status so there is a single source of truth.
func (r *Room) IsAvailable() bool {
	return r.Status != constants.RoomStatusTaken
}

// Random short id generation, shared by Room and Party
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateShortID(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

// Ensure the generated id is truly unique before inserting
func (r *Room) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID != "" {
		return nil
	}
	for {
		newID := generateShortID(constants.RoomIDLength)
		var existing Room
		if err := tx.Where("id = ?", newID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				r.ID = newID
				return nil
			}
			return err
		}
		// Otherwise, loop again to generate a new unique ID
	}
}
