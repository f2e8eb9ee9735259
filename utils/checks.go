package utils

import (
	"Roomly/models/postgres"
	"fmt"

	"gorm.io/gorm"
)

// Function to check if a room exists
func CheckRoomExists(db *gorm.DB, roomID string) (*postgres.Room, error) {
	var room postgres.Room
	result := db.Where("id = ?", roomID).First(&room)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("room not found: %w", ErrNotFound)
		}
		return nil, result.Error
	}

	return &room, nil
}

// Function to check if a party exists
func CheckPartyExists(db *gorm.DB, partyID string) (*postgres.Party, error) {
	var party postgres.Party
	result := db.Where("id = ?", partyID).First(&party)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("party not found: %w", ErrNotFound)
		}
		return nil, result.Error
	}

	return &party, nil
}

func IsApplicant(db *gorm.DB, roomID string, username string) (bool, error) {
	var count int64
	err := db.Model(&postgres.RoomApplicant{}).
		Where("room_id = ? AND username = ?", roomID, username).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Check if user is a member of the party
func IsPartyMember(db *gorm.DB, partyID string, username string) (bool, error) {
	var count int64
	err := db.Model(&postgres.PartyMember{}).
		Where("party_id = ? AND username = ?", partyID, username).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// UserByEmail resolves the account behind an authenticated email.
func UserByEmail(db *gorm.DB, email string) (*postgres.User, error) {
	var user postgres.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}
