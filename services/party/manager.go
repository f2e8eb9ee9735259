package party

import (
	constants "Roomly/constants/allocation"
	"Roomly/utils"
	"database/sql"
	"fmt"
	"log"
	"math/rand"

	"github.com/lib/pq"
)

// Manager implements party formation for multi_tenant rooms: creation,
// joins, leaves, leader succession and dissolution. Same store discipline
// as the allocation engine: one transaction per operation, every write
// guarded, zero rows affected means the racer lost.
type Manager struct {
	DB *sql.DB
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{DB: db}
}

// partyStatusFor recomputes a party's status from its member count.
// Closed is terminal and never produced here.
func partyStatusFor(memberCount int, maxMembers int) string {
	if memberCount >= maxMembers {
		return constants.PartyStatusFull
	}
	return constants.PartyStatusOpen
}

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newPartyID() string {
	b := make([]byte, constants.PartyIDLength)
	for i := range b {
		b[i] = idCharset[rand.Intn(len(idCharset))]
	}
	return string(b)
}

// uniqueViolation reports whether err is the store rejecting a duplicate
// key, which is how membership uniqueness invariants surface.
func uniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// CreateParty opens a new party for a multi_tenant room with the caller
// as leader and sole member. The unique (room_id, username) index on
// member rows rejects a caller who already has a party for the room, so
// the check holds even when two creates race.
func (m *Manager) CreateParty(roomID string, username string, description string) (string, error) {
	tx, err := m.DB.Begin()
	if err != nil {
		return "", utils.StoreError(err)
	}
	defer tx.Rollback()

	var ownerUsername, roomType, status string
	var maxOccupants int
	err = tx.QueryRow(`
		SELECT owner_username, room_type, status, max_occupants
		FROM rooms
		WHERE id = $1
	`, roomID).Scan(&ownerUsername, &roomType, &status, &maxOccupants)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("room %s: %w", roomID, utils.ErrNotFound)
		}
		return "", utils.StoreError(err)
	}
	if roomType != constants.RoomTypeMultiTenant {
		return "", fmt.Errorf("can only create parties for multi_tenant rooms: %w", utils.ErrInvalidState)
	}
	if status == constants.RoomStatusTaken {
		return "", fmt.Errorf("room %s is no longer open for applications: %w", roomID, utils.ErrInvalidState)
	}

	partyID := newPartyID()
	res, err := tx.Exec(`
		INSERT INTO parties (id, room_id, leader_username, max_members, member_count, status, description, created_at)
		VALUES ($1, $2, $3, $4, 1, $5, $6, NOW())
		ON CONFLICT (id) DO NOTHING
	`, partyID, roomID, username, maxOccupants, partyStatusFor(1, maxOccupants), description)
	if err != nil {
		return "", utils.StoreError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Generated id collided with an existing party; have the caller retry.
		return "", fmt.Errorf("party id collision: %w", utils.ErrConflict)
	}

	_, err = tx.Exec(`
		INSERT INTO party_members (party_id, room_id, username, joined_at)
		VALUES ($1, $2, $3, NOW())
	`, partyID, roomID, username)
	if err != nil {
		if uniqueViolation(err) {
			return "", fmt.Errorf("user %s already has a party for room %s: %w", username, roomID, utils.ErrConflict)
		}
		return "", utils.StoreError(err)
	}

	// Serialization point on the room row, same as individual applications.
	res, err = tx.Exec(`
		UPDATE rooms SET status = $2
		WHERE id = $1 AND status <> $3
	`, roomID, constants.RoomStatusPending, constants.RoomStatusTaken)
	if err != nil {
		return "", utils.StoreError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("room %s was taken concurrently: %w", roomID, utils.ErrInvalidState)
	}

	if err := tx.Commit(); err != nil {
		return "", utils.StoreError(err)
	}
	log.Printf("[PARTY] %s created party %s for room %s", username, partyID, roomID)
	return partyID, nil
}

// JoinParty admits the caller into an open party. The seat guard lives in
// the UPDATE predicate: when two joins race for the last seat, the second
// one finds member_count already at capacity and fails.
func (m *Manager) JoinParty(partyID string, username string) error {
	tx, err := m.DB.Begin()
	if err != nil {
		return utils.StoreError(err)
	}
	defer tx.Rollback()

	var roomID, status string
	var maxMembers, memberCount int
	err = tx.QueryRow(`
		SELECT room_id, max_members, member_count, status
		FROM parties
		WHERE id = $1
	`, partyID).Scan(&roomID, &maxMembers, &memberCount, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("party %s: %w", partyID, utils.ErrNotFound)
		}
		return utils.StoreError(err)
	}
	if status != constants.PartyStatusOpen {
		return fmt.Errorf("party %s is not open for new members: %w", partyID, utils.ErrInvalidState)
	}

	res, err := tx.Exec(`
		UPDATE parties
		SET member_count = member_count + 1,
			status = CASE WHEN member_count + 1 >= max_members THEN $2 ELSE $3 END
		WHERE id = $1 AND status = $3 AND member_count < max_members
	`, partyID, constants.PartyStatusFull, constants.PartyStatusOpen)
	if err != nil {
		return utils.StoreError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("party %s filled up concurrently: %w", partyID, utils.ErrInvalidState)
	}

	_, err = tx.Exec(`
		INSERT INTO party_members (party_id, room_id, username, joined_at)
		VALUES ($1, $2, $3, NOW())
	`, partyID, roomID, username)
	if err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("user %s is already in a party for room %s: %w", username, roomID, utils.ErrConflict)
		}
		return utils.StoreError(err)
	}

	if err := tx.Commit(); err != nil {
		return utils.StoreError(err)
	}
	log.Printf("[PARTY] %s joined party %s", username, partyID)
	return nil
}

// LeaveParty removes the caller from a party. When the leader leaves the
// earliest-joined remaining member takes over; when the last member
// leaves the party is deleted, which also withdraws its application for
// the room. Returns true when the party was dissolved.
func (m *Manager) LeaveParty(partyID string, username string) (dissolved bool, err error) {
	tx, err := m.DB.Begin()
	if err != nil {
		return false, utils.StoreError(err)
	}
	defer tx.Rollback()

	var roomID, leaderUsername, status string
	var memberCount int
	err = tx.QueryRow(`
		SELECT room_id, leader_username, member_count, status
		FROM parties
		WHERE id = $1
	`, partyID).Scan(&roomID, &leaderUsername, &memberCount, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, fmt.Errorf("party %s: %w", partyID, utils.ErrNotFound)
		}
		return false, utils.StoreError(err)
	}
	if status == constants.PartyStatusClosed {
		return false, fmt.Errorf("party %s is closed and immutable: %w", partyID, utils.ErrInvalidState)
	}

	res, err := tx.Exec(`
		DELETE FROM party_members
		WHERE party_id = $1 AND username = $2
	`, partyID, username)
	if err != nil {
		return false, utils.StoreError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, fmt.Errorf("user %s is not a member of party %s: %w", username, partyID, utils.ErrConflict)
	}

	res, err = tx.Exec(`
		UPDATE parties
		SET member_count = member_count - 1,
			status = CASE WHEN member_count - 1 >= max_members THEN $2 ELSE $3 END
		WHERE id = $1 AND status <> $4 AND member_count > 0
	`, partyID, constants.PartyStatusFull, constants.PartyStatusOpen, constants.PartyStatusClosed)
	if err != nil {
		return false, utils.StoreError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, fmt.Errorf("party %s was closed concurrently: %w", partyID, utils.ErrConflict)
	}

	if username != leaderUsername {
		if err := tx.Commit(); err != nil {
			return false, utils.StoreError(err)
		}
		log.Printf("[PARTY] %s left party %s", username, partyID)
		return false, nil
	}

	// Leader left: promote the earliest-joined remaining member, or
	// dissolve the party when nobody is left.
	var successor string
	err = tx.QueryRow(`
		SELECT username FROM party_members
		WHERE party_id = $1
		ORDER BY seq ASC
		LIMIT 1
	`, partyID).Scan(&successor)
	if err == sql.ErrNoRows {
		if _, err := tx.Exec(`DELETE FROM parties WHERE id = $1`, partyID); err != nil {
			return false, utils.StoreError(err)
		}
		if err := tx.Commit(); err != nil {
			return false, utils.StoreError(err)
		}
		log.Printf("[PARTY] party %s dissolved, last member %s left", partyID, username)
		return true, nil
	}
	if err != nil {
		return false, utils.StoreError(err)
	}

	if _, err := tx.Exec(`
		UPDATE parties SET leader_username = $2
		WHERE id = $1
	`, partyID, successor); err != nil {
		return false, utils.StoreError(err)
	}

	if err := tx.Commit(); err != nil {
		return false, utils.StoreError(err)
	}
	log.Printf("[PARTY] %s left party %s, leadership passed to %s", username, partyID, successor)
	return false, nil
}
