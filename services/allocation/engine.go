package allocation

import (
	constants "Roomly/constants/allocation"
	"Roomly/utils"
	"database/sql"
	"fmt"
	"log"
)

// Engine implements the room allocation rules: individual applications,
// tenant/party selection and room deletion. Every mutation runs as a
// single transaction whose writes are guarded UPDATE/INSERT/DELETE
// statements; the guard failing (zero rows affected) means another
// request won the race and the caller gets Conflict or InvalidState
// instead of a lost update. No operation blocks waiting on another.
type Engine struct {
	DB *sql.DB
	// CloseRivalParties closes the parties that lost the selection in the
	// same transaction that takes the room. Off by default: losing parties
	// stay open, matching the historical behavior.
	CloseRivalParties bool
}

func NewEngine(db *sql.DB, closeRivalParties bool) *Engine {
	return &Engine{DB: db, CloseRivalParties: closeRivalParties}
}

// roomRow is the slice of a room the engine decides on.
type roomRow struct {
	OwnerUsername string
	RoomType      string
	Status        string
	MaxOccupants  int
}

func (e *Engine) loadRoom(tx *sql.Tx, roomID string) (*roomRow, error) {
	var room roomRow
	err := tx.QueryRow(`
		SELECT owner_username, room_type, status, max_occupants
		FROM rooms
		WHERE id = $1
	`, roomID).Scan(&room.OwnerUsername, &room.RoomType, &room.Status, &room.MaxOccupants)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("room %s: %w", roomID, utils.ErrNotFound)
		}
		return nil, utils.StoreError(err)
	}
	return &room, nil
}

// ApplyIndividually adds the caller to a single_tenant room's applicant
// set and flips the room to pending on the first application.
func (e *Engine) ApplyIndividually(roomID string, username string) error {
	tx, err := e.DB.Begin()
	if err != nil {
		return utils.StoreError(err)
	}
	defer tx.Rollback()

	room, err := e.loadRoom(tx, roomID)
	if err != nil {
		return err
	}
	if room.RoomType != constants.RoomTypeSingleTenant {
		return fmt.Errorf("can only apply directly to single_tenant rooms: %w", utils.ErrInvalidState)
	}
	if room.Status == constants.RoomStatusTaken {
		return fmt.Errorf("room %s is no longer open for applications: %w", roomID, utils.ErrInvalidState)
	}

	res, err := tx.Exec(`
		INSERT INTO room_applicants (room_id, username, applied_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING
	`, roomID, username)
	if err != nil {
		return utils.StoreError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s already applied for room %s: %w", username, roomID, utils.ErrConflict)
	}

	// Serialization point on the room row: moves available -> pending and
	// rejects the application if a selection committed after our read.
	res, err = tx.Exec(`
		UPDATE rooms SET status = $2
		WHERE id = $1 AND status <> $3
	`, roomID, constants.RoomStatusPending, constants.RoomStatusTaken)
	if err != nil {
		return utils.StoreError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("room %s was taken concurrently: %w", roomID, utils.ErrInvalidState)
	}

	if err := tx.Commit(); err != nil {
		return utils.StoreError(err)
	}
	log.Printf("[ALLOC] user %s applied for room %s", username, roomID)
	return nil
}

// SelectTenant records the owner's final choice of tenant for a
// single_tenant room. One-way: a taken room can never be selected again.
func (e *Engine) SelectTenant(roomID string, ownerUsername string, tenantUsername string) error {
	tx, err := e.DB.Begin()
	if err != nil {
		return utils.StoreError(err)
	}
	defer tx.Rollback()

	room, err := e.loadRoom(tx, roomID)
	if err != nil {
		return err
	}
	if room.OwnerUsername != ownerUsername {
		return fmt.Errorf("only the room owner can select tenants: %w", utils.ErrForbidden)
	}
	if room.RoomType != constants.RoomTypeSingleTenant {
		return fmt.Errorf("can only select tenants for single_tenant rooms: %w", utils.ErrInvalidState)
	}
	if room.Status == constants.RoomStatusTaken {
		return fmt.Errorf("room %s is already taken: %w", roomID, utils.ErrInvalidState)
	}

	var applied int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM room_applicants
		WHERE room_id = $1 AND username = $2
	`, roomID, tenantUsername).Scan(&applied)
	if err != nil {
		return utils.StoreError(err)
	}
	if applied == 0 {
		return fmt.Errorf("user %s has not applied for room %s: %w", tenantUsername, roomID, utils.ErrNotFound)
	}

	res, err := tx.Exec(`
		UPDATE rooms SET status = $3, selected_kind = $4, selected_id = $2
		WHERE id = $1 AND status <> $3 AND room_type = $5
	`, roomID, tenantUsername, constants.RoomStatusTaken,
		constants.SelectedKindUser, constants.RoomTypeSingleTenant)
	if err != nil {
		return utils.StoreError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("room %s was taken concurrently: %w", roomID, utils.ErrInvalidState)
	}

	if err := tx.Commit(); err != nil {
		return utils.StoreError(err)
	}
	log.Printf("[ALLOC] room %s taken by tenant %s", roomID, tenantUsername)
	return nil
}

// SelectParty records the owner's final choice of party for a
// multi_tenant room. The party must have applied for this exact room and
// be at the room's full capacity; it is closed in the same transaction.
func (e *Engine) SelectParty(roomID string, ownerUsername string, partyID string) error {
	tx, err := e.DB.Begin()
	if err != nil {
		return utils.StoreError(err)
	}
	defer tx.Rollback()

	room, err := e.loadRoom(tx, roomID)
	if err != nil {
		return err
	}
	if room.OwnerUsername != ownerUsername {
		return fmt.Errorf("only the room owner can select parties: %w", utils.ErrForbidden)
	}
	if room.RoomType != constants.RoomTypeMultiTenant {
		return fmt.Errorf("can only select parties for multi_tenant rooms: %w", utils.ErrInvalidState)
	}
	if room.Status == constants.RoomStatusTaken {
		return fmt.Errorf("room %s is already taken: %w", roomID, utils.ErrInvalidState)
	}

	var partyRoomID, partyStatus string
	var memberCount int
	err = tx.QueryRow(`
		SELECT room_id, member_count, status FROM parties
		WHERE id = $1
	`, partyID).Scan(&partyRoomID, &memberCount, &partyStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("party %s: %w", partyID, utils.ErrNotFound)
		}
		return utils.StoreError(err)
	}
	if partyRoomID != roomID {
		return fmt.Errorf("party %s has not applied for room %s: %w", partyID, roomID, utils.ErrNotFound)
	}
	if partyStatus == constants.PartyStatusClosed {
		return fmt.Errorf("party %s is already closed: %w", partyID, utils.ErrInvalidState)
	}
	if memberCount != room.MaxOccupants {
		return fmt.Errorf("party must have exactly %d members: %w", room.MaxOccupants, utils.ErrInvalidState)
	}

	// Close the winning party, guarded on the member count so a concurrent
	// leave cannot slip below capacity between our read and the commit.
	res, err := tx.Exec(`
		UPDATE parties SET status = $3
		WHERE id = $1 AND status <> $3 AND member_count = $2
	`, partyID, room.MaxOccupants, constants.PartyStatusClosed)
	if err != nil {
		return utils.StoreError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("party %s changed concurrently: %w", partyID, utils.ErrConflict)
	}

	res, err = tx.Exec(`
		UPDATE rooms SET status = $3, selected_kind = $4, selected_id = $2
		WHERE id = $1 AND status <> $3
	`, roomID, partyID, constants.RoomStatusTaken, constants.SelectedKindParty)
	if err != nil {
		return utils.StoreError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("room %s was taken concurrently: %w", roomID, utils.ErrInvalidState)
	}

	if e.CloseRivalParties {
		_, err = tx.Exec(`
			UPDATE parties SET status = $3
			WHERE room_id = $1 AND id <> $2 AND status <> $3
		`, roomID, partyID, constants.PartyStatusClosed)
		if err != nil {
			return utils.StoreError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return utils.StoreError(err)
	}
	log.Printf("[ALLOC] room %s taken by party %s", roomID, partyID)
	return nil
}

// DeleteRoom removes a listing. A room with live, undecided applications
// may not be deleted; the guard re-checks inside the DELETE statement so
// an application racing the delete fails one side or the other.
func (e *Engine) DeleteRoom(roomID string, ownerUsername string) error {
	tx, err := e.DB.Begin()
	if err != nil {
		return utils.StoreError(err)
	}
	defer tx.Rollback()

	room, err := e.loadRoom(tx, roomID)
	if err != nil {
		return err
	}
	if room.OwnerUsername != ownerUsername {
		return fmt.Errorf("only the room owner can delete this listing: %w", utils.ErrForbidden)
	}

	if room.Status == constants.RoomStatusPending {
		var outstanding int
		err = tx.QueryRow(`
			SELECT (SELECT COUNT(*) FROM room_applicants WHERE room_id = $1)
			     + (SELECT COUNT(*) FROM parties WHERE room_id = $1)
		`, roomID).Scan(&outstanding)
		if err != nil {
			return utils.StoreError(err)
		}
		if outstanding > 0 {
			return fmt.Errorf("cannot delete room %s with pending applications: %w", roomID, utils.ErrConflict)
		}
	}

	res, err := tx.Exec(`
		DELETE FROM rooms
		WHERE id = $1 AND (status <> $2
			OR ((SELECT COUNT(*) FROM room_applicants WHERE room_id = $1) = 0
				AND (SELECT COUNT(*) FROM parties WHERE room_id = $1) = 0))
	`, roomID, constants.RoomStatusPending)
	if err != nil {
		return utils.StoreError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("room %s received applications concurrently: %w", roomID, utils.ErrConflict)
	}

	if err := tx.Commit(); err != nil {
		return utils.StoreError(err)
	}
	log.Printf("[ALLOC] room %s deleted by %s", roomID, ownerUsername)
	return nil
}
