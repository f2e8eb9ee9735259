package allocation

import (
	"Roomly/utils"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

const roomQuery = `SELECT owner_username, room_type, status, max_occupants FROM rooms WHERE id = \$1`

func roomRows(owner, roomType, status string, maxOccupants int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"owner_username", "room_type", "status", "max_occupants"}).
		AddRow(owner, roomType, status, maxOccupants)
}

func TestApplyIndividually(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "available", 1))
	mock.ExpectExec(`INSERT INTO room_applicants \(room_id, username, applied_at\) VALUES \(\$1, \$2, NOW\(\)\) ON CONFLICT DO NOTHING`).
		WithArgs("room01", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE rooms SET status = \$2 WHERE id = \$1 AND status <> \$3`).
		WithArgs("room01", "pending", "taken").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := engine.ApplyIndividually("room01", "alice")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyIndividuallyRoomNotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"owner_username", "room_type", "status", "max_occupants"}))
	mock.ExpectRollback()

	err := engine.ApplyIndividually("nope", "alice")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyIndividuallyMultiTenantRoom(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "multi_tenant", "available", 3))
	mock.ExpectRollback()

	err := engine.ApplyIndividually("room01", "alice")
	assert.ErrorIs(t, err, utils.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyIndividuallyTakenRoom(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "taken", 1))
	mock.ExpectRollback()

	err := engine.ApplyIndividually("room01", "alice")
	assert.ErrorIs(t, err, utils.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyIndividuallyDuplicate(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "pending", 1))
	mock.ExpectExec(`INSERT INTO room_applicants`).
		WithArgs("room01", "alice").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := engine.ApplyIndividually("room01", "alice")
	assert.ErrorIs(t, err, utils.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The room read said available, but the status guard finds the room taken
// by a selection that committed in between.
func TestApplyIndividuallyLosesRace(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "available", 1))
	mock.ExpectExec(`INSERT INTO room_applicants`).
		WithArgs("room01", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE rooms SET status = \$2`).
		WithArgs("room01", "pending", "taken").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := engine.ApplyIndividually("room01", "alice")
	assert.ErrorIs(t, err, utils.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectTenant(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "pending", 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM room_applicants WHERE room_id = \$1 AND username = \$2`).
		WithArgs("room01", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE rooms SET status = \$3, selected_kind = \$4, selected_id = \$2`).
		WithArgs("room01", "alice", "taken", "user", "single_tenant").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := engine.SelectTenant("room01", "owner", "alice")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectTenantNotOwner(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "pending", 1))
	mock.ExpectRollback()

	err := engine.SelectTenant("room01", "mallory", "alice")
	assert.ErrorIs(t, err, utils.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectTenantNotAnApplicant(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "pending", 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM room_applicants`).
		WithArgs("room01", "bob").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	err := engine.SelectTenant("room01", "owner", "bob")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The room read still said pending, but a rival selection committed in
// between; the status guard on the take UPDATE affects 0 rows.
func TestSelectTenantLosesRace(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "pending", 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM room_applicants WHERE room_id = \$1 AND username = \$2`).
		WithArgs("room01", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE rooms SET status = \$3, selected_kind = \$4, selected_id = \$2`).
		WithArgs("room01", "alice", "taken", "user", "single_tenant").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := engine.SelectTenant("room01", "owner", "alice")
	assert.ErrorIs(t, err, utils.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectTenantAlreadyTaken(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "taken", 1))
	mock.ExpectRollback()

	err := engine.SelectTenant("room01", "owner", "alice")
	assert.ErrorIs(t, err, utils.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectParty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "multi_tenant", "pending", 3))
	mock.ExpectQuery(`SELECT room_id, member_count, status FROM parties WHERE id = \$1`).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "member_count", "status"}).
			AddRow("room01", 3, "full"))
	mock.ExpectExec(`UPDATE parties SET status = \$3 WHERE id = \$1 AND status <> \$3 AND member_count = \$2`).
		WithArgs("party1", 3, "closed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE rooms SET status = \$3, selected_kind = \$4, selected_id = \$2`).
		WithArgs("room01", "party1", "taken", "party").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := engine.SelectParty("room01", "owner", "party1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectPartyClosesRivals(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, true)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "multi_tenant", "pending", 2))
	mock.ExpectQuery(`SELECT room_id, member_count, status FROM parties`).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "member_count", "status"}).
			AddRow("room01", 2, "full"))
	mock.ExpectExec(`UPDATE parties SET status = \$3 WHERE id = \$1`).
		WithArgs("party1", 2, "closed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE rooms SET status = \$3`).
		WithArgs("room01", "party1", "taken", "party").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE parties SET status = \$3 WHERE room_id = \$1 AND id <> \$2 AND status <> \$3`).
		WithArgs("room01", "party1", "closed").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := engine.SelectParty("room01", "owner", "party1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectPartyWrongRoom(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "multi_tenant", "pending", 3))
	mock.ExpectQuery(`SELECT room_id, member_count, status FROM parties`).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "member_count", "status"}).
			AddRow("other_room", 3, "full"))
	mock.ExpectRollback()

	err := engine.SelectParty("room01", "owner", "party1")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectPartyNotAtCapacity(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "multi_tenant", "pending", 3))
	mock.ExpectQuery(`SELECT room_id, member_count, status FROM parties`).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "member_count", "status"}).
			AddRow("room01", 2, "open"))
	mock.ExpectRollback()

	err := engine.SelectParty("room01", "owner", "party1")
	assert.ErrorIs(t, err, utils.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A member left between the party read and the close; the member_count
// guard catches it.
func TestSelectPartyMemberLeftConcurrently(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "multi_tenant", "pending", 3))
	mock.ExpectQuery(`SELECT room_id, member_count, status FROM parties`).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "member_count", "status"}).
			AddRow("room01", 3, "full"))
	mock.ExpectExec(`UPDATE parties SET status = \$3 WHERE id = \$1`).
		WithArgs("party1", 3, "closed").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := engine.SelectParty("room01", "owner", "party1")
	assert.ErrorIs(t, err, utils.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoomAvailable(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "available", 1))
	mock.ExpectExec(`DELETE FROM rooms WHERE id = \$1`).
		WithArgs("room01", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := engine.DeleteRoom("room01", "owner")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoomNotOwner(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "available", 1))
	mock.ExpectRollback()

	err := engine.DeleteRoom("room01", "mallory")
	assert.ErrorIs(t, err, utils.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoomWithApplications(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "pending", 1))
	mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM room_applicants WHERE room_id = \$1\)`).
		WithArgs("room01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := engine.DeleteRoom("room01", "owner")
	assert.ErrorIs(t, err, utils.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The outstanding-count precheck passed but an application slipped in
// before the DELETE; the re-check inside the statement rejects it.
func TestDeleteRoomApplicationRace(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	engine := NewEngine(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(roomRows("owner", "single_tenant", "pending", 1))
	mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM room_applicants WHERE room_id = \$1\)`).
		WithArgs("room01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM rooms WHERE id = \$1`).
		WithArgs("room01", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := engine.DeleteRoom("room01", "owner")
	assert.ErrorIs(t, err, utils.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
