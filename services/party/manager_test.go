package party

import (
	"Roomly/utils"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

const roomQuery = `SELECT owner_username, room_type, status, max_occupants FROM rooms WHERE id = \$1`
const partyQuery = `SELECT room_id, max_members, member_count, status FROM parties WHERE id = \$1`

func TestPartyStatusFor(t *testing.T) {
	assert.Equal(t, "open", partyStatusFor(1, 3))
	assert.Equal(t, "open", partyStatusFor(2, 3))
	assert.Equal(t, "full", partyStatusFor(3, 3))
	assert.Equal(t, "full", partyStatusFor(1, 1))
}

func TestCreateParty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(sqlmock.NewRows([]string{"owner_username", "room_type", "status", "max_occupants"}).
			AddRow("owner", "multi_tenant", "available", 3))
	mock.ExpectExec(`INSERT INTO parties`).
		WithArgs(sqlmock.AnyArg(), "room01", "alice", 3, "open", "students, quiet").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO party_members \(party_id, room_id, username, joined_at\)`).
		WithArgs(sqlmock.AnyArg(), "room01", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE rooms SET status = \$2 WHERE id = \$1 AND status <> \$3`).
		WithArgs("room01", "pending", "taken").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	partyID, err := manager.CreateParty("room01", "alice", "students, quiet")
	assert.NoError(t, err)
	assert.Len(t, partyID, 6)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePartySingleTenantRoom(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(sqlmock.NewRows([]string{"owner_username", "room_type", "status", "max_occupants"}).
			AddRow("owner", "single_tenant", "available", 1))
	mock.ExpectRollback()

	_, err := manager.CreateParty("room01", "alice", "")
	assert.ErrorIs(t, err, utils.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePartyAlreadyInAParty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(roomQuery).
		WithArgs("room01").
		WillReturnRows(sqlmock.NewRows([]string{"owner_username", "room_type", "status", "max_occupants"}).
			AddRow("owner", "multi_tenant", "pending", 3))
	mock.ExpectExec(`INSERT INTO parties`).
		WithArgs(sqlmock.AnyArg(), "room01", "alice", 3, "open", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO party_members`).
		WithArgs(sqlmock.AnyArg(), "room01", "alice").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := manager.CreateParty("room01", "alice", "")
	assert.ErrorIs(t, err, utils.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinParty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(partyQuery).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "max_members", "member_count", "status"}).
			AddRow("room01", 3, 1, "open"))
	mock.ExpectExec(`UPDATE parties SET member_count = member_count \+ 1`).
		WithArgs("party1", "full", "open").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO party_members`).
		WithArgs("party1", "room01", "bob").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := manager.JoinParty("party1", "bob")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinPartyNotOpen(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(partyQuery).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "max_members", "member_count", "status"}).
			AddRow("room01", 3, 3, "full"))
	mock.ExpectRollback()

	err := manager.JoinParty("party1", "bob")
	assert.ErrorIs(t, err, utils.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinPartyNotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(partyQuery).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "max_members", "member_count", "status"}))
	mock.ExpectRollback()

	err := manager.JoinParty("nope", "bob")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Two joins race for the final seat; the seat guard in the UPDATE only
// lets one of them through.
func TestJoinPartyLastSeatTaken(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(partyQuery).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "max_members", "member_count", "status"}).
			AddRow("room01", 3, 2, "open"))
	mock.ExpectExec(`UPDATE parties SET member_count = member_count \+ 1`).
		WithArgs("party1", "full", "open").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := manager.JoinParty("party1", "bob")
	assert.ErrorIs(t, err, utils.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinPartyAlreadyInAParty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(partyQuery).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "max_members", "member_count", "status"}).
			AddRow("room01", 3, 1, "open"))
	mock.ExpectExec(`UPDATE parties SET member_count = member_count \+ 1`).
		WithArgs("party1", "full", "open").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO party_members`).
		WithArgs("party1", "room01", "bob").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := manager.JoinParty("party1", "bob")
	assert.ErrorIs(t, err, utils.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

const leavePartyQuery = `SELECT room_id, leader_username, member_count, status FROM parties WHERE id = \$1`

func TestLeavePartyRegularMember(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(leavePartyQuery).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "leader_username", "member_count", "status"}).
			AddRow("room01", "alice", 3, "full"))
	mock.ExpectExec(`DELETE FROM party_members WHERE party_id = \$1 AND username = \$2`).
		WithArgs("party1", "bob").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE parties SET member_count = member_count - 1`).
		WithArgs("party1", "full", "open", "closed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	dissolved, err := manager.LeaveParty("party1", "bob")
	assert.NoError(t, err)
	assert.False(t, dissolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeavePartyLeaderSuccession(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(leavePartyQuery).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "leader_username", "member_count", "status"}).
			AddRow("room01", "alice", 2, "open"))
	mock.ExpectExec(`DELETE FROM party_members`).
		WithArgs("party1", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE parties SET member_count = member_count - 1`).
		WithArgs("party1", "full", "open", "closed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT username FROM party_members WHERE party_id = \$1 ORDER BY seq ASC LIMIT 1`).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("bob"))
	mock.ExpectExec(`UPDATE parties SET leader_username = \$2`).
		WithArgs("party1", "bob").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	dissolved, err := manager.LeaveParty("party1", "alice")
	assert.NoError(t, err)
	assert.False(t, dissolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeavePartyLastMemberDissolves(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(leavePartyQuery).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "leader_username", "member_count", "status"}).
			AddRow("room01", "alice", 1, "open"))
	mock.ExpectExec(`DELETE FROM party_members`).
		WithArgs("party1", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE parties SET member_count = member_count - 1`).
		WithArgs("party1", "full", "open", "closed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT username FROM party_members`).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"username"}))
	mock.ExpectExec(`DELETE FROM parties WHERE id = \$1`).
		WithArgs("party1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	dissolved, err := manager.LeaveParty("party1", "alice")
	assert.NoError(t, err)
	assert.True(t, dissolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeavePartyClosedParty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(leavePartyQuery).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "leader_username", "member_count", "status"}).
			AddRow("room01", "alice", 3, "closed"))
	mock.ExpectRollback()

	_, err := manager.LeaveParty("party1", "alice")
	assert.ErrorIs(t, err, utils.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeavePartyNotAMember(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	manager := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectQuery(leavePartyQuery).
		WithArgs("party1").
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "leader_username", "member_count", "status"}).
			AddRow("room01", "alice", 2, "open"))
	mock.ExpectExec(`DELETE FROM party_members`).
		WithArgs("party1", "carol").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := manager.LeaveParty("party1", "carol")
	assert.ErrorIs(t, err, utils.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
