package sync

import (
	redis_models "Roomly/models/redis"
	"Roomly/services/redis"
	socketio_types "Roomly/services/socket_io/types"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
)

// SyncManager refreshes the Redis room-view cache from committed
// Postgres state after a mutation and notifies socket.io watchers.
type SyncManager struct {
	redisClient *redis.RedisClient
	db          *sql.DB
	sio         *socketio_types.SocketServer
}

// NewSyncManager creates a new instance of the synchronization manager
func NewSyncManager(redisClient *redis.RedisClient, db *sql.DB, sio *socketio_types.SocketServer) *SyncManager {
	return &SyncManager{
		redisClient: redisClient,
		db:          db,
		sio:         sio,
	}
}

// SyncRoomView rebuilds the cached snapshot for a room from PostgreSQL
// and broadcasts the fresh state to the room's watchers.
func (sm *SyncManager) SyncRoomView(roomID string) error {
	view := &redis_models.RoomView{Id: roomID}

	roomQuery := `
		SELECT owner_username, title, location, price, room_type, status,
			max_occupants, selected_kind, selected_id,
			(SELECT COUNT(*) FROM room_applicants WHERE room_id = rooms.id),
			(SELECT COUNT(*) FROM parties WHERE room_id = rooms.id)
		FROM rooms
		WHERE id = $1
	`

	err := sm.db.QueryRow(roomQuery, roomID).Scan(
		&view.OwnerUsername,
		&view.Title,
		&view.Location,
		&view.Price,
		&view.RoomType,
		&view.Status,
		&view.MaxOccupants,
		&view.SelectedKind,
		&view.SelectedId,
		&view.ApplicantCount,
		&view.PartyCount)

	if err != nil {
		return fmt.Errorf("error reading room state from PostgreSQL: %v", err)
	}

	if err := sm.redisClient.SaveRoomView(view); err != nil {
		return fmt.Errorf("error saving room view to Redis: %v", err)
	}

	if sm.sio != nil {
		sm.sio.BroadcastRoomUpdate(roomID, view)
		// Owners hear about their listing even when not watching it.
		sm.sio.NotifyUser(view.OwnerUsername, "room_updated", gin.H{"room_id": roomID, "room": view})
	}

	return nil
}

// RemoveRoomView drops the cached snapshot of a deleted room and tells
// watchers the listing is gone.
func (sm *SyncManager) RemoveRoomView(roomID string) error {
	// Resolve the owner from the cached snapshot while it still exists.
	view, viewErr := sm.redisClient.GetRoomView(roomID)

	if err := sm.redisClient.DeleteRoomView(roomID); err != nil {
		return fmt.Errorf("error deleting room view from Redis: %v", err)
	}

	if sm.sio != nil {
		sm.sio.BroadcastRoomDeleted(roomID)
		if viewErr == nil {
			sm.sio.NotifyUser(view.OwnerUsername, "room_deleted", gin.H{"room_id": roomID})
		}
	}

	return nil
}
