package handlers

import (
	redis_models "Roomly/models/redis"
	"Roomly/services/redis"
	socketio_types "Roomly/services/socket_io/types"
	"Roomly/utils"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
	"gorm.io/gorm"
)

// HandleWatchRoom subscribes the client to live updates of one room.
// Watchers receive room_updated / room_deleted events whenever the
// allocation state of the room changes.
func HandleWatchRoom(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing room id"})
			return
		}
		roomID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Invalid room id"})
			return
		}

		if _, err := utils.CheckRoomExists(db, roomID); err != nil {
			client.Emit("error", gin.H{"error": "Room does not exist"})
			return
		}

		client.Join(socket.Room(roomID))
		log.Printf("[WATCH] user %s is watching room %s", username, roomID)

		// Send the current snapshot right away so the client does not have
		// to wait for the next mutation.
		view, err := roomView(redisClient, db, roomID)
		if err != nil {
			client.Emit("error", gin.H{"error": "Error obtaining room information"})
			return
		}
		client.Emit("room_info", gin.H{"room_id": roomID, "room": view})
	}
}

// HandleUnwatchRoom drops the client's subscription to a room.
func HandleUnwatchRoom(client *socket.Socket, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing room id"})
			return
		}
		roomID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Invalid room id"})
			return
		}
		client.Leave(socket.Room(roomID))
		log.Printf("[WATCH] user %s stopped watching room %s", username, roomID)
	}
}

// HandleGetRoomInfo replies with the current snapshot of a room.
func HandleGetRoomInfo(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing room id"})
			return
		}
		roomID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Invalid room id"})
			return
		}

		view, err := roomView(redisClient, db, roomID)
		if err != nil {
			client.Emit("error", gin.H{"error": "Room does not exist"})
			return
		}
		client.Emit("room_info", gin.H{"room_id": roomID, "room": view})
	}
}

// Function to handle socket.io client disconnections.
func HandleDisconnecting(username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[DISCONNECT] user %s disconnecting", username)
		sio.RemoveConnection(username)
	}
}

// roomView serves the cached snapshot when present and falls back to
// Postgres on a cache miss.
func roomView(redisClient *redis.RedisClient, db *gorm.DB, roomID string) (*redis_models.RoomView, error) {
	if view, err := redisClient.GetRoomView(roomID); err == nil {
		return view, nil
	}

	room, err := utils.CheckRoomExists(db, roomID)
	if err != nil {
		return nil, err
	}

	var applicantCount, partyCount int64
	db.Table("room_applicants").Where("room_id = ?", roomID).Count(&applicantCount)
	db.Table("parties").Where("room_id = ?", roomID).Count(&partyCount)

	view := &redis_models.RoomView{
		Id:             room.ID,
		OwnerUsername:  room.OwnerUsername,
		Title:          room.Title,
		Location:       room.Location,
		Price:          room.Price,
		RoomType:       room.RoomType,
		Status:         room.Status,
		MaxOccupants:   room.MaxOccupants,
		ApplicantCount: int(applicantCount),
		PartyCount:     int(partyCount),
		SelectedKind:   room.SelectedKind,
		SelectedId:     room.SelectedID,
	}
	// Refill the cache so the next read is served from Redis.
	if err := redisClient.SaveRoomView(view); err != nil {
		log.Printf("[WATCH-ERROR] could not refill room view cache: %v", err)
	}
	return view, nil
}
