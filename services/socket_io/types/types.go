package socketio_types

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// SocketServer is a struct that contains the socket.io server and a map of
// socket connections. It is used to handle socket.io connections.
type SocketServer struct {
	Sio_server *socket.Server
	// Map to track username -> socket connections
	UserConnections map[string]*socket.Socket
	mutex           sync.RWMutex
}

func NewSocketServer() *SocketServer {
	return &SocketServer{
		UserConnections: make(map[string]*socket.Socket),
	}
}

// Add methods to manage connections
func (s *SocketServer) AddConnection(username string, socket *socket.Socket) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.UserConnections[username] = socket
}

func (s *SocketServer) RemoveConnection(username string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.UserConnections, username)
}

func (s *SocketServer) GetConnection(username string) (*socket.Socket, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	socket, exists := s.UserConnections[username]
	return socket, exists
}

// NotifyUser emits an event straight to one user's connection, whether
// or not that user is watching the room the event concerns.
func (s *SocketServer) NotifyUser(username string, event string, payload interface{}) {
	client, ok := s.GetConnection(username)
	if !ok {
		return
	}
	client.Emit(event, payload)
}

// BroadcastRoomUpdate emits the fresh room state to every client watching
// the room.
func (s *SocketServer) BroadcastRoomUpdate(roomID string, view interface{}) {
	if s.Sio_server == nil {
		return
	}
	s.Sio_server.To(socket.Room(roomID)).Emit("room_updated", gin.H{"room_id": roomID, "room": view})
}

// BroadcastRoomDeleted tells watchers the listing no longer exists.
func (s *SocketServer) BroadcastRoomDeleted(roomID string) {
	if s.Sio_server == nil {
		return
	}
	s.Sio_server.To(socket.Room(roomID)).Emit("room_deleted", gin.H{"room_id": roomID})
}
