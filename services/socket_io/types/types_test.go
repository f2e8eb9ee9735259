package socketio_types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSocketServerConnections(t *testing.T) {
	s := NewSocketServer()
	assert.NotNil(t, s.UserConnections)

	_, ok := s.GetConnection("alice")
	assert.False(t, ok)

	s.AddConnection("alice", nil)
	client, ok := s.GetConnection("alice")
	assert.True(t, ok)
	assert.Nil(t, client)

	s.RemoveConnection("alice")
	_, ok = s.GetConnection("alice")
	assert.False(t, ok)
}

func TestNotifyUserUnknownUserIsANoop(t *testing.T) {
	s := NewSocketServer()
	// Must not panic when the user has no live connection.
	s.NotifyUser("ghost", "room_updated", map[string]string{"room_id": "room01"})
}
