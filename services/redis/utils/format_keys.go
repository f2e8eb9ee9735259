package redis_utils

import "fmt"

// FormatRoomViewKey builds the cache key for a room snapshot.
// Key format: "room_view:{id}"
func FormatRoomViewKey(roomID string) string {
	return fmt.Sprintf("room_view:%s", roomID)
}
