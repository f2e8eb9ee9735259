package redis

import (
	redis_models "Roomly/models/redis"
	redis_utils "Roomly/services/redis/utils"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	constants "Roomly/constants/allocation"

	"github.com/redis/go-redis/v9"
)

// RedisClient handles Redis operations for the room-view cache
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(Addr string, DB int) *RedisClient {
	var client *redis.Client
	if Addr != "localhost:6379" {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(Addr)
		if err != nil {
			panic("Error parsing Redis URL")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: Addr,
			DB:   DB,
		})
	}
	return &RedisClient{
		client: client,
		ctx:    context.Background(),
	}
}

// SaveRoomView stores a room snapshot in Redis
// Key format: "room_view:{id}"
// TTL: 24 hours
func (rc *RedisClient) SaveRoomView(view *redis_models.RoomView) error {
	key := redis_utils.FormatRoomViewKey(view.Id)
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("error marshaling room view: %v", err)
	}
	return rc.client.Set(rc.ctx, key, data, constants.RoomViewTTLHours*time.Hour).Err()
}

// GetRoomView retrieves a room snapshot from Redis
// Key format: "room_view:{id}"
// Returns: RoomView struct or error
func (rc *RedisClient) GetRoomView(roomID string) (*redis_models.RoomView, error) {
	key := redis_utils.FormatRoomViewKey(roomID)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("error getting room view: %v", err)
	}

	var view redis_models.RoomView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("error unmarshaling room view: %v", err)
	}
	return &view, nil
}

// DeleteRoomView removes a room snapshot from Redis
// Key format: "room_view:{id}"
func (rc *RedisClient) DeleteRoomView(roomID string) error {
	key := redis_utils.FormatRoomViewKey(roomID)
	if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting room view: %v", err)
	}
	return nil
}
