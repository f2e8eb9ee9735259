package config

import (
	"Roomly/services/redis"
	"log"
	"os"
)

// Connect_redis dials the room-view cache. REDIS_URL may be a full
// redis:// URI for remote instances; unset falls back to a local one.
func Connect_redis() (*redis.RedisClient, error) {
	redisUri := os.Getenv("REDIS_URL")
	if redisUri == "" {
		redisUri = "localhost:6379"
	}
	redisClient, err := redis.InitRedis(redisUri, 0)
	if err != nil {
		log.Printf("Error connecting to Redis: %v", err)
		return nil, err
	}
	return redisClient, nil
}
