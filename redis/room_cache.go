package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/N1cus0r/chat-backend/models"
)

// RoomCache keeps room projections keyed by join code so that hot read
// paths (room details, is-active checks) skip the database. Entries are
// written on lookup and dropped on every membership mutation.
type RoomCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomCache(client *redis.Client) *RoomCache {
	return &RoomCache{
		client: client,
		ttl:    10 * time.Minute,
	}
}

func roomKey(code string) string {
	return fmt.Sprintf("chat:room:%s", code)
}

// Get returns the cached room for code, or (nil, nil) on a cache miss.
func (c *RoomCache) Get(ctx context.Context, code string) (*models.Room, error) {
	data, err := c.client.Get(ctx, roomKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("room cache get: %w", err)
	}

	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		// A corrupt entry is dropped, not surfaced to the caller.
		log.Warnf("Dropping corrupt room cache entry for %s: %v", code, err)
		c.Invalidate(ctx, code)
		return nil, nil
	}
	return &room, nil
}

func (c *RoomCache) Set(ctx context.Context, room *models.Room) {
	data, err := json.Marshal(room)
	if err != nil {
		log.Errorf("Failed to marshal room %s for cache: %v", room.Code, err)
		return
	}
	if err := c.client.Set(ctx, roomKey(room.Code), data, c.ttl).Err(); err != nil {
		log.Warnf("Failed to cache room %s: %v", room.Code, err)
	}
}

func (c *RoomCache) Invalidate(ctx context.Context, code string) {
	if err := c.client.Del(ctx, roomKey(code)).Err(); err != nil {
		log.Warnf("Failed to invalidate room cache for %s: %v", code, err)
	}
}
