package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"songvault/model"

	"github.com/redis/go-redis/v9"
)

// SongCache is a read-through cache of song rows keyed by id. Only the row is
// cached, never a presigned URL; download URLs must be freshly signed on every
// read.
type SongCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSongCache creates a cache over the given Redis client.
func NewSongCache(rdb *redis.Client, ttl time.Duration) *SongCache {
	return &SongCache{rdb: rdb, ttl: ttl}
}

func songKey(id string) string {
	return fmt.Sprintf("song:%s", id)
}

// Get returns the cached row for id, or (nil, nil) on a miss.
func (c *SongCache) Get(ctx context.Context, id string) (*model.Song, error) {
	data, err := c.rdb.Get(ctx, songKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached song %q: %w", id, err)
	}

	song := &model.Song{}
	if err := json.Unmarshal(data, song); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached song %q: %w", id, err)
	}
	return song, nil
}

// Set stores the row under its id with the configured TTL.
func (c *SongCache) Set(ctx context.Context, song *model.Song) error {
	data, err := json.Marshal(song)
	if err != nil {
		return fmt.Errorf("failed to marshal song %q: %w", song.ID, err)
	}

	if err := c.rdb.Set(ctx, songKey(song.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache song %q: %w", song.ID, err)
	}
	return nil
}

// Invalidate drops the cached row for id.
func (c *SongCache) Invalidate(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, songKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached song %q: %w", id, err)
	}
	return nil
}
