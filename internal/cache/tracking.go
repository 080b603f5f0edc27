package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// LivePosition 实时位置快照，追踪页读取用
type LivePosition struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TrackingCache 实时位置缓存
type TrackingCache interface {
	SetPosition(ctx context.Context, userID int64, pos LivePosition) error
	// GetPosition 无记录返回 (nil, nil)
	GetPosition(ctx context.Context, userID int64) (*LivePosition, error)
}

// RedisTrackingCache 位置快照写入 Redis，过期时间兜底防泄漏
type RedisTrackingCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ TrackingCache = (*RedisTrackingCache)(nil)

func NewRedisTrackingCache(client *redis.Client, prefix string, ttl time.Duration) *RedisTrackingCache {
	return &RedisTrackingCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisTrackingCache) key(userID int64) string {
	return fmt.Sprintf("%s:tracking:position:%d", c.prefix, userID)
}

func (c *RedisTrackingCache) SetPosition(ctx context.Context, userID int64, pos LivePosition) error {
	payload, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID), payload, c.ttl).Err()
}

func (c *RedisTrackingCache) GetPosition(ctx context.Context, userID int64) (*LivePosition, error) {
	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var pos LivePosition
	if err := json.Unmarshal(raw, &pos); err != nil {
		return nil, err
	}
	return &pos, nil
}

// MemTrackingCache 进程内位置缓存，单测使用
type MemTrackingCache struct {
	store *gocache.Cache
}

var _ TrackingCache = (*MemTrackingCache)(nil)

func NewMemTrackingCache(ttl time.Duration) *MemTrackingCache {
	return &MemTrackingCache{store: gocache.New(ttl, time.Minute)}
}

func (c *MemTrackingCache) SetPosition(_ context.Context, userID int64, pos LivePosition) error {
	c.store.Set(strconv.FormatInt(userID, 10), pos, gocache.DefaultExpiration)
	return nil
}

func (c *MemTrackingCache) GetPosition(_ context.Context, userID int64) (*LivePosition, error) {
	v, ok := c.store.Get(strconv.FormatInt(userID, 10))
	if !ok {
		return nil, nil
	}
	pos := v.(LivePosition)
	return &pos, nil
}
