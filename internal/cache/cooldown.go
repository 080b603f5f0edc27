// Package cache 封装围栏冷却去重与实时位置缓存
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown 围栏事件冷却窗口
// TryAcquire 在窗口内首次调用返回 true，窗口内重复调用返回 false
type Cooldown interface {
	TryAcquire(ctx context.Context, userID int64, eventType string, window time.Duration) (bool, error)
}

// RedisCooldown 多实例部署下的冷却实现，SET NX + TTL
type RedisCooldown struct {
	client *redis.Client
	prefix string
}

var _ Cooldown = (*RedisCooldown)(nil)

func NewRedisCooldown(client *redis.Client, prefix string) *RedisCooldown {
	return &RedisCooldown{client: client, prefix: prefix}
}

func (c *RedisCooldown) key(userID int64, eventType string) string {
	return fmt.Sprintf("%s:geofence:cooldown:%d:%s", c.prefix, userID, eventType)
}

func (c *RedisCooldown) TryAcquire(ctx context.Context, userID int64, eventType string, window time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.key(userID, eventType), 1, window).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown setnx: %w", err)
	}
	return ok, nil
}
