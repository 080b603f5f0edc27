package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalCooldown 单实例冷却实现，单测与本地联调使用
type LocalCooldown struct {
	store *gocache.Cache
}

var _ Cooldown = (*LocalCooldown)(nil)

func NewLocalCooldown() *LocalCooldown {
	return &LocalCooldown{
		store: gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (c *LocalCooldown) TryAcquire(_ context.Context, userID int64, eventType string, window time.Duration) (bool, error) {
	key := fmt.Sprintf("%d:%s", userID, eventType)
	// Add 在 key 已存在且未过期时报错，恰好是冷却语义
	if err := c.store.Add(key, struct{}{}, window); err != nil {
		return false, nil
	}
	return true, nil
}
