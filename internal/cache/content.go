package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Content caches immutable documents by content id. Cache errors fall through
// to the fetch function.
type Content struct {
	Store  Store
	TTL    time.Duration
	Prefix string
	Logger *zap.Logger
}

func (c *Content) Get(ctx context.Context, cid string, fetch func(ctx context.Context, cid string) ([]byte, error)) ([]byte, error) {
	if c == nil || c.Store == nil {
		return fetch(ctx, cid)
	}
	key := c.Prefix + cid
	if b, ok, err := c.Store.Get(ctx, key); err != nil {
		c.logger().Warn("cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return b, nil
	}
	b, err := fetch(ctx, cid)
	if err != nil {
		return nil, err
	}
	if err := c.Store.Set(ctx, key, b, c.TTL); err != nil {
		c.logger().Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return b, nil
}

func (c *Content) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
