package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects and pings. An empty addr means Redis is not
// configured and returns a nil client.
func NewRedisClient(addr, username, password string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return rdb, nil
}

// NewLocker uses Redis when a client is available and falls back to a
// process-local locker otherwise.
func NewLocker(client *redis.Client, ttl, wait time.Duration) Locker {
	if client == nil {
		return NewLocalLocker(wait)
	}
	return NewRedisLocker(client, ttl, wait)
}
