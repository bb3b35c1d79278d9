package redis

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const keyPrefix = "staylane:"

// NewClient connects and pings. The caller owns Close.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func sessionKey(token string) string { return keyPrefix + "session:" + token }

func idempotencyKey(key string) string { return keyPrefix + "idem:" + key }

func calendarKey(propertyID string) string { return keyPrefix + "calendar:" + propertyID }
