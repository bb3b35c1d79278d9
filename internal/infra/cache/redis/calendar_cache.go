package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"staylane/internal/app/dto"
	"staylane/internal/app/policies"
)

// CalendarCache stores the full paid-booking calendar of a property.
type CalendarCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewCalendarCache(client *goredis.Client, ttl time.Duration) *CalendarCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CalendarCache{client: client, ttl: ttl}
}

func (c *CalendarCache) Get(ctx context.Context, propertyID string) (dto.Calendar, bool, error) {
	raw, err := c.client.Get(ctx, calendarKey(propertyID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return dto.Calendar{}, false, nil
		}
		return dto.Calendar{}, false, err
	}
	var cal dto.Calendar
	if err := json.Unmarshal(raw, &cal); err != nil {
		return dto.Calendar{}, false, err
	}
	return cal, true, nil
}

func (c *CalendarCache) Set(ctx context.Context, propertyID string, calendar dto.Calendar) error {
	body, err := json.Marshal(calendar)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, calendarKey(propertyID), body, c.ttl).Err()
}

func (c *CalendarCache) Invalidate(ctx context.Context, propertyID string) error {
	return c.client.Del(ctx, calendarKey(propertyID)).Err()
}

var _ policies.CalendarCache = (*CalendarCache)(nil)
