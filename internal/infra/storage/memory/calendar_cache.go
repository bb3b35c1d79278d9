package memory

import (
	"context"
	"sync"
	"time"

	"staylane/internal/app/dto"
	"staylane/internal/app/policies"
)

type cachedCalendar struct {
	calendar  dto.Calendar
	expiresAt time.Time
}

// CalendarCache is a process-local calendar cache with a fixed TTL.
type CalendarCache struct {
	mu    sync.Mutex
	items map[string]cachedCalendar
	ttl   time.Duration
}

func NewCalendarCache(ttl time.Duration) *CalendarCache {
	return &CalendarCache{items: make(map[string]cachedCalendar), ttl: ttl}
}

func (c *CalendarCache) Get(ctx context.Context, propertyID string) (dto.Calendar, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[propertyID]
	if !ok {
		return dto.Calendar{}, false, nil
	}
	if c.ttl > 0 && time.Now().After(item.expiresAt) {
		delete(c.items, propertyID)
		return dto.Calendar{}, false, nil
	}
	return item.calendar, true, nil
}

func (c *CalendarCache) Set(ctx context.Context, propertyID string, calendar dto.Calendar) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[propertyID] = cachedCalendar{calendar: calendar, expiresAt: time.Now().Add(c.ttl)}
	return nil
}

func (c *CalendarCache) Invalidate(ctx context.Context, propertyID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, propertyID)
	return nil
}

var _ policies.CalendarCache = (*CalendarCache)(nil)
