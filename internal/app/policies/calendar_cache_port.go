package policies

import (
	"context"

	"staylane/internal/app/dto"
)

// CalendarCache holds rendered availability calendars per property. A miss is
// (zero, false, nil); errors are advisory and callers fall back to storage.
type CalendarCache interface {
	Get(ctx context.Context, propertyID string) (dto.Calendar, bool, error)
	Set(ctx context.Context, propertyID string, calendar dto.Calendar) error
	Invalidate(ctx context.Context, propertyID string) error
}

// NoopCalendarCache never hits.
type NoopCalendarCache struct{}

func (NoopCalendarCache) Get(context.Context, string) (dto.Calendar, bool, error) {
	return dto.Calendar{}, false, nil
}

func (NoopCalendarCache) Set(context.Context, string, dto.Calendar) error { return nil }

func (NoopCalendarCache) Invalidate(context.Context, string) error { return nil }
