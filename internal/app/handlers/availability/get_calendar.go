package availability

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"staylane/internal/app/apperr"
	"staylane/internal/app/dto"
	handlersupport "staylane/internal/app/handlers/support"
	"staylane/internal/app/policies"
	"staylane/internal/app/queries"
	"staylane/internal/app/uow"
	domainavailability "staylane/internal/domain/availability"
	domainproperty "staylane/internal/domain/property"
)

const getCalendarKey = "availability.calendar"

type GetCalendarQuery struct {
	PropertyID string
	From       time.Time
	To         time.Time
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

// GetCalendarHandler serves the booked nights of a property. The full
// calendar is cached per property and narrowed to the window afterwards.
type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Cache      policies.CalendarCache
	Logger     *slog.Logger
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	const op = "availability.calendar"
	propertyID := strings.TrimSpace(q.PropertyID)
	if propertyID == "" {
		return dto.Calendar{}, apperr.Validation(op, "property id is required", nil)
	}
	if !q.From.IsZero() && !q.To.IsZero() && !q.To.After(q.From) {
		return dto.Calendar{}, apperr.Validation(op, "calendar window end must be after start", nil)
	}

	cache := h.cache()
	if cached, hit, err := cache.Get(ctx, propertyID); err != nil {
		h.warn("calendar cache read failed", propertyID, err)
	} else if hit {
		return cached.Window(q.From, q.To), nil
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, apperr.Internal(op, err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(execCtx, domainproperty.PropertyID(propertyID))
	if err != nil {
		if errors.Is(err, domainproperty.ErrNotFound) {
			return dto.Calendar{}, apperr.NotFound(op, "property not found", err)
		}
		return dto.Calendar{}, apperr.Internal(op, err)
	}
	paid, err := unit.Bookings().ListPaidByProperty(execCtx, prop.ID)
	if err != nil {
		return dto.Calendar{}, apperr.Internal(op, err)
	}
	calendar := domainavailability.CalendarFromBookings(prop.ID, paid)
	full := dto.MapCalendar(propertyID, calendar.Blocks)
	if err := cache.Set(ctx, propertyID, full); err != nil {
		h.warn("calendar cache write failed", propertyID, err)
	}
	return full.Window(q.From, q.To), nil
}

func (h *GetCalendarHandler) cache() policies.CalendarCache {
	if h.Cache != nil {
		return h.Cache
	}
	return policies.NoopCalendarCache{}
}

func (h *GetCalendarHandler) warn(msg, propertyID string, err error) {
	if h.Logger != nil {
		h.Logger.Warn(msg, "property_id", propertyID, "error", err)
	}
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
