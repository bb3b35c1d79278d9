package availability

import (
	"context"
	"errors"
	"strings"
	"time"

	"staylane/internal/app/apperr"
	"staylane/internal/app/dto"
	handlersupport "staylane/internal/app/handlers/support"
	"staylane/internal/app/queries"
	"staylane/internal/app/uow"
	domainavailability "staylane/internal/domain/availability"
	"staylane/internal/domain/pricing"
	domainproperty "staylane/internal/domain/property"
	"staylane/internal/domain/shared/daterange"
)

const quoteStayKey = "availability.quote"

type QuoteStayQuery struct {
	PropertyID string
	CheckIn    time.Time
	CheckOut   time.Time
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

// QuoteStayHandler runs the same availability check and totals calculation
// as booking creation, without writing anything.
type QuoteStayHandler struct {
	UoWFactory uow.UoWFactory
	Policy     pricing.Policy
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.StayQuote, error) {
	const op = "availability.quote"
	dr, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.StayQuote{}, apperr.Validation(op, "check-out must be after check-in", err)
	}
	propertyID := domainproperty.PropertyID(strings.TrimSpace(q.PropertyID))

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.StayQuote{}, apperr.Internal(op, err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(execCtx, propertyID)
	if err != nil {
		if errors.Is(err, domainproperty.ErrNotFound) {
			return dto.StayQuote{}, apperr.NotFound(op, "property not found", err)
		}
		return dto.StayQuote{}, apperr.Internal(op, err)
	}
	available, err := domainavailability.NewChecker(unit.Bookings()).Available(execCtx, prop.ID, dr)
	if err != nil {
		return dto.StayQuote{}, apperr.Internal(op, err)
	}

	quote := dto.StayQuote{PropertyID: string(prop.ID), CheckIn: dr.CheckIn, CheckOut: dr.CheckOut, Available: available}
	if available {
		totals := dto.MapTotals(pricing.Calculate(dr.CheckIn, dr.CheckOut, prop.NightlyPrice, h.Policy))
		quote.Totals = &totals
	}
	return quote, nil
}

var _ queries.Handler[QuoteStayQuery, dto.StayQuote] = (*QuoteStayHandler)(nil)
