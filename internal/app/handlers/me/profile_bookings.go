package me

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"staylane/internal/app/apperr"
	"staylane/internal/app/dto"
	handlersupport "staylane/internal/app/handlers/support"
	"staylane/internal/app/queries"
	"staylane/internal/app/uow"
	domainbooking "staylane/internal/domain/booking"
	domainproperty "staylane/internal/domain/property"
	domainreviews "staylane/internal/domain/reviews"
)

const listProfileBookingsKey = "me.bookings.list"

// ListProfileBookingsQuery returns the caller's confirmed bookings, newest
// check-in first. Pending bookings are checkout leftovers and are not shown.
type ListProfileBookingsQuery struct {
	ProfileID string
}

func (q ListProfileBookingsQuery) Key() string { return listProfileBookingsKey }

type ListProfileBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ListProfileBookingsHandler) Handle(ctx context.Context, q ListProfileBookingsQuery) (dto.ProfileBookingCollection, error) {
	const op = "me.bookings.list"
	profile := domainbooking.ProfileID(strings.TrimSpace(q.ProfileID))
	if profile == "" {
		return dto.ProfileBookingCollection{}, apperr.New(apperr.KindUnauthorized, op, "authentication required", nil)
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ProfileBookingCollection{}, apperr.Internal(op, err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByProfile(execCtx, profile)
	if err != nil {
		return dto.ProfileBookingCollection{}, apperr.Internal(op, err)
	}

	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now()
	}
	properties := make(map[domainproperty.PropertyID]*domainproperty.Property)
	items := make([]dto.ProfileBookingSummary, 0, len(bookings))
	for _, booking := range bookings {
		if !booking.PaymentStatus {
			continue
		}
		prop, err := loadProperty(execCtx, unit.Properties(), booking.PropertyID, properties)
		if err != nil && h.Logger != nil {
			h.Logger.Warn("property snapshot missing for booking", "booking_id", booking.ID, "property_id", booking.PropertyID, "error", err)
		}
		canReview := booking.Range.Ended(now)
		if canReview {
			if _, err := unit.Reviews().ByBooking(execCtx, booking.ID); err == nil {
				canReview = false
			} else if !errors.Is(err, domainreviews.ErrNotFound) && h.Logger != nil {
				h.Logger.Warn("review lookup failed", "booking_id", booking.ID, "error", err)
			}
		}
		items = append(items, dto.MapProfileBooking(booking, prop, canReview))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CheckIn.After(items[j].CheckIn)
	})

	if h.Logger != nil {
		h.Logger.Debug("profile bookings listed", "profile_id", profile, "count", len(items))
	}
	return dto.ProfileBookingCollection{Items: items}, nil
}

func loadProperty(
	ctx context.Context,
	repo domainproperty.Repository,
	id domainproperty.PropertyID,
	cache map[domainproperty.PropertyID]*domainproperty.Property,
) (*domainproperty.Property, error) {
	if prop, ok := cache[id]; ok {
		return prop, nil
	}
	prop, err := repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = prop
	return prop, nil
}

var _ queries.Handler[ListProfileBookingsQuery, dto.ProfileBookingCollection] = (*ListProfileBookingsHandler)(nil)
