package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"staylane/internal/app/apperr"
	"staylane/internal/app/commands"
	"staylane/internal/app/outbox"
	"staylane/internal/app/policies"
	"staylane/internal/app/uow"
	domainbooking "staylane/internal/domain/booking"
)

const deleteBookingKey = "booking.delete"

// DeleteBookingCommand removes a paid booking at its owner's request. The
// handler commits its own unit so the calendar is invalidated only after the
// delete is durable.
type DeleteBookingCommand struct {
	ProfileID string
	BookingID string
}

func (c DeleteBookingCommand) Key() string { return deleteBookingKey }

func (c DeleteBookingCommand) ManagesUnitOfWork() {}

type DeleteBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Calendar   policies.CalendarCache
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *DeleteBookingHandler) Handle(ctx context.Context, cmd DeleteBookingCommand) (struct{}, error) {
	const op = "booking.delete"
	id := domainbooking.BookingID(strings.TrimSpace(cmd.BookingID))
	if id == "" {
		return struct{}{}, apperr.Validation(op, "booking id is required", nil)
	}
	unit, ctx, release, err := uow.Managed(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return struct{}{}, apperr.Internal(op, err)
	}
	defer release()

	booking, err := unit.Bookings().ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainbooking.ErrNotFound) {
			return struct{}{}, apperr.NotFound(op, "booking not found", err)
		}
		return struct{}{}, apperr.Internal(op, err)
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now()
	}
	if err := booking.MarkDeleted(domainbooking.ProfileID(strings.TrimSpace(cmd.ProfileID)), now); err != nil {
		switch {
		case errors.Is(err, domainbooking.ErrNotOwner):
			return struct{}{}, apperr.New(apperr.KindForbidden, op, "only the owner can delete this booking", err)
		case errors.Is(err, domainbooking.ErrNotPaid):
			return struct{}{}, apperr.Conflict(op, "unpaid bookings cannot be deleted", err)
		default:
			return struct{}{}, apperr.Internal(op, err)
		}
	}
	if err := unit.Bookings().Delete(ctx, booking.ID); err != nil {
		return struct{}{}, apperr.Internal(op, err)
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return struct{}{}, apperr.Internal(op, err)
	}
	if err := unit.Commit(ctx); err != nil {
		if errors.Is(err, uow.ErrConflict) {
			return struct{}{}, apperr.Conflict(op, "the booking was modified concurrently, retry", err)
		}
		return struct{}{}, apperr.Internal(op, err)
	}
	if h.Calendar != nil {
		if err := h.Calendar.Invalidate(ctx, string(booking.PropertyID)); err != nil && h.Logger != nil {
			h.Logger.Warn("calendar cache invalidation failed", "property_id", booking.PropertyID, "error", err)
		}
	}
	if h.Logger != nil {
		h.Logger.Info("booking deleted", "booking_id", booking.ID, "profile_id", booking.Profile)
	}
	return struct{}{}, nil
}

var (
	_ commands.Handler[DeleteBookingCommand, struct{}] = (*DeleteBookingHandler)(nil)
	_ uow.SelfManaged                                  = DeleteBookingCommand{}
)
