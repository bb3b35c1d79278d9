package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"staylane/internal/app/apperr"
	"staylane/internal/app/commands"
	"staylane/internal/app/dto"
	"staylane/internal/app/middleware"
	"staylane/internal/app/outbox"
	"staylane/internal/app/uow"
	"staylane/internal/domain/availability"
	domainbooking "staylane/internal/domain/booking"
	"staylane/internal/domain/pricing"
	domainproperty "staylane/internal/domain/property"
	"staylane/internal/domain/shared/daterange"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	ProfileID       string
	PropertyID      string
	CheckIn         time.Time
	CheckOut        time.Time
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

// IdempotencyKey is scoped to the caller so two profiles cannot share a key.
func (c CreateBookingCommand) IdempotencyKey() string {
	key := strings.TrimSpace(c.IdempotencyKeyV)
	if key == "" {
		return ""
	}
	return strings.TrimSpace(c.ProfileID) + ":" + key
}

func (c CreateBookingCommand) ResultPrototype() any { return &dto.BookingCreated{} }

func (c CreateBookingCommand) ManagesUnitOfWork() {}

// CreateBookingHandler turns a date range into a pending booking:
// purge the profile's unpaid bookings, validate, lock the property, check
// paid overlaps, price the stay and insert.
type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Policy     pricing.Policy
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (dto.BookingCreated, error) {
	const op = "booking.create"
	profile := domainbooking.ProfileID(strings.TrimSpace(cmd.ProfileID))
	if profile == "" {
		return dto.BookingCreated{}, apperr.New(apperr.KindUnauthorized, op, "sign in to book", domainbooking.ErrProfileRequired)
	}

	// Cleanup commits on its own and survives any failure below.
	if err := h.purgeUnpaid(ctx, profile); err != nil {
		return dto.BookingCreated{}, apperr.Internal(op, err)
	}

	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return dto.BookingCreated{}, apperr.Validation(op, "check-out must be after check-in", err)
	}
	propertyID := domainproperty.PropertyID(strings.TrimSpace(cmd.PropertyID))
	if propertyID == "" {
		return dto.BookingCreated{}, apperr.Validation(op, "property is required", nil)
	}

	unit, execCtx, release, err := uow.Managed(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return dto.BookingCreated{}, apperr.Internal(op, err)
	}
	defer release()

	if err := unit.LockProperty(execCtx, propertyID); err != nil {
		return dto.BookingCreated{}, storeError(op, err)
	}
	prop, err := unit.Properties().ByID(execCtx, propertyID)
	if err != nil {
		if errors.Is(err, domainproperty.ErrNotFound) {
			return dto.BookingCreated{}, apperr.NotFound(op, "property not found", err)
		}
		return dto.BookingCreated{}, apperr.Internal(op, err)
	}

	conflict, err := availability.NewChecker(unit.Bookings()).Conflict(execCtx, prop.ID, dr)
	if err != nil {
		return dto.BookingCreated{}, apperr.Internal(op, err)
	}
	if conflict != nil {
		return dto.BookingCreated{}, apperr.Conflict(op, "the property is already booked for these dates", availability.ErrUnavailable)
	}

	totals := pricing.Calculate(dr.CheckIn, dr.CheckOut, prop.NightlyPrice, h.Policy)
	booking, err := domainbooking.NewPending(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(h.newID()),
		Profile:    profile,
		PropertyID: prop.ID,
		Range:      dr,
		Totals:     totals,
		Now:        h.now(),
	})
	if err != nil {
		return dto.BookingCreated{}, apperr.Internal(op, err)
	}
	if err := unit.Bookings().Insert(execCtx, booking); err != nil {
		return dto.BookingCreated{}, storeError(op, err)
	}
	if err := outbox.Drain(execCtx, h.Outbox, h.Encoder, booking); err != nil {
		return dto.BookingCreated{}, apperr.Internal(op, err)
	}
	if err := unit.Commit(execCtx); err != nil {
		return dto.BookingCreated{}, storeError(op, err)
	}

	if h.Logger != nil {
		h.Logger.Info("booking created",
			"booking_id", booking.ID,
			"property_id", prop.ID,
			"profile_id", profile,
			"nights", totals.TotalNights,
			"order_total", totals.OrderTotal.Amount,
		)
	}
	return dto.BookingCreated{
		BookingID: string(booking.ID),
		Status:    string(booking.Status()),
		Totals:    dto.MapTotals(totals),
	}, nil
}

func (h *CreateBookingHandler) purgeUnpaid(ctx context.Context, profile domainbooking.ProfileID) error {
	unit, execCtx, release, err := uow.Managed(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return err
	}
	defer release()

	removed, err := unit.Bookings().DeleteUnpaidByProfile(execCtx, profile)
	if err != nil {
		return err
	}
	if err := unit.Commit(execCtx); err != nil {
		return err
	}
	if removed > 0 && h.Logger != nil {
		h.Logger.Debug("unpaid bookings purged", "profile_id", profile, "count", removed)
	}
	return nil
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *CreateBookingHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

// storeError reports lost write races as conflicts; anything else is ours.
func storeError(op string, err error) error {
	if errors.Is(err, uow.ErrConflict) {
		return apperr.Conflict(op, "the property is already booked for these dates", err)
	}
	return apperr.Internal(op, err)
}

var (
	_ commands.Handler[CreateBookingCommand, dto.BookingCreated] = (*CreateBookingHandler)(nil)
	_ middleware.IdempotentCommand                               = CreateBookingCommand{}
	_ uow.SelfManaged                                            = CreateBookingCommand{}
)
