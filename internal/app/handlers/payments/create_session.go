package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"staylane/internal/app/apperr"
	"staylane/internal/app/commands"
	"staylane/internal/app/dto"
	handlersupport "staylane/internal/app/handlers/support"
	"staylane/internal/app/policies"
	"staylane/internal/app/uow"
	domainbooking "staylane/internal/domain/booking"
	"staylane/internal/domain/payment"
	domainproperty "staylane/internal/domain/property"
)

const (
	createSessionKey = "payments.session.create"

	DefaultConfirmPath = "/api/v1/payments/confirm"
	DefaultTimeout     = 10 * time.Second
)

// CreatePaymentSessionCommand opens a provider checkout for an unpaid booking.
type CreatePaymentSessionCommand struct {
	BookingID    string
	ProfileID    string
	ReturnOrigin string
}

func (c CreatePaymentSessionCommand) Key() string { return createSessionKey }

// The provider call must not run inside a write transaction.
func (c CreatePaymentSessionCommand) ManagesUnitOfWork() {}

type CreatePaymentSessionHandler struct {
	UoWFactory    uow.UoWFactory
	Payments      policies.PaymentsPort
	Timeout       time.Duration
	DefaultOrigin string
	ConfirmPath   string
	Logger        *slog.Logger
}

type checkoutSubject struct {
	booking  *domainbooking.Booking
	property *domainproperty.Property
}

func (h *CreatePaymentSessionHandler) Handle(ctx context.Context, cmd CreatePaymentSessionCommand) (dto.PaymentSession, error) {
	const op = "payments.create_session"
	bookingID := domainbooking.BookingID(strings.TrimSpace(cmd.BookingID))
	if bookingID == "" {
		return dto.PaymentSession{}, apperr.Validation(op, "booking id is required", nil)
	}
	origin := strings.TrimSpace(cmd.ReturnOrigin)
	if origin == "" {
		origin = h.DefaultOrigin
	}
	if origin == "" {
		return dto.PaymentSession{}, apperr.Validation(op, "return origin is required", nil)
	}

	subject, err := h.load(ctx, bookingID, domainbooking.ProfileID(strings.TrimSpace(cmd.ProfileID)))
	if err != nil {
		return dto.PaymentSession{}, err
	}

	req := payment.CheckoutRequest{
		Metadata:  payment.BookingMetadata{BookingID: subject.booking.ID},
		LineItem:  lineItem(subject),
		ReturnURL: payment.ReturnURL(origin, h.confirmPath()),
	}
	callCtx, cancel := context.WithTimeout(ctx, h.timeout())
	defer cancel()
	session, err := h.Payments.CreateCheckoutSession(callCtx, req)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("checkout session request failed",
				"kind", apperr.KindExternal,
				"booking_id", bookingID,
				"error", err,
			)
		}
		return dto.PaymentSession{}, apperr.New(apperr.KindExternal, op, "payment provider is unavailable, try again later", err)
	}

	if h.Logger != nil {
		h.Logger.Info("checkout session created", "booking_id", bookingID, "session_id", session.ID, "amount", req.LineItem.Amount.Amount)
	}
	return dto.PaymentSession{
		SessionID:    string(session.ID),
		ClientSecret: session.ClientSecret,
		URL:          session.URL,
	}, nil
}

// load reads in a short read-only unit that is closed before the provider call.
func (h *CreatePaymentSessionHandler) load(ctx context.Context, id domainbooking.BookingID, profile domainbooking.ProfileID) (checkoutSubject, error) {
	const op = "payments.create_session"
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return checkoutSubject{}, apperr.Internal(op, err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	booking, err := unit.Bookings().ByID(execCtx, id)
	if err != nil {
		if errors.Is(err, domainbooking.ErrNotFound) {
			return checkoutSubject{}, apperr.NotFound(op, "booking not found", err)
		}
		return checkoutSubject{}, apperr.Internal(op, err)
	}
	// Someone else's booking looks exactly like a missing one.
	if profile != "" && !booking.OwnedBy(profile) {
		return checkoutSubject{}, apperr.NotFound(op, "booking not found", domainbooking.ErrNotOwner)
	}
	if err := booking.CanCheckout(); err != nil {
		if errors.Is(err, domainbooking.ErrAlreadyPaid) {
			return checkoutSubject{}, apperr.Conflict(op, "booking is already paid", err)
		}
		return checkoutSubject{}, apperr.Conflict(op, "booking total is not payable", err)
	}

	prop, err := unit.Properties().ByID(execCtx, booking.PropertyID)
	if err != nil && !errors.Is(err, domainproperty.ErrNotFound) {
		return checkoutSubject{}, apperr.Internal(op, err)
	}
	return checkoutSubject{booking: booking, property: prop}, nil
}

func lineItem(s checkoutSubject) payment.LineItem {
	b := s.booking
	item := payment.LineItem{
		Name:     "Stay " + string(b.ID),
		Amount:   b.OrderTotal(),
		Quantity: 1,
	}
	if s.property != nil {
		item.Name = s.property.Name
		item.Image = s.property.Image
	}
	item.Description = fmt.Sprintf("%d nights, %s to %s",
		b.TotalNights(),
		b.Range.CheckIn.Format(time.DateOnly),
		b.Range.CheckOut.Format(time.DateOnly),
	)
	return item
}

func (h *CreatePaymentSessionHandler) timeout() time.Duration {
	if h.Timeout > 0 {
		return h.Timeout
	}
	return DefaultTimeout
}

func (h *CreatePaymentSessionHandler) confirmPath() string {
	if h.ConfirmPath != "" {
		return h.ConfirmPath
	}
	return DefaultConfirmPath
}

var (
	_ commands.Handler[CreatePaymentSessionCommand, dto.PaymentSession] = (*CreatePaymentSessionHandler)(nil)
	_ uow.SelfManaged                                                   = CreatePaymentSessionCommand{}
)
