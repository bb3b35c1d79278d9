package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staylane/internal/app/apperr"
	"staylane/internal/app/commands"
	"staylane/internal/app/dto"
	"staylane/internal/app/outbox"
	"staylane/internal/app/policies"
	"staylane/internal/app/uow"
	"staylane/internal/domain/availability"
	domainbooking "staylane/internal/domain/booking"
	"staylane/internal/domain/payment"
)

const (
	confirmPaymentKey = "payments.confirm"

	defaultConfirmAttempts = 3

	ReasonBookingMissing = "booking_missing"
	ReasonPaidOverlap    = "paid_overlap"
	ReasonNotSaved       = "not_saved"
)

var errPaidOverlap = errors.New("payments: another paid booking overlaps these dates")

// ConfirmPaymentCommand is sent from the provider redirect. The session id
// is the only input; the booking id always comes from the provider.
type ConfirmPaymentCommand struct {
	SessionID string
}

func (c ConfirmPaymentCommand) Key() string { return confirmPaymentKey }

func (c ConfirmPaymentCommand) ManagesUnitOfWork() {}

type ConfirmPaymentHandler struct {
	UoWFactory  uow.UoWFactory
	Payments    policies.PaymentsPort
	Journal     policies.ReconciliationJournal
	Calendar    policies.CalendarCache
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Timeout     time.Duration
	MaxAttempts int
	Logger      *slog.Logger
	Now         func() time.Time
}

// Handle flips the booking's payment flag once. A repeated call for a
// confirmed booking succeeds without writing. Failures carry their kind; the
// transport reduces them to a redirect.
func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (dto.PaymentConfirmation, error) {
	const op = "payments.confirm"
	failed := dto.PaymentConfirmation{Redirect: dto.RedirectFailure}

	sessionID, err := payment.ParseSessionID(cmd.SessionID)
	if err != nil {
		return failed, apperr.Validation(op, "missing payment session", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, h.timeout())
	session, err := h.Payments.RetrieveSession(callCtx, sessionID)
	cancel()
	if errors.Is(err, payment.ErrSessionNotFound) {
		h.log(ctx, slog.LevelWarn, "unknown payment session", apperr.KindPayment, "session_id", sessionID)
		return failed, apperr.New(apperr.KindPayment, op, "payment session is not valid", err)
	}
	if err != nil {
		h.log(ctx, slog.LevelError, "payment session lookup failed", apperr.KindExternal, "session_id", sessionID, "error", err)
		return failed, apperr.New(apperr.KindExternal, op, "payment provider is unavailable", err)
	}

	meta, err := payment.ParseBookingMetadata(session.Metadata)
	if err != nil {
		h.log(ctx, slog.LevelWarn, "payment session without booking reference", apperr.KindPayment, "session_id", sessionID)
		return failed, apperr.New(apperr.KindPayment, op, "payment session is not valid", err)
	}
	failed.BookingID = string(meta.BookingID)

	if !session.Complete() {
		h.log(ctx, slog.LevelInfo, "payment session not complete", apperr.KindPayment,
			"session_id", sessionID, "booking_id", meta.BookingID, "status", session.Status)
		return failed, apperr.New(apperr.KindPayment, op, "payment was not completed",
			fmt.Errorf("session status %q", session.Status))
	}

	// The provider has taken the money from here on.
	booking, already, err := h.applyWithRetry(ctx, string(sessionID), meta.BookingID)
	if err != nil {
		return failed, h.afterCommitFailure(ctx, op, sessionID, meta.BookingID, err)
	}

	if !already && h.Calendar != nil {
		if err := h.Calendar.Invalidate(ctx, string(booking.PropertyID)); err != nil {
			h.log(ctx, slog.LevelWarn, "calendar cache invalidation failed", "", "booking_id", meta.BookingID, "error", err)
		}
	}
	h.log(ctx, slog.LevelInfo, "payment confirmed", "", "booking_id", meta.BookingID, "session_id", sessionID, "already_confirmed", already)
	return dto.PaymentConfirmation{
		BookingID:        string(meta.BookingID),
		Redirect:         dto.RedirectSuccess,
		AlreadyConfirmed: already,
	}, nil
}

func (h *ConfirmPaymentHandler) applyWithRetry(ctx context.Context, sessionID string, id domainbooking.BookingID) (*domainbooking.Booking, bool, error) {
	attempts := h.MaxAttempts
	if attempts <= 0 {
		attempts = defaultConfirmAttempts
	}
	var (
		booking *domainbooking.Booking
		already bool
		err     error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		booking, already, err = h.apply(ctx, sessionID, id)
		if err == nil || !errors.Is(err, uow.ErrConflict) {
			return booking, already, err
		}
		h.log(ctx, slog.LevelWarn, "payment confirmation write conflict, retrying", "", "booking_id", id, "attempt", attempt)
	}
	return booking, already, err
}

// apply reports already=true when the booking was paid before this call and
// nothing was written.
func (h *ConfirmPaymentHandler) apply(ctx context.Context, sessionID string, id domainbooking.BookingID) (*domainbooking.Booking, bool, error) {
	unit, execCtx, release, err := uow.Managed(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer release()

	booking, err := unit.Bookings().ByID(execCtx, id)
	if err != nil {
		return nil, false, err
	}
	if booking.PaymentStatus {
		return booking, true, nil
	}

	if err := unit.LockProperty(execCtx, booking.PropertyID); err != nil {
		return nil, false, err
	}
	conflict, err := availability.NewChecker(unit.Bookings()).ConflictExcluding(execCtx, booking.PropertyID, booking.Range, booking.ID)
	if err != nil {
		return nil, false, err
	}
	if conflict != nil {
		return nil, false, fmt.Errorf("%w: %s", errPaidOverlap, conflict.ID)
	}

	now := h.now()
	changed, err := unit.Bookings().MarkPaid(execCtx, booking.ID, now)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return booking, true, nil
	}
	booking.MarkPaid(sessionID, now)
	if err := outbox.Drain(execCtx, h.Outbox, h.Encoder, booking); err != nil {
		return nil, false, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, false, err
	}
	return booking, false, nil
}

// afterCommitFailure classifies failures that happen after the provider
// completed the session and journals them for reconciliation.
func (h *ConfirmPaymentHandler) afterCommitFailure(ctx context.Context, op string, sessionID payment.SessionID, id domainbooking.BookingID, cause error) error {
	reason := ReasonNotSaved
	var result error
	switch {
	case errors.Is(cause, domainbooking.ErrNotFound):
		reason = ReasonBookingMissing
		result = apperr.NotFound(op, "booking not found", cause)
	case errors.Is(cause, errPaidOverlap):
		reason = ReasonPaidOverlap
		result = apperr.New(apperr.KindUnsavedConfirmation, op, "payment received but the dates are no longer available", cause)
	default:
		result = apperr.New(apperr.KindUnsavedConfirmation, op, "payment received but the booking could not be updated", cause)
	}

	h.log(ctx, slog.LevelError, "payment completed but booking not confirmed", apperr.KindOf(result),
		"reconciliation_required", true,
		"reason", reason,
		"session_id", sessionID,
		"booking_id", id,
		"error", cause,
	)
	if h.Journal != nil {
		incident := policies.Incident{
			ID:         uuid.NewString(),
			SessionID:  string(sessionID),
			BookingID:  string(id),
			Reason:     reason,
			Detail:     cause.Error(),
			OccurredAt: h.now(),
		}
		// The request may already be cancelled; the journal entry must still land.
		journalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout())
		defer cancel()
		if err := h.Journal.Record(journalCtx, incident); err != nil {
			h.log(ctx, slog.LevelError, "reconciliation journal write failed", apperr.KindOf(result),
				"reconciliation_required", true, "session_id", sessionID, "booking_id", id, "error", err)
		}
	}
	return result
}

func (h *ConfirmPaymentHandler) log(ctx context.Context, level slog.Level, msg string, kind apperr.Kind, args ...any) {
	if h.Logger == nil {
		return
	}
	if kind != "" {
		args = append(args, "kind", kind)
	}
	h.Logger.Log(ctx, level, msg, args...)
}

func (h *ConfirmPaymentHandler) timeout() time.Duration {
	if h.Timeout > 0 {
		return h.Timeout
	}
	return DefaultTimeout
}

func (h *ConfirmPaymentHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var (
	_ commands.Handler[ConfirmPaymentCommand, dto.PaymentConfirmation] = (*ConfirmPaymentHandler)(nil)
	_ uow.SelfManaged                                                  = ConfirmPaymentCommand{}
)
