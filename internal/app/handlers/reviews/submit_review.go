package reviews

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
	handlersupport "staylane/internal/app/handlers/support"
	"staylane/internal/app/outbox"
	domainbooking "staylane/internal/domain/booking"
	domainreviews "staylane/internal/domain/reviews"
)

const submitReviewKey = "reviews.submit"

var (
	ErrBookingOwnership = errors.New("reviews: booking does not belong to current user")
	ErrStayNotFinished  = errors.New("reviews: stay is not finished yet")
	ErrBookingUnpaid    = errors.New("reviews: booking is not paid")
	ErrDuplicateReview  = errors.New("reviews: review already exists for booking")
)

// SubmitReviewCommand creates a review for a finished, paid stay.
type SubmitReviewCommand struct {
	BookingID string
	AuthorID  string
	Rating    int
	Comment   string
}

func (c SubmitReviewCommand) Key() string { return submitReviewKey }

func (c SubmitReviewCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return errors.New("reviews: booking id is required")
	}
	if c.Rating < 1 || c.Rating > 5 {
		return domainreviews.ErrInvalidRating
	}
	if len(strings.TrimSpace(c.Comment)) > domainreviews.MaxCommentLength {
		return domainreviews.ErrCommentLength
	}
	return nil
}

// SubmitReviewHandler stores the review and refreshes the property rating.
// It runs inside the unit opened by the transaction middleware.
type SubmitReviewHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
	Now     func() time.Time
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (dto.Review, error) {
	const op = "reviews.submit"
	unit, err := handlersupport.UnitFromContext(ctx)
	if err != nil {
		return dto.Review{}, apperr.Internal(op, err)
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}

	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
	if err != nil {
		if errors.Is(err, domainbooking.ErrNotFound) {
			return dto.Review{}, apperr.NotFound(op, "booking not found", err)
		}
		return dto.Review{}, apperr.Internal(op, err)
	}
	author := domainbooking.ProfileID(strings.TrimSpace(cmd.AuthorID))
	if !booking.OwnedBy(author) {
		return dto.Review{}, apperr.New(apperr.KindForbidden, op, "booking does not belong to current user", ErrBookingOwnership)
	}
	if !booking.PaymentStatus {
		return dto.Review{}, apperr.Conflict(op, "booking is not paid", ErrBookingUnpaid)
	}
	if !booking.Range.Ended(now) {
		return dto.Review{}, apperr.Conflict(op, "stay is not finished yet", ErrStayNotFinished)
	}

	existing, err := unit.Reviews().ByBooking(ctx, booking.ID)
	switch {
	case err == nil && existing != nil:
		return dto.Review{}, apperr.Conflict(op, "review already exists for booking", ErrDuplicateReview)
	case err != nil && !errors.Is(err, domainreviews.ErrNotFound):
		return dto.Review{}, apperr.Internal(op, err)
	}

	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:         domainreviews.ReviewID(uuid.NewString()),
		BookingID:  booking.ID,
		Author:     author,
		PropertyID: booking.PropertyID,
		Rating:     cmd.Rating,
		Comment:    cmd.Comment,
		CreatedAt:  now,
	})
	if err != nil {
		return dto.Review{}, apperr.Validation(op, err.Error(), err)
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return dto.Review{}, apperr.Internal(op, err)
	}
	if err := recalculatePropertyRating(ctx, unit, booking.PropertyID, now); err != nil {
		return dto.Review{}, apperr.Internal(op, err)
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, review); err != nil {
		return dto.Review{}, apperr.Internal(op, err)
	}

	if h.Logger != nil {
		h.Logger.Info("review submitted", "booking_id", booking.ID, "property_id", booking.PropertyID, "author_id", author, "rating", cmd.Rating)
	}
	return dto.MapReview(review), nil
}

var _ commands.Handler[SubmitReviewCommand, dto.Review] = (*SubmitReviewHandler)(nil)
