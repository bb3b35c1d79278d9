package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"staylane/internal/domain/booking"
	"staylane/internal/domain/property"
	"staylane/internal/domain/shared/events"
)

var (
	ErrInvalidRating = errors.New("reviews: rating must be between 1 and 5")
	ErrCommentLength = errors.New("reviews: comment is too long")
	ErrNotFound      = errors.New("reviews: not found")
)

const MaxCommentLength = 2000

type ReviewID string

type Review struct {
	ID         ReviewID
	BookingID  booking.BookingID
	Author     booking.ProfileID
	PropertyID property.PropertyID
	Rating     int
	Comment    string
	CreatedAt  time.Time
	events.EventRecorder
}

type Repository interface {
	ByBooking(ctx context.Context, bookingID booking.BookingID) (*Review, error)
	ListByProperty(ctx context.Context, propertyID property.PropertyID, limit, offset int) ([]*Review, error)
	CountByProperty(ctx context.Context, propertyID property.PropertyID) (count int, ratingSum int, err error)
	Save(ctx context.Context, review *Review) error
}

type SubmitParams struct {
	ID         ReviewID
	BookingID  booking.BookingID
	Author     booking.ProfileID
	PropertyID property.PropertyID
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

func Submit(params SubmitParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	comment := strings.TrimSpace(params.Comment)
	if len(comment) > MaxCommentLength {
		return nil, ErrCommentLength
	}
	review := &Review{
		ID:         params.ID,
		BookingID:  params.BookingID,
		Author:     params.Author,
		PropertyID: params.PropertyID,
		Rating:     params.Rating,
		Comment:    comment,
		CreatedAt:  params.CreatedAt.UTC(),
	}
	review.Record(ReviewSubmitted{
		ReviewID:   review.ID,
		BookingID:  review.BookingID,
		PropertyID: review.PropertyID,
		Rating:     review.Rating,
		At:         review.CreatedAt,
	})
	return review, nil
}
