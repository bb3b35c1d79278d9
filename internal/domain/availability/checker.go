package availability

import (
	"context"
	"errors"

	"staylane/internal/domain/booking"
	"staylane/internal/domain/property"
	"staylane/internal/domain/shared/daterange"
)

var ErrUnavailable = errors.New("availability: dates overlap a confirmed booking")

// PaidBookingFinder is the read side of the booking store used for conflict checks.
type PaidBookingFinder interface {
	FindPaidOverlap(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange, exclude booking.BookingID) (*booking.Booking, error)
}

// Checker decides whether a candidate range collides with a paid booking.
// Pending bookings never block dates.
type Checker struct {
	bookings PaidBookingFinder
}

func NewChecker(bookings PaidBookingFinder) Checker {
	return Checker{bookings: bookings}
}

// Conflict returns the first paid booking overlapping r, or nil when the range is free.
func (c Checker) Conflict(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange) (*booking.Booking, error) {
	return c.ConflictExcluding(ctx, propertyID, r, "")
}

// ConflictExcluding ignores the booking with the given id, which lets a
// booking be re-checked against everyone but itself.
func (c Checker) ConflictExcluding(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange, exclude booking.BookingID) (*booking.Booking, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return c.bookings.FindPaidOverlap(ctx, propertyID, r, exclude)
}

func (c Checker) Available(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange) (bool, error) {
	conflict, err := c.Conflict(ctx, propertyID, r)
	if err != nil {
		return false, err
	}
	return conflict == nil, nil
}

// FirstPaidOverlap scans bookings in order and returns the first paid one that
// overlaps r. Stores without range queries use it to answer FindPaidOverlap.
func FirstPaidOverlap(bookings []*booking.Booking, propertyID property.PropertyID, r daterange.DateRange, exclude booking.BookingID) *booking.Booking {
	for _, b := range bookings {
		if b == nil || !b.PaymentStatus || b.PropertyID != propertyID {
			continue
		}
		if exclude != "" && b.ID == exclude {
			continue
		}
		if b.Range.Overlaps(r) {
			return b
		}
	}
	return nil
}
