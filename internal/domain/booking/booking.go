package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"staylane/internal/domain/pricing"
	"staylane/internal/domain/property"
	"staylane/internal/domain/shared/daterange"
	"staylane/internal/domain/shared/events"
	"staylane/internal/domain/shared/money"
)

var (
	ErrNotFound        = errors.New("booking: not found")
	ErrAlreadyPaid     = errors.New("booking: already paid")
	ErrNotPaid         = errors.New("booking: not paid")
	ErrNotOwner        = errors.New("booking: profile does not own booking")
	ErrInvalidTotal    = errors.New("booking: order total must be positive")
	ErrProfileRequired = errors.New("booking: profile id required")
	ErrTotalsMismatch  = errors.New("booking: totals do not match the date range")
)

type BookingID string
type ProfileID string

// Status is derived from the payment flag; it is never stored on its own.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
)

type Booking struct {
	ID            BookingID
	Profile       ProfileID
	PropertyID    property.PropertyID
	Range         daterange.DateRange
	Totals        pricing.Totals
	PaymentStatus bool
	PaidAt        time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

// Repository is the booking store. MarkPaid is a compare-and-set on the
// payment flag and reports whether this call flipped it.
type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Insert(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, id BookingID) error
	DeleteUnpaidByProfile(ctx context.Context, profile ProfileID) (int, error)
	FindPaidOverlap(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange, exclude BookingID) (*Booking, error)
	MarkPaid(ctx context.Context, id BookingID, paidAt time.Time) (bool, error)
	ListByProfile(ctx context.Context, profile ProfileID) ([]*Booking, error)
	ListPaidByProperty(ctx context.Context, propertyID property.PropertyID) ([]*Booking, error)
}

type CreateParams struct {
	ID         BookingID
	Profile    ProfileID
	PropertyID property.PropertyID
	Range      daterange.DateRange
	Totals     pricing.Totals
	Now        time.Time
}

// NewPending builds an unpaid booking. Totals are computed by the caller and
// frozen here; later price changes on the property do not affect them.
func NewPending(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("booking: id required")
	}
	if strings.TrimSpace(string(params.Profile)) == "" {
		return nil, ErrProfileRequired
	}
	if strings.TrimSpace(string(params.PropertyID)) == "" {
		return nil, errors.New("booking: property id required")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.Totals.TotalNights != params.Range.Nights() {
		return nil, ErrTotalsMismatch
	}
	now := params.Now.UTC()
	b := &Booking{
		ID:         params.ID,
		Profile:    params.Profile,
		PropertyID: params.PropertyID,
		Range:      params.Range,
		Totals:     params.Totals,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(BookingRequested{
		BookingID:  b.ID,
		Profile:    b.Profile,
		PropertyID: b.PropertyID,
		CheckIn:    b.Range.CheckIn,
		CheckOut:   b.Range.CheckOut,
		OrderTotal: b.Totals.OrderTotal,
		At:         now,
	})
	return b, nil
}

func (b *Booking) Status() Status {
	if b.PaymentStatus {
		return StatusConfirmed
	}
	return StatusPending
}

func (b *Booking) TotalNights() int {
	return b.Totals.TotalNights
}

func (b *Booking) OrderTotal() money.Money {
	return b.Totals.OrderTotal
}

func (b *Booking) OwnedBy(profile ProfileID) bool {
	return profile != "" && b.Profile == profile
}

// CanCheckout reports whether a payment session may be opened for the booking.
func (b *Booking) CanCheckout() error {
	if b.PaymentStatus {
		return ErrAlreadyPaid
	}
	if !b.OrderTotal().IsPositive() {
		return ErrInvalidTotal
	}
	return nil
}

// MarkPaid moves Pending to Confirmed. It returns false without recording
// anything when the booking is already paid.
func (b *Booking) MarkPaid(sessionID string, now time.Time) bool {
	if b.PaymentStatus {
		return false
	}
	b.PaymentStatus = true
	b.PaidAt = now.UTC()
	b.UpdatedAt = b.PaidAt
	b.Record(BookingPaymentConfirmed{
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		SessionID:  sessionID,
		CheckIn:    b.Range.CheckIn,
		CheckOut:   b.Range.CheckOut,
		OrderTotal: b.Totals.OrderTotal,
		At:         b.PaidAt,
	})
	return true
}

// MarkDeleted validates that the owner may delete a paid booking and records the event.
func (b *Booking) MarkDeleted(profile ProfileID, now time.Time) error {
	if !b.OwnedBy(profile) {
		return ErrNotOwner
	}
	if !b.PaymentStatus {
		return ErrNotPaid
	}
	b.Record(BookingDeleted{BookingID: b.ID, PropertyID: b.PropertyID, Profile: b.Profile, At: now.UTC()})
	return nil
}
