package booking

import (
	"time"

	"staylane/internal/domain/property"
	"staylane/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID  BookingID           `json:"booking_id"`
	Profile    ProfileID           `json:"profile_id"`
	PropertyID property.PropertyID `json:"property_id"`
	CheckIn    time.Time           `json:"check_in"`
	CheckOut   time.Time           `json:"check_out"`
	OrderTotal money.Money         `json:"order_total"`
	At         time.Time           `json:"occurred_at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingPaymentConfirmed struct {
	BookingID  BookingID           `json:"booking_id"`
	PropertyID property.PropertyID `json:"property_id"`
	SessionID  string              `json:"session_id"`
	CheckIn    time.Time           `json:"check_in"`
	CheckOut   time.Time           `json:"check_out"`
	OrderTotal money.Money         `json:"order_total"`
	At         time.Time           `json:"occurred_at"`
}

func (e BookingPaymentConfirmed) EventName() string     { return "booking.payment_confirmed" }
func (e BookingPaymentConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingPaymentConfirmed) OccurredAt() time.Time { return e.At }

type BookingDeleted struct {
	BookingID  BookingID           `json:"booking_id"`
	PropertyID property.PropertyID `json:"property_id"`
	Profile    ProfileID           `json:"profile_id"`
	At         time.Time           `json:"occurred_at"`
}

func (e BookingDeleted) EventName() string     { return "booking.deleted" }
func (e BookingDeleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingDeleted) OccurredAt() time.Time { return e.At }
