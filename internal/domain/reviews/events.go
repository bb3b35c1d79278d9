package reviews

import (
	"time"

	"staylane/internal/domain/booking"
	"staylane/internal/domain/property"
)

type ReviewSubmitted struct {
	ReviewID   ReviewID            `json:"review_id"`
	BookingID  booking.BookingID   `json:"booking_id"`
	PropertyID property.PropertyID `json:"property_id"`
	Rating     int                 `json:"rating"`
	At         time.Time           `json:"occurred_at"`
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }
