package policies

import (
	"context"
	"time"
)

// Incident describes a payment the provider completed that could not be
// applied to its booking.
type Incident struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	BookingID  string    `json:"booking_id,omitempty"`
	Reason     string    `json:"reason"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ReconciliationJournal interface {
	Record(ctx context.Context, incident Incident) error
}
