package payment

import (
	"errors"
	"strings"

	"staylane/internal/domain/booking"
)

const MetadataBookingID = "bookingId"

var ErrMetadataMissing = errors.New("payment: session metadata has no booking id")

// BookingMetadata is the only shape accepted in a session's metadata bag.
type BookingMetadata struct {
	BookingID booking.BookingID
}

func (m BookingMetadata) Map() map[string]string {
	return map[string]string{MetadataBookingID: string(m.BookingID)}
}

// ParseBookingMetadata validates the provider payload instead of trusting it.
// Extra keys are ignored.
func ParseBookingMetadata(metadata map[string]string) (BookingMetadata, error) {
	raw, ok := metadata[MetadataBookingID]
	if !ok {
		return BookingMetadata{}, ErrMetadataMissing
	}
	id := strings.TrimSpace(raw)
	if id == "" {
		return BookingMetadata{}, ErrMetadataMissing
	}
	return BookingMetadata{BookingID: booking.BookingID(id)}, nil
}
