package availability

import (
	"sort"
	"time"

	"staylane/internal/domain/booking"
	"staylane/internal/domain/property"
	"staylane/internal/domain/shared/daterange"
)

type Block struct {
	Range     daterange.DateRange
	BookingID booking.BookingID
}

// Calendar is the read model of a property's booked nights.
type Calendar struct {
	PropertyID property.PropertyID
	Blocks     []Block
}

// CalendarFromBookings keeps paid bookings only and orders them by check-in.
func CalendarFromBookings(propertyID property.PropertyID, bookings []*booking.Booking) *Calendar {
	cal := &Calendar{PropertyID: propertyID}
	for _, b := range bookings {
		if b == nil || !b.PaymentStatus || b.PropertyID != propertyID {
			continue
		}
		cal.Blocks = append(cal.Blocks, Block{Range: b.Range, BookingID: b.ID})
	}
	sort.Slice(cal.Blocks, func(i, j int) bool {
		return cal.Blocks[i].Range.CheckIn.Before(cal.Blocks[j].Range.CheckIn)
	})
	return cal
}

func (c *Calendar) CanReserve(r daterange.DateRange) bool {
	for _, block := range c.Blocks {
		if block.Range.Overlaps(r) {
			return false
		}
	}
	return true
}

// Window returns the blocks intersecting [from, to). Zero bounds are open.
func (c *Calendar) Window(from, to time.Time) []Block {
	out := make([]Block, 0, len(c.Blocks))
	for _, block := range c.Blocks {
		if !from.IsZero() && !block.Range.CheckOut.After(daterange.Day(from)) {
			continue
		}
		if !to.IsZero() && !block.Range.CheckIn.Before(daterange.Day(to)) {
			continue
		}
		out = append(out, block)
	}
	return out
}
