package dto

import (
	"time"

	"staylane/internal/domain/availability"
)

type CalendarBlock struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type Calendar struct {
	PropertyID string          `json:"property_id"`
	Blocks     []CalendarBlock `json:"blocks"`
}

func MapCalendar(propertyID string, blocks []availability.Block) Calendar {
	out := Calendar{PropertyID: propertyID, Blocks: make([]CalendarBlock, 0, len(blocks))}
	for _, b := range blocks {
		out.Blocks = append(out.Blocks, CalendarBlock{From: b.Range.CheckIn, To: b.Range.CheckOut})
	}
	return out
}

// Window narrows a cached calendar to blocks intersecting [from, to).
func (c Calendar) Window(from, to time.Time) Calendar {
	out := Calendar{PropertyID: c.PropertyID, Blocks: make([]CalendarBlock, 0, len(c.Blocks))}
	for _, b := range c.Blocks {
		if !from.IsZero() && !b.To.After(from) {
			continue
		}
		if !to.IsZero() && !b.From.Before(to) {
			continue
		}
		out.Blocks = append(out.Blocks, b)
	}
	return out
}

// StayQuote answers "can I book these dates and what would it cost".
type StayQuote struct {
	PropertyID string     `json:"property_id"`
	CheckIn    time.Time  `json:"check_in"`
	CheckOut   time.Time  `json:"check_out"`
	Available  bool       `json:"available"`
	Totals     *TotalsDTO `json:"totals,omitempty"`
}
