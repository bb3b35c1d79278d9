package dto

import (
	"time"

	domainbooking "staylane/internal/domain/booking"
	domainpricing "staylane/internal/domain/pricing"
	domainproperty "staylane/internal/domain/property"
	"staylane/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency}
}

type TotalsDTO struct {
	TotalNights int      `json:"total_nights"`
	Nightly     MoneyDTO `json:"nightly"`
	SubTotal    MoneyDTO `json:"sub_total"`
	Cleaning    MoneyDTO `json:"cleaning"`
	Service     MoneyDTO `json:"service"`
	Tax         MoneyDTO `json:"tax"`
	OrderTotal  MoneyDTO `json:"order_total"`
}

func MapTotals(t domainpricing.Totals) TotalsDTO {
	return TotalsDTO{
		TotalNights: t.TotalNights,
		Nightly:     MapMoney(t.Nightly),
		SubTotal:    MapMoney(t.SubTotal),
		Cleaning:    MapMoney(t.Cleaning),
		Service:     MapMoney(t.Service),
		Tax:         MapMoney(t.Tax),
		OrderTotal:  MapMoney(t.OrderTotal),
	}
}

// BookingCreated is returned by createBooking; the client continues to the
// payment session with the id.
type BookingCreated struct {
	BookingID string    `json:"booking_id"`
	Status    string    `json:"status"`
	Totals    TotalsDTO `json:"totals"`
}

type BookingPropertySnapshot struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Image   string `json:"image,omitempty"`
}

type ProfileBookingSummary struct {
	ID            string                  `json:"id"`
	Property      BookingPropertySnapshot `json:"property"`
	CheckIn       time.Time               `json:"check_in"`
	CheckOut      time.Time               `json:"check_out"`
	TotalNights   int                     `json:"total_nights"`
	OrderTotal    MoneyDTO                `json:"order_total"`
	Status        string                  `json:"status"`
	PaymentStatus bool                    `json:"payment_status"`
	CreatedAt     time.Time               `json:"created_at"`
	CanReview     bool                    `json:"can_review"`
}

type ProfileBookingCollection struct {
	Items []ProfileBookingSummary `json:"items"`
}

func MapProfileBooking(b *domainbooking.Booking, p *domainproperty.Property, canReview bool) ProfileBookingSummary {
	summary := ProfileBookingSummary{
		ID:            string(b.ID),
		Property:      BookingPropertySnapshot{ID: string(b.PropertyID)},
		CheckIn:       b.Range.CheckIn,
		CheckOut:      b.Range.CheckOut,
		TotalNights:   b.TotalNights(),
		OrderTotal:    MapMoney(b.OrderTotal()),
		Status:        string(b.Status()),
		PaymentStatus: b.PaymentStatus,
		CreatedAt:     b.CreatedAt,
		CanReview:     canReview,
	}
	if p != nil {
		summary.Property.Name = p.Name
		summary.Property.Country = p.Country
		summary.Property.Image = p.Image
	}
	return summary
}

type HostReservation struct {
	ID          string                  `json:"id"`
	Property    BookingPropertySnapshot `json:"property"`
	GuestID     string                  `json:"guest_id"`
	CheckIn     time.Time               `json:"check_in"`
	CheckOut    time.Time               `json:"check_out"`
	TotalNights int                     `json:"total_nights"`
	OrderTotal  MoneyDTO                `json:"order_total"`
	PaidAt      time.Time               `json:"paid_at"`
}

type HostReservationCollection struct {
	Items   []HostReservation `json:"items"`
	Revenue MoneyDTO          `json:"revenue"`
}

func MapHostReservation(b *domainbooking.Booking, p *domainproperty.Property) HostReservation {
	return HostReservation{
		ID:          string(b.ID),
		Property:    BookingPropertySnapshot{ID: string(p.ID), Name: p.Name, Country: p.Country, Image: p.Image},
		GuestID:     string(b.Profile),
		CheckIn:     b.Range.CheckIn,
		CheckOut:    b.Range.CheckOut,
		TotalNights: b.TotalNights(),
		OrderTotal:  MapMoney(b.OrderTotal()),
		PaidAt:      b.PaidAt,
	}
}
