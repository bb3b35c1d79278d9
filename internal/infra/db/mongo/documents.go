package mongo

import (
	"time"

	domainbooking "staylane/internal/domain/booking"
	"staylane/internal/domain/pricing"
	domainproperty "staylane/internal/domain/property"
	domainreviews "staylane/internal/domain/reviews"
	"staylane/internal/domain/shared/daterange"
	"staylane/internal/domain/shared/money"
	domainuser "staylane/internal/domain/user"
)

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type totalsDocument struct {
	TotalNights int           `bson:"total_nights"`
	Nightly     moneyDocument `bson:"nightly"`
	SubTotal    moneyDocument `bson:"sub_total"`
	Cleaning    moneyDocument `bson:"cleaning"`
	Service     moneyDocument `bson:"service"`
	Tax         moneyDocument `bson:"tax"`
	OrderTotal  moneyDocument `bson:"order_total"`
}

type bookingDocument struct {
	ID            string         `bson:"_id"`
	ProfileID     string         `bson:"profile_id"`
	PropertyID    string         `bson:"property_id"`
	CheckIn       time.Time      `bson:"check_in"`
	CheckOut      time.Time      `bson:"check_out"`
	Totals        totalsDocument `bson:"totals"`
	PaymentStatus bool           `bson:"payment_status"`
	PaidAt        time.Time      `bson:"paid_at,omitempty"`
	CreatedAt     time.Time      `bson:"created_at"`
	UpdatedAt     time.Time      `bson:"updated_at"`
	Version       int64          `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	t := b.Totals
	return bookingDocument{
		ID:         string(b.ID),
		ProfileID:  string(b.Profile),
		PropertyID: string(b.PropertyID),
		CheckIn:    b.Range.CheckIn.UTC(),
		CheckOut:   b.Range.CheckOut.UTC(),
		Totals: totalsDocument{
			TotalNights: t.TotalNights,
			Nightly:     newMoneyDocument(t.Nightly),
			SubTotal:    newMoneyDocument(t.SubTotal),
			Cleaning:    newMoneyDocument(t.Cleaning),
			Service:     newMoneyDocument(t.Service),
			Tax:         newMoneyDocument(t.Tax),
			OrderTotal:  newMoneyDocument(t.OrderTotal),
		},
		PaymentStatus: b.PaymentStatus,
		PaidAt:        b.PaidAt.UTC(),
		CreatedAt:     b.CreatedAt.UTC(),
		UpdatedAt:     b.UpdatedAt.UTC(),
		Version:       b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:         domainbooking.BookingID(d.ID),
		Profile:    domainbooking.ProfileID(d.ProfileID),
		PropertyID: domainproperty.PropertyID(d.PropertyID),
		Range:      daterange.DateRange{CheckIn: d.CheckIn.UTC(), CheckOut: d.CheckOut.UTC()},
		Totals: pricing.Totals{
			TotalNights: d.Totals.TotalNights,
			Nightly:     d.Totals.Nightly.toMoney(),
			SubTotal:    d.Totals.SubTotal.toMoney(),
			Cleaning:    d.Totals.Cleaning.toMoney(),
			Service:     d.Totals.Service.toMoney(),
			Tax:         d.Totals.Tax.toMoney(),
			OrderTotal:  d.Totals.OrderTotal.toMoney(),
		},
		PaymentStatus: d.PaymentStatus,
		PaidAt:        d.PaidAt.UTC(),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
		Version:       d.Version,
	}
}

type propertyDocument struct {
	ID           string        `bson:"_id"`
	OwnerID      string        `bson:"owner_id"`
	Name         string        `bson:"name"`
	Tagline      string        `bson:"tagline"`
	Description  string        `bson:"description"`
	Category     string        `bson:"category"`
	Country      string        `bson:"country"`
	Image        string        `bson:"image"`
	Guests       int           `bson:"guests"`
	Bedrooms     int           `bson:"bedrooms"`
	Beds         int           `bson:"beds"`
	Baths        int           `bson:"baths"`
	Amenities    []string      `bson:"amenities"`
	NightlyPrice moneyDocument `bson:"nightly_price"`
	Rating       float64       `bson:"rating"`
	ReviewsCount int           `bson:"reviews_count"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
	Version      int64         `bson:"version"`
}

func newPropertyDocument(p *domainproperty.Property) propertyDocument {
	return propertyDocument{
		ID:           string(p.ID),
		OwnerID:      string(p.Owner),
		Name:         p.Name,
		Tagline:      p.Tagline,
		Description:  p.Description,
		Category:     p.Category,
		Country:      p.Country,
		Image:        p.Image,
		Guests:       p.Guests,
		Bedrooms:     p.Bedrooms,
		Beds:         p.Beds,
		Baths:        p.Baths,
		Amenities:    p.Amenities,
		NightlyPrice: newMoneyDocument(p.NightlyPrice),
		Rating:       p.Rating,
		ReviewsCount: p.ReviewsCount,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
		Version:      p.Version,
	}
}

func (d propertyDocument) toAggregate() *domainproperty.Property {
	return &domainproperty.Property{
		ID:           domainproperty.PropertyID(d.ID),
		Owner:        domainproperty.OwnerID(d.OwnerID),
		Name:         d.Name,
		Tagline:      d.Tagline,
		Description:  d.Description,
		Category:     d.Category,
		Country:      d.Country,
		Image:        d.Image,
		Guests:       d.Guests,
		Bedrooms:     d.Bedrooms,
		Beds:         d.Beds,
		Baths:        d.Baths,
		Amenities:    d.Amenities,
		NightlyPrice: d.NightlyPrice.toMoney(),
		Rating:       d.Rating,
		ReviewsCount: d.ReviewsCount,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		Version:      d.Version,
	}
}

type reviewDocument struct {
	ID         string    `bson:"_id"`
	BookingID  string    `bson:"booking_id"`
	AuthorID   string    `bson:"author_id"`
	PropertyID string    `bson:"property_id"`
	Rating     int       `bson:"rating"`
	Comment    string    `bson:"comment"`
	CreatedAt  time.Time `bson:"created_at"`
}

func newReviewDocument(r *domainreviews.Review) reviewDocument {
	return reviewDocument{
		ID:         string(r.ID),
		BookingID:  string(r.BookingID),
		AuthorID:   string(r.Author),
		PropertyID: string(r.PropertyID),
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func (d reviewDocument) toAggregate() *domainreviews.Review {
	return &domainreviews.Review{
		ID:         domainreviews.ReviewID(d.ID),
		BookingID:  domainbooking.BookingID(d.BookingID),
		Author:     domainbooking.ProfileID(d.AuthorID),
		PropertyID: domainproperty.PropertyID(d.PropertyID),
		Rating:     d.Rating,
		Comment:    d.Comment,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name"`
	PasswordHash string    `bson:"password_hash"`
	Roles        []string  `bson:"roles"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func newUserDocument(u *domainuser.User) userDocument {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return userDocument{
		ID:           string(u.ID),
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Roles:        roles,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (d userDocument) toAggregate() *domainuser.User {
	roles := make([]domainuser.Role, 0, len(d.Roles))
	for _, r := range d.Roles {
		roles = append(roles, domainuser.Role(r))
	}
	return &domainuser.User{
		ID:           domainuser.ID(d.ID),
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		Roles:        roles,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}
