package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"staylane/internal/domain/shared/events"
	"staylane/internal/domain/shared/money"
)

var (
	ErrNotFound      = errors.New("property: not found")
	ErrNameRequired  = errors.New("property: name is required")
	ErrOwnerRequired = errors.New("property: owner is required")
	ErrInvalidPrice  = errors.New("property: nightly price must be positive")
	ErrNotOwner      = errors.New("property: only the owner may change it")
)

type PropertyID string
type OwnerID string

type Property struct {
	ID           PropertyID
	Owner        OwnerID
	Name         string
	Tagline      string
	Description  string
	Category     string
	Country      string
	Image        string
	Guests       int
	Bedrooms     int
	Beds         int
	Baths        int
	Amenities    []string
	NightlyPrice money.Money
	Rating       float64
	ReviewsCount int
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id PropertyID) (*Property, error)
	Save(ctx context.Context, property *Property) error
	List(ctx context.Context, filter ListFilter) ([]*Property, error)
}

// ListFilter narrows List; zero values mean no constraint.
type ListFilter struct {
	Owner  OwnerID
	Limit  int
	Offset int
}

type CreateParams struct {
	ID           PropertyID
	Owner        OwnerID
	Name         string
	Tagline      string
	Description  string
	Category     string
	Country      string
	Image        string
	Guests       int
	Bedrooms     int
	Beds         int
	Baths        int
	Amenities    []string
	NightlyPrice money.Money
	Now          time.Time
}

func NewProperty(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("property: id is required")
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, ErrNameRequired
	}
	if !params.NightlyPrice.IsPositive() || params.NightlyPrice.Currency == "" {
		return nil, ErrInvalidPrice
	}
	now := params.Now.UTC()
	p := &Property{
		ID:           params.ID,
		Owner:        params.Owner,
		Name:         strings.TrimSpace(params.Name),
		Tagline:      strings.TrimSpace(params.Tagline),
		Description:  params.Description,
		Category:     params.Category,
		Country:      params.Country,
		Image:        params.Image,
		Guests:       params.Guests,
		Bedrooms:     params.Bedrooms,
		Beds:         params.Beds,
		Baths:        params.Baths,
		Amenities:    append([]string(nil), params.Amenities...),
		NightlyPrice: params.NightlyPrice,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.Record(PropertyCreated{PropertyID: p.ID, Owner: p.Owner, NightlyPrice: p.NightlyPrice, At: now})
	return p, nil
}

// Reprice changes the nightly price for future bookings. Existing bookings
// keep the totals they were created with.
func (p *Property) Reprice(owner OwnerID, price money.Money, now time.Time) error {
	if owner != p.Owner {
		return ErrNotOwner
	}
	if !price.IsPositive() || price.Currency == "" {
		return ErrInvalidPrice
	}
	if price == p.NightlyPrice {
		return nil
	}
	previous := p.NightlyPrice
	p.NightlyPrice = price
	p.UpdatedAt = now.UTC()
	p.Record(PropertyRepriced{PropertyID: p.ID, Previous: previous, Current: price, At: p.UpdatedAt})
	return nil
}

func (p *Property) UpdateRating(average float64, count int, now time.Time) {
	p.Rating = average
	p.ReviewsCount = count
	p.UpdatedAt = now.UTC()
}
