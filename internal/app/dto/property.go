package dto

import (
	"time"

	domainproperty "staylane/internal/domain/property"
)

type Property struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	Tagline      string    `json:"tagline,omitempty"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	Country      string    `json:"country,omitempty"`
	Image        string    `json:"image,omitempty"`
	Guests       int       `json:"guests"`
	Bedrooms     int       `json:"bedrooms"`
	Beds         int       `json:"beds"`
	Baths        int       `json:"baths"`
	Amenities    []string  `json:"amenities"`
	NightlyPrice MoneyDTO  `json:"nightly_price"`
	Rating       float64   `json:"rating"`
	ReviewsCount int       `json:"reviews_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type PropertyCollection struct {
	Items []Property `json:"items"`
}

func MapProperty(p *domainproperty.Property) Property {
	if p == nil {
		return Property{}
	}
	amenities := p.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return Property{
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
		Amenities:    amenities,
		NightlyPrice: MapMoney(p.NightlyPrice),
		Rating:       p.Rating,
		ReviewsCount: p.ReviewsCount,
		CreatedAt:    p.CreatedAt,
	}
}
