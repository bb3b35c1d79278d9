package dto

import (
	"time"

	domainreviews "staylane/internal/domain/reviews"
)

type Review struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	PropertyID string    `json:"property_id"`
	AuthorID   string    `json:"author_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReviewCollection struct {
	Items []Review `json:"items"`
	Total int      `json:"total"`
}

func MapReview(review *domainreviews.Review) Review {
	if review == nil {
		return Review{}
	}
	return Review{
		ID:         string(review.ID),
		BookingID:  string(review.BookingID),
		PropertyID: string(review.PropertyID),
		AuthorID:   string(review.Author),
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt,
	}
}
