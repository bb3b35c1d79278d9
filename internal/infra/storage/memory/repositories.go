package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	domainavailability "staylane/internal/domain/availability"
	domainbooking "staylane/internal/domain/booking"
	domainproperty "staylane/internal/domain/property"
	domainreviews "staylane/internal/domain/reviews"
	"staylane/internal/domain/shared/daterange"
	"staylane/internal/domain/shared/events"
)

var ErrBookingExists = errors.New("memory: booking already exists")

type propertyRepo struct {
	unit *Unit
}

func (r propertyRepo) ByID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	var out *domainproperty.Property
	r.unit.read(func() {
		if p, ok := r.unit.store.properties[id]; ok {
			out = cloneProperty(p)
		}
	})
	if out == nil {
		return nil, domainproperty.ErrNotFound
	}
	return out, nil
}

func (r propertyRepo) Save(ctx context.Context, property *domainproperty.Property) error {
	if property == nil {
		return errors.New("memory: nil property")
	}
	return r.unit.write(func() (func(), error) {
		items := r.unit.store.properties
		previous, existed := items[property.ID]
		next := cloneProperty(property)
		if existed {
			next.Version = previous.Version + 1
		}
		items[property.ID] = next
		property.Version = next.Version
		return func() {
			if existed {
				items[property.ID] = previous
			} else {
				delete(items, property.ID)
			}
		}, nil
	})
}

func (r propertyRepo) List(ctx context.Context, filter domainproperty.ListFilter) ([]*domainproperty.Property, error) {
	var out []*domainproperty.Property
	r.unit.read(func() {
		for _, p := range r.unit.store.properties {
			if filter.Owner != "" && p.Owner != filter.Owner {
				continue
			}
			out = append(out, cloneProperty(p))
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

type bookingRepo struct {
	unit *Unit
}

func (r bookingRepo) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var out *domainbooking.Booking
	r.unit.read(func() {
		if b, ok := r.unit.store.bookings[id]; ok {
			out = cloneBooking(b)
		}
	})
	if out == nil {
		return nil, domainbooking.ErrNotFound
	}
	return out, nil
}

func (r bookingRepo) Insert(ctx context.Context, booking *domainbooking.Booking) error {
	if booking == nil {
		return errors.New("memory: nil booking")
	}
	return r.unit.write(func() (func(), error) {
		items := r.unit.store.bookings
		if _, ok := items[booking.ID]; ok {
			return nil, ErrBookingExists
		}
		items[booking.ID] = cloneBooking(booking)
		return func() { delete(items, booking.ID) }, nil
	})
}

func (r bookingRepo) Delete(ctx context.Context, id domainbooking.BookingID) error {
	return r.unit.write(func() (func(), error) {
		items := r.unit.store.bookings
		previous, ok := items[id]
		if !ok {
			return nil, domainbooking.ErrNotFound
		}
		delete(items, id)
		return func() { items[id] = previous }, nil
	})
}

func (r bookingRepo) DeleteUnpaidByProfile(ctx context.Context, profile domainbooking.ProfileID) (int, error) {
	removed := 0
	err := r.unit.write(func() (func(), error) {
		items := r.unit.store.bookings
		var gone []*domainbooking.Booking
		for id, b := range items {
			if b.Profile == profile && !b.PaymentStatus {
				gone = append(gone, b)
				delete(items, id)
			}
		}
		removed = len(gone)
		return func() {
			for _, b := range gone {
				items[b.ID] = b
			}
		}, nil
	})
	return removed, err
}

func (r bookingRepo) FindPaidOverlap(ctx context.Context, propertyID domainproperty.PropertyID, rng daterange.DateRange, exclude domainbooking.BookingID) (*domainbooking.Booking, error) {
	paid, err := r.ListPaidByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return domainavailability.FirstPaidOverlap(paid, propertyID, rng, exclude), nil
}

func (r bookingRepo) MarkPaid(ctx context.Context, id domainbooking.BookingID, paidAt time.Time) (bool, error) {
	flipped := false
	err := r.unit.write(func() (func(), error) {
		items := r.unit.store.bookings
		current, ok := items[id]
		if !ok {
			return nil, domainbooking.ErrNotFound
		}
		if current.PaymentStatus {
			return nil, nil
		}
		next := cloneBooking(current)
		next.PaymentStatus = true
		next.PaidAt = paidAt.UTC()
		next.UpdatedAt = paidAt.UTC()
		next.Version++
		items[id] = next
		flipped = true
		return func() { items[id] = current }, nil
	})
	return flipped, err
}

func (r bookingRepo) ListByProfile(ctx context.Context, profile domainbooking.ProfileID) ([]*domainbooking.Booking, error) {
	var out []*domainbooking.Booking
	r.unit.read(func() {
		for _, b := range r.unit.store.bookings {
			if b.Profile == profile {
				out = append(out, cloneBooking(b))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r bookingRepo) ListPaidByProperty(ctx context.Context, propertyID domainproperty.PropertyID) ([]*domainbooking.Booking, error) {
	var out []*domainbooking.Booking
	r.unit.read(func() {
		for _, b := range r.unit.store.bookings {
			if b.PropertyID == propertyID && b.PaymentStatus {
				out = append(out, cloneBooking(b))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Range.CheckIn.Before(out[j].Range.CheckIn) })
	return out, nil
}

type reviewRepo struct {
	unit *Unit
}

func (r reviewRepo) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainreviews.Review, error) {
	var out *domainreviews.Review
	r.unit.read(func() {
		for _, rv := range r.unit.store.reviews {
			if rv.BookingID == bookingID {
				out = cloneReview(rv)
				return
			}
		}
	})
	if out == nil {
		return nil, domainreviews.ErrNotFound
	}
	return out, nil
}

func (r reviewRepo) ListByProperty(ctx context.Context, propertyID domainproperty.PropertyID, limit, offset int) ([]*domainreviews.Review, error) {
	var out []*domainreviews.Review
	r.unit.read(func() {
		for _, rv := range r.unit.store.reviews {
			if rv.PropertyID == propertyID {
				out = append(out, cloneReview(rv))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func (r reviewRepo) CountByProperty(ctx context.Context, propertyID domainproperty.PropertyID) (int, int, error) {
	count, sum := 0, 0
	r.unit.read(func() {
		for _, rv := range r.unit.store.reviews {
			if rv.PropertyID == propertyID {
				count++
				sum += rv.Rating
			}
		}
	})
	return count, sum, nil
}

func (r reviewRepo) Save(ctx context.Context, review *domainreviews.Review) error {
	if review == nil {
		return errors.New("memory: nil review")
	}
	return r.unit.write(func() (func(), error) {
		items := r.unit.store.reviews
		previous, existed := items[review.ID]
		items[review.ID] = cloneReview(review)
		return func() {
			if existed {
				items[review.ID] = previous
			} else {
				delete(items, review.ID)
			}
		}, nil
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func cloneProperty(p *domainproperty.Property) *domainproperty.Property {
	c := *p
	c.Amenities = append([]string(nil), p.Amenities...)
	c.EventRecorder = events.EventRecorder{}
	return &c
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	c := *b
	c.EventRecorder = events.EventRecorder{}
	return &c
}

func cloneReview(rv *domainreviews.Review) *domainreviews.Review {
	c := *rv
	c.EventRecorder = events.EventRecorder{}
	return &c
}
