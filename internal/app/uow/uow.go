package uow

import (
	"context"
	"errors"

	domainbooking "staylane/internal/domain/booking"
	domainproperty "staylane/internal/domain/property"
	domainreviews "staylane/internal/domain/reviews"
)

// ErrConflict is returned by stores when a concurrent transaction touched the
// same data. The whole unit should be treated as failed.
var ErrConflict = errors.New("uow: concurrent write conflict")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Properties() domainproperty.Repository
	Bookings() domainbooking.Repository
	Reviews() domainreviews.Repository

	// LockProperty serializes writers that touch bookings of one property
	// until the unit ends.
	LockProperty(ctx context.Context, id domainproperty.PropertyID) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// SelfManaged is implemented by commands whose handlers open their own units
// of work; the transaction middleware passes them through untouched.
type SelfManaged interface {
	ManagesUnitOfWork()
}
