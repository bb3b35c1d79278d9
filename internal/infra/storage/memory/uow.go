package memory

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"staylane/internal/app/uow"
	domainbooking "staylane/internal/domain/booking"
	domainproperty "staylane/internal/domain/property"
	domainreviews "staylane/internal/domain/reviews"
)

var (
	ErrReadOnlyUnit = errors.New("memory: write in read-only unit of work")
	ErrUnitClosed   = errors.New("memory: unit of work already finished")
)

// Store holds every aggregate of the in-memory backend.
type Store struct {
	mu         sync.RWMutex
	properties map[domainproperty.PropertyID]*domainproperty.Property
	bookings   map[domainbooking.BookingID]*domainbooking.Booking
	reviews    map[domainreviews.ReviewID]*domainreviews.Review

	// gate admits one write unit or any number of read units at a time.
	gate *semaphore.Weighted
}

// gateSize bounds concurrent read units; a writer takes the whole gate.
const gateSize = 1 << 20

func NewStore() *Store {
	return &Store{
		properties: make(map[domainproperty.PropertyID]*domainproperty.Property),
		bookings:   make(map[domainbooking.BookingID]*domainbooking.Booking),
		reviews:    make(map[domainreviews.ReviewID]*domainreviews.Review),
		gate:       semaphore.NewWeighted(gateSize),
	}
}

// Factory opens units of work over a Store. A write unit holds the store
// exclusively from Begin until Commit or Rollback, so a check followed by a
// write cannot interleave with another writer and readers never see
// uncommitted state. Read-only units share the store with each other.
type Factory struct {
	Store *Store
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, errors.New("memory: unit of work factory misconfigured")
	}
	unit := &Unit{store: f.Store, readOnly: opts.ReadOnly, weight: gateSize}
	if opts.ReadOnly {
		unit.weight = 1
	}
	if err := f.Store.gate.Acquire(ctx, unit.weight); err != nil {
		return nil, err
	}
	return unit, nil
}

// Unit applies writes to the store immediately and keeps an undo log so
// Rollback restores the previous state.
type Unit struct {
	store    *Store
	readOnly bool
	weight   int64

	mu   sync.Mutex
	undo []func()
	done bool
}

func (u *Unit) Properties() domainproperty.Repository { return propertyRepo{unit: u} }

func (u *Unit) Bookings() domainbooking.Repository { return bookingRepo{unit: u} }

func (u *Unit) Reviews() domainreviews.Repository { return reviewRepo{unit: u} }

// LockProperty is a no-op: write units are already exclusive.
func (u *Unit) LockProperty(ctx context.Context, id domainproperty.PropertyID) error {
	if u.readOnly {
		return ErrReadOnlyUnit
	}
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	return u.finish(false)
}

func (u *Unit) Rollback(ctx context.Context) error {
	return u.finish(true)
}

func (u *Unit) finish(rollback bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		if rollback {
			return nil
		}
		return ErrUnitClosed
	}
	u.done = true
	if rollback && len(u.undo) > 0 {
		u.store.mu.Lock()
		for i := len(u.undo) - 1; i >= 0; i-- {
			u.undo[i]()
		}
		u.store.mu.Unlock()
	}
	u.undo = nil
	u.store.gate.Release(u.weight)
	return nil
}

// write runs fn under the store lock. fn returns the closure that reverts it.
func (u *Unit) write(fn func() (func(), error)) error {
	if u.readOnly {
		return ErrReadOnlyUnit
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	u.store.mu.Lock()
	revert, err := fn()
	u.store.mu.Unlock()
	if err != nil {
		return err
	}
	if revert != nil {
		u.undo = append(u.undo, revert)
	}
	return nil
}

func (u *Unit) read(fn func()) {
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	fn()
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
