package booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staylane/internal/app/apperr"
	"staylane/internal/app/commands"
	"staylane/internal/app/dto"
	"staylane/internal/app/middleware"
	appoutbox "staylane/internal/app/outbox"
	"staylane/internal/app/uow"
	domainbooking "staylane/internal/domain/booking"
	"staylane/internal/domain/pricing"
	domainproperty "staylane/internal/domain/property"
	"staylane/internal/domain/shared/money"
	"staylane/internal/infra/storage/memory"
)

type fixture struct {
	factory memory.Factory
	box     *memory.Outbox
	create  *CreateBookingHandler
	ids     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{factory: memory.Factory{Store: memory.NewStore()}, box: memory.NewOutbox()}
	f.create = &CreateBookingHandler{
		UoWFactory: f.factory,
		Policy:     pricing.DefaultPolicy("USD"),
		Outbox:     f.box,
		Encoder:    appoutbox.JSONEventEncoder{},
		Now:        func() time.Time { return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC) },
		NewID: func() string {
			f.ids++
			return fmt.Sprintf("b%d", f.ids)
		},
	}
	f.seedProperty(t, "p1", 10000)
	return f
}

func (f *fixture) seedProperty(t *testing.T, id string, nightly int64) {
	t.Helper()
	ctx := context.Background()
	prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID:           domainproperty.PropertyID(id),
		Owner:        "host-1",
		Name:         "Cabin " + id,
		NightlyPrice: money.Money{Amount: nightly, Currency: "USD"},
		Now:          time.Now(),
	})
	require.NoError(t, err)
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Properties().Save(ctx, prop))
	require.NoError(t, unit.Commit(ctx))
}

func (f *fixture) markPaid(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	changed, err := unit.Bookings().MarkPaid(ctx, domainbooking.BookingID(id), time.Now())
	require.NoError(t, err)
	require.True(t, changed)
	require.NoError(t, unit.Commit(ctx))
}

func (f *fixture) booking(t *testing.T, id string) (*domainbooking.Booking, error) {
	t.Helper()
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer func() { _ = unit.Rollback(ctx) }()
	return unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func book(profile, property string, in, out int) CreateBookingCommand {
	return CreateBookingCommand{ProfileID: profile, PropertyID: property, CheckIn: day(in), CheckOut: day(out)}
}

func TestCreateBookingPricesAndStoresPendingBooking(t *testing.T) {
	f := newFixture(t)

	res, err := f.create.Handle(context.Background(), book("guest-1", "p1", 1, 4))
	require.NoError(t, err)

	assert.Equal(t, "b1", res.BookingID)
	assert.Equal(t, string(domainbooking.StatusPending), res.Status)
	assert.Equal(t, 3, res.Totals.TotalNights)
	assert.Equal(t, int64(30000), res.Totals.SubTotal.Amount)
	assert.Equal(t, int64(2100), res.Totals.Cleaning.Amount)
	assert.Equal(t, int64(4000), res.Totals.Service.Amount)
	assert.Equal(t, int64(3610), res.Totals.Tax.Amount)
	assert.Equal(t, int64(39710), res.Totals.OrderTotal.Amount)

	stored, err := f.booking(t, "b1")
	require.NoError(t, err)
	assert.False(t, stored.PaymentStatus)
	assert.Equal(t, int64(39710), stored.OrderTotal().Amount)

	pending := f.box.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "booking.requested", pending[0].Name)
}

func TestCreateBookingPurgesUnpaidBookingsEvenWhenInputIsInvalid(t *testing.T) {
	f := newFixture(t)
	_, err := f.create.Handle(context.Background(), book("guest-1", "p1", 1, 4))
	require.NoError(t, err)

	_, err = f.create.Handle(context.Background(), book("guest-1", "p1", 5, 5))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.booking(t, "b1")
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}

func TestCreateBookingKeepsPaidBookingsOfTheProfile(t *testing.T) {
	f := newFixture(t)
	_, err := f.create.Handle(context.Background(), book("guest-1", "p1", 1, 4))
	require.NoError(t, err)
	f.markPaid(t, "b1")

	_, err = f.create.Handle(context.Background(), book("guest-1", "p1", 10, 12))
	require.NoError(t, err)

	paid, err := f.booking(t, "b1")
	require.NoError(t, err)
	assert.True(t, paid.PaymentStatus)
}

func TestCreateBookingUnknownProperty(t *testing.T) {
	f := newFixture(t)

	_, err := f.create.Handle(context.Background(), book("guest-1", "missing", 1, 4))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateBookingRequiresProfile(t *testing.T) {
	f := newFixture(t)

	_, err := f.create.Handle(context.Background(), book("", "p1", 1, 4))
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestCreateBookingRejectsPaidOverlap(t *testing.T) {
	f := newFixture(t)
	_, err := f.create.Handle(context.Background(), book("guest-1", "p1", 10, 15))
	require.NoError(t, err)
	f.markPaid(t, "b1")

	cases := []struct {
		name    string
		in, out int
		ok      bool
	}{
		{"inside", 11, 13, false},
		{"covering", 8, 20, false},
		{"overlapping start", 8, 11, false},
		{"overlapping end", 14, 18, false},
		{"ending on check-in", 7, 10, true},
		{"starting on check-out", 15, 17, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.create.Handle(context.Background(), book("guest-2", "p1", tc.in, tc.out))
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		})
	}
}

func TestCreateBookingIgnoresUnpaidOverlap(t *testing.T) {
	f := newFixture(t)
	_, err := f.create.Handle(context.Background(), book("guest-1", "p1", 10, 15))
	require.NoError(t, err)

	_, err = f.create.Handle(context.Background(), book("guest-2", "p1", 11, 13))
	assert.NoError(t, err)
}

func TestCreateBookingKeepsTotalsAfterReprice(t *testing.T) {
	f := newFixture(t)
	_, err := f.create.Handle(context.Background(), book("guest-1", "p1", 1, 3))
	require.NoError(t, err)

	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	prop, err := unit.Properties().ByID(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, prop.Reprice("host-1", money.Money{Amount: 50000, Currency: "USD"}, time.Now()))
	require.NoError(t, unit.Properties().Save(ctx, prop))
	require.NoError(t, unit.Commit(ctx))

	stored, err := f.booking(t, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(20000), stored.Totals.SubTotal.Amount)
}

func TestCreateBookingReplaysThroughIdempotency(t *testing.T) {
	f := newFixture(t)
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, CreateBookingCommand{}.Key(), f.create)
	pipeline := middleware.ChainCommands(bus,
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
		middleware.Transaction(f.factory, nil),
	)

	cmd := book("guest-1", "p1", 1, 4)
	cmd.IdempotencyKeyV = "k-1"
	first, err := commands.Dispatch[CreateBookingCommand, dto.BookingCreated](context.Background(), pipeline, cmd)
	require.NoError(t, err)
	second, err := commands.Dispatch[CreateBookingCommand, dto.BookingCreated](context.Background(), pipeline, cmd)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.ids)
}

func TestDeleteBookingRemovesOwnPaidBooking(t *testing.T) {
	f := newFixture(t)
	_, err := f.create.Handle(context.Background(), book("guest-1", "p1", 1, 4))
	require.NoError(t, err)
	_, err = f.create.Handle(context.Background(), book("guest-2", "p1", 5, 6))
	require.NoError(t, err)

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, DeleteBookingCommand{}.Key(), &DeleteBookingHandler{UoWFactory: f.factory, Outbox: f.box, Encoder: appoutbox.JSONEventEncoder{}})
	pipeline := middleware.ChainCommands(bus, middleware.Transaction(f.factory, nil))
	del := func(profile, id string) error {
		_, err := commands.Dispatch[DeleteBookingCommand, struct{}](context.Background(), pipeline, DeleteBookingCommand{ProfileID: profile, BookingID: id})
		return err
	}

	assert.Equal(t, apperr.KindConflict, apperr.KindOf(del("guest-1", "b1")))
	f.markPaid(t, "b1")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(del("guest-2", "b1")))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(del("guest-1", "nope")))

	require.NoError(t, del("guest-1", "b1"))
	_, err = f.booking(t, "b1")
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}

func TestListHostReservationsShowsPaidBookingsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.create.Handle(ctx, book("guest-1", "p1", 1, 4))
	require.NoError(t, err)
	_, err = f.create.Handle(ctx, book("guest-2", "p1", 10, 12))
	require.NoError(t, err)
	f.markPaid(t, "b1")

	list := &ListHostReservationsHandler{UoWFactory: f.factory, Currency: "usd"}
	res, err := list.Handle(ctx, ListHostReservationsQuery{HostID: "host-1"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "b1", res.Items[0].ID)
	assert.Equal(t, "guest-1", res.Items[0].GuestID)
	assert.Equal(t, dto.MoneyDTO{Amount: 39710, Currency: "USD"}, res.Revenue)

	res, err = list.Handle(ctx, ListHostReservationsQuery{HostID: "host-2"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	_, err = list.Handle(ctx, ListHostReservationsQuery{})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

// commitHookFactory runs onCommit just before each write unit commits.
type commitHookFactory struct {
	memory.Factory
	onCommit func()
}

type commitHookUnit struct {
	uow.UnitOfWork
	onCommit func()
}

func (f commitHookFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.Factory.Begin(ctx, opts)
	if err != nil || opts.ReadOnly {
		return unit, err
	}
	return &commitHookUnit{UnitOfWork: unit, onCommit: f.onCommit}, nil
}

func (u *commitHookUnit) Commit(ctx context.Context) error {
	u.onCommit()
	return u.UnitOfWork.Commit(ctx)
}

func TestDeleteBookingInvalidatesCalendarAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.create.Handle(ctx, book("guest-1", "p1", 1, 4))
	require.NoError(t, err)
	f.markPaid(t, "b1")

	calendar := memory.NewCalendarCache(time.Hour)
	require.NoError(t, calendar.Set(ctx, "p1", dto.Calendar{PropertyID: "p1"}))
	cachedAtCommit := false
	factory := commitHookFactory{Factory: f.factory, onCommit: func() {
		_, cachedAtCommit, _ = calendar.Get(ctx, "p1")
	}}
	del := &DeleteBookingHandler{UoWFactory: factory, Outbox: f.box, Encoder: appoutbox.JSONEventEncoder{}, Calendar: calendar}

	_, err = del.Handle(ctx, DeleteBookingCommand{ProfileID: "guest-1", BookingID: "b1"})
	require.NoError(t, err)
	assert.True(t, cachedAtCommit)
	_, cached, _ := calendar.Get(ctx, "p1")
	assert.False(t, cached)

	names := make([]string, 0)
	for _, doc := range f.box.Pending() {
		names = append(names, doc.Name)
	}
	assert.Contains(t, names, "booking.deleted")
}

func TestDeleteBookingKeepsCalendarWhenRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.create.Handle(ctx, book("guest-1", "p1", 1, 4))
	require.NoError(t, err)
	f.markPaid(t, "b1")

	calendar := memory.NewCalendarCache(time.Hour)
	require.NoError(t, calendar.Set(ctx, "p1", dto.Calendar{PropertyID: "p1"}))
	del := &DeleteBookingHandler{UoWFactory: f.factory, Outbox: f.box, Encoder: appoutbox.JSONEventEncoder{}, Calendar: calendar}

	_, err = del.Handle(ctx, DeleteBookingCommand{ProfileID: "guest-2", BookingID: "b1"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, cached, _ := calendar.Get(ctx, "p1")
	assert.True(t, cached)
	_, err = f.booking(t, "b1")
	assert.NoError(t, err)
}
