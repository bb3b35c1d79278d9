package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staylane/internal/app/apperr"
	"staylane/internal/app/uow"
	domainbooking "staylane/internal/domain/booking"
	"staylane/internal/domain/pricing"
	domainproperty "staylane/internal/domain/property"
	"staylane/internal/domain/shared/daterange"
	"staylane/internal/domain/shared/money"
	"staylane/internal/infra/storage/memory"
)

func may(d int) time.Time {
	return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T) memory.Factory {
	t.Helper()
	ctx := context.Background()
	factory := memory.Factory{Store: memory.NewStore()}
	prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID:           "p1",
		Owner:        "host-1",
		Name:         "Studio",
		NightlyPrice: money.Money{Amount: 10000, Currency: "USD"},
		Now:          time.Now(),
	})
	require.NoError(t, err)
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Properties().Save(ctx, prop))
	require.NoError(t, unit.Commit(ctx))
	return factory
}

func addBooking(t *testing.T, factory memory.Factory, id string, in, out int, paid bool) {
	t.Helper()
	ctx := context.Background()
	dr, err := daterange.New(may(in), may(out))
	require.NoError(t, err)
	b, err := domainbooking.NewPending(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(id),
		Profile:    "guest-1",
		PropertyID: "p1",
		Range:      dr,
		Totals:     pricing.Calculate(dr.CheckIn, dr.CheckOut, money.Money{Amount: 10000, Currency: "USD"}, pricing.DefaultPolicy("USD")),
		Now:        time.Now(),
	})
	require.NoError(t, err)
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Insert(ctx, b))
	if paid {
		_, err = unit.Bookings().MarkPaid(ctx, b.ID, time.Now())
		require.NoError(t, err)
	}
	require.NoError(t, unit.Commit(ctx))
}

func TestCalendarShowsOnlyPaidNights(t *testing.T) {
	factory := seed(t)
	addBooking(t, factory, "paid", 10, 15, true)
	addBooking(t, factory, "pending", 20, 22, false)
	h := &GetCalendarHandler{UoWFactory: factory}

	cal, err := h.Handle(context.Background(), GetCalendarQuery{PropertyID: "p1"})
	require.NoError(t, err)
	require.Len(t, cal.Blocks, 1)
	assert.Equal(t, may(10), cal.Blocks[0].From)
	assert.Equal(t, may(15), cal.Blocks[0].To)

	window, err := h.Handle(context.Background(), GetCalendarQuery{PropertyID: "p1", From: may(1), To: may(10)})
	require.NoError(t, err)
	assert.Empty(t, window.Blocks)
}

func TestCalendarIsServedFromCacheUntilInvalidated(t *testing.T) {
	factory := seed(t)
	addBooking(t, factory, "a", 1, 3, true)
	cache := memory.NewCalendarCache(time.Hour)
	h := &GetCalendarHandler{UoWFactory: factory, Cache: cache}

	first, err := h.Handle(context.Background(), GetCalendarQuery{PropertyID: "p1"})
	require.NoError(t, err)
	require.Len(t, first.Blocks, 1)

	addBooking(t, factory, "b", 5, 7, true)
	stale, err := h.Handle(context.Background(), GetCalendarQuery{PropertyID: "p1"})
	require.NoError(t, err)
	assert.Len(t, stale.Blocks, 1)

	require.NoError(t, cache.Invalidate(context.Background(), "p1"))
	fresh, err := h.Handle(context.Background(), GetCalendarQuery{PropertyID: "p1"})
	require.NoError(t, err)
	assert.Len(t, fresh.Blocks, 2)
}

func TestCalendarErrors(t *testing.T) {
	h := &GetCalendarHandler{UoWFactory: seed(t)}

	_, err := h.Handle(context.Background(), GetCalendarQuery{PropertyID: "missing"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = h.Handle(context.Background(), GetCalendarQuery{PropertyID: "p1", From: may(5), To: may(5)})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestQuoteStay(t *testing.T) {
	factory := seed(t)
	addBooking(t, factory, "paid", 10, 15, true)
	h := &QuoteStayHandler{UoWFactory: factory, Policy: pricing.DefaultPolicy("USD")}

	free, err := h.Handle(context.Background(), QuoteStayQuery{PropertyID: "p1", CheckIn: may(15), CheckOut: may(18)})
	require.NoError(t, err)
	assert.True(t, free.Available)
	require.NotNil(t, free.Totals)
	assert.Equal(t, 3, free.Totals.TotalNights)
	assert.Equal(t, int64(39710), free.Totals.OrderTotal.Amount)

	taken, err := h.Handle(context.Background(), QuoteStayQuery{PropertyID: "p1", CheckIn: may(12), CheckOut: may(13)})
	require.NoError(t, err)
	assert.False(t, taken.Available)
	assert.Nil(t, taken.Totals)

	_, err = h.Handle(context.Background(), QuoteStayQuery{PropertyID: "p1", CheckIn: may(13), CheckOut: may(12)})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
