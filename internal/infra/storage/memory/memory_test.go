package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staylane/internal/app/dto"
	"staylane/internal/app/middleware"
	appoutbox "staylane/internal/app/outbox"
	"staylane/internal/app/uow"
	domainbooking "staylane/internal/domain/booking"
	"staylane/internal/domain/pricing"
	domainproperty "staylane/internal/domain/property"
	"staylane/internal/domain/shared/daterange"
	"staylane/internal/domain/shared/money"
	infraoutbox "staylane/internal/infra/outbox"
)

func day(t *testing.T, v string) time.Time {
	t.Helper()
	d, err := daterange.ParseDay(v)
	require.NoError(t, err)
	return d
}

func pendingBooking(t *testing.T, id, profile, from, to string) *domainbooking.Booking {
	t.Helper()
	rng, err := daterange.New(day(t, from), day(t, to))
	require.NoError(t, err)
	totals := pricing.Calculate(rng.CheckIn, rng.CheckOut, money.Money{Amount: 10000, Currency: "USD"}, pricing.DefaultPolicy("USD"))
	b, err := domainbooking.NewPending(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(id),
		Profile:    domainbooking.ProfileID(profile),
		PropertyID: "p1",
		Range:      rng,
		Totals:     totals,
		Now:        time.Now(),
	})
	require.NoError(t, err)
	return b
}

func insert(t *testing.T, f Factory, bookings ...*domainbooking.Booking) {
	t.Helper()
	ctx := context.Background()
	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	for _, b := range bookings {
		require.NoError(t, unit.Bookings().Insert(ctx, b))
	}
	require.NoError(t, unit.Commit(ctx))
}

func TestRollbackUndoesWrites(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	insert(t, f, pendingBooking(t, "keep", "g1", "2026-03-01", "2026-03-03"))

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Insert(ctx, pendingBooking(t, "temp", "g1", "2026-04-01", "2026-04-03")))
	require.NoError(t, unit.Bookings().Delete(ctx, "keep"))
	prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID: "p1", Owner: "h1", Name: "Loft",
		NightlyPrice: money.Money{Amount: 5000, Currency: "USD"},
		Now:          time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, unit.Properties().Save(ctx, prop))
	require.NoError(t, unit.Rollback(ctx))

	read, err := f.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer read.Rollback(ctx)
	_, err = read.Bookings().ByID(ctx, "keep")
	assert.NoError(t, err)
	_, err = read.Bookings().ByID(ctx, "temp")
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
	_, err = read.Properties().ByID(ctx, "p1")
	assert.ErrorIs(t, err, domainproperty.ErrNotFound)
}

func TestWritersAreSerialized(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	first, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = f.Begin(waitCtx, uow.TxOptions{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	readCtx, cancelRead := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancelRead()
	_, err = f.Begin(readCtx, uow.TxOptions{ReadOnly: true})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, first.Commit(ctx))
	assert.ErrorIs(t, first.Commit(ctx), ErrUnitClosed)

	read, err := f.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	other, err := f.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.ErrorIs(t, read.Bookings().Insert(ctx, pendingBooking(t, "x", "g", "2026-03-01", "2026-03-02")), ErrReadOnlyUnit)
	require.NoError(t, read.Rollback(ctx))
	require.NoError(t, other.Rollback(ctx))

	second, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, second.Rollback(ctx))
}

func TestReadersNeverSeeUncommittedWrites(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	insert(t, f, pendingBooking(t, "b1", "g1", "2026-03-01", "2026-03-04"))

	writer, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	flipped, err := writer.Bookings().MarkPaid(ctx, "b1", time.Now())
	require.NoError(t, err)
	require.True(t, flipped)

	seen := make(chan bool, 1)
	go func() {
		read, err := f.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			close(seen)
			return
		}
		defer func() { _ = read.Rollback(ctx) }()
		b, err := read.Bookings().ByID(ctx, "b1")
		if err != nil {
			close(seen)
			return
		}
		seen <- b.PaymentStatus
	}()

	select {
	case <-seen:
		t.Fatal("reader ran while a write unit was open")
	case <-time.After(20 * time.Millisecond):
	}
	require.NoError(t, writer.Rollback(ctx))

	select {
	case paid, ok := <-seen:
		require.True(t, ok)
		assert.False(t, paid)
	case <-time.After(time.Second):
		t.Fatal("reader still blocked after rollback")
	}
}

func TestMarkPaidFlipsOnce(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	insert(t, f, pendingBooking(t, "b1", "g1", "2026-03-01", "2026-03-04"))

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	flipped, err := unit.Bookings().MarkPaid(ctx, "b1", time.Now())
	require.NoError(t, err)
	assert.True(t, flipped)
	flipped, err = unit.Bookings().MarkPaid(ctx, "b1", time.Now())
	require.NoError(t, err)
	assert.False(t, flipped)
	_, err = unit.Bookings().MarkPaid(ctx, "missing", time.Now())
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
	require.NoError(t, unit.Commit(ctx))

	read, _ := f.Begin(ctx, uow.TxOptions{ReadOnly: true})
	defer read.Rollback(ctx)
	b, err := read.Bookings().ByID(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, b.PaymentStatus)
}

func TestDeleteUnpaidAndPaidOverlap(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	insert(t, f,
		pendingBooking(t, "u1", "g1", "2026-03-01", "2026-03-03"),
		pendingBooking(t, "u2", "g1", "2026-03-10", "2026-03-12"),
		pendingBooking(t, "paid", "g1", "2026-03-05", "2026-03-08"),
		pendingBooking(t, "other", "g2", "2026-03-01", "2026-03-03"),
	)

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	_, err = unit.Bookings().MarkPaid(ctx, "paid", time.Now())
	require.NoError(t, err)
	removed, err := unit.Bookings().DeleteUnpaidByProfile(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := unit.Bookings().ListByProfile(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, domainbooking.BookingID("paid"), left[0].ID)

	overlapping, _ := daterange.New(day(t, "2026-03-07"), day(t, "2026-03-09"))
	hit, err := unit.Bookings().FindPaidOverlap(ctx, "p1", overlapping, "")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, domainbooking.BookingID("paid"), hit.ID)

	hit, err = unit.Bookings().FindPaidOverlap(ctx, "p1", overlapping, "paid")
	require.NoError(t, err)
	assert.Nil(t, hit)

	touching, _ := daterange.New(day(t, "2026-03-08"), day(t, "2026-03-09"))
	hit, err = unit.Bookings().FindPaidOverlap(ctx, "p1", touching, "")
	require.NoError(t, err)
	assert.Nil(t, hit)
	require.NoError(t, unit.Commit(ctx))
}

func TestOutboxClaimProtocol(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "e1", Name: "booking.requested", Payload: []byte(`{}`)}))

	doc, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "w1", doc.ClaimedBy)
	assert.Equal(t, infraoutbox.StateClaimed, doc.State)

	again, err := box.Claim(ctx, "w2")
	require.NoError(t, err)
	assert.Nil(t, again)

	require.NoError(t, box.MarkFailed(ctx, "e1", time.Now().Add(-time.Second), "broker down"))
	doc, err = box.Claim(ctx, "w2")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 1, doc.Attempts)
	assert.Equal(t, "broker down", doc.LastError)

	require.NoError(t, box.MarkSent(ctx, "e1"))
	assert.Empty(t, box.Pending())
	doc, err = box.Claim(ctx, "w3")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestIdempotencyStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", OccurredAt: now}))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	now = now.Add(2 * time.Minute)
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCalendarCache(t *testing.T) {
	ctx := context.Background()
	cache := NewCalendarCache(time.Hour)
	require.NoError(t, cache.Set(ctx, "p1", dto.Calendar{PropertyID: "p1"}))
	got, ok, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "p1", got.PropertyID)

	require.NoError(t, cache.Invalidate(ctx, "p1"))
	_, ok, _ = cache.Get(ctx, "p1")
	assert.False(t, ok)

	short := NewCalendarCache(time.Nanosecond)
	require.NoError(t, short.Set(ctx, "p1", dto.Calendar{PropertyID: "p1"}))
	time.Sleep(time.Millisecond)
	_, ok, _ = short.Get(ctx, "p1")
	assert.False(t, ok)
}
