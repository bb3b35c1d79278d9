package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staylane/internal/app/apperr"
	"staylane/internal/app/dto"
	appoutbox "staylane/internal/app/outbox"
	"staylane/internal/app/uow"
	domainbooking "staylane/internal/domain/booking"
	"staylane/internal/domain/payment"
	"staylane/internal/domain/pricing"
	domainproperty "staylane/internal/domain/property"
	"staylane/internal/domain/shared/daterange"
	"staylane/internal/domain/shared/money"
	"staylane/internal/infra/payments/fake"
	"staylane/internal/infra/storage/memory"
)

type fixture struct {
	factory  memory.Factory
	box      *memory.Outbox
	provider *fake.Provider
	journal  *memory.ReconciliationJournal
	calendar *memory.CalendarCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		factory:  memory.Factory{Store: memory.NewStore()},
		box:      memory.NewOutbox(),
		provider: fake.NewProvider(false),
		journal:  memory.NewReconciliationJournal(),
		calendar: memory.NewCalendarCache(time.Minute),
	}
	ctx := context.Background()
	prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID:           "p1",
		Owner:        "host-1",
		Name:         "Lake House",
		Image:        "https://img.test/lake.jpg",
		NightlyPrice: money.Money{Amount: 10000, Currency: "USD"},
		Now:          time.Now(),
	})
	require.NoError(t, err)
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Properties().Save(ctx, prop))
	require.NoError(t, unit.Commit(ctx))
	return f
}

func (f *fixture) insertBooking(t *testing.T, id, profile string, in, out int, paid bool) {
	t.Helper()
	ctx := context.Background()
	dr, err := daterange.New(time.Date(2026, 5, in, 0, 0, 0, 0, time.UTC), time.Date(2026, 5, out, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	b, err := domainbooking.NewPending(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(id),
		Profile:    domainbooking.ProfileID(profile),
		PropertyID: "p1",
		Range:      dr,
		Totals:     pricing.Calculate(dr.CheckIn, dr.CheckOut, money.Money{Amount: 10000, Currency: "USD"}, pricing.DefaultPolicy("USD")),
		Now:        time.Now(),
	})
	require.NoError(t, err)
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Insert(ctx, b))
	if paid {
		_, err = unit.Bookings().MarkPaid(ctx, b.ID, time.Now())
		require.NoError(t, err)
	}
	require.NoError(t, unit.Commit(ctx))
}

func (f *fixture) booking(t *testing.T, id string) *domainbooking.Booking {
	t.Helper()
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer func() { _ = unit.Rollback(ctx) }()
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
	require.NoError(t, err)
	return b
}

func (f *fixture) sessionHandler() *CreatePaymentSessionHandler {
	return &CreatePaymentSessionHandler{
		UoWFactory:    f.factory,
		Payments:      f.provider,
		DefaultOrigin: "https://api.test",
	}
}

func (f *fixture) confirmHandler() *ConfirmPaymentHandler {
	return &ConfirmPaymentHandler{
		UoWFactory: f.factory,
		Payments:   f.provider,
		Journal:    f.journal,
		Calendar:   f.calendar,
		Outbox:     f.box,
		Encoder:    appoutbox.JSONEventEncoder{},
	}
}

func (f *fixture) completedSession(id, bookingID string) payment.SessionID {
	f.provider.Put(payment.Session{
		ID:       payment.SessionID(id),
		Status:   payment.StatusComplete,
		Metadata: payment.BookingMetadata{BookingID: domainbooking.BookingID(bookingID)}.Map(),
	})
	return payment.SessionID(id)
}

func TestCreateSessionSendsBookingTotalAndReturnURL(t *testing.T) {
	f := newFixture(t)
	f.insertBooking(t, "b1", "guest-1", 1, 4, false)

	res, err := f.sessionHandler().Handle(context.Background(), CreatePaymentSessionCommand{BookingID: "b1", ProfileID: "guest-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.NotEmpty(t, res.ClientSecret)

	created := f.provider.Created()
	require.Len(t, created, 1)
	req := created[0]
	assert.Equal(t, domainbooking.BookingID("b1"), req.Metadata.BookingID)
	assert.Equal(t, "Lake House", req.LineItem.Name)
	assert.Equal(t, int64(1), req.LineItem.Quantity)
	assert.Equal(t, int64(39710), req.LineItem.Amount.Amount)
	assert.Equal(t, "https://api.test/api/v1/payments/confirm?session_id="+payment.SessionIDPlaceholder, req.ReturnURL)
}

func TestCreateSessionRejections(t *testing.T) {
	f := newFixture(t)
	f.insertBooking(t, "b1", "guest-1", 1, 4, false)
	f.insertBooking(t, "b2", "guest-1", 10, 12, true)
	h := f.sessionHandler()

	_, err := h.Handle(context.Background(), CreatePaymentSessionCommand{BookingID: "missing", ProfileID: "guest-1"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = h.Handle(context.Background(), CreatePaymentSessionCommand{BookingID: "b1", ProfileID: "guest-2"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = h.Handle(context.Background(), CreatePaymentSessionCommand{BookingID: "b2", ProfileID: "guest-1"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	f.provider.FailNext = errors.New("stripe: 503")
	_, err = h.Handle(context.Background(), CreatePaymentSessionCommand{BookingID: "b1", ProfileID: "guest-1"})
	assert.Equal(t, apperr.KindExternal, apperr.KindOf(err))
	assert.Empty(t, f.provider.Created())
}

func TestConfirmPaymentMarksBookingPaidOnce(t *testing.T) {
	f := newFixture(t)
	f.insertBooking(t, "b1", "guest-1", 1, 4, false)
	sid := f.completedSession("cs_1", "b1")
	require.NoError(t, f.calendar.Set(context.Background(), "p1", dto.Calendar{PropertyID: "p1"}))
	h := f.confirmHandler()

	first, err := h.Handle(context.Background(), ConfirmPaymentCommand{SessionID: string(sid)})
	require.NoError(t, err)
	assert.Equal(t, dto.RedirectSuccess, first.Redirect)
	assert.False(t, first.AlreadyConfirmed)
	assert.True(t, f.booking(t, "b1").PaymentStatus)

	_, cached, err := f.calendar.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, cached)

	second, err := h.Handle(context.Background(), ConfirmPaymentCommand{SessionID: string(sid)})
	require.NoError(t, err)
	assert.Equal(t, dto.RedirectSuccess, second.Redirect)
	assert.True(t, second.AlreadyConfirmed)

	confirmed := 0
	for _, doc := range f.box.Pending() {
		if doc.Name == "booking.payment_confirmed" {
			confirmed++
		}
	}
	assert.Equal(t, 1, confirmed)
	assert.Empty(t, f.journal.Incidents())
}

func TestConfirmPaymentFailures(t *testing.T) {
	f := newFixture(t)
	f.insertBooking(t, "b1", "guest-1", 1, 4, false)
	h := f.confirmHandler()

	t.Run("missing session id", func(t *testing.T) {
		res, err := h.Handle(context.Background(), ConfirmPaymentCommand{SessionID: " "})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Equal(t, dto.RedirectFailure, res.Redirect)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := h.Handle(context.Background(), ConfirmPaymentCommand{SessionID: "cs_unknown"})
		assert.Equal(t, apperr.KindPayment, apperr.KindOf(err))
	})

	t.Run("provider down", func(t *testing.T) {
		f.provider.FailNext = errors.New("timeout")
		_, err := h.Handle(context.Background(), ConfirmPaymentCommand{SessionID: "cs_any"})
		assert.Equal(t, apperr.KindExternal, apperr.KindOf(err))
	})

	t.Run("no booking metadata", func(t *testing.T) {
		f.provider.Put(payment.Session{ID: "cs_nometa", Status: payment.StatusComplete, Metadata: map[string]string{"other": "x"}})
		_, err := h.Handle(context.Background(), ConfirmPaymentCommand{SessionID: "cs_nometa"})
		assert.Equal(t, apperr.KindPayment, apperr.KindOf(err))
	})

	t.Run("session not complete", func(t *testing.T) {
		f.provider.Put(payment.Session{ID: "cs_open", Status: payment.StatusOpen, Metadata: payment.BookingMetadata{BookingID: "b1"}.Map()})
		res, err := h.Handle(context.Background(), ConfirmPaymentCommand{SessionID: "cs_open"})
		assert.Equal(t, apperr.KindPayment, apperr.KindOf(err))
		assert.Equal(t, "b1", res.BookingID)
		assert.False(t, f.booking(t, "b1").PaymentStatus)
	})

	assert.Empty(t, f.journal.Incidents())
}

func TestConfirmPaymentJournalsMissingBooking(t *testing.T) {
	f := newFixture(t)
	sid := f.completedSession("cs_gone", "deleted")

	_, err := f.confirmHandler().Handle(context.Background(), ConfirmPaymentCommand{SessionID: string(sid)})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	incidents := f.journal.Incidents()
	require.Len(t, incidents, 1)
	assert.Equal(t, ReasonBookingMissing, incidents[0].Reason)
	assert.Equal(t, "cs_gone", incidents[0].SessionID)
}

func TestConfirmPaymentRefusesDoubleBooking(t *testing.T) {
	f := newFixture(t)
	f.insertBooking(t, "paid", "guest-2", 2, 5, true)
	f.insertBooking(t, "b1", "guest-1", 1, 4, false)
	sid := f.completedSession("cs_2", "b1")

	res, err := f.confirmHandler().Handle(context.Background(), ConfirmPaymentCommand{SessionID: string(sid)})
	assert.Equal(t, apperr.KindUnsavedConfirmation, apperr.KindOf(err))
	assert.Equal(t, dto.RedirectFailure, res.Redirect)
	assert.False(t, f.booking(t, "b1").PaymentStatus)

	incidents := f.journal.Incidents()
	require.Len(t, incidents, 1)
	assert.Equal(t, ReasonPaidOverlap, incidents[0].Reason)
	assert.Equal(t, "b1", incidents[0].BookingID)
}

// brokenCommitFactory rolls every write unit back and reports a storage error
// at commit.
type brokenCommitFactory struct {
	memory.Factory
}

type brokenCommitUnit struct {
	uow.UnitOfWork
}

func (f brokenCommitFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.Factory.Begin(ctx, opts)
	if err != nil || opts.ReadOnly {
		return unit, err
	}
	return brokenCommitUnit{UnitOfWork: unit}, nil
}

func (u brokenCommitUnit) Commit(ctx context.Context) error {
	_ = u.UnitOfWork.Rollback(ctx)
	return errors.New("storage: connection reset")
}

func TestConfirmPaymentJournalsUnsavedConfirmation(t *testing.T) {
	f := newFixture(t)
	f.insertBooking(t, "b1", "guest-1", 1, 4, false)
	sid := f.completedSession("cs_lost", "b1")

	h := f.confirmHandler()
	h.UoWFactory = brokenCommitFactory{Factory: f.factory}
	res, err := h.Handle(context.Background(), ConfirmPaymentCommand{SessionID: string(sid)})
	assert.Equal(t, apperr.KindUnsavedConfirmation, apperr.KindOf(err))
	assert.Equal(t, dto.RedirectFailure, res.Redirect)
	assert.Equal(t, "b1", res.BookingID)

	b := f.booking(t, "b1")
	assert.False(t, b.PaymentStatus)
	assert.Equal(t, domainbooking.StatusPending, b.Status())

	incidents := f.journal.Incidents()
	require.Len(t, incidents, 1)
	assert.Equal(t, ReasonNotSaved, incidents[0].Reason)
	assert.Equal(t, "cs_lost", incidents[0].SessionID)
	assert.Equal(t, "b1", incidents[0].BookingID)
}

func TestConfirmPaymentConcurrentOverlapsPayOnce(t *testing.T) {
	const n = 20
	f := newFixture(t)
	sessions := make([]payment.SessionID, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("b%d", i)
		f.insertBooking(t, id, fmt.Sprintf("guest-%d", i), 1, 4, false)
		sessions[i] = f.completedSession("cs_"+id, id)
	}

	h := f.confirmHandler()
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		kinds     = make(map[apperr.Kind]int)
	)
	for _, sid := range sessions {
		wg.Add(1)
		go func(sid payment.SessionID) {
			defer wg.Done()
			_, err := h.Handle(context.Background(), ConfirmPaymentCommand{SessionID: string(sid)})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			kinds[apperr.KindOf(err)]++
		}(sid)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, map[apperr.Kind]int{apperr.KindUnsavedConfirmation: n - 1}, kinds)

	paid := 0
	for i := 0; i < n; i++ {
		if f.booking(t, fmt.Sprintf("b%d", i)).PaymentStatus {
			paid++
		}
	}
	assert.Equal(t, 1, paid)
	assert.Len(t, f.journal.Incidents(), n-1)
}
