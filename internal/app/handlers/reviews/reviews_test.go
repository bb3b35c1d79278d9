package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staylane/internal/app/apperr"
	"staylane/internal/app/commands"
	"staylane/internal/app/dto"
	"staylane/internal/app/middleware"
	appoutbox "staylane/internal/app/outbox"
	"staylane/internal/app/queries"
	"staylane/internal/app/uow"
	domainbooking "staylane/internal/domain/booking"
	"staylane/internal/domain/pricing"
	domainproperty "staylane/internal/domain/property"
	"staylane/internal/domain/shared/daterange"
	"staylane/internal/domain/shared/money"
	"staylane/internal/infra/storage/memory"
)

var reviewNow = time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)

type fixture struct {
	factory memory.Factory
	cmds    commands.Bus
	queries queries.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{factory: memory.Factory{Store: memory.NewStore()}}
	box := memory.NewOutbox()

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, SubmitReviewCommand{}.Key(), &SubmitReviewHandler{
		Outbox:  box,
		Encoder: appoutbox.JSONEventEncoder{},
		Now:     func() time.Time { return reviewNow },
	})
	f.cmds = middleware.ChainCommands(bus,
		middleware.Validation(middleware.StructValidator{}),
		middleware.Transaction(f.factory, nil),
	)
	qbus := queries.NewInMemoryBus()
	queries.RegisterHandler(qbus, ListPropertyReviewsQuery{}.Key(), &ListPropertyReviewsHandler{UoWFactory: f.factory})
	f.queries = qbus

	ctx := context.Background()
	prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID:           "p1",
		Owner:        "host-1",
		Name:         "Barn",
		NightlyPrice: money.Money{Amount: 8000, Currency: "USD"},
		Now:          time.Now(),
	})
	require.NoError(t, err)
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Properties().Save(ctx, prop))
	require.NoError(t, unit.Commit(ctx))
	return f
}

// stay inserts a booking for May in..out, optionally paid.
func (f *fixture) stay(t *testing.T, id, profile string, in, out int, paid bool) {
	t.Helper()
	ctx := context.Background()
	dr, err := daterange.New(time.Date(2026, 5, in, 0, 0, 0, 0, time.UTC), time.Date(2026, 5, out, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	b, err := domainbooking.NewPending(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(id),
		Profile:    domainbooking.ProfileID(profile),
		PropertyID: "p1",
		Range:      dr,
		Totals:     pricing.Calculate(dr.CheckIn, dr.CheckOut, money.Money{Amount: 8000, Currency: "USD"}, pricing.DefaultPolicy("USD")),
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

func (f *fixture) submit(bookingID, author string, rating int) (dto.Review, error) {
	cmd := SubmitReviewCommand{BookingID: bookingID, AuthorID: author, Rating: rating, Comment: "lovely"}
	return commands.Dispatch[SubmitReviewCommand, dto.Review](context.Background(), f.cmds, cmd)
}

func (f *fixture) property(t *testing.T) *domainproperty.Property {
	t.Helper()
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer func() { _ = unit.Rollback(ctx) }()
	p, err := unit.Properties().ByID(ctx, "p1")
	require.NoError(t, err)
	return p
}

func TestSubmitReviewUpdatesRating(t *testing.T) {
	f := newFixture(t)
	f.stay(t, "b1", "guest-1", 1, 4, true)
	f.stay(t, "b2", "guest-2", 10, 12, true)

	review, err := f.submit("b1", "guest-1", 5)
	require.NoError(t, err)
	assert.Equal(t, "p1", review.PropertyID)
	_, err = f.submit("b2", "guest-2", 2)
	require.NoError(t, err)

	p := f.property(t)
	assert.InDelta(t, 3.5, p.Rating, 0.001)
	assert.Equal(t, 2, p.ReviewsCount)

	list, err := queries.Ask[ListPropertyReviewsQuery, dto.ReviewCollection](context.Background(), f.queries, ListPropertyReviewsQuery{PropertyID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Items, 2)
}

func TestSubmitReviewRejections(t *testing.T) {
	f := newFixture(t)
	f.stay(t, "paid", "guest-1", 1, 4, true)
	f.stay(t, "unpaid", "guest-1", 5, 7, false)
	f.stay(t, "future", "guest-1", 28, 31, true)

	cases := []struct {
		name    string
		booking string
		author  string
		rating  int
		kind    apperr.Kind
	}{
		{"rating out of range", "paid", "guest-1", 6, apperr.KindValidation},
		{"missing booking", "nope", "guest-1", 4, apperr.KindNotFound},
		{"someone else's booking", "paid", "guest-2", 4, apperr.KindForbidden},
		{"unpaid booking", "unpaid", "guest-1", 4, apperr.KindConflict},
		{"stay not finished", "future", "guest-1", 4, apperr.KindConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.submit(tc.booking, tc.author, tc.rating)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}

	_, err := f.submit("paid", "guest-1", 4)
	require.NoError(t, err)
	_, err = f.submit("paid", "guest-1", 3)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, 1, f.property(t).ReviewsCount)
}

func TestListReviewsUnknownProperty(t *testing.T) {
	f := newFixture(t)

	_, err := queries.Ask[ListPropertyReviewsQuery, dto.ReviewCollection](context.Background(), f.queries, ListPropertyReviewsQuery{PropertyID: "missing"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
