package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"staylane/internal/app/uow"
	domainbooking "staylane/internal/domain/booking"
	"staylane/internal/domain/pricing"
	"staylane/internal/domain/shared/daterange"
	"staylane/internal/domain/shared/money"
)

func TestWrapErrClassifiesWriteConflicts(t *testing.T) {
	conflict := mongo.CommandError{Code: codeWriteConflict, Message: "WriteConflict"}
	transient := mongo.CommandError{Code: 251, Labels: []string{labelTransientTxn}}
	other := mongo.CommandError{Code: 2, Message: "BadValue"}

	assert.ErrorIs(t, wrapErr(conflict), uow.ErrConflict)
	assert.ErrorIs(t, wrapErr(transient), uow.ErrConflict)
	assert.NotErrorIs(t, wrapErr(other), uow.ErrConflict)
	assert.NoError(t, wrapErr(nil))
	assert.NotErrorIs(t, wrapErr(errors.New("boom")), uow.ErrConflict)
}

func TestBookingDocumentKeepsFrozenTotals(t *testing.T) {
	in := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	out := in.AddDate(0, 0, 3)
	totals := pricing.Calculate(in, out, money.Must(10000, "USD"), pricing.DefaultPolicy("USD"))
	b := &domainbooking.Booking{
		ID:         "b1",
		Profile:    "u1",
		PropertyID: "p1",
		Range:      daterange.DateRange{CheckIn: in, CheckOut: out},
		Totals:     totals,
		CreatedAt:  in,
		UpdatedAt:  in,
		Version:    2,
	}

	doc := newBookingDocument(b)
	require.Equal(t, totals.OrderTotal.Amount, doc.Totals.OrderTotal.Amount)
	assert.False(t, doc.PaymentStatus)

	back := doc.toAggregate()
	assert.Equal(t, b.Totals, back.Totals)
	assert.Equal(t, b.Range, back.Range)
	assert.Equal(t, b.Profile, back.Profile)
	assert.Equal(t, int64(2), back.Version)
}
