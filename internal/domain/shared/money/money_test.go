package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NormalizesCurrency(t *testing.T) {
	m, err := New(1500, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)

	_, err = New(1, "dollars")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestSum(t *testing.T) {
	total, err := Must(100, "USD").Sum(Must(200, "USD"), Must(5, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(305), total.Amount)

	_, err = Must(100, "USD").Sum(Must(1, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestPercent(t *testing.T) {
	cases := []struct {
		amount, bps, want int64
	}{
		{6400, 1000, 640},
		{6405, 1000, 641},
		{6404, 1000, 640},
		{0, 1000, 0},
		{-6405, 1000, -641},
		{1999, 750, 150},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Must(tc.amount, "USD").Percent(tc.bps).Amount, "amount=%d bps=%d", tc.amount, tc.bps)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "70.40 USD", Must(7040, "USD").String())
	assert.Equal(t, "-0.05 USD", Must(-5, "USD").String())
}
