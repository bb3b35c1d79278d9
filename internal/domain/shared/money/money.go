package money

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// Money is an amount in the currency's minor unit (cents for USD).
type Money struct {
	Amount   int64
	Currency string
}

// New constructs a Money value with an upper-cased ISO 4217 code.
func New(amount int64, currency string) (Money, error) {
	currency = strings.TrimSpace(currency)
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func Zero(currency string) Money {
	return Money{Currency: strings.ToUpper(currency)}
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sum adds all parts to the receiver, stopping at the first currency error.
func (m Money) Sum(parts ...Money) (Money, error) {
	total := m
	for _, part := range parts {
		next, err := total.Add(part)
		if err != nil {
			return Money{}, err
		}
		total = next
	}
	return total, nil
}

func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// Percent applies a rate given in basis points (1/100 of a percent) and
// rounds half-up to the minor unit.
func (m Money) Percent(basisPoints int64) Money {
	product := m.Amount * basisPoints
	var amount int64
	if product >= 0 {
		amount = (product + 5000) / 10000
	} else {
		amount = -((-product + 5000) / 10000)
	}
	return Money{Amount: amount, Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// LessThan reports whether m is strictly smaller; currencies are not compared.
func (m Money) LessThan(other Money) bool {
	return m.Amount < other.Amount
}

func (m Money) String() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, m.Currency)
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
