package pricing

import (
	"errors"
	"time"

	"staylane/internal/domain/shared/daterange"
	"staylane/internal/domain/shared/money"
)

var ErrInvalidPolicy = errors.New("pricing: invalid totals policy")

// Policy holds the fee schedule applied on top of the nightly subtotal.
// Fees are flat amounts; tax is a rate in basis points over subtotal plus fees.
type Policy struct {
	Currency    string
	CleaningFee int64
	ServiceFee  int64
	TaxRateBPS  int64
}

func DefaultPolicy(currency string) Policy {
	return Policy{
		Currency:    currency,
		CleaningFee: 2100,
		ServiceFee:  4000,
		TaxRateBPS:  1000,
	}
}

func (p Policy) Validate() error {
	if _, err := money.New(0, p.Currency); err != nil {
		return ErrInvalidPolicy
	}
	if p.CleaningFee < 0 || p.ServiceFee < 0 || p.TaxRateBPS < 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// Totals is the fee breakdown stored on a booking at creation time.
type Totals struct {
	TotalNights int
	Nightly     money.Money
	SubTotal    money.Money
	Cleaning    money.Money
	Service     money.Money
	Tax         money.Money
	OrderTotal  money.Money
}

// Calculate maps a stay and a nightly price to its totals. It does not guard
// its input: checkOut must be after checkIn and price positive, otherwise the
// result is meaningless (negative nights, negative totals).
func Calculate(checkIn, checkOut time.Time, price money.Money, policy Policy) Totals {
	nights := daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut}.Nights()
	currency := price.Currency
	if currency == "" {
		currency = money.Zero(policy.Currency).Currency
	}

	subTotal := money.Money{Amount: price.Amount * int64(nights), Currency: currency}
	cleaning := money.Money{Amount: policy.CleaningFee, Currency: currency}
	service := money.Money{Amount: policy.ServiceFee, Currency: currency}
	taxable := money.Money{Amount: subTotal.Amount + cleaning.Amount + service.Amount, Currency: currency}
	tax := taxable.Percent(policy.TaxRateBPS)

	return Totals{
		TotalNights: nights,
		Nightly:     money.Money{Amount: price.Amount, Currency: currency},
		SubTotal:    subTotal,
		Cleaning:    cleaning,
		Service:     service,
		Tax:         tax,
		OrderTotal:  money.Money{Amount: taxable.Amount + tax.Amount, Currency: currency},
	}
}
