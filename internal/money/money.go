// Package money provides a fixed-point monetary value type.
//
// A Money couples a decimal amount with an ISO 4217 currency code.
// Arithmetic between two values requires identical currencies; mixing
// currencies is a hard error, never a silent conversion. Division only
// happens through SplitEqual, which works in integer minor units so the
// parts always sum back to the original amount exactly.
package money

import (
	"encoding/json"
	"fmt"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/tallyup/tallyup/internal/errs"
)

// Money is an immutable amount in a single currency.
// The zero value is not usable; construct values with New, Zero or Parse.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New creates a Money from a decimal amount and an ISO 4217 currency code.
// The amount is rounded half-up to the currency's minor-unit precision.
func New(amount decimal.Decimal, currency string) (Money, error) {
	cur := gomoney.GetCurrency(currency)
	if cur == nil {
		return Money{}, errs.Validation("unknown currency code %q", currency)
	}
	return Money{
		amount:   amount.Round(int32(cur.Fraction)),
		currency: cur.Code,
	}, nil
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) (Money, error) {
	return New(decimal.Zero, currency)
}

// Parse creates a Money from a decimal string such as "12.34".
func Parse(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, errs.Validation("invalid amount %q: %v", amount, err)
	}
	return New(d, currency)
}

// MustParse is Parse that panics on error. Intended for tests and constants.
func MustParse(amount, currency string) Money {
	m, err := Parse(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromMinorUnits creates a Money from an integer count of minor units
// (cents for USD, yen for JPY).
func FromMinorUnits(units int64, currency string) (Money, error) {
	cur := gomoney.GetCurrency(currency)
	if cur == nil {
		return Money{}, errs.Validation("unknown currency code %q", currency)
	}
	return Money{
		amount:   decimal.New(units, -int32(cur.Fraction)),
		currency: cur.Code,
	}, nil
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the ISO 4217 currency code.
func (m Money) Currency() string { return m.currency }

// MinorUnits returns the amount as an integer count of minor units.
func (m Money) MinorUnits() int64 {
	return m.amount.Shift(int32(m.fraction())).IntPart()
}

// MinorUnit returns one minor unit of this currency (0.01 for USD, 1 for JPY).
func (m Money) MinorUnit() Money {
	return Money{amount: decimal.New(1, -int32(m.fraction())), currency: m.currency}
}

func (m Money) fraction() int {
	return gomoney.GetCurrency(m.currency).Fraction
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return errs.CurrencyMismatch(m.currency, other.currency)
	}
	return nil
}

// Add returns m + other. Fails with a currency-mismatch error if the
// currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns m - other. Fails with a currency-mismatch error if the
// currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), currency: m.currency}
}

// Cmp compares two amounts: -1 if m < other, 0 if equal, +1 if m > other.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// Equal reports whether amounts and currencies are both identical.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsPositive reports whether the amount is > 0.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// IsNegative reports whether the amount is < 0.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// SplitEqual divides the amount into n parts using integer minor-unit
// arithmetic. The remainder is handed out one minor unit at a time to the
// leading parts, so the parts always sum to the original amount exactly.
// Callers are responsible for ordering participants deterministically
// before assigning parts.
func (m Money) SplitEqual(n int) ([]Money, error) {
	if n <= 0 {
		return nil, errs.Validation("cannot split among %d participants", n)
	}
	units := m.MinorUnits()
	quot := units / int64(n)
	rem := units % int64(n)
	if rem < 0 { // keep remainder distribution stable for negative amounts
		quot--
		rem += int64(n)
	}

	scale := -int32(m.fraction())
	parts := make([]Money, n)
	for i := range parts {
		u := quot
		if int64(i) < rem {
			u++
		}
		parts[i] = Money{amount: decimal.New(u, scale), currency: m.currency}
	}
	return parts, nil
}

// String formats the amount with its currency code, e.g. "12.34 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(int32(m.fraction())), m.currency)
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON encodes the value as {"amount":"12.34","currency":"USD"}.
// The amount is a string to avoid float round-tripping in clients.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"amount":%q,"currency":%q}`,
		m.amount.StringFixed(int32(m.fraction())), m.currency)), nil
}

// UnmarshalJSON decodes {"amount":"12.34","currency":"USD"}.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
