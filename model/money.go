/*
Copyright 2025 ATMConnect Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// currencyFractions maps ISO currency codes to their canonical number of
// fraction digits. Codes missing from the map default to 2.
var currencyFractions = map[string]int32{
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"NGN": 2,
	"JPY": 0,
	"KRW": 0,
	"KWD": 3,
	"BHD": 3,
}

// CurrencyFractionDigits returns the canonical fraction digits for a currency.
func CurrencyFractionDigits(currency string) int32 {
	if digits, ok := currencyFractions[currency]; ok {
		return digits
	}
	return 2
}

// Money is a non-negative decimal amount in a single currency. The zero value
// is not usable; construct through NewMoney or NewMoneyFromString. Every
// arithmetic operation re-checks the non-negative invariant and rejects
// cross-currency operands.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney builds a Money value, rounding the amount to the currency's
// canonical fraction digits. Negative amounts and empty currency codes are
// rejected.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if currency == "" {
		return Money{}, fmt.Errorf("money requires a currency code")
	}
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("money amount cannot be negative, got %s", amount)
	}
	return Money{
		amount:   amount.Round(CurrencyFractionDigits(currency)),
		currency: currency,
	}, nil
}

// NewMoneyFromString parses a decimal string such as "1500.00".
func NewMoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %v", amount, err)
	}
	return NewMoney(d, currency)
}

func (m Money) Amount() decimal.Decimal {
	return m.amount
}

func (m Money) Currency() string {
	return m.currency
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(CurrencyFractionDigits(m.currency)), m.currency)
}

func (m Money) assertSameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return nil
}

// Add returns m + other. The operands must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Add(other.amount), m.currency)
}

// Subtract returns m - other. A result below zero is a hard error, there is no
// implicit floor.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, fmt.Errorf("subtracting %s from %s would produce a negative amount", other, m)
	}
	return NewMoney(result, m.currency)
}

// GreaterThan reports m > other.
func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

// LessThan reports m < other.
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

// Equal reports m == other.
func (m Money) Equal(other Money) (bool, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.Equal(other.amount), nil
}
