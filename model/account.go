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
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a customer's balance and the daily withdrawal counters. The
// balance is never allowed below zero and DailyWithdrawnAmount never exceeds
// DailyWithdrawalLimit; both invariants are enforced inside Withdraw so a
// failed check leaves the account untouched. The daily counter resets lazily
// the first time a withdrawal is attempted on a new calendar day.
type Account struct {
	AccountID            string          `json:"account_id"`
	CustomerID           string          `json:"customer_id"`
	Number               AccountNumber   `json:"number"`
	Balance              decimal.Decimal `json:"balance"`
	Currency             string          `json:"currency"`
	Active               bool            `json:"active"`
	DailyWithdrawalLimit decimal.Decimal `json:"daily_withdrawal_limit"`
	DailyWithdrawnAmount decimal.Decimal `json:"daily_withdrawn_amount"`
	LastWithdrawalAt     time.Time       `json:"last_withdrawal_at,omitempty"`
	Version              int64           `json:"-"`
	CreatedAt            time.Time       `json:"created_at"`
}

// NewAccount creates an active account owned by customerID.
func NewAccount(customerID string, number AccountNumber, openingBalance, dailyLimit Money) (*Account, error) {
	if customerID == "" {
		return nil, fmt.Errorf("account requires an owning customer")
	}
	if openingBalance.Currency() != dailyLimit.Currency() {
		return nil, fmt.Errorf("opening balance and daily limit currencies differ: %s vs %s",
			openingBalance.Currency(), dailyLimit.Currency())
	}
	return &Account{
		AccountID:            GenerateUUIDWithSuffix("acc"),
		CustomerID:           customerID,
		Number:               number,
		Balance:              openingBalance.Amount(),
		Currency:             openingBalance.Currency(),
		Active:               true,
		DailyWithdrawalLimit: dailyLimit.Amount(),
		DailyWithdrawnAmount: decimal.Zero,
		CreatedAt:            time.Now(),
	}, nil
}

// BalanceMoney returns the balance as a Money value.
func (a *Account) BalanceMoney() (Money, error) {
	return NewMoney(a.Balance, a.Currency)
}

// effectiveDailyWithdrawn is the daily total after the lazy calendar-day
// reset, without mutating the account.
func (a *Account) effectiveDailyWithdrawn(now time.Time) decimal.Decimal {
	if a.LastWithdrawalAt.IsZero() || !sameCalendarDay(a.LastWithdrawalAt, now) {
		return decimal.Zero
	}
	return a.DailyWithdrawnAmount
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// CanWithdraw runs the full withdrawal pre-flight without mutating the
// account: active state, currency, sufficient balance, and the projected
// daily total against the limit.
func (a *Account) CanWithdraw(amount Money) error {
	return a.checkWithdraw(amount, time.Now())
}

func (a *Account) checkWithdraw(amount Money, now time.Time) error {
	if !a.Active {
		return fmt.Errorf("account %s is not active", a.AccountID)
	}
	if amount.Currency() != a.Currency {
		return fmt.Errorf("currency mismatch: account holds %s, withdrawal is %s", a.Currency, amount.Currency())
	}
	if amount.Amount().GreaterThan(a.Balance) {
		return fmt.Errorf("insufficient funds: balance %s, requested %s", a.Balance, amount.Amount())
	}
	projected := a.effectiveDailyWithdrawn(now).Add(amount.Amount())
	if projected.GreaterThan(a.DailyWithdrawalLimit) {
		return fmt.Errorf("daily withdrawal limit exceeded: %s withdrawn + %s requested > %s limit",
			a.effectiveDailyWithdrawn(now), amount.Amount(), a.DailyWithdrawalLimit)
	}
	return nil
}

// Withdraw atomically checks and applies a withdrawal: the balance drops and
// the daily counter rises only when every check passes.
func (a *Account) Withdraw(amount Money) error {
	now := time.Now()
	if err := a.checkWithdraw(amount, now); err != nil {
		return err
	}
	a.DailyWithdrawnAmount = a.effectiveDailyWithdrawn(now).Add(amount.Amount())
	a.Balance = a.Balance.Sub(amount.Amount())
	a.LastWithdrawalAt = now
	return nil
}

// Deposit credits the account. Used for the receiving side of transfers.
func (a *Account) Deposit(amount Money) error {
	if !a.Active {
		return fmt.Errorf("account %s is not active", a.AccountID)
	}
	if amount.Currency() != a.Currency {
		return fmt.Errorf("currency mismatch: account holds %s, deposit is %s", a.Currency, amount.Currency())
	}
	a.Balance = a.Balance.Add(amount.Amount())
	return nil
}
