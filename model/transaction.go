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

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"

	TypeWithdrawal     = "WITHDRAWAL"
	TypeTransfer       = "TRANSFER"
	TypeBalanceInquiry = "BALANCE_INQUIRY"
	TypePinChange      = "PIN_CHANGE"
)

// PendingWindow is how long a PENDING transaction stays eligible for
// completion. Expiry is a validity window checked at every read, never a
// background job.
const PendingWindow = 5 * time.Minute

// Transaction is a single authorization flow through the two-phase confirm:
// created PENDING with an OTP attached (balance inquiries complete
// immediately), then driven to exactly one terminal state. All terminal
// states are final.
type Transaction struct {
	TransactionID        string          `json:"id"`
	Type                 string          `json:"type"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Status               string          `json:"status"`
	AccountID            string          `json:"account_id"`
	AtmID                string          `json:"atm_id,omitempty"`
	DestinationAccountID string          `json:"destination_account_id,omitempty"`
	DeviceID             string          `json:"device_id"`
	Otp                  string          `json:"-"`
	OtpVerified          bool            `json:"otp_verified"`
	Reference            string          `json:"reference"`
	IntegrityHash        string          `json:"integrity_hash"`
	CreatedAt            time.Time       `json:"created_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
	FailureReason        string          `json:"failure_reason,omitempty"`
}

// RequiresOtp reports whether the type is OTP-gated. Balance inquiries are
// the only exception.
func (t *Transaction) RequiresOtp() bool {
	return t.Type != TypeBalanceInquiry
}

// IsExpired reports whether a still-PENDING transaction has outlived the
// confirmation window.
func (t *Transaction) IsExpired(now time.Time) bool {
	return t.Status == StatusPending && now.Sub(t.CreatedAt) > PendingWindow
}

// target identifies the counterparty bound into the integrity hash: the ATM
// for withdrawals, the destination account for transfers, the operation tag
// for everything else.
func (t *Transaction) target() string {
	switch {
	case t.AtmID != "":
		return t.AtmID
	case t.DestinationAccountID != "":
		return t.DestinationAccountID
	default:
		return t.Type
	}
}

// IntegrityPayload concatenates the fields the integrity hash binds: account,
// amount (empty for amount-less operations), target, device and creation time.
func (t *Transaction) IntegrityPayload() []byte {
	amount := ""
	if !t.Amount.IsZero() {
		amount = t.Amount.String()
	}
	return []byte(fmt.Sprintf("%s|%s|%s|%s|%d",
		t.AccountID, amount, t.target(), t.DeviceID, t.CreatedAt.UnixNano()))
}

func (t *Transaction) transitionFromPending(to string, now time.Time) error {
	if t.Status != StatusPending {
		return fmt.Errorf("transaction %s is %s, cannot transition to %s", t.TransactionID, t.Status, to)
	}
	t.Status = to
	t.CompletedAt = &now
	return nil
}

// Complete moves PENDING → COMPLETED and stamps the completion time. Any call
// on a non-pending transaction is a hard error.
func (t *Transaction) Complete() error {
	return t.transitionFromPending(StatusCompleted, time.Now())
}

// Fail moves PENDING → FAILED with a reason.
func (t *Transaction) Fail(reason string) error {
	if err := t.transitionFromPending(StatusFailed, time.Now()); err != nil {
		return err
	}
	t.FailureReason = reason
	return nil
}

// Cancel moves PENDING → CANCELLED.
func (t *Transaction) Cancel() error {
	return t.transitionFromPending(StatusCancelled, time.Now())
}
