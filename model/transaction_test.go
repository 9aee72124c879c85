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
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func pendingTransaction(txnType string) *Transaction {
	return &Transaction{
		TransactionID: GenerateUUIDWithSuffix("txn"),
		Type:          txnType,
		Amount:        decimal.RequireFromString("200.00"),
		Currency:      "USD",
		Status:        StatusPending,
		AccountID:     "acc_1",
		AtmID:         "atm_1",
		DeviceID:      "dev_1",
		Otp:           "123456",
		CreatedAt:     time.Now(),
	}
}

func TestRequiresOtp(t *testing.T) {
	assert.True(t, pendingTransaction(TypeWithdrawal).RequiresOtp())
	assert.True(t, pendingTransaction(TypeTransfer).RequiresOtp())
	assert.True(t, pendingTransaction(TypePinChange).RequiresOtp())
	assert.False(t, pendingTransaction(TypeBalanceInquiry).RequiresOtp())
}

func TestIsExpired(t *testing.T) {
	txn := pendingTransaction(TypeWithdrawal)
	assert.False(t, txn.IsExpired(time.Now()))
	assert.False(t, txn.IsExpired(txn.CreatedAt.Add(PendingWindow)))
	assert.True(t, txn.IsExpired(txn.CreatedAt.Add(PendingWindow+time.Second)))

	// Terminal transactions do not expire, they are already final.
	assert.NoError(t, txn.Complete())
	assert.False(t, txn.IsExpired(txn.CreatedAt.Add(time.Hour)))
}

func TestComplete(t *testing.T) {
	txn := pendingTransaction(TypeWithdrawal)
	assert.NoError(t, txn.Complete())
	assert.Equal(t, StatusCompleted, txn.Status)
	assert.NotNil(t, txn.CompletedAt)
}

func TestFail(t *testing.T) {
	txn := pendingTransaction(TypeWithdrawal)
	assert.NoError(t, txn.Fail("TRANSACTION_EXPIRED"))
	assert.Equal(t, StatusFailed, txn.Status)
	assert.Equal(t, "TRANSACTION_EXPIRED", txn.FailureReason)
}

func TestCancel(t *testing.T) {
	txn := pendingTransaction(TypeWithdrawal)
	assert.NoError(t, txn.Cancel())
	assert.Equal(t, StatusCancelled, txn.Status)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	completed := pendingTransaction(TypeWithdrawal)
	assert.NoError(t, completed.Complete())
	assert.Error(t, completed.Complete())
	assert.Error(t, completed.Fail("too late"))
	assert.Error(t, completed.Cancel())

	cancelled := pendingTransaction(TypeWithdrawal)
	assert.NoError(t, cancelled.Cancel())
	assert.Error(t, cancelled.Complete())
}

func TestIntegrityPayloadTarget(t *testing.T) {
	withdrawal := pendingTransaction(TypeWithdrawal)
	assert.Contains(t, string(withdrawal.IntegrityPayload()), "atm_1")

	transfer := pendingTransaction(TypeTransfer)
	transfer.AtmID = ""
	transfer.DestinationAccountID = "acc_2"
	assert.Contains(t, string(transfer.IntegrityPayload()), "acc_2")

	inquiry := pendingTransaction(TypeBalanceInquiry)
	inquiry.AtmID = ""
	inquiry.Amount = decimal.Zero
	assert.Contains(t, string(inquiry.IntegrityPayload()), TypeBalanceInquiry)
}

func TestIntegrityPayloadBindsTransactionFields(t *testing.T) {
	a := pendingTransaction(TypeWithdrawal)
	b := pendingTransaction(TypeWithdrawal)
	b.CreatedAt = a.CreatedAt
	assert.Equal(t, a.IntegrityPayload(), b.IntegrityPayload())

	b.Amount = decimal.RequireFromString("200.01")
	assert.NotEqual(t, a.IntegrityPayload(), b.IntegrityPayload())

	b.Amount = a.Amount
	b.DeviceID = "dev_2"
	assert.NotEqual(t, a.IntegrityPayload(), b.IntegrityPayload())
}
