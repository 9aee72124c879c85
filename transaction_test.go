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

package atmconnect

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ArcInTower/atmconnect/internal/apierror"
	"github.com/ArcInTower/atmconnect/model"
)

func mustMoney(t *testing.T, amount string) model.Money {
	t.Helper()
	m, err := model.NewMoneyFromString(amount, "USD")
	require.NoError(t, err)
	return m
}

func TestWithdrawalFlow(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	atm := model.NewATM("Main Street 12")
	ctx := context.Background()

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)
	mockDS.On("GetCustomerByID", mock.Anything, customer.CustomerID).Return(customer, nil)
	mockDS.On("RecordTransaction", mock.Anything, mock.Anything).Return(nil, nil)
	mockDS.On("CommitTransactionCompletion", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	txn, err := service.InitiateWithdrawal(ctx, account.AccountID, atm.AtmID, "dev_1", mustMoney(t, "1500.00"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, txn.Status)
	assert.Equal(t, model.TypeWithdrawal, txn.Type)
	assert.Len(t, txn.Otp, 6)
	assert.NotEmpty(t, txn.Reference)
	assert.NotEmpty(t, txn.IntegrityHash)

	// The balance only moves at completion.
	assert.Equal(t, "5000", account.Balance.String())

	mockDS.On("GetTransaction", mock.Anything, txn.TransactionID).Return(txn, nil)
	completed, err := service.CompleteTransaction(ctx, txn.TransactionID, txn.Otp)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)
	assert.True(t, completed.OtpVerified)
	assert.NotNil(t, completed.CompletedAt)
	assert.Equal(t, "3500", account.Balance.String())
	assert.Equal(t, "1500", account.DailyWithdrawnAmount.String())
}

func TestWithdrawalRejectedOverDailyLimit(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	account.DailyWithdrawnAmount = decimal.RequireFromString("1500")
	account.LastWithdrawalAt = time.Now()
	atm := model.NewATM("Main Street 12")

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)

	// 1500 already withdrawn today; 600 more would breach the 2000 limit
	// even though the balance covers it.
	_, err := service.InitiateWithdrawal(context.Background(), account.AccountID, atm.AtmID, "dev_1", mustMoney(t, "600.00"))
	assert.True(t, apierror.IsCode(err, apierror.ErrDailyLimitExceeded))
	mockDS.AssertNotCalled(t, "RecordTransaction", mock.Anything, mock.Anything)
}

func TestWithdrawalRejectedByBounds(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	atm := model.NewATM("Main Street 12")
	ctx := context.Background()

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)

	_, err := service.InitiateWithdrawal(ctx, account.AccountID, atm.AtmID, "dev_1", mustMoney(t, "5.00"))
	assert.True(t, apierror.IsCode(err, apierror.ErrInvalidInput))

	_, err = service.InitiateWithdrawal(ctx, account.AccountID, atm.AtmID, "dev_1", mustMoney(t, "5000.01"))
	assert.True(t, apierror.IsCode(err, apierror.ErrInvalidInput))
}

func TestWithdrawalRejectedInsufficientFunds(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	account.Balance = decimal.RequireFromString("100")
	atm := model.NewATM("Main Street 12")

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)

	_, err := service.InitiateWithdrawal(context.Background(), account.AccountID, atm.AtmID, "dev_1", mustMoney(t, "200.00"))
	assert.True(t, apierror.IsCode(err, apierror.ErrInsufficientFunds))
}

func TestWithdrawalRejectedWhenAtmUnavailable(t *testing.T) {
	service, mockDS := newTestService(t)
	atm := model.NewATM("Main Street 12")
	atm.Online = false

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)

	_, err := service.InitiateWithdrawal(context.Background(), "acc_1", atm.AtmID, "dev_1", mustMoney(t, "100.00"))
	assert.True(t, apierror.IsCode(err, apierror.ErrAtmNotAvailable))

	// A stale heartbeat blocks the terminal just like an offline flag.
	atm.Online = true
	atm.LastHeartbeat = time.Now().Add(-model.HeartbeatWindow - time.Minute)
	_, err = service.InitiateWithdrawal(context.Background(), "acc_1", atm.AtmID, "dev_1", mustMoney(t, "100.00"))
	assert.True(t, apierror.IsCode(err, apierror.ErrAtmNotAvailable))
}

func TestWithdrawalRejectedUnregisteredDevice(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	atm := model.NewATM("Main Street 12")

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)
	mockDS.On("GetCustomerByID", mock.Anything, customer.CustomerID).Return(customer, nil)

	_, err := service.InitiateWithdrawal(context.Background(), account.AccountID, atm.AtmID, "dev_unknown", mustMoney(t, "100.00"))
	assert.True(t, apierror.IsCode(err, apierror.ErrDeviceNotRegistered))
}

func TestCompleteTransactionWrongOtp(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	atm := model.NewATM("Main Street 12")
	ctx := context.Background()

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)
	mockDS.On("GetCustomerByID", mock.Anything, customer.CustomerID).Return(customer, nil)
	mockDS.On("RecordTransaction", mock.Anything, mock.Anything).Return(nil, nil)

	txn, err := service.InitiateWithdrawal(ctx, account.AccountID, atm.AtmID, "dev_1", mustMoney(t, "200.00"))
	require.NoError(t, err)

	mockDS.On("GetTransaction", mock.Anything, txn.TransactionID).Return(txn, nil)

	wrong := "000001"
	if wrong == txn.Otp {
		wrong = "000002"
	}
	_, err = service.CompleteTransaction(ctx, txn.TransactionID, wrong)
	assert.True(t, apierror.IsCode(err, apierror.ErrInvalidOtp))
	// The transaction survives a wrong OTP and stays completable.
	assert.Equal(t, model.StatusPending, txn.Status)
	assert.Equal(t, "5000", account.Balance.String())
}

func TestCompleteTransactionExpired(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	atm := model.NewATM("Main Street 12")
	ctx := context.Background()

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)
	mockDS.On("GetCustomerByID", mock.Anything, customer.CustomerID).Return(customer, nil)
	mockDS.On("RecordTransaction", mock.Anything, mock.Anything).Return(nil, nil)
	mockDS.On("UpdateTransaction", mock.Anything, mock.Anything).Return(nil)

	txn, err := service.InitiateWithdrawal(ctx, account.AccountID, atm.AtmID, "dev_1", mustMoney(t, "200.00"))
	require.NoError(t, err)
	txn.CreatedAt = time.Now().Add(-model.PendingWindow - time.Minute)

	mockDS.On("GetTransaction", mock.Anything, txn.TransactionID).Return(txn, nil)

	_, err = service.CompleteTransaction(ctx, txn.TransactionID, txn.Otp)
	assert.True(t, apierror.IsCode(err, apierror.ErrTransactionExpired))
	assert.Equal(t, model.StatusFailed, txn.Status)
	assert.Equal(t, "5000", account.Balance.String())
}

func TestCompleteTransactionTamperedIntegrity(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	atm := model.NewATM("Main Street 12")
	ctx := context.Background()

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)
	mockDS.On("GetCustomerByID", mock.Anything, customer.CustomerID).Return(customer, nil)
	mockDS.On("RecordTransaction", mock.Anything, mock.Anything).Return(nil, nil)

	txn, err := service.InitiateWithdrawal(ctx, account.AccountID, atm.AtmID, "dev_1", mustMoney(t, "200.00"))
	require.NoError(t, err)

	// A mutated amount no longer matches the stored integrity hash.
	txn.Amount = decimal.RequireFromString("2000.00")
	mockDS.On("GetTransaction", mock.Anything, txn.TransactionID).Return(txn, nil)

	_, err = service.CompleteTransaction(ctx, txn.TransactionID, txn.Otp)
	assert.True(t, apierror.IsCode(err, apierror.ErrIntegrityCheckFailed))
	assert.Equal(t, "5000", account.Balance.String())
}

func TestCompleteTransactionAlreadyProcessed(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	atm := model.NewATM("Main Street 12")
	ctx := context.Background()

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)
	mockDS.On("GetCustomerByID", mock.Anything, customer.CustomerID).Return(customer, nil)
	mockDS.On("RecordTransaction", mock.Anything, mock.Anything).Return(nil, nil)
	mockDS.On("CommitTransactionCompletion", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	txn, err := service.InitiateWithdrawal(ctx, account.AccountID, atm.AtmID, "dev_1", mustMoney(t, "200.00"))
	require.NoError(t, err)
	mockDS.On("GetTransaction", mock.Anything, txn.TransactionID).Return(txn, nil)

	_, err = service.CompleteTransaction(ctx, txn.TransactionID, txn.Otp)
	require.NoError(t, err)

	// Replaying the confirmation must not move money twice.
	_, err = service.CompleteTransaction(ctx, txn.TransactionID, txn.Otp)
	assert.True(t, apierror.IsCode(err, apierror.ErrTransactionProcessed))
	assert.Equal(t, "4800", account.Balance.String())
}

func TestTransferFlow(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	source := newScenarioAccount(t, customer.CustomerID)
	ctx := context.Background()

	destNumber, err := model.NewAccountNumber("9876543210")
	require.NoError(t, err)
	destBalance, err := model.NewMoneyFromString("50.00", "USD")
	require.NoError(t, err)
	destLimit, err := model.NewMoneyFromString("2000.00", "USD")
	require.NoError(t, err)
	destination, err := model.NewAccount("cus_other", destNumber, destBalance, destLimit)
	require.NoError(t, err)

	mockDS.On("GetAccountByNumber", mock.Anything, destNumber.String()).Return(destination, nil)
	mockDS.On("GetAccountByID", mock.Anything, source.AccountID).Return(source, nil)
	mockDS.On("GetAccountByID", mock.Anything, destination.AccountID).Return(destination, nil)
	mockDS.On("GetCustomerByID", mock.Anything, customer.CustomerID).Return(customer, nil)
	mockDS.On("RecordTransaction", mock.Anything, mock.Anything).Return(nil, nil)
	mockDS.On("CommitTransactionCompletion", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	txn, err := service.InitiateTransfer(ctx, source.AccountID, destNumber.String(), "dev_1", mustMoney(t, "300.00"))
	require.NoError(t, err)
	assert.Equal(t, model.TypeTransfer, txn.Type)
	assert.Equal(t, destination.AccountID, txn.DestinationAccountID)

	mockDS.On("GetTransaction", mock.Anything, txn.TransactionID).Return(txn, nil)
	completed, err := service.CompleteTransaction(ctx, txn.TransactionID, txn.Otp)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)
	assert.Equal(t, "4700", source.Balance.String())
	assert.Equal(t, "350", destination.Balance.String())
}

func TestTransferRejectsSameAccount(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)

	mockDS.On("GetAccountByNumber", mock.Anything, account.Number.String()).Return(account, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)

	_, err := service.InitiateTransfer(context.Background(), account.AccountID, account.Number.String(), "dev_1", mustMoney(t, "100.00"))
	assert.True(t, apierror.IsCode(err, apierror.ErrInvalidInput))
}

func TestBalanceInquiryCompletesImmediately(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)

	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)
	mockDS.On("GetCustomerByID", mock.Anything, customer.CustomerID).Return(customer, nil)
	mockDS.On("RecordTransaction", mock.Anything, mock.Anything).Return(nil, nil)

	txn, balance, err := service.RequestBalanceInquiry(context.Background(), account.AccountID, "dev_1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, txn.Status)
	assert.Empty(t, txn.Otp)
	assert.Equal(t, "5000.00 USD", balance.String())
}

func TestPinChangeFlow(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	ctx := context.Background()

	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)
	mockDS.On("GetCustomerByID", mock.Anything, customer.CustomerID).Return(customer, nil)
	mockDS.On("RecordTransaction", mock.Anything, mock.Anything).Return(nil, nil)
	mockDS.On("UpdateCustomer", mock.Anything, customer).Return(nil)
	mockDS.On("UpdateTransaction", mock.Anything, mock.Anything).Return(nil)

	txn, err := service.InitiatePinChange(ctx, account.AccountID, "dev_1")
	require.NoError(t, err)
	assert.Equal(t, model.TypePinChange, txn.Type)
	assert.Len(t, txn.Otp, 6)

	mockDS.On("GetTransaction", mock.Anything, txn.TransactionID).Return(txn, nil)

	// A weak replacement PIN is refused even with a valid OTP.
	_, err = service.CompletePinChange(ctx, txn.TransactionID, txn.Otp, "123456")
	assert.Error(t, err)

	txn2, err := service.InitiatePinChange(ctx, account.AccountID, "dev_1")
	require.NoError(t, err)
	mockDS.On("GetTransaction", mock.Anything, txn2.TransactionID).Return(txn2, nil)

	completed, err := service.CompletePinChange(ctx, txn2.TransactionID, txn2.Otp, "795131")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)

	ok, err := customer.VerifyPin("795131")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestCancelTransaction(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	atm := model.NewATM("Main Street 12")
	ctx := context.Background()

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)
	mockDS.On("GetCustomerByID", mock.Anything, customer.CustomerID).Return(customer, nil)
	mockDS.On("RecordTransaction", mock.Anything, mock.Anything).Return(nil, nil)
	mockDS.On("UpdateTransaction", mock.Anything, mock.Anything).Return(nil)

	txn, err := service.InitiateWithdrawal(ctx, account.AccountID, atm.AtmID, "dev_1", mustMoney(t, "200.00"))
	require.NoError(t, err)
	mockDS.On("GetTransaction", mock.Anything, txn.TransactionID).Return(txn, nil)

	cancelled, err := service.CancelTransaction(ctx, txn.TransactionID, "dev_1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	// Cancellation is terminal; the OTP no longer completes it.
	_, err = service.CompleteTransaction(ctx, txn.TransactionID, txn.Otp)
	assert.True(t, apierror.IsCode(err, apierror.ErrTransactionProcessed))

	_, err = service.CancelTransaction(ctx, txn.TransactionID, "dev_1")
	assert.True(t, apierror.IsCode(err, apierror.ErrTransactionProcessed))
}

func TestCancelTransactionUnregisteredDevice(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	atm := model.NewATM("Main Street 12")
	ctx := context.Background()

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil)
	mockDS.On("GetCustomerByID", mock.Anything, customer.CustomerID).Return(customer, nil)
	mockDS.On("RecordTransaction", mock.Anything, mock.Anything).Return(nil, nil)

	txn, err := service.InitiateWithdrawal(ctx, account.AccountID, atm.AtmID, "dev_1", mustMoney(t, "200.00"))
	require.NoError(t, err)
	mockDS.On("GetTransaction", mock.Anything, txn.TransactionID).Return(txn, nil)

	// A device the customer never registered cannot cancel the transaction.
	_, err = service.CancelTransaction(ctx, txn.TransactionID, "dev_unknown")
	assert.True(t, apierror.IsCode(err, apierror.ErrDeviceNotRegistered))
	assert.Equal(t, model.StatusPending, txn.Status)
	mockDS.AssertNotCalled(t, "UpdateTransaction", mock.Anything, mock.Anything)
}

func TestRetriedCompletionDebitsOnce(t *testing.T) {
	service, mockDS := newTestService(t)
	customer := newScenarioCustomer(t)
	account := newScenarioAccount(t, customer.CustomerID)
	atm := model.NewATM("Main Street 12")
	ctx := context.Background()

	copyAccount := func(a *model.Account) *model.Account {
		dup := *a
		return &dup
	}
	copyTransaction := func(tx *model.Transaction) *model.Transaction {
		dup := *tx
		return &dup
	}

	mockDS.On("GetATMByID", mock.Anything, atm.AtmID).Return(atm, nil)
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(account, nil).Twice()
	mockDS.On("GetCustomerByID", mock.Anything, customer.CustomerID).Return(customer, nil)
	mockDS.On("RecordTransaction", mock.Anything, mock.Anything).Return(nil, nil)

	txn, err := service.InitiateWithdrawal(ctx, account.AccountID, atm.AtmID, "dev_1", mustMoney(t, "200.00"))
	require.NoError(t, err)

	// First attempt: the atomic commit fails, so nothing is persisted. The
	// stored transaction is still PENDING and the stored balance untouched.
	mockDS.On("GetTransaction", mock.Anything, txn.TransactionID).Return(copyTransaction(txn), nil).Once()
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(copyAccount(account), nil).Once()
	mockDS.On("CommitTransactionCompletion", mock.Anything, mock.Anything, mock.Anything).
		Return(apierror.NewAPIError(apierror.ErrInternalServer, "connection reset", nil)).Once()

	_, err = service.CompleteTransaction(ctx, txn.TransactionID, txn.Otp)
	require.Error(t, err)

	// Retry reloads the stored state and must debit exactly once.
	var committed []*model.Account
	mockDS.On("GetTransaction", mock.Anything, txn.TransactionID).Return(copyTransaction(txn), nil).Once()
	mockDS.On("GetAccountByID", mock.Anything, account.AccountID).Return(copyAccount(account), nil).Once()
	mockDS.On("CommitTransactionCompletion", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			committed = args.Get(2).([]*model.Account)
		}).
		Return(nil).Once()

	completed, err := service.CompleteTransaction(ctx, txn.TransactionID, txn.Otp)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)
	require.Len(t, committed, 1)
	assert.Equal(t, "4800", committed[0].Balance.String())
	assert.Equal(t, "200", committed[0].DailyWithdrawnAmount.String())
}

func TestCompletionPathsRejectMalformedID(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.CompleteTransaction(ctx, "not-a-transaction-id", "123456")
	assert.True(t, apierror.IsCode(err, apierror.ErrInvalidInput))

	_, err = service.CompletePinChange(ctx, "not-a-transaction-id", "123456", "795131")
	assert.True(t, apierror.IsCode(err, apierror.ErrInvalidInput))

	_, err = service.CancelTransaction(ctx, "not-a-transaction-id", "dev_1")
	assert.True(t, apierror.IsCode(err, apierror.ErrInvalidInput))
}
