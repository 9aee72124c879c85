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
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ArcInTower/atmconnect/config"
	"github.com/ArcInTower/atmconnect/internal/apierror"
	"github.com/ArcInTower/atmconnect/internal/lock"
	"github.com/ArcInTower/atmconnect/internal/monitor"
	"github.com/ArcInTower/atmconnect/model"
)

const (
	transactionLockTTL  = 30 * time.Second
	transactionLockWait = 5 * time.Second
)

// withdrawalBounds reads the configured absolute min/max withdrawal amounts.
func withdrawalBounds() (decimal.Decimal, decimal.Decimal, error) {
	conf, err := config.Fetch()
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	min, err := decimal.NewFromString(conf.Security.MinWithdrawal)
	if err != nil {
		return decimal.Zero, decimal.Zero, errors.Wrap(err, "invalid min withdrawal config")
	}
	max, err := decimal.NewFromString(conf.Security.MaxWithdrawal)
	if err != nil {
		return decimal.Zero, decimal.Zero, errors.Wrap(err, "invalid max withdrawal config")
	}
	return min, max, nil
}

// validateWithdrawalEligibility runs the withdrawal pre-flight. Every failing
// check raises its own specific error so the client can present an actionable
// message.
func validateWithdrawalEligibility(account *model.Account, amount model.Money) error {
	if !account.Active {
		return apierror.NewAPIError(apierror.ErrAccountInactive, "account is not active", nil)
	}
	min, max, err := withdrawalBounds()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "service temporarily unavailable", err)
	}
	if amount.Amount().LessThan(min) {
		return apierror.NewAPIError(apierror.ErrInvalidInput,
			"withdrawal amount is below the minimum of "+min.String(), nil)
	}
	if amount.Amount().GreaterThan(max) {
		return apierror.NewAPIError(apierror.ErrInvalidInput,
			"withdrawal amount is above the maximum of "+max.String(), nil)
	}
	if amount.Currency() != account.Currency {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "currency does not match the account", nil)
	}
	if amount.Amount().GreaterThan(account.Balance) {
		return apierror.NewAPIError(apierror.ErrInsufficientFunds, "insufficient funds for this withdrawal", nil)
	}
	if err := account.CanWithdraw(amount); err != nil {
		// Balance passed above, so the remaining failure is the daily limit.
		return apierror.NewAPIError(apierror.ErrDailyLimitExceeded, "daily withdrawal limit exceeded", nil)
	}
	return nil
}

// validateAtmAvailability checks the terminal is active, online, has cash and
// has heartbeat within the last 5 minutes.
func validateAtmAvailability(atm *model.ATM) error {
	if atm == nil || !atm.IsAvailable(time.Now()) {
		return apierror.NewAPIError(apierror.ErrAtmNotAvailable, "the selected ATM is not available", nil)
	}
	return nil
}

// validateDeviceRegistration checks the originating device is registered and
// active for the account's owning customer.
func validateDeviceRegistration(customer *model.Customer, deviceID string) error {
	if deviceID == "" || customer == nil || !customer.HasActiveDevice(deviceID) {
		return apierror.NewAPIError(apierror.ErrDeviceNotRegistered, "this device is not registered", nil)
	}
	return nil
}

// validateTransactionForCompletion gates the second phase: the transaction
// must still be PENDING, inside the confirmation window, carry an intact
// integrity hash and match the supplied OTP in constant time. The integrity
// hash is re-verified here on purpose: a digest that is never checked
// protects nothing.
func (a *Atmconnect) validateTransactionForCompletion(ctx context.Context, txn *model.Transaction, otp string) error {
	if txn.Status != model.StatusPending {
		return apierror.NewAPIError(apierror.ErrTransactionProcessed, "transaction has already been processed", nil)
	}
	if txn.IsExpired(time.Now()) {
		return apierror.NewAPIError(apierror.ErrTransactionExpired, "transaction has expired, start a new one", nil)
	}
	if txn.IntegrityHash != a.vault.ComputeHash(txn.IntegrityPayload()) {
		a.recordSecurityEvent(ctx, monitor.NewEvent(monitor.EventIntegrityFailed, monitor.SeverityCritical, "transaction",
			map[string]interface{}{"transaction_id": txn.TransactionID}))
		return apierror.NewAPIError(apierror.ErrIntegrityCheckFailed, "transaction could not be verified", nil)
	}
	if otp == "" || !a.vault.VerifyOtp(otp, txn.Otp) {
		a.recordSecurityEvent(ctx, monitor.NewEvent(monitor.EventInvalidOtp, monitor.SeverityWarning, "transaction",
			map[string]interface{}{"transaction_id": txn.TransactionID}))
		return apierror.NewAPIError(apierror.ErrInvalidOtp, "the one-time password is not valid", nil)
	}
	return nil
}

// newTransaction is the factory: a fresh id and reference, an OTP for gated
// types and the integrity hash binding the transaction parameters.
func (a *Atmconnect) newTransaction(txnType string, account *model.Account, atmID, destinationAccountID, deviceID string, amount decimal.Decimal) (*model.Transaction, error) {
	reference, err := model.GenerateReference()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate reference")
	}
	txn := &model.Transaction{
		TransactionID:        model.GenerateUUIDWithSuffix("txn"),
		Type:                 txnType,
		Amount:               amount,
		Currency:             account.Currency,
		Status:               model.StatusPending,
		AccountID:            account.AccountID,
		AtmID:                atmID,
		DestinationAccountID: destinationAccountID,
		DeviceID:             deviceID,
		Reference:            reference,
		CreatedAt:            time.Now(),
	}
	if txn.RequiresOtp() {
		otp, err := a.vault.GenerateOtp()
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate otp")
		}
		txn.Otp = otp
	}
	txn.IntegrityHash = a.vault.ComputeHash(txn.IntegrityPayload())
	return txn, nil
}

// initiate runs the shared first-phase checks and records the transaction.
func (a *Atmconnect) initiate(ctx context.Context, txnType string, accountID, atmID, destinationAccountID, deviceID string, amount decimal.Decimal) (*model.Transaction, error) {
	account, err := a.datasource.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	customer, err := a.datasource.GetCustomerByID(ctx, account.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := validateDeviceRegistration(customer, deviceID); err != nil {
		a.recordSecurityEvent(ctx, monitor.NewEvent(monitor.EventAuthFailure, monitor.SeverityWarning, "transaction",
			map[string]interface{}{"account_id": accountID, "device_id": deviceID}))
		return nil, err
	}

	txn, err := a.newTransaction(txnType, account, atmID, destinationAccountID, deviceID, amount)
	if err != nil {
		return nil, err
	}
	if txn, err = a.datasource.RecordTransaction(ctx, txn); err != nil {
		return nil, err
	}

	if txn.RequiresOtp() {
		// Queued out-of-band; a delivery failure leaves the transaction
		// valid for the whole confirmation window.
		if err := a.queue.queueNotification(NotificationMessage{
			Kind:        "otp",
			Destination: customer.IdentityNumber,
			Payload: map[string]interface{}{
				"otp":       txn.Otp,
				"reference": txn.Reference,
			},
		}); err != nil {
			logrus.Errorf("failed to queue otp delivery for %s: %v", txn.TransactionID, err)
		}
	}
	return txn, nil
}

// InitiateWithdrawal creates a PENDING withdrawal after the full pre-flight:
// device registration, ATM availability and withdrawal eligibility.
func (a *Atmconnect) InitiateWithdrawal(ctx context.Context, accountID, atmID, deviceID string, amount model.Money) (*model.Transaction, error) {
	atm, err := a.datasource.GetATMByID(ctx, atmID)
	if err != nil {
		return nil, err
	}
	if err := validateAtmAvailability(atm); err != nil {
		return nil, err
	}
	account, err := a.datasource.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := validateWithdrawalEligibility(account, amount); err != nil {
		return nil, err
	}
	return a.initiate(ctx, model.TypeWithdrawal, accountID, atmID, "", deviceID, amount.Amount())
}

// InitiateTransfer creates a PENDING transfer to another account.
func (a *Atmconnect) InitiateTransfer(ctx context.Context, accountID, destinationAccountNumber, deviceID string, amount model.Money) (*model.Transaction, error) {
	destination, err := a.datasource.GetAccountByNumber(ctx, destinationAccountNumber)
	if err != nil {
		return nil, err
	}
	if !destination.Active {
		return nil, apierror.NewAPIError(apierror.ErrAccountInactive, "destination account cannot receive transfers", nil)
	}
	account, err := a.datasource.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.AccountID == destination.AccountID {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "cannot transfer to the same account", nil)
	}
	if amount.Currency() != account.Currency || amount.Currency() != destination.Currency {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "currency does not match both accounts", nil)
	}
	if amount.Amount().GreaterThan(account.Balance) {
		return nil, apierror.NewAPIError(apierror.ErrInsufficientFunds, "insufficient funds for this transfer", nil)
	}
	return a.initiate(ctx, model.TypeTransfer, accountID, "", destination.AccountID, deviceID, amount.Amount())
}

// RequestBalanceInquiry is the one type with no OTP gate: the transaction is
// created already COMPLETED and the balance returned immediately.
func (a *Atmconnect) RequestBalanceInquiry(ctx context.Context, accountID, deviceID string) (*model.Transaction, model.Money, error) {
	account, err := a.datasource.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, model.Money{}, err
	}
	customer, err := a.datasource.GetCustomerByID(ctx, account.CustomerID)
	if err != nil {
		return nil, model.Money{}, err
	}
	if err := validateDeviceRegistration(customer, deviceID); err != nil {
		return nil, model.Money{}, err
	}

	txn, err := a.newTransaction(model.TypeBalanceInquiry, account, "", "", deviceID, decimal.Zero)
	if err != nil {
		return nil, model.Money{}, err
	}
	if err := txn.Complete(); err != nil {
		return nil, model.Money{}, err
	}
	if txn, err = a.datasource.RecordTransaction(ctx, txn); err != nil {
		return nil, model.Money{}, err
	}
	balance, err := account.BalanceMoney()
	if err != nil {
		return nil, model.Money{}, err
	}
	return txn, balance, nil
}

// InitiatePinChange creates an OTP-gated PIN change transaction. The new PIN
// is only supplied at completion time, so it never rides along unconfirmed.
func (a *Atmconnect) InitiatePinChange(ctx context.Context, accountID, deviceID string) (*model.Transaction, error) {
	return a.initiate(ctx, model.TypePinChange, accountID, "", "", deviceID, decimal.Zero)
}

// CompleteTransaction is the second phase of an OTP-gated flow: validate,
// apply the financial mutation under the account lock, then drive the
// transaction to its terminal state.
func (a *Atmconnect) CompleteTransaction(ctx context.Context, transactionID, otp string) (*model.Transaction, error) {
	if err := model.ValidateTransactionID(transactionID); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	txn, err := a.datasource.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Type == model.TypePinChange {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "pin changes are completed through the pin change endpoint", nil)
	}

	locker := lock.New(a.redis, txn.AccountID)
	if err := locker.AcquireWait(ctx, transactionLockTTL, transactionLockWait); err != nil {
		return nil, errors.Wrap(err, "failed to serialize completion")
	}
	defer func() {
		if err := locker.Release(ctx); err != nil {
			logrus.Error(err)
		}
	}()

	if err := a.validateTransactionForCompletion(ctx, txn, otp); err != nil {
		if apierror.IsCode(err, apierror.ErrTransactionExpired) {
			a.failTransaction(ctx, txn, string(apierror.ErrTransactionExpired))
		}
		return nil, err
	}
	txn.OtpVerified = true

	accounts, err := a.applyCompletion(ctx, txn)
	if err != nil {
		return nil, err
	}
	if err := txn.Complete(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransactionProcessed, err.Error(), nil)
	}
	// One unit of persistence: the account mutation(s) and the terminal state
	// land together or not at all, so a retried completion after a transient
	// persistence failure cannot debit twice.
	if err := a.datasource.CommitTransactionCompletion(ctx, txn, accounts...); err != nil {
		return nil, err
	}
	a.queueConfirmation(txn)
	return txn, nil
}

// applyCompletion mutates the account(s) for the transaction type under the
// aggregate invariants and returns them for persistence alongside the
// transaction's terminal state. A failed mutation fails the transaction.
func (a *Atmconnect) applyCompletion(ctx context.Context, txn *model.Transaction) ([]*model.Account, error) {
	account, err := a.datasource.GetAccountByID(ctx, txn.AccountID)
	if err != nil {
		return nil, err
	}
	amount, err := model.NewMoney(txn.Amount, txn.Currency)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "transaction amount is corrupt", err)
	}

	switch txn.Type {
	case model.TypeWithdrawal:
		if err := account.Withdraw(amount); err != nil {
			a.failTransaction(ctx, txn, err.Error())
			return nil, mapWithdrawError(account, amount, err)
		}
		return []*model.Account{account}, nil

	case model.TypeTransfer:
		destination, err := a.datasource.GetAccountByID(ctx, txn.DestinationAccountID)
		if err != nil {
			return nil, err
		}
		if err := account.Withdraw(amount); err != nil {
			a.failTransaction(ctx, txn, err.Error())
			return nil, mapWithdrawError(account, amount, err)
		}
		if err := destination.Deposit(amount); err != nil {
			a.failTransaction(ctx, txn, err.Error())
			return nil, apierror.NewAPIError(apierror.ErrAccountInactive, "destination account cannot receive transfers", err)
		}
		return []*model.Account{account, destination}, nil

	default:
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "transaction type cannot be completed here", nil)
	}
}

// mapWithdrawError translates an aggregate withdrawal failure into the
// specific public error.
func mapWithdrawError(account *model.Account, amount model.Money, err error) error {
	if !account.Active {
		return apierror.NewAPIError(apierror.ErrAccountInactive, "account is not active", err)
	}
	if amount.Amount().GreaterThan(account.Balance) {
		return apierror.NewAPIError(apierror.ErrInsufficientFunds, "insufficient funds", err)
	}
	return apierror.NewAPIError(apierror.ErrDailyLimitExceeded, "daily withdrawal limit exceeded", err)
}

// CompletePinChange confirms a PIN change transaction with its OTP and swaps
// the customer's PIN material.
func (a *Atmconnect) CompletePinChange(ctx context.Context, transactionID, otp, newPin string) (*model.Transaction, error) {
	if err := model.ValidateTransactionID(transactionID); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	txn, err := a.datasource.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Type != model.TypePinChange {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "transaction is not a pin change", nil)
	}
	account, err := a.datasource.GetAccountByID(ctx, txn.AccountID)
	if err != nil {
		return nil, err
	}
	customer, err := a.datasource.GetCustomerByID(ctx, account.CustomerID)
	if err != nil {
		return nil, err
	}

	locker := lock.New(a.redis, customer.CustomerID)
	if err := locker.AcquireWait(ctx, transactionLockTTL, transactionLockWait); err != nil {
		return nil, errors.Wrap(err, "failed to serialize pin change")
	}
	defer func() {
		if err := locker.Release(ctx); err != nil {
			logrus.Error(err)
		}
	}()

	if err := a.validateTransactionForCompletion(ctx, txn, otp); err != nil {
		if apierror.IsCode(err, apierror.ErrTransactionExpired) {
			a.failTransaction(ctx, txn, string(apierror.ErrTransactionExpired))
		}
		return nil, err
	}
	if err := customer.ChangePin(newPin); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	if err := a.datasource.UpdateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	txn.OtpVerified = true
	if err := txn.Complete(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransactionProcessed, err.Error(), nil)
	}
	if err := a.datasource.UpdateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	a.queueConfirmation(txn)
	return txn, nil
}

// CancelTransaction cancels a still-PENDING transaction. Only a device
// registered to the account's owning customer may cancel, and the account
// lock keeps a cancellation from racing a concurrent completion. Terminal
// states stay final.
func (a *Atmconnect) CancelTransaction(ctx context.Context, transactionID, deviceID string) (*model.Transaction, error) {
	if err := model.ValidateTransactionID(transactionID); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	txn, err := a.datasource.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	account, err := a.datasource.GetAccountByID(ctx, txn.AccountID)
	if err != nil {
		return nil, err
	}
	customer, err := a.datasource.GetCustomerByID(ctx, account.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := validateDeviceRegistration(customer, deviceID); err != nil {
		a.recordSecurityEvent(ctx, monitor.NewEvent(monitor.EventAuthFailure, monitor.SeverityWarning, "transaction",
			map[string]interface{}{"transaction_id": transactionID, "device_id": deviceID}))
		return nil, err
	}

	locker := lock.New(a.redis, txn.AccountID)
	if err := locker.AcquireWait(ctx, transactionLockTTL, transactionLockWait); err != nil {
		return nil, errors.Wrap(err, "failed to serialize cancellation")
	}
	defer func() {
		if err := locker.Release(ctx); err != nil {
			logrus.Error(err)
		}
	}()

	if err := txn.Cancel(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransactionProcessed, err.Error(), nil)
	}
	if err := a.datasource.UpdateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// GetTransaction retrieves a transaction by id.
func (a *Atmconnect) GetTransaction(ctx context.Context, transactionID string) (*model.Transaction, error) {
	return a.datasource.GetTransaction(ctx, transactionID)
}

// GetTransactionByRef retrieves a transaction by its customer-facing
// reference number.
func (a *Atmconnect) GetTransactionByRef(ctx context.Context, reference string) (*model.Transaction, error) {
	return a.datasource.GetTransactionByRef(ctx, reference)
}

// GetPendingTransactions lists the account's transactions still awaiting
// confirmation. Expired entries are reported as such without being mutated;
// completion is the only path that fails them.
func (a *Atmconnect) GetPendingTransactions(ctx context.Context, accountID string) ([]*model.Transaction, error) {
	return a.datasource.GetPendingTransactionsByAccount(ctx, accountID)
}

func (a *Atmconnect) failTransaction(ctx context.Context, txn *model.Transaction, reason string) {
	if err := txn.Fail(reason); err != nil {
		logrus.Errorf("failed to mark transaction %s failed: %v", txn.TransactionID, err)
		return
	}
	if err := a.datasource.UpdateTransaction(ctx, txn); err != nil {
		logrus.Errorf("failed to persist failure of %s: %v", txn.TransactionID, err)
	}
}

func (a *Atmconnect) queueConfirmation(txn *model.Transaction) {
	if err := a.queue.queueNotification(NotificationMessage{
		Kind:        "transaction_confirmation",
		Destination: txn.AccountID,
		Payload: map[string]interface{}{
			"reference": txn.Reference,
			"type":      txn.Type,
			"status":    txn.Status,
		},
	}); err != nil {
		logrus.Errorf("failed to queue confirmation for %s: %v", txn.TransactionID, err)
	}
}

func (a *Atmconnect) recordSecurityEvent(ctx context.Context, event monitor.SecurityEvent) {
	if a.monitor == nil {
		return
	}
	if err := a.monitor.RecordSecurityEvent(ctx, event); err != nil {
		logrus.Errorf("failed to record security event: %v", err)
	}
}
