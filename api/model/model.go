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
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ArcInTower/atmconnect/auth"
)

var (
	pinFormat = regexp.MustCompile(`^\d{6}$`)
	otpFormat = regexp.MustCompile(`^\d{6}$`)
)

// CreateCustomer enrolls a credential holder. The PIN travels only in this
// request and is hashed before anything is persisted.
type CreateCustomer struct {
	IdentityNumber string `json:"identity_number"`
	Pin            string `json:"pin"`
}

func (c *CreateCustomer) ValidateCreateCustomer() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.IdentityNumber, validation.Required),
		validation.Field(&c.Pin, validation.Required, validation.Match(pinFormat).Error("pin must be exactly 6 digits")),
	)
}

type RegisterDevice struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
}

func (d *RegisterDevice) ValidateRegisterDevice() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.DeviceID, validation.Required),
	)
}

type CreateAccount struct {
	CustomerID     string `json:"customer_id"`
	Number         string `json:"number"`
	Currency       string `json:"currency"`
	OpeningBalance string `json:"opening_balance"`
	DailyLimit     string `json:"daily_withdrawal_limit"`
}

func (a *CreateAccount) ValidateCreateAccount() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.CustomerID, validation.Required),
		validation.Field(&a.Number, validation.Required),
		validation.Field(&a.Currency, validation.Required, validation.Length(3, 3)),
		validation.Field(&a.OpeningBalance, validation.Required),
		validation.Field(&a.DailyLimit, validation.Required),
	)
}

// Authenticate carries one authentication attempt. Which strategy runs is
// decided server-side from the combination of fields present.
type Authenticate struct {
	IdentityNumber string `json:"identity_number"`
	Pin            string `json:"pin,omitempty"`
	BiometricToken string `json:"biometric_token,omitempty"`
	OtpCode        string `json:"otp_code,omitempty"`
	DeviceID       string `json:"device_id,omitempty"`
}

func (a *Authenticate) ValidateAuthenticate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.IdentityNumber, validation.Required),
	)
}

func (a *Authenticate) ToCredentials() auth.Credentials {
	return auth.Credentials{
		IdentityNumber: a.IdentityNumber,
		Pin:            a.Pin,
		BiometricToken: a.BiometricToken,
		OtpCode:        a.OtpCode,
		DeviceID:       a.DeviceID,
	}
}

type RequestChallenge struct {
	IdentityNumber string `json:"identity_number"`
}

func (r *RequestChallenge) ValidateRequestChallenge() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IdentityNumber, validation.Required),
	)
}

type InitiateWithdrawal struct {
	AccountID string `json:"account_id"`
	AtmID     string `json:"atm_id"`
	DeviceID  string `json:"device_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

func (w *InitiateWithdrawal) ValidateInitiateWithdrawal() error {
	return validation.ValidateStruct(w,
		validation.Field(&w.AccountID, validation.Required),
		validation.Field(&w.AtmID, validation.Required),
		validation.Field(&w.DeviceID, validation.Required),
		validation.Field(&w.Amount, validation.Required),
		validation.Field(&w.Currency, validation.Required, validation.Length(3, 3)),
	)
}

type InitiateTransfer struct {
	AccountID                string `json:"account_id"`
	DestinationAccountNumber string `json:"destination_account_number"`
	DeviceID                 string `json:"device_id"`
	Amount                   string `json:"amount"`
	Currency                 string `json:"currency"`
}

func (t *InitiateTransfer) ValidateInitiateTransfer() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.AccountID, validation.Required),
		validation.Field(&t.DestinationAccountNumber, validation.Required),
		validation.Field(&t.DeviceID, validation.Required),
		validation.Field(&t.Amount, validation.Required),
		validation.Field(&t.Currency, validation.Required, validation.Length(3, 3)),
	)
}

type BalanceInquiry struct {
	AccountID string `json:"account_id"`
	DeviceID  string `json:"device_id"`
}

func (b *BalanceInquiry) ValidateBalanceInquiry() error {
	return validation.ValidateStruct(b,
		validation.Field(&b.AccountID, validation.Required),
		validation.Field(&b.DeviceID, validation.Required),
	)
}

type InitiatePinChange struct {
	AccountID string `json:"account_id"`
	DeviceID  string `json:"device_id"`
}

func (p *InitiatePinChange) ValidateInitiatePinChange() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.AccountID, validation.Required),
		validation.Field(&p.DeviceID, validation.Required),
	)
}

type CompleteTransaction struct {
	Otp string `json:"otp"`
}

func (c *CompleteTransaction) ValidateCompleteTransaction() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Otp, validation.Required, validation.Match(otpFormat).Error("otp must be exactly 6 digits")),
	)
}

type CompletePinChange struct {
	Otp    string `json:"otp"`
	NewPin string `json:"new_pin"`
}

func (c *CompletePinChange) ValidateCompletePinChange() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Otp, validation.Required, validation.Match(otpFormat).Error("otp must be exactly 6 digits")),
		validation.Field(&c.NewPin, validation.Required, validation.Match(pinFormat).Error("pin must be exactly 6 digits")),
	)
}

type CancelTransaction struct {
	DeviceID string `json:"device_id"`
}

func (c *CancelTransaction) ValidateCancelTransaction() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DeviceID, validation.Required),
	)
}

type RegisterATM struct {
	Location string `json:"location"`
}

func (r *RegisterATM) ValidateRegisterATM() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Location, validation.Required),
	)
}

type Heartbeat struct {
	CashAvailable *bool `json:"cash_available"`
}

func (h *Heartbeat) ValidateHeartbeat() error {
	return validation.ValidateStruct(h,
		validation.Field(&h.CashAvailable, validation.NotNil),
	)
}
