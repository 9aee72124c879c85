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

package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ArcInTower/atmconnect/model"
)

// Credentials is the bundle a request carries. Which fields are populated
// decides which strategy handles it; strategies never mutate it.
type Credentials struct {
	IdentityNumber string `json:"identity_number"`
	Pin            string `json:"pin,omitempty"`
	BiometricToken string `json:"biometric_token,omitempty"`
	OtpCode        string `json:"otp_code,omitempty"`
	DeviceID       string `json:"device_id,omitempty"`
}

// Strategy is the capability set every authentication variant implements.
// CanHandle is a pure predicate over the credential bundle's populated
// fields; ValidateCredentials runs before Authenticate and rejects malformed
// or weak input.
type Strategy interface {
	Authenticate(ctx context.Context, customer *model.Customer, creds Credentials) Result
	Type() string
	CanHandle(creds Credentials) bool
	ValidateCredentials(ctx context.Context, creds Credentials) error
}

// Dispatcher selects the strategy for a credential bundle. Variants are a
// closed set registered at construction; adding an authentication method
// means registering one more strategy, not subclassing.
type Dispatcher struct {
	strategies []Strategy
}

func NewDispatcher(strategies ...Strategy) *Dispatcher {
	return &Dispatcher{strategies: strategies}
}

// Select returns the first strategy whose CanHandle accepts the bundle.
func (d *Dispatcher) Select(creds Credentials) (Strategy, error) {
	for _, s := range d.strategies {
		if s.CanHandle(creds) {
			return s, nil
		}
	}
	return nil, errors.New("no authentication strategy can handle the supplied credentials")
}

// Authenticate validates the credentials and runs the selected strategy.
// Anything unexpected is reported as SYSTEM_ERROR with a generic message;
// the real failure stays in the logs.
func (d *Dispatcher) Authenticate(ctx context.Context, customer *model.Customer, creds Credentials) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.Errorf("authentication panicked: %v", rec)
			result = failureResult(ReasonSystemError, "authentication is temporarily unavailable")
		}
	}()

	strategy, err := d.Select(creds)
	if err != nil {
		return failureResult(ReasonUnsupportedMethod, "unsupported authentication method")
	}
	if err := strategy.ValidateCredentials(ctx, creds); err != nil {
		if vErr, ok := err.(*ValidationError); ok {
			return failureResult(vErr.Reason, vErr.Message)
		}
		return failureResult(ReasonInvalidCredentialFormat, "credentials are malformed")
	}
	return strategy.Authenticate(ctx, customer, creds)
}

// ValidationError carries the failure tag out of ValidateCredentials so the
// dispatcher can surface it without string matching.
type ValidationError struct {
	Reason  FailureReason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(reason FailureReason, message string) *ValidationError {
	return &ValidationError{Reason: reason, Message: message}
}
