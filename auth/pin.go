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
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/ArcInTower/atmconnect/internal/monitor"
	"github.com/ArcInTower/atmconnect/model"
)

const TypePin = "PIN"

// PinStrategy authenticates with the customer's 6-digit PIN. It is the
// authoritative strategy: it owns the lockout interaction with the Customer
// aggregate and records every security-relevant outcome with the monitor.
type PinStrategy struct {
	monitor monitor.SecurityMonitor
}

func NewPinStrategy(securityMonitor monitor.SecurityMonitor) *PinStrategy {
	return &PinStrategy{monitor: securityMonitor}
}

func (s *PinStrategy) Type() string {
	return TypePin
}

// CanHandle accepts bundles that carry a PIN and nothing that belongs to
// another method.
func (s *PinStrategy) CanHandle(creds Credentials) bool {
	return creds.Pin != "" && creds.BiometricToken == "" && creds.OtpCode == ""
}

// ValidateCredentials rejects missing identity, missing PIN, malformed PIN
// and weak PIN patterns. Weak-pattern rejection also records a security
// event: a client submitting deny-listed PINs is worth watching.
func (s *PinStrategy) ValidateCredentials(ctx context.Context, creds Credentials) error {
	if creds.IdentityNumber == "" {
		return newValidationError(ReasonMissingCredentials, "identity number is required")
	}
	if creds.Pin == "" {
		return newValidationError(ReasonMissingCredentials, "pin is required")
	}
	if len(creds.Pin) != model.PinLength || !isNumeric(creds.Pin) {
		return newValidationError(ReasonInvalidCredentialFormat, "pin must be exactly 6 digits")
	}
	if model.IsWeakPin(creds.Pin) {
		s.recordEvent(ctx, monitor.NewEvent(monitor.EventWeakCredential, monitor.SeverityWarning, s.Type(),
			map[string]interface{}{"identity": creds.IdentityNumber}))
		return newValidationError(ReasonWeakCredential, "pin does not meet security requirements")
	}
	return nil
}

// Authenticate runs the PIN check against the customer aggregate. The
// failure messages stay coarse on purpose; the specific check that tripped
// is only visible through the reason tag and the monitor.
func (s *PinStrategy) Authenticate(ctx context.Context, customer *model.Customer, creds Credentials) Result {
	if customer == nil {
		s.recordFailure(ctx, creds.IdentityNumber, string(ReasonAccountNotFound))
		return failureResult(ReasonAccountNotFound, "authentication failed")
	}
	if !customer.Active {
		s.recordFailure(ctx, creds.IdentityNumber, string(ReasonAccountInactive))
		return failureResult(ReasonAccountInactive, "this account cannot be used right now")
	}
	if customer.IsLocked() {
		s.recordFailure(ctx, creds.IdentityNumber, string(ReasonAccountLocked))
		return failureResult(ReasonAccountLocked, "account is temporarily locked")
	}

	ok, err := customer.VerifyPin(creds.Pin)
	if err != nil {
		// The account can lock mid-check under concurrent attempts.
		if errors.Is(err, model.ErrCustomerLocked) {
			s.recordFailure(ctx, creds.IdentityNumber, string(ReasonAccountLocked))
			return failureResult(ReasonAccountLocked, "account is temporarily locked")
		}
		logrus.Errorf("pin verification failed for %s: %v", customer.CustomerID, err)
		return failureResult(ReasonSystemError, "authentication is temporarily unavailable")
	}
	if !ok {
		s.recordFailure(ctx, creds.IdentityNumber, string(ReasonInvalidPin))
		if customer.IsLocked() {
			s.recordEvent(ctx, monitor.NewEvent(monitor.EventAccountLocked, monitor.SeverityCritical, s.Type(),
				map[string]interface{}{"customer_id": customer.CustomerID}))
		}
		return failureResult(ReasonInvalidPin, "authentication failed")
	}

	return successResult(customer.CustomerID, model.GenerateUUIDWithSuffix("ses"))
}

func (s *PinStrategy) recordFailure(ctx context.Context, identity, reason string) {
	if s.monitor == nil {
		return
	}
	if err := s.monitor.RecordAuthenticationFailure(ctx, s.Type(), identity, reason); err != nil {
		logrus.Errorf("failed to record authentication failure: %v", err)
	}
}

func (s *PinStrategy) recordEvent(ctx context.Context, event monitor.SecurityEvent) {
	if s.monitor == nil {
		return
	}
	if err := s.monitor.RecordSecurityEvent(ctx, event); err != nil {
		logrus.Errorf("failed to record security event: %v", err)
	}
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
