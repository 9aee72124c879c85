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

	"github.com/ArcInTower/atmconnect/internal/monitor"
	"github.com/ArcInTower/atmconnect/model"
)

const TypeBiometric = "BIOMETRIC"

// BiometricVerifier is the external matcher: the platform's secure enclave
// attests the biometric and hands over a token this core only forwards.
type BiometricVerifier interface {
	VerifyToken(ctx context.Context, customerID, deviceID, token string) (bool, error)
}

// BiometricStrategy authenticates with a device-attested biometric token.
// The lockout and active checks mirror the PIN strategy; the matching itself
// is delegated.
type BiometricStrategy struct {
	verifier BiometricVerifier
	monitor  monitor.SecurityMonitor
}

func NewBiometricStrategy(verifier BiometricVerifier, securityMonitor monitor.SecurityMonitor) *BiometricStrategy {
	return &BiometricStrategy{verifier: verifier, monitor: securityMonitor}
}

func (s *BiometricStrategy) Type() string {
	return TypeBiometric
}

func (s *BiometricStrategy) CanHandle(creds Credentials) bool {
	return creds.BiometricToken != "" && creds.Pin == ""
}

func (s *BiometricStrategy) ValidateCredentials(_ context.Context, creds Credentials) error {
	if creds.IdentityNumber == "" {
		return newValidationError(ReasonMissingCredentials, "identity number is required")
	}
	if creds.BiometricToken == "" {
		return newValidationError(ReasonMissingCredentials, "biometric token is required")
	}
	if creds.DeviceID == "" {
		return newValidationError(ReasonMissingCredentials, "device id is required for biometric authentication")
	}
	return nil
}

func (s *BiometricStrategy) Authenticate(ctx context.Context, customer *model.Customer, creds Credentials) Result {
	if customer == nil {
		return failureResult(ReasonAccountNotFound, "authentication failed")
	}
	if !customer.Active {
		return failureResult(ReasonAccountInactive, "this account cannot be used right now")
	}
	if customer.IsLocked() {
		return failureResult(ReasonAccountLocked, "account is temporarily locked")
	}
	if !customer.HasActiveDevice(creds.DeviceID) {
		s.recordEvent(ctx, monitor.NewEvent(monitor.EventAuthFailure, monitor.SeverityWarning, s.Type(),
			map[string]interface{}{"customer_id": customer.CustomerID, "device_id": creds.DeviceID}))
		return failureResult(ReasonDeviceNotRegistered, "this device is not registered for biometric authentication")
	}
	if s.verifier == nil {
		return failureResult(ReasonBiometricUnavailable, "biometric authentication is unavailable")
	}

	ok, err := s.verifier.VerifyToken(ctx, customer.CustomerID, creds.DeviceID, creds.BiometricToken)
	if err != nil {
		return failureResult(ReasonBiometricUnavailable, "biometric authentication is unavailable")
	}
	if !ok {
		s.recordEvent(ctx, monitor.NewEvent(monitor.EventAuthFailure, monitor.SeverityWarning, s.Type(),
			map[string]interface{}{"customer_id": customer.CustomerID}))
		return failureResult(ReasonBiometricMismatch, "authentication failed")
	}
	return successResult(customer.CustomerID, model.GenerateUUIDWithSuffix("ses"))
}

func (s *BiometricStrategy) recordEvent(ctx context.Context, event monitor.SecurityEvent) {
	if s.monitor == nil {
		return
	}
	_ = s.monitor.RecordSecurityEvent(ctx, event)
}
