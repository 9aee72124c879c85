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

	"github.com/ArcInTower/atmconnect/model"
)

const TypeMultiFactor = "MULTI_FACTOR"

// OtpVerifier verifies a candidate OTP in constant time. The vault's
// VerifyOtp satisfies it.
type OtpVerifier interface {
	VerifyOtp(candidate, expected string) bool
}

// ChallengeSource hands the multi-factor strategy the OTP previously issued
// to the customer. The service layer keeps challenges in redis keyed by
// customer id.
type ChallengeSource interface {
	PendingOtp(ctx context.Context, customerID string) (string, bool)
}

// MultiFactorStrategy layers an OTP challenge on top of the PIN check. The
// PIN leg delegates to the authoritative PinStrategy so the lockout behavior
// is identical in both.
type MultiFactorStrategy struct {
	pin        *PinStrategy
	verifier   OtpVerifier
	challenges ChallengeSource
}

func NewMultiFactorStrategy(pin *PinStrategy, verifier OtpVerifier, challenges ChallengeSource) *MultiFactorStrategy {
	return &MultiFactorStrategy{pin: pin, verifier: verifier, challenges: challenges}
}

func (s *MultiFactorStrategy) Type() string {
	return TypeMultiFactor
}

func (s *MultiFactorStrategy) CanHandle(creds Credentials) bool {
	return creds.Pin != "" && creds.OtpCode != ""
}

func (s *MultiFactorStrategy) ValidateCredentials(ctx context.Context, creds Credentials) error {
	if creds.OtpCode == "" {
		return newValidationError(ReasonMissingCredentials, "otp code is required")
	}
	return s.pin.ValidateCredentials(ctx, Credentials{
		IdentityNumber: creds.IdentityNumber,
		Pin:            creds.Pin,
		DeviceID:       creds.DeviceID,
	})
}

func (s *MultiFactorStrategy) Authenticate(ctx context.Context, customer *model.Customer, creds Credentials) Result {
	result := s.pin.Authenticate(ctx, customer, Credentials{
		IdentityNumber: creds.IdentityNumber,
		Pin:            creds.Pin,
		DeviceID:       creds.DeviceID,
	})
	if !result.Success {
		return result
	}

	expected, found := s.challenges.PendingOtp(ctx, customer.CustomerID)
	if !found {
		return failureResult(ReasonOtpExpired, "the one-time password has expired, request a new one")
	}
	if !s.verifier.VerifyOtp(creds.OtpCode, expected) {
		s.pin.recordFailure(ctx, creds.IdentityNumber, string(ReasonInvalidOtp))
		return failureResult(ReasonInvalidOtp, "authentication failed")
	}
	return result
}
