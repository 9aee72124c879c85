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

// FailureReason tags an authentication failure. Two static properties hang
// off every tag: IsSecurityRelated drives mandatory monitoring,
// AllowsRetry drives the client's retry UX. Both are pure functions of the
// tag, never configuration.
type FailureReason string

const (
	ReasonInvalidPin              FailureReason = "INVALID_PIN"
	ReasonAccountLocked           FailureReason = "ACCOUNT_LOCKED"
	ReasonAccountInactive         FailureReason = "ACCOUNT_INACTIVE"
	ReasonAccountNotFound         FailureReason = "ACCOUNT_NOT_FOUND"
	ReasonMissingCredentials      FailureReason = "MISSING_CREDENTIALS"
	ReasonInvalidCredentialFormat FailureReason = "INVALID_CREDENTIAL_FORMAT"
	ReasonWeakCredential          FailureReason = "WEAK_CREDENTIAL"
	ReasonDeviceNotRegistered     FailureReason = "DEVICE_NOT_REGISTERED"
	ReasonBiometricMismatch       FailureReason = "BIOMETRIC_MISMATCH"
	ReasonBiometricUnavailable    FailureReason = "BIOMETRIC_UNAVAILABLE"
	ReasonInvalidOtp              FailureReason = "INVALID_OTP"
	ReasonOtpExpired              FailureReason = "OTP_EXPIRED"
	ReasonTooManyAttempts         FailureReason = "TOO_MANY_ATTEMPTS"
	ReasonSessionExpired          FailureReason = "SESSION_EXPIRED"
	ReasonUnsupportedMethod       FailureReason = "UNSUPPORTED_METHOD"
	ReasonSystemError             FailureReason = "SYSTEM_ERROR"
)

// IsSecurityRelated reports whether failures with this tag feed heightened
// monitoring.
func (r FailureReason) IsSecurityRelated() bool {
	switch r {
	case ReasonInvalidPin, ReasonAccountLocked, ReasonAccountInactive, ReasonAccountNotFound,
		ReasonWeakCredential, ReasonDeviceNotRegistered, ReasonBiometricMismatch,
		ReasonInvalidOtp, ReasonTooManyAttempts:
		return true
	}
	return false
}

// AllowsRetry reports whether the client may immediately retry after this
// failure.
func (r FailureReason) AllowsRetry() bool {
	switch r {
	case ReasonAccountLocked, ReasonAccountInactive, ReasonAccountNotFound,
		ReasonDeviceNotRegistered, ReasonTooManyAttempts, ReasonUnsupportedMethod:
		return false
	}
	return true
}

// Result is the tagged outcome of an authentication attempt. On success it
// carries the authenticated identity and a fresh session id; on failure a
// reason tag and a human-safe message that never reveals which internal check
// tripped beyond the coarse category.
type Result struct {
	Success    bool          `json:"success"`
	CustomerID string        `json:"customer_id,omitempty"`
	SessionID  string        `json:"session_id,omitempty"`
	Reason     FailureReason `json:"reason,omitempty"`
	Message    string        `json:"message,omitempty"`
}

func successResult(customerID, sessionID string) Result {
	return Result{Success: true, CustomerID: customerID, SessionID: sessionID}
}

func failureResult(reason FailureReason, message string) Result {
	return Result{Success: false, Reason: reason, Message: message}
}
