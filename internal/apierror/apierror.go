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

package apierror

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"

	// Authorization-core codes. Security-related codes carry a generic
	// user-facing message; the specific reason stays internal.
	ErrInvalidPin           ErrorCode = "INVALID_PIN"
	ErrAccountLocked        ErrorCode = "ACCOUNT_LOCKED"
	ErrAccountInactive      ErrorCode = "ACCOUNT_INACTIVE"
	ErrInvalidOtp           ErrorCode = "INVALID_OTP"
	ErrTransactionExpired   ErrorCode = "TRANSACTION_EXPIRED"
	ErrTransactionProcessed ErrorCode = "TRANSACTION_ALREADY_PROCESSED"
	ErrAtmNotAvailable      ErrorCode = "ATM_NOT_AVAILABLE"
	ErrDeviceNotRegistered  ErrorCode = "DEVICE_NOT_REGISTERED"
	ErrInsufficientFunds    ErrorCode = "INSUFFICIENT_FUNDS"
	ErrDailyLimitExceeded   ErrorCode = "DAILY_LIMIT_EXCEEDED"
	ErrIntegrityCheckFailed ErrorCode = "INTEGRITY_CHECK_FAILED"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	if details != nil {
		logrus.Error(details)
	}
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code ErrorCode) bool {
	apiErr, ok := err.(APIError)
	return ok && apiErr.Code == code
}

func MapErrorToHTTPStatus(err error) int {
	if apiErr, ok := err.(APIError); ok {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict, ErrTransactionProcessed, ErrIntegrityCheckFailed:
			return http.StatusConflict
		case ErrInvalidInput, ErrBadRequest:
			return http.StatusBadRequest
		case ErrInvalidPin, ErrInvalidOtp:
			return http.StatusUnauthorized
		case ErrAccountLocked:
			return http.StatusLocked
		case ErrAccountInactive, ErrDeviceNotRegistered:
			return http.StatusForbidden
		case ErrTransactionExpired:
			return http.StatusGone
		case ErrInsufficientFunds, ErrDailyLimitExceeded:
			return http.StatusUnprocessableEntity
		case ErrAtmNotAvailable:
			return http.StatusServiceUnavailable
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
