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
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorError(t *testing.T) {
	err := NewAPIError(ErrInvalidOtp, "the one-time password is not valid", nil)
	assert.Equal(t, "INVALID_OTP: the one-time password is not valid", err.Error())
}

func TestIsCode(t *testing.T) {
	err := NewAPIError(ErrTransactionExpired, "expired", nil)
	assert.True(t, IsCode(err, ErrTransactionExpired))
	assert.False(t, IsCode(err, ErrInvalidOtp))
	assert.False(t, IsCode(errors.New("plain error"), ErrTransactionExpired))
	assert.False(t, IsCode(nil, ErrTransactionExpired))
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrTransactionProcessed, http.StatusConflict},
		{ErrIntegrityCheckFailed, http.StatusConflict},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrBadRequest, http.StatusBadRequest},
		{ErrInvalidPin, http.StatusUnauthorized},
		{ErrInvalidOtp, http.StatusUnauthorized},
		{ErrAccountLocked, http.StatusLocked},
		{ErrAccountInactive, http.StatusForbidden},
		{ErrDeviceNotRegistered, http.StatusForbidden},
		{ErrTransactionExpired, http.StatusGone},
		{ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{ErrDailyLimitExceeded, http.StatusUnprocessableEntity},
		{ErrAtmNotAvailable, http.StatusServiceUnavailable},
		{ErrInternalServer, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		err := NewAPIError(tt.code, "test", nil)
		assert.Equal(t, tt.status, MapErrorToHTTPStatus(err), "code %s", tt.code)
	}

	assert.Equal(t, http.StatusInternalServerError, MapErrorToHTTPStatus(errors.New("plain error")))
}
