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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithSuffix(t *testing.T) {
	id := GenerateUUIDWithSuffix("txn")
	assert.True(t, strings.HasPrefix(id, "txn_"))
	assert.NoError(t, ValidateTransactionID(id))
}

func TestValidateTransactionID(t *testing.T) {
	assert.NoError(t, ValidateTransactionID(GenerateUUIDWithSuffix("txn")))
	assert.Error(t, ValidateTransactionID("cus_9f1c2d3e-0000-0000-0000-000000000000"))
	assert.Error(t, ValidateTransactionID("txn_not-a-uuid"))
	assert.Error(t, ValidateTransactionID(""))
}

func TestGenerateReference(t *testing.T) {
	ref, err := GenerateReference()
	assert.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^REF\d{14}\d{4}$`), ref)
}

func TestNewAccountNumber(t *testing.T) {
	n, err := NewAccountNumber("1234567890")
	assert.NoError(t, err)
	assert.Equal(t, "1234567890", n.String())

	_, err = NewAccountNumber("123456789")
	assert.Error(t, err)
	_, err = NewAccountNumber("12345678901234567")
	assert.Error(t, err)
	_, err = NewAccountNumber("12345678x0")
	assert.Error(t, err)
}

func TestAccountNumberMasked(t *testing.T) {
	n, err := NewAccountNumber("1234567890123456")
	assert.NoError(t, err)
	assert.Equal(t, "************3456", n.Masked())
}

func TestIsWeakPin(t *testing.T) {
	tests := []struct {
		pin  string
		weak bool
	}{
		{"123456", true},  // deny-listed and sequential
		{"654321", true},  // deny-listed and descending
		{"777777", true},  // repeated digit
		{"000000", true},  // repeated digit
		{"234567", true},  // strictly ascending
		{"987654", true},  // strictly descending
		{"112233", true},  // deny-listed
		{"159753", true},  // deny-listed
		{"12345", true},   // wrong length
		{"12a456", true},  // non-numeric
		{"445566", false}, // paired digits are fine
		{"248163", false},
		{"135792", false}, // skips digits, not strictly sequential
	}
	for _, tt := range tests {
		assert.Equal(t, tt.weak, IsWeakPin(tt.pin), "pin %q", tt.pin)
	}
}
