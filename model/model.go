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
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix.
// This is useful for creating unique identifiers with context-specific prefixes,
// e.g. "txn_9f1c...", "cus_77ab...".
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// ValidateTransactionID checks that an identifier reconstructed from storage or
// a client request follows the canonical "txn_<uuid>" form.
func ValidateTransactionID(id string) error {
	const prefix = "txn_"
	if !strings.HasPrefix(id, prefix) {
		return fmt.Errorf("invalid transaction id %q: missing %q prefix", id, prefix)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, prefix)); err != nil {
		return fmt.Errorf("invalid transaction id %q: %v", id, err)
	}
	return nil
}

// GenerateReference builds a transaction reference number from the current
// timestamp plus a random 4-digit suffix from a CSPRNG. A collision within one
// ATM-day would need two references minted in the same second drawing the same
// suffix, which is negligible at ATM volumes.
func GenerateReference() (string, error) {
	suffix, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("REF%s%04d", time.Now().UTC().Format("20060102150405"), suffix.Int64()), nil
}

// AccountNumber is a validated 10-16 digit account number.
type AccountNumber string

func NewAccountNumber(number string) (AccountNumber, error) {
	if len(number) < 10 || len(number) > 16 {
		return "", fmt.Errorf("account number must be 10-16 digits, got %d", len(number))
	}
	if !isAllDigits(number) {
		return "", fmt.Errorf("account number must be numeric")
	}
	return AccountNumber(number), nil
}

// Masked returns the account number with all but the last 4 digits replaced,
// safe for logs and receipts.
func (n AccountNumber) Masked() string {
	s := string(n)
	if len(s) <= 4 {
		return s
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func (n AccountNumber) String() string {
	return string(n)
}

// weakPins is the fixed deny-list of PINs too common to allow regardless of
// their digit pattern.
var weakPins = map[string]struct{}{
	"123456": {},
	"654321": {},
	"000000": {},
	"111111": {},
	"121212": {},
	"123123": {},
	"112233": {},
	"101010": {},
	"696969": {},
	"159753": {},
}

// IsWeakPin reports whether a 6-digit PIN is on the deny-list, is a single
// repeated digit, or is a strictly ascending/descending digit run. It is the
// single weak-PIN predicate shared by the Pin value object and credential
// validation so the two rules cannot drift apart.
func IsWeakPin(pin string) bool {
	if len(pin) != PinLength || !isAllDigits(pin) {
		return true
	}
	if _, denied := weakPins[pin]; denied {
		return true
	}
	return isRepeatedDigits(pin) || isSequentialDigits(pin)
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isRepeatedDigits(pin string) bool {
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			return false
		}
	}
	return true
}

func isSequentialDigits(pin string) bool {
	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[i-1]+1 {
			ascending = false
		}
		if pin[i] != pin[i-1]-1 {
			descending = false
		}
	}
	return ascending || descending
}
