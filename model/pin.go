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
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PinLength is the required number of digits in a customer PIN.
	PinLength = 6

	// pinSaltSize is the per-PIN salt length. 16 bytes minimum per policy.
	pinSaltSize = 16

	pinIterations = 210000
	pinKeySize    = 32
)

// Pin holds the salted PBKDF2 digest of a customer PIN. The plaintext is never
// stored; the salt is freshly drawn from a CSPRNG for every instance.
type Pin struct {
	salt []byte
	hash []byte
}

// NewPin derives a Pin from a plaintext 6-digit PIN. Non-numeric input, wrong
// length, deny-listed values, repeated-digit and sequential-digit patterns are
// all rejected.
func NewPin(plaintext string) (*Pin, error) {
	if len(plaintext) != PinLength || !isAllDigits(plaintext) {
		return nil, fmt.Errorf("pin must be exactly %d digits", PinLength)
	}
	if IsWeakPin(plaintext) {
		return nil, fmt.Errorf("pin is too weak: repeated, sequential or commonly used values are not allowed")
	}
	salt := make([]byte, pinSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate pin salt: %v", err)
	}
	return &Pin{
		salt: salt,
		hash: derivePinHash(plaintext, salt),
	}, nil
}

// ReconstructPin rebuilds a Pin from its persisted hash and salt.
func ReconstructPin(hash, salt []byte) (*Pin, error) {
	if len(hash) != pinKeySize {
		return nil, fmt.Errorf("pin hash must be %d bytes, got %d", pinKeySize, len(hash))
	}
	if len(salt) < pinSaltSize {
		return nil, fmt.Errorf("pin salt must be at least %d bytes, got %d", pinSaltSize, len(salt))
	}
	return &Pin{salt: salt, hash: hash}, nil
}

func derivePinHash(plaintext string, salt []byte) []byte {
	return pbkdf2.Key([]byte(plaintext), salt, pinIterations, pinKeySize, sha256.New)
}

// Verify recomputes the digest of the candidate with the stored salt and
// compares in constant time. Malformed candidates fail without error.
func (p *Pin) Verify(candidate string) bool {
	if len(candidate) != PinLength || !isAllDigits(candidate) {
		return false
	}
	return subtle.ConstantTimeCompare(derivePinHash(candidate, p.salt), p.hash) == 1
}

// Hash exposes the stored digest for persistence.
func (p *Pin) Hash() []byte {
	return p.hash
}

// Salt exposes the stored salt for persistence.
func (p *Pin) Salt() []byte {
	return p.salt
}
