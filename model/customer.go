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
	"errors"
	"fmt"
	"time"
)

const (
	// MaxFailedPinAttempts is the number of consecutive failures that trips
	// the lockout.
	MaxFailedPinAttempts = 3

	// LockoutDuration is how long a tripped lockout holds.
	LockoutDuration = 30 * time.Minute
)

// ErrCustomerLocked is returned when PIN verification is attempted while the
// customer is locked out. Verifying against a locked customer is a hard error,
// not a silent false.
var ErrCustomerLocked = errors.New("customer is locked out")

// Device is a mobile device registered against a customer. Only active
// registered devices may originate transactions.
type Device struct {
	DeviceID     string    `json:"device_id"`
	Name         string    `json:"name,omitempty"`
	Active       bool      `json:"active"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Customer is the credential holder: it owns the PIN material, the lockout
// state and the registered device set. Concurrent mutation of FailedAttempts
// and LockedUntil is serialized by the service layer (per-customer lock plus
// an optimistic version check in the repository).
type Customer struct {
	CustomerID     string    `json:"customer_id"`
	IdentityNumber string    `json:"identity_number"`
	Pin            *Pin      `json:"-"`
	Active         bool      `json:"active"`
	FailedAttempts int       `json:"failed_attempts"`
	LockedUntil    time.Time `json:"locked_until,omitempty"`
	Devices        []Device  `json:"devices,omitempty"`
	Version        int64     `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewCustomer creates an active customer with a freshly derived PIN.
func NewCustomer(identityNumber, plaintextPin string) (*Customer, error) {
	if identityNumber == "" {
		return nil, fmt.Errorf("identity number is required")
	}
	pin, err := NewPin(plaintextPin)
	if err != nil {
		return nil, err
	}
	return &Customer{
		CustomerID:     GenerateUUIDWithSuffix("cus"),
		IdentityNumber: identityNumber,
		Pin:            pin,
		Active:         true,
		CreatedAt:      time.Now(),
	}, nil
}

// IsLocked reports whether the lockout window is still open. It is a pure
// function of LockedUntil vs the clock; no flag is cached.
func (c *Customer) IsLocked() bool {
	return c.IsLockedAt(time.Now())
}

func (c *Customer) IsLockedAt(now time.Time) bool {
	return !c.LockedUntil.IsZero() && now.Before(c.LockedUntil)
}

// VerifyPin checks the candidate against the stored PIN material and advances
// the lockout state machine: a success resets the failed-attempt counter and
// clears the lockout, the MaxFailedPinAttempts-th consecutive failure opens a
// LockoutDuration window. Calling it while already locked returns
// ErrCustomerLocked.
func (c *Customer) VerifyPin(candidate string) (bool, error) {
	now := time.Now()
	if c.IsLockedAt(now) {
		return false, ErrCustomerLocked
	}
	if c.Pin == nil {
		return false, fmt.Errorf("customer %s has no pin material", c.CustomerID)
	}
	if c.Pin.Verify(candidate) {
		c.FailedAttempts = 0
		c.LockedUntil = time.Time{}
		return true, nil
	}
	c.FailedAttempts++
	if c.FailedAttempts >= MaxFailedPinAttempts {
		c.LockedUntil = now.Add(LockoutDuration)
	}
	return false, nil
}

// ChangePin replaces the PIN material. The caller is expected to have already
// authenticated the customer and confirmed the change through an OTP-gated
// transaction.
func (c *Customer) ChangePin(plaintextPin string) error {
	pin, err := NewPin(plaintextPin)
	if err != nil {
		return err
	}
	c.Pin = pin
	return nil
}

// RegisterDevice adds a device to the customer's registry, reactivating it if
// the id is already present.
func (c *Customer) RegisterDevice(deviceID, name string) error {
	if deviceID == "" {
		return fmt.Errorf("device id is required")
	}
	for i := range c.Devices {
		if c.Devices[i].DeviceID == deviceID {
			c.Devices[i].Active = true
			return nil
		}
	}
	c.Devices = append(c.Devices, Device{
		DeviceID:     deviceID,
		Name:         name,
		Active:       true,
		RegisteredAt: time.Now(),
	})
	return nil
}

// HasActiveDevice reports whether deviceID is registered and active.
func (c *Customer) HasActiveDevice(deviceID string) bool {
	for _, d := range c.Devices {
		if d.DeviceID == deviceID && d.Active {
			return true
		}
	}
	return false
}
