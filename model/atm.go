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

import "time"

// HeartbeatWindow is how recently an ATM must have signaled liveness to be
// considered available.
const HeartbeatWindow = 5 * time.Minute

// ATM is the availability snapshot of a terminal: a transaction may only
// target an ATM that is active, online, has cash and has heartbeat within the
// window.
type ATM struct {
	AtmID         string    `json:"atm_id"`
	Location      string    `json:"location,omitempty"`
	Active        bool      `json:"active"`
	Online        bool      `json:"online"`
	CashAvailable bool      `json:"cash_available"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewATM registers a terminal, initially online with cash and a fresh
// heartbeat.
func NewATM(location string) *ATM {
	now := time.Now()
	return &ATM{
		AtmID:         GenerateUUIDWithSuffix("atm"),
		Location:      location,
		Active:        true,
		Online:        true,
		CashAvailable: true,
		LastHeartbeat: now,
		CreatedAt:     now,
	}
}

// IsAvailable reports whether the terminal can accept a transaction right now.
func (a *ATM) IsAvailable(now time.Time) bool {
	return a.Active && a.Online && a.CashAvailable && now.Sub(a.LastHeartbeat) <= HeartbeatWindow
}

// Heartbeat records a liveness signal.
func (a *ATM) Heartbeat() {
	a.LastHeartbeat = time.Now()
	a.Online = true
}
