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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestATMAvailability(t *testing.T) {
	atm := NewATM("Main Street 12")
	now := time.Now()
	assert.True(t, atm.IsAvailable(now))

	atm.Active = false
	assert.False(t, atm.IsAvailable(now))
	atm.Active = true

	atm.Online = false
	assert.False(t, atm.IsAvailable(now))
	atm.Online = true

	atm.CashAvailable = false
	assert.False(t, atm.IsAvailable(now))
	atm.CashAvailable = true

	// A stale heartbeat makes the terminal unavailable even though every
	// flag still says yes.
	assert.False(t, atm.IsAvailable(atm.LastHeartbeat.Add(HeartbeatWindow+time.Second)))
}

func TestHeartbeatRestoresAvailability(t *testing.T) {
	atm := NewATM("Main Street 12")
	atm.LastHeartbeat = time.Now().Add(-time.Hour)
	atm.Online = false
	assert.False(t, atm.IsAvailable(time.Now()))

	atm.Heartbeat()
	assert.True(t, atm.IsAvailable(time.Now()))
}
