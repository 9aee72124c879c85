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

package atmconnect

import (
	"context"

	"github.com/ArcInTower/atmconnect/model"
)

// RegisterATM enrolls a terminal into the availability registry.
func (a *Atmconnect) RegisterATM(ctx context.Context, location string) (*model.ATM, error) {
	return a.datasource.RegisterATM(ctx, model.NewATM(location))
}

// GetATM retrieves a terminal by id.
func (a *Atmconnect) GetATM(ctx context.Context, atmID string) (*model.ATM, error) {
	return a.datasource.GetATMByID(ctx, atmID)
}

// RecordHeartbeat records a liveness signal from a terminal, optionally
// updating its cash state.
func (a *Atmconnect) RecordHeartbeat(ctx context.Context, atmID string, cashAvailable bool) (*model.ATM, error) {
	atm, err := a.datasource.GetATMByID(ctx, atmID)
	if err != nil {
		return nil, err
	}
	atm.Heartbeat()
	atm.CashAvailable = cashAvailable
	if err := a.datasource.UpdateATM(ctx, atm); err != nil {
		return nil, err
	}
	return atm, nil
}
