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

	"github.com/ArcInTower/atmconnect/internal/apierror"
	"github.com/ArcInTower/atmconnect/model"
)

// CreateCustomer enrolls a new customer with a freshly derived PIN. The
// plaintext PIN is validated against the weak-PIN rules and never stored.
func (a *Atmconnect) CreateCustomer(ctx context.Context, identityNumber, plaintextPin string) (*model.Customer, error) {
	if existing, err := a.datasource.GetCustomerByIdentityNumber(ctx, identityNumber); err == nil && existing != nil {
		return nil, apierror.NewAPIError(apierror.ErrConflict, "a customer with this identity number already exists", nil)
	}
	customer, err := model.NewCustomer(identityNumber, plaintextPin)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	return a.datasource.CreateCustomer(ctx, customer)
}

// GetCustomer retrieves a customer by id.
func (a *Atmconnect) GetCustomer(ctx context.Context, customerID string) (*model.Customer, error) {
	return a.datasource.GetCustomerByID(ctx, customerID)
}

// RegisterDevice registers a mobile device against a customer. An already
// registered id is reactivated rather than duplicated.
func (a *Atmconnect) RegisterDevice(ctx context.Context, customerID, deviceID, name string) (*model.Customer, error) {
	customer, err := a.datasource.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := customer.RegisterDevice(deviceID, name); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	if err := a.datasource.UpdateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}
