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

// CreateAccount opens an account for an existing customer.
func (a *Atmconnect) CreateAccount(ctx context.Context, customerID, accountNumber, currency, openingBalance, dailyLimit string) (*model.Account, error) {
	if _, err := a.datasource.GetCustomerByID(ctx, customerID); err != nil {
		return nil, err
	}
	number, err := model.NewAccountNumber(accountNumber)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	balance, err := model.NewMoneyFromString(openingBalance, currency)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	limit, err := model.NewMoneyFromString(dailyLimit, currency)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	account, err := model.NewAccount(customerID, number, balance, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	return a.datasource.CreateAccount(ctx, account)
}

// GetAccount retrieves an account by id.
func (a *Atmconnect) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	return a.datasource.GetAccountByID(ctx, accountID)
}

// GetCustomerAccounts lists the accounts owned by a customer.
func (a *Atmconnect) GetCustomerAccounts(ctx context.Context, customerID string) ([]*model.Account, error) {
	return a.datasource.GetAccountsByCustomerID(ctx, customerID)
}
