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

package database

import (
	"context"

	"github.com/ArcInTower/atmconnect/model"
)

// IDataSource defines the interface for data source operations, grouping the
// persistence surface the authorization core requires.
type IDataSource interface {
	customer
	account
	transaction
	atm
}

// customer defines methods for handling credential holders. Updates carry an
// optimistic version check so concurrent lockout transitions cannot be lost.
type customer interface {
	CreateCustomer(ctx context.Context, customer *model.Customer) (*model.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*model.Customer, error)
	GetCustomerByIdentityNumber(ctx context.Context, identityNumber string) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, customer *model.Customer) error
}

// account defines methods for handling accounts. UpdateAccount performs the
// same compare-and-swap on the version column.
type account interface {
	CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error)
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*model.Account, error)
	GetAccountsByCustomerID(ctx context.Context, customerID string) ([]*model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
}

// transaction defines methods for recording and reading authorization
// transactions. CommitTransactionCompletion persists a terminal state and its
// account mutation(s) atomically.
type transaction interface {
	RecordTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactionByRef(ctx context.Context, reference string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	CommitTransactionCompletion(ctx context.Context, txn *model.Transaction, accounts ...*model.Account) error
	GetPendingTransactionsByAccount(ctx context.Context, accountID string) ([]*model.Transaction, error)
}

// atm defines methods for the terminal registry.
type atm interface {
	RegisterATM(ctx context.Context, atm *model.ATM) (*model.ATM, error)
	GetATMByID(ctx context.Context, id string) (*model.ATM, error)
	UpdateATM(ctx context.Context, atm *model.ATM) error
}
