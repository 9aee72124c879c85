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
	"database/sql"
	"fmt"
	"time"

	"github.com/ArcInTower/atmconnect/internal/apierror"
	"github.com/ArcInTower/atmconnect/model"
)

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func (d *Datasource) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO accounts(account_id,customer_id,number,balance,currency,active,daily_withdrawal_limit,daily_withdrawn_amount,last_withdrawal_at,version,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		account.AccountID, account.CustomerID, account.Number.String(), account.Balance, account.Currency,
		account.Active, account.DailyWithdrawalLimit, account.DailyWithdrawnAmount,
		nullableTime(account.LastWithdrawalAt), account.Version, account.CreatedAt,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create account", err)
	}
	return account, nil
}

const accountColumns = `account_id, customer_id, number, balance, currency, active, daily_withdrawal_limit, daily_withdrawn_amount, last_withdrawal_at, version, created_at`

func (d *Datasource) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_id = $1`, id)
	return scanAccount(row, id)
}

func (d *Datasource) GetAccountByNumber(ctx context.Context, number string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE number = $1`, number)
	return scanAccount(row, number)
}

func (d *Datasource) GetAccountsByCustomerID(ctx context.Context, customerID string) ([]*model.Account, error) {
	rows, err := d.Conn.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE customer_id = $1`, customerID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve accounts", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var accounts []*model.Account
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve accounts", err)
	}
	return accounts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccountFields(scanner rowScanner) (*model.Account, error) {
	account := &model.Account{}
	var number string
	var lastWithdrawal sql.NullTime

	err := scanner.Scan(&account.AccountID, &account.CustomerID, &number, &account.Balance,
		&account.Currency, &account.Active, &account.DailyWithdrawalLimit, &account.DailyWithdrawnAmount,
		&lastWithdrawal, &account.Version, &account.CreatedAt)
	if err != nil {
		return nil, err
	}
	account.Number = model.AccountNumber(number)
	if lastWithdrawal.Valid {
		account.LastWithdrawalAt = lastWithdrawal.Time
	}
	return account, nil
}

func scanAccount(row *sql.Row, ref string) (*model.Account, error) {
	account, err := scanAccountFields(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account '%s' not found", ref), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve account", err)
	}
	return account, nil
}

func scanAccountRow(rows *sql.Rows) (*model.Account, error) {
	account, err := scanAccountFields(rows)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan account", err)
	}
	return account, nil
}

// UpdateAccount persists balance and daily-counter mutations under the same
// optimistic version check as customers: two completions racing on one
// account cannot both win.
func (d *Datasource) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := updateAccountRow(ctx, d.Conn, account); err != nil {
		return err
	}
	account.Version++
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// updateAccountRow runs the version-checked account UPDATE against a
// connection or an open transaction. The in-memory version is bumped by the
// caller once the whole unit is committed.
func updateAccountRow(ctx context.Context, exec execer, account *model.Account) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, active = $2, daily_withdrawal_limit = $3, daily_withdrawn_amount = $4, last_withdrawal_at = $5, version = version + 1
		WHERE account_id = $6 AND version = $7
	`, account.Balance, account.Active, account.DailyWithdrawalLimit, account.DailyWithdrawnAmount,
		nullableTime(account.LastWithdrawalAt), account.AccountID, account.Version)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update account", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update account", err)
	}
	if affected == 0 {
		return apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("Account '%s' was modified concurrently", account.AccountID), nil)
	}
	return nil
}
