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

	"github.com/ArcInTower/atmconnect/internal/apierror"
	"github.com/ArcInTower/atmconnect/model"
)

func (d *Datasource) RecordTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO transactions(transaction_id,type,amount,currency,status,account_id,atm_id,destination_account_id,device_id,otp,otp_verified,reference,integrity_hash,created_at,completed_at,failure_reason)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		txn.TransactionID, txn.Type, txn.Amount, txn.Currency, txn.Status, txn.AccountID,
		txn.AtmID, txn.DestinationAccountID, txn.DeviceID, txn.Otp, txn.OtpVerified,
		txn.Reference, txn.IntegrityHash, txn.CreatedAt, txn.CompletedAt, txn.FailureReason,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record transaction", err)
	}
	return txn, nil
}

const transactionColumns = `transaction_id, type, amount, currency, status, account_id, atm_id, destination_account_id, device_id, otp, otp_verified, reference, integrity_hash, created_at, completed_at, failure_reason`

func (d *Datasource) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	row := d.Conn.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE transaction_id = $1`, id)
	return scanTransaction(row, id)
}

func (d *Datasource) GetTransactionByRef(ctx context.Context, reference string) (*model.Transaction, error) {
	row := d.Conn.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE reference = $1`, reference)
	return scanTransaction(row, reference)
}

func scanTransaction(row *sql.Row, ref string) (*model.Transaction, error) {
	txn, err := scanTransactionFields(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction '%s' not found", ref), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transaction", err)
	}
	return txn, nil
}

func scanTransactionFields(scanner rowScanner) (*model.Transaction, error) {
	txn := &model.Transaction{}
	var atmID, destinationID, deviceID, otp, hash, failureReason sql.NullString
	var completedAt sql.NullTime

	err := scanner.Scan(&txn.TransactionID, &txn.Type, &txn.Amount, &txn.Currency, &txn.Status,
		&txn.AccountID, &atmID, &destinationID, &deviceID, &otp, &txn.OtpVerified,
		&txn.Reference, &hash, &txn.CreatedAt, &completedAt, &failureReason)
	if err != nil {
		return nil, err
	}
	txn.AtmID = atmID.String
	txn.DestinationAccountID = destinationID.String
	txn.DeviceID = deviceID.String
	txn.Otp = otp.String
	txn.IntegrityHash = hash.String
	txn.FailureReason = failureReason.String
	if completedAt.Valid {
		txn.CompletedAt = &completedAt.Time
	}
	return txn, nil
}

func (d *Datasource) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	return updateTransactionRow(ctx, d.Conn, txn)
}

func updateTransactionRow(ctx context.Context, exec execer, txn *model.Transaction) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, otp_verified = $2, completed_at = $3, failure_reason = $4
		WHERE transaction_id = $5
	`, txn.Status, txn.OtpVerified, txn.CompletedAt, txn.FailureReason, txn.TransactionID)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update transaction", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update transaction", err)
	}
	if affected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound,
			fmt.Sprintf("Transaction '%s' not found", txn.TransactionID), nil)
	}
	return nil
}

// CommitTransactionCompletion persists a completed transaction's terminal
// state and the account mutation(s) it caused in a single database
// transaction. A partial failure rolls everything back, so the stored state
// can never show a debited account behind a still-PENDING transaction.
func (d *Datasource) CommitTransactionCompletion(ctx context.Context, txn *model.Transaction, accounts ...*model.Account) error {
	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, account := range accounts {
		if err := updateAccountRow(ctx, tx, account); err != nil {
			return err
		}
	}
	if err := updateTransactionRow(ctx, tx, txn); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	for _, account := range accounts {
		account.Version++
	}
	return nil
}

func (d *Datasource) GetPendingTransactionsByAccount(ctx context.Context, accountID string) ([]*model.Transaction, error) {
	rows, err := d.Conn.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE account_id = $1 AND status = $2 ORDER BY created_at DESC`,
		accountID, model.StatusPending)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve pending transactions", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var transactions []*model.Transaction
	for rows.Next() {
		txn, err := scanTransactionFields(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transaction", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve pending transactions", err)
	}
	return transactions, nil
}
