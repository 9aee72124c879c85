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
	"encoding/json"
	"fmt"

	"github.com/ArcInTower/atmconnect/internal/apierror"
	"github.com/ArcInTower/atmconnect/model"
)

func (d *Datasource) CreateCustomer(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	devicesJSON, err := json.Marshal(customer.Devices)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal devices", err)
	}

	_, err = d.Conn.ExecContext(ctx,
		`INSERT INTO customers(customer_id,identity_number,pin_hash,pin_salt,active,failed_attempts,locked_until,devices,version,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		customer.CustomerID, customer.IdentityNumber, customer.Pin.Hash(), customer.Pin.Salt(),
		customer.Active, customer.FailedAttempts, nullableTime(customer.LockedUntil), devicesJSON,
		customer.Version, customer.CreatedAt,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create customer", err)
	}
	return customer, nil
}

func (d *Datasource) GetCustomerByID(ctx context.Context, id string) (*model.Customer, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT customer_id, identity_number, pin_hash, pin_salt, active, failed_attempts, locked_until, devices, version, created_at
		FROM customers WHERE customer_id = $1
	`, id)
	return scanCustomer(row, id)
}

func (d *Datasource) GetCustomerByIdentityNumber(ctx context.Context, identityNumber string) (*model.Customer, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT customer_id, identity_number, pin_hash, pin_salt, active, failed_attempts, locked_until, devices, version, created_at
		FROM customers WHERE identity_number = $1
	`, identityNumber)
	return scanCustomer(row, identityNumber)
}

func scanCustomer(row *sql.Row, ref string) (*model.Customer, error) {
	customer := &model.Customer{}
	var pinHash, pinSalt, devicesJSON []byte
	var lockedUntil sql.NullTime

	err := row.Scan(&customer.CustomerID, &customer.IdentityNumber, &pinHash, &pinSalt,
		&customer.Active, &customer.FailedAttempts, &lockedUntil, &devicesJSON,
		&customer.Version, &customer.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Customer '%s' not found", ref), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve customer", err)
	}

	pin, err := model.ReconstructPin(pinHash, pinSalt)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to reconstruct pin material", err)
	}
	customer.Pin = pin
	if lockedUntil.Valid {
		customer.LockedUntil = lockedUntil.Time
	}
	if err := json.Unmarshal(devicesJSON, &customer.Devices); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal devices", err)
	}
	return customer, nil
}

// UpdateCustomer persists the mutable customer state under an optimistic
// version check. A stale version means a concurrent authentication attempt
// got there first; the caller must re-read and retry.
func (d *Datasource) UpdateCustomer(ctx context.Context, customer *model.Customer) error {
	devicesJSON, err := json.Marshal(customer.Devices)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal devices", err)
	}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE customers
		SET pin_hash = $1, pin_salt = $2, active = $3, failed_attempts = $4, locked_until = $5, devices = $6, version = version + 1
		WHERE customer_id = $7 AND version = $8
	`, customer.Pin.Hash(), customer.Pin.Salt(), customer.Active, customer.FailedAttempts,
		nullableTime(customer.LockedUntil), devicesJSON, customer.CustomerID, customer.Version)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update customer", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update customer", err)
	}
	if affected == 0 {
		return apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("Customer '%s' was modified concurrently", customer.CustomerID), nil)
	}
	customer.Version++
	return nil
}
