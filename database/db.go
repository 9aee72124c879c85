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
	"database/sql"
	"log"
	"sync"

	_ "github.com/lib/pq"

	"github.com/ArcInTower/atmconnect/config"
)

// Declare a package-level variable to hold the singleton instance.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	return GetDBConnection(configuration)
}

// GetDBConnection provides a global access point to the instance and
// initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		log.Printf("database connection error: %v", err)
		return nil, err
	}
	if err := createCustomerTable(db); err != nil {
		return nil, err
	}
	if err := createAccountTable(db); err != nil {
		return nil, err
	}
	if err := createTransactionTable(db); err != nil {
		return nil, err
	}
	if err := createATMTable(db); err != nil {
		return nil, err
	}
	return db, nil
}

func createCustomerTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS customers (
			id SERIAL PRIMARY KEY,
			customer_id TEXT NOT NULL UNIQUE,
			identity_number TEXT NOT NULL UNIQUE,
			pin_hash BYTEA NOT NULL,
			pin_salt BYTEA NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			failed_attempts INT NOT NULL DEFAULT 0,
			locked_until TIMESTAMP,
			devices JSONB NOT NULL DEFAULT '[]',
			version BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func createAccountTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			account_id TEXT NOT NULL UNIQUE,
			customer_id TEXT NOT NULL REFERENCES customers(customer_id),
			number TEXT NOT NULL UNIQUE,
			balance NUMERIC NOT NULL,
			currency TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			daily_withdrawal_limit NUMERIC NOT NULL,
			daily_withdrawn_amount NUMERIC NOT NULL DEFAULT 0,
			last_withdrawal_at TIMESTAMP,
			version BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func createTransactionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id SERIAL PRIMARY KEY,
			transaction_id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			amount NUMERIC NOT NULL DEFAULT 0,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			account_id TEXT NOT NULL REFERENCES accounts(account_id),
			atm_id TEXT,
			destination_account_id TEXT,
			device_id TEXT,
			otp TEXT,
			otp_verified BOOLEAN NOT NULL DEFAULT FALSE,
			reference TEXT NOT NULL UNIQUE,
			integrity_hash TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMP,
			failure_reason TEXT
		)
	`)
	return err
}

func createATMTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS atms (
			id SERIAL PRIMARY KEY,
			atm_id TEXT NOT NULL UNIQUE,
			location TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			online BOOLEAN NOT NULL DEFAULT TRUE,
			cash_available BOOLEAN NOT NULL DEFAULT TRUE,
			last_heartbeat TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	return err
}
