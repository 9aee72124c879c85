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

func (d *Datasource) RegisterATM(ctx context.Context, atm *model.ATM) (*model.ATM, error) {
	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO atms(atm_id,location,active,online,cash_available,last_heartbeat,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		atm.AtmID, atm.Location, atm.Active, atm.Online, atm.CashAvailable, atm.LastHeartbeat, atm.CreatedAt,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to register atm", err)
	}
	return atm, nil
}

func (d *Datasource) GetATMByID(ctx context.Context, id string) (*model.ATM, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT atm_id, location, active, online, cash_available, last_heartbeat, created_at
		FROM atms WHERE atm_id = $1
	`, id)

	atm := &model.ATM{}
	err := row.Scan(&atm.AtmID, &atm.Location, &atm.Active, &atm.Online, &atm.CashAvailable,
		&atm.LastHeartbeat, &atm.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("ATM '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve atm", err)
	}
	return atm, nil
}

func (d *Datasource) UpdateATM(ctx context.Context, atm *model.ATM) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE atms
		SET active = $1, online = $2, cash_available = $3, last_heartbeat = $4
		WHERE atm_id = $5
	`, atm.Active, atm.Online, atm.CashAvailable, atm.LastHeartbeat, atm.AtmID)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update atm", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update atm", err)
	}
	if affected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("ATM '%s' not found", atm.AtmID), nil)
	}
	return nil
}
