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
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/ArcInTower/atmconnect/config"
	"github.com/ArcInTower/atmconnect/database/mocks"
	"github.com/ArcInTower/atmconnect/model"
)

func newTestService(t *testing.T) (*Atmconnect, *mocks.MockDataSource) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		Redis:    config.RedisConfig{Dns: mr.Addr()},
		Security: config.SecurityConfig{MinWithdrawal: "10.00", MaxWithdrawal: "5000.00"},
	})

	mockDS := new(mocks.MockDataSource)
	service, err := NewAtmconnect(mockDS)
	require.NoError(t, err)
	return service, mockDS
}

func newScenarioCustomer(t *testing.T) *model.Customer {
	t.Helper()
	customer, err := model.NewCustomer(gofakeit.SSN(), "445566")
	require.NoError(t, err)
	require.NoError(t, customer.RegisterDevice("dev_1", "Pixel 9"))
	return customer
}

func newScenarioAccount(t *testing.T, customerID string) *model.Account {
	t.Helper()
	number, err := model.NewAccountNumber("1234567890")
	require.NoError(t, err)
	balance, err := model.NewMoneyFromString("5000.00", "USD")
	require.NoError(t, err)
	limit, err := model.NewMoneyFromString("2000.00", "USD")
	require.NoError(t, err)
	account, err := model.NewAccount(customerID, number, balance, limit)
	require.NoError(t, err)
	return account
}
