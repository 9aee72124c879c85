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
	"github.com/redis/go-redis/v9"

	"github.com/ArcInTower/atmconnect/auth"
	"github.com/ArcInTower/atmconnect/config"
	"github.com/ArcInTower/atmconnect/database"
	"github.com/ArcInTower/atmconnect/internal/monitor"
	redis_db "github.com/ArcInTower/atmconnect/internal/redis-db"
	"github.com/ArcInTower/atmconnect/internal/vault"
)

// Atmconnect is the authorization core's composition root: it wires the
// repository, the crypto vault, the authentication dispatcher, the security
// monitor and the delivery queue behind the public service operations.
type Atmconnect struct {
	datasource database.IDataSource
	vault      vault.Provider
	dispatcher *auth.Dispatcher
	monitor    monitor.SecurityMonitor
	queue      *Queue
	redis      redis.UniversalClient
	challenges *redisChallengeStore
}

// NewAtmconnect initializes the service from the loaded configuration. A
// service that cannot mint keys must not come up, so crypto setup failure is
// fatal.
func NewAtmconnect(db database.IDataSource) (*Atmconnect, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{configuration.Redis.Dns})
	if err != nil {
		return nil, err
	}
	vaultService, err := vault.NewService()
	if err != nil {
		return nil, err
	}

	queue := NewQueue(configuration)
	var securityMonitor monitor.SecurityMonitor = monitor.NewLogMonitor()
	if configuration.Monitor.WebhookUrl != "" {
		securityMonitor = NewQueueMonitor(queue)
	}

	challenges := newRedisChallengeStore(redisClient.Client())
	pinStrategy := auth.NewPinStrategy(securityMonitor)
	dispatcher := auth.NewDispatcher(
		auth.NewMultiFactorStrategy(pinStrategy, vaultService, challenges),
		auth.NewBiometricStrategy(nil, securityMonitor),
		pinStrategy,
	)

	return &Atmconnect{
		datasource: db,
		vault:      vaultService,
		dispatcher: dispatcher,
		monitor:    securityMonitor,
		queue:      queue,
		redis:      redisClient.Client(),
		challenges: challenges,
	}, nil
}

// Vault exposes the crypto provider, e.g. for the pairing handshake surface.
func (a *Atmconnect) Vault() vault.Provider {
	return a.vault
}
