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
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ArcInTower/atmconnect/auth"
	"github.com/ArcInTower/atmconnect/internal/apierror"
	"github.com/ArcInTower/atmconnect/internal/lock"
)

const (
	authLockTTL  = 30 * time.Second
	authLockWait = 5 * time.Second

	challengeTTL       = 5 * time.Minute
	challengeKeyPrefix = "atmconnect:challenge:"
)

// Authenticate runs a credential bundle through the strategy dispatcher. The
// customer's lockout state is mutated under a per-customer lock and persisted
// with an optimistic version check, so concurrent brute-force attempts cannot
// lose a lockout transition.
func (a *Atmconnect) Authenticate(ctx context.Context, creds auth.Credentials) (auth.Result, error) {
	customer, err := a.datasource.GetCustomerByIdentityNumber(ctx, creds.IdentityNumber)
	if err != nil {
		if apierror.IsCode(err, apierror.ErrNotFound) {
			// Run the dispatcher with no customer so the caller sees the
			// same coarse failure as a wrong PIN.
			return a.dispatcher.Authenticate(ctx, nil, creds), nil
		}
		return auth.Result{}, errors.Wrap(err, "failed to load customer")
	}

	locker := lock.New(a.redis, customer.CustomerID)
	if err := locker.AcquireWait(ctx, authLockTTL, authLockWait); err != nil {
		return auth.Result{}, errors.Wrap(err, "failed to serialize authentication attempt")
	}
	defer func() {
		if err := locker.Release(ctx); err != nil {
			logrus.Error(err)
		}
	}()

	before := customer.FailedAttempts
	lockedBefore := customer.LockedUntil
	result := a.dispatcher.Authenticate(ctx, customer, creds)

	// Persist only when the attempt actually moved the lockout state.
	if customer.FailedAttempts != before || !customer.LockedUntil.Equal(lockedBefore) {
		if err := a.datasource.UpdateCustomer(ctx, customer); err != nil {
			logrus.Errorf("failed to persist lockout state for %s: %v", customer.CustomerID, err)
			return auth.Result{}, errors.Wrap(err, "failed to persist authentication state")
		}
	}
	return result, nil
}

// RequestAuthChallenge mints a fresh OTP for multi-factor authentication,
// stores it against the customer for the challenge window and queues its
// out-of-band delivery.
func (a *Atmconnect) RequestAuthChallenge(ctx context.Context, identityNumber string) error {
	customer, err := a.datasource.GetCustomerByIdentityNumber(ctx, identityNumber)
	if err != nil {
		return err
	}
	otp, err := a.vault.GenerateOtp()
	if err != nil {
		return errors.Wrap(err, "failed to generate challenge otp")
	}
	if err := a.challenges.Issue(ctx, customer.CustomerID, otp); err != nil {
		return errors.Wrap(err, "failed to store challenge")
	}
	if err := a.queue.queueNotification(NotificationMessage{
		Kind:        "auth_challenge",
		Destination: customer.IdentityNumber,
		Payload:     map[string]interface{}{"otp": otp},
	}); err != nil {
		// Delivery trouble does not cancel the challenge window.
		logrus.Errorf("failed to queue challenge delivery: %v", err)
	}
	return nil
}

// redisChallengeStore keeps pending multi-factor OTPs in redis, expiring with
// the challenge window. It satisfies auth.ChallengeSource.
type redisChallengeStore struct {
	client redis.UniversalClient
}

func newRedisChallengeStore(client redis.UniversalClient) *redisChallengeStore {
	return &redisChallengeStore{client: client}
}

func (s *redisChallengeStore) Issue(ctx context.Context, customerID, otp string) error {
	return s.client.Set(ctx, challengeKeyPrefix+customerID, otp, challengeTTL).Err()
}

func (s *redisChallengeStore) PendingOtp(ctx context.Context, customerID string) (string, bool) {
	otp, err := s.client.Get(ctx, challengeKeyPrefix+customerID).Result()
	if err != nil {
		return "", false
	}
	// A challenge is single-use regardless of the verification outcome.
	s.client.Del(ctx, challengeKeyPrefix+customerID)
	return otp, true
}
