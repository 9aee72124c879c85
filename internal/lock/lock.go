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

package lock

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ArcInTower/atmconnect/model"
)

const keyPrefix = "atmconnect:lock:"

// EntityLock serializes read-modify-write cycles on a single aggregate
// (customer lockout counters, account balances) across concurrent callers.
// It is a redis SetNX lock; the token ensures only the holder can release or
// extend it.
type EntityLock struct {
	client redis.UniversalClient
	key    string
	token  string
}

// New creates a lock scoped to one entity id, e.g. a customer or account id.
func New(client redis.UniversalClient, entityID string) *EntityLock {
	return &EntityLock{
		client: client,
		key:    keyPrefix + entityID,
		token:  model.GenerateUUIDWithSuffix("loc"),
	}
}

// Acquire takes the lock with a TTL, failing immediately if it is held.
func (l *EntityLock) Acquire(ctx context.Context, ttl time.Duration) error {
	ok, err := l.client.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("lock for %s is already held", l.key)
	}
	return nil
}

// AcquireWait retries Acquire with jittered sleeps until waitTimeout elapses.
func (l *EntityLock) AcquireWait(ctx context.Context, ttl, waitTimeout time.Duration) error {
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if err := l.Acquire(ctx, ttl); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(rand.Intn(50)+10) * time.Millisecond):
		}
	}
	return fmt.Errorf("failed to acquire lock for %s within %s", l.key, waitTimeout)
}

// Release drops the lock if this holder still owns it.
func (l *EntityLock) Release(ctx context.Context) error {
	script := "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.token).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("release failed for %s: lock expired or held by another owner", l.key)
	}
	return nil
}

// Extend pushes the TTL out if this holder still owns the lock.
func (l *EntityLock) Extend(ctx context.Context, extension time.Duration) error {
	script := "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('pexpire', KEYS[1], ARGV[2]) else return 0 end"
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.token, fmt.Sprintf("%d", extension.Milliseconds())).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("extend failed for %s: lock expired or held by another owner", l.key)
	}
	return nil
}
