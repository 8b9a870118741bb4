/*
Copyright 2025 OCMS Project Authors.

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

package redlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrHeld signals the key is leased by another holder. Job runners treat
// it as "someone else is running this job" and skip silently.
var ErrHeld = errors.New("lock already held")

type Locker struct {
	client redis.UniversalClient
	key    string
	value  string // Used for ensuring that only the lock holder can unlock or renew the lock
}

func NewLocker(client redis.UniversalClient, key, value string) *Locker {
	return &Locker{
		client: client,
		key:    key,
		value:  value,
	}
}

func (l *Locker) Lock(ctx context.Context, timeout time.Duration) error {
	success, err := l.client.SetNX(ctx, l.key, l.value, timeout).Result()
	if err != nil {
		return err
	}
	if !success {
		return fmt.Errorf("lock for key %s is already held: %w", l.key, ErrHeld)
	}
	return nil
}

func (l *Locker) Unlock(ctx context.Context) error {
	script := "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("unlock failed, either lock expired or you're not the lock holder for key %s", l.key)
	}
	return nil
}

func (l *Locker) ExtendLock(ctx context.Context, extension time.Duration) error {
	script := "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('pexpire', KEYS[1], ARGV[2]) else return 0 end"
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.value, fmt.Sprintf("%d", extension.Milliseconds())).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("lock extension failed for key %s, either lock expired or you're not the holder", l.key)
	}
	return nil
}

// Lease is a job execution lease. Acquire takes the lock for the maximum
// hold, so a crashed run frees itself eventually. Release keeps the key
// alive until the minimum hold has passed, so a job finishing in seconds
// cannot be re-fired immediately by a node with a fast clock.
type Lease struct {
	locker     *Locker
	minHold    time.Duration
	maxHold    time.Duration
	acquiredAt time.Time
}

func NewLease(client redis.UniversalClient, key, value string, minHold, maxHold time.Duration) *Lease {
	return &Lease{
		locker:  NewLocker(client, key, value),
		minHold: minHold,
		maxHold: maxHold,
	}
}

// Acquire takes the lease for the maximum hold. Returns an error wrapping
// ErrHeld when another holder has it.
func (l *Lease) Acquire(ctx context.Context) error {
	if err := l.locker.Lock(ctx, l.maxHold); err != nil {
		return err
	}
	l.acquiredAt = time.Now()
	return nil
}

// Release ends the lease. If the minimum hold has not yet elapsed the key
// is left in place with its expiry shrunk to the remainder; otherwise it
// is deleted outright.
func (l *Lease) Release(ctx context.Context) error {
	remaining := l.minHold - time.Since(l.acquiredAt)
	if remaining > 0 {
		return l.locker.ExtendLock(ctx, remaining)
	}
	return l.locker.Unlock(ctx)
}
