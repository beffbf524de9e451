// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package runlock provides a Redis-backed single-flight guard so that two
// concurrent sync invocations cannot interleave the read-merge-write cycle.
package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL bounds how long a crashed run can hold the lock.
	DefaultTTL = 30 * time.Minute

	lockKey = "investorsync:run-lock"
)

// Lock is a single-flight run guard.
type Lock struct {
	rdb   *redis.Client
	ttl   time.Duration
	token string
}

// NewLock creates a run lock backed by Redis.
func NewLock(rdb *redis.Client) *Lock {
	return &Lock{
		rdb: rdb,
		ttl: DefaultTTL,
	}
}

// Acquire attempts to take the lock. Returns false if another run holds it.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.New().String()

	// SET NX = set only if key does not exist. Returns true if the key was set.
	set, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("run lock SETNX: %w", err)
	}
	if set {
		l.token = token
	}
	return set, nil
}

// Release frees the lock if this instance still holds it. A lock that
// expired and was re-acquired elsewhere is left alone.
func (l *Lock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}

	current, err := l.rdb.Get(ctx, lockKey).Result()
	if err == redis.Nil {
		l.token = ""
		return nil
	}
	if err != nil {
		return fmt.Errorf("run lock GET: %w", err)
	}
	if current != l.token {
		l.token = ""
		return nil
	}

	if err := l.rdb.Del(ctx, lockKey).Err(); err != nil {
		return fmt.Errorf("run lock DEL: %w", err)
	}
	l.token = ""
	return nil
}
