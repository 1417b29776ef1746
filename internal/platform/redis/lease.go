// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// leasePrefix namespaces every lease key.
const leasePrefix = "passage:lease:"

// releaseScript deletes the key only while it still holds our owner token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// holdScript resets the TTL only while the key still holds our owner token.
var holdScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Lease is a held lock. Release gives it up early; otherwise it lapses after its TTL.
type Lease struct {
	client redis.UniversalClient
	key    string
	owner  string
}

// Release frees the lease if it is still owned by this holder.
func (l *Lease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis: release lease %s: %w", l.key, err)
	}
	return nil
}

// HoldFor keeps the lease for d from now instead of releasing it, so other
// holders stay locked out for the rest of that window. A non-positive d releases.
func (l *Lease) HoldFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return l.Release(ctx)
	}
	if err := holdScript.Run(ctx, l.client, []string{l.key}, l.owner, d.Milliseconds()).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis: hold lease %s: %w", l.key, err)
	}
	return nil
}

// Locker hands out named, expiring leases backed by SET NX PX.
type Locker struct {
	client redis.UniversalClient
}

// NewLocker wraps a Redis client.
func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{client: client}
}

// TryAcquire attempts to take the named lease for ttl.
// It returns (nil, nil) when another holder already owns it.
func (l *Locker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	key := leasePrefix + name
	owner := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	return &Lease{client: l.client, key: key, owner: owner}, nil
}
