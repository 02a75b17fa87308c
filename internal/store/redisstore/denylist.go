// Package redisstore keeps revoked token ids in Redis so every API replica
// sees a logout.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
)

const defaultPrefix = "ems:revoked:"

var _ auth.Denylist = (*Denylist)(nil)

// Connect creates a client and verifies the server answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	return client, nil
}

// Denylist implements auth.Denylist with one expiring key per token id.
type Denylist struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client, prefix: defaultPrefix, now: time.Now}
}

// Revoke marks tokenID revoked until the given instant. Past instants are ignored.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.prefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: revoke: %w", err)
	}
	return nil
}

func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: lookup: %w", err)
	}
	return n > 0, nil
}

// Check pings Redis; used by the readiness probe.
func (d *Denylist) Check(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}
