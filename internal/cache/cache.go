// Package cache stores raw provider payloads between identical requests.
package cache

import (
	"context"
	"time"
)

// Cache is a string key/value store with expiry. A miss returns ok=false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Nop never stores anything. Used when no REDIS_ADDR is configured.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, bool, error)        { return "", false, nil }
func (Nop) Set(context.Context, string, string, time.Duration) error { return nil }
