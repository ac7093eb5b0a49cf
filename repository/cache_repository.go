package repository

import (
	"context"
	"time"
)

// CacheRepository stores short-lived string values. A missing or expired
// key reports false.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
