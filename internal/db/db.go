package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	HashStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Hash is a key and the complete field set it should hold.
type Hash struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based key-value operations.
// HGetAll of a missing key returns an empty map, not an error.
//
// HSet merges fields into an existing hash. Replace swaps each hash for
// exactly the given fields, so fields absent from the new set disappear.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Replace(ctx context.Context, hashes ...Hash) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Driver names a Store backend.
type Driver string

// Supported drivers. Valkey speaks the Redis protocol and shares its Store.
const (
	DriverMemory   Driver = "memory"
	DriverRedis    Driver = "redis"
	DriverValkey   Driver = "valkey"
	DriverPostgres Driver = "postgres"
)

// IsValid reports whether d is a known driver.
func (d Driver) IsValid() bool {
	switch d {
	case DriverMemory, DriverRedis, DriverValkey, DriverPostgres:
		return true
	}
	return false
}
