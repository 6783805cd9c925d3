// Package redis is a db.Store backed by Redis or Valkey through rueidis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/kbase/internal/db"
)

var _ db.Store = (*Store)(nil)

const defaultScanCount = 100

// Config holds connection parameters. Valkey accepts the same settings.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// ScanCount is the COUNT hint per SCAN page. Zero means 100.
	ScanCount int
}

// Store talks to the server over a single multiplexed rueidis client.
type Store struct {
	client    rueidis.Client
	scanCount int64
}

// NewStore connects to the configured addresses. Client-side caching is
// off: records are rewritten in place and must be read fresh.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect %v: %w", cfg.Addrs, err)
	}
	return newStore(client, cfg.ScanCount), nil
}

func newStore(client rueidis.Client, scanCount int) *Store {
	if scanCount <= 0 {
		scanCount = defaultScanCount
	}
	return &Store{client: client, scanCount: int64(scanCount)}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings every 100ms until the server answers or timeout
// expires. The first ping is sent immediately.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var last error
	for {
		if last = s.Ping(ctx); last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not ready after %s: %w", timeout, errors.Join(ctx.Err(), last))
		case <-ticker.C:
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}
