package kbase

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/db"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver      db.Driver
	addrs       []string
	password    string
	postgresURL string

	rankExcluded bool
	maxBatchSize int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithMemory keeps everything in process memory. Nothing survives Close.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = db.DriverMemory
	})
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = db.DriverValkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = db.DriverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithPostgres stores records in PostgreSQL and pushes search filters down
// to SQL. Collection schemas stay in process memory.
func WithPostgres(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = db.DriverPostgres
		c.postgresURL = url
	})
}

// WithExcludedTermRanking controls whether -excluded terms add to a hit's
// score. Enabled by default.
func WithExcludedTermRanking(enabled bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.rankExcluded = enabled
	})
}

// WithMaxBatchSize sets the maximum number of items per batch operation.
// Default: 100.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
