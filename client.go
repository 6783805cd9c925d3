package kbase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/kbase/internal/db"
	"github.com/kailas-cloud/kbase/internal/db/memory"
	dbRedis "github.com/kailas-cloud/kbase/internal/db/redis"
	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	collectionrepo "github.com/kailas-cloud/kbase/internal/repository/collection"
	"github.com/kailas-cloud/kbase/internal/repository/postgres"
	recordrepo "github.com/kailas-cloud/kbase/internal/repository/record"
	collectionuc "github.com/kailas-cloud/kbase/internal/usecase/collection"
	recorduc "github.com/kailas-cloud/kbase/internal/usecase/record"
	searchuc "github.com/kailas-cloud/kbase/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// recordStore is satisfied by the hash-backed and PostgreSQL record backends.
type recordStore interface {
	recorduc.Repository
	searchuc.Source
	collectionuc.RecordPurger
}

// Client is the kbase entry point. It is safe for concurrent use.
type Client struct {
	store     db.Store
	pg        *postgres.DB
	collSvc   *collectionuc.Service
	recSvc    *recorduc.Service
	searchSvc *searchuc.Service
	obs       *observer
}

// New creates a Client and connects to its storage.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{rankExcluded: true}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("kbase: storage required (use WithMemory, WithRedis, WithValkey or WithPostgres)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("kbase: database not ready: %w", err)
	}

	c := &Client{store: store, obs: obs}
	var records recordStore = recordrepo.New(store)
	if cfg.driver == db.DriverPostgres {
		c.pg, err = postgres.Connect(ctx, postgres.DefaultConfig(cfg.postgresURL))
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("kbase: %w", err)
		}
		if err := c.pg.InitSchema(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("kbase: %w", err)
		}
		records = postgres.NewSource(c.pg)
	}

	c.wire(records, cfg)
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case db.DriverMemory, db.DriverPostgres:
		return memory.NewStore(), nil
	case db.DriverRedis, db.DriverValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("kbase: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("kbase: unknown driver %q", cfg.driver)
	}
}

func (c *Client) wire(records recordStore, cfg *clientConfig) {
	collRepo := collectionrepo.New(c.store)

	c.collSvc = collectionuc.New(collRepo, records)
	c.recSvc = recorduc.New(records, collRepo)
	if cfg.maxBatchSize > 0 {
		c.recSvc = c.recSvc.WithMaxBatchSize(cfg.maxBatchSize)
	}
	c.searchSvc = searchuc.New(records, collRepo, searchuc.WithExcludedTermRanking(cfg.rankExcluded))
}

// Close releases all resources.
func (c *Client) Close() {
	if c.pg != nil {
		_ = c.pg.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks storage connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if c.pg != nil {
		if err = c.pg.Ping(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
	}
	return nil
}

// Collections lists every collection.
func (c *Client) Collections(ctx context.Context) (_ []CollectionInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("collection.list", start, err) }()

	cols, err := c.collSvc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	out := make([]CollectionInfo, len(cols))
	for i, col := range cols {
		out[i] = fromInternalCollection(col)
	}
	return out, nil
}

// DropCollection deletes a collection and every record in it.
func (c *Client) DropCollection(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("collection.drop", start, err) }()

	if err = c.collSvc.Delete(ctx, name); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return nil
}

func fromInternalCollection(col domcol.Collection) CollectionInfo {
	fields := make([]FieldInfo, len(col.Fields()))
	for i, f := range col.Fields() {
		fields[i] = FieldInfo{Name: f.Name(), Type: FieldType(f.FieldType())}
	}
	return CollectionInfo{
		Name:         col.Name(),
		Fields:       fields,
		SearchFields: col.SearchFields(),
		Ordering:     col.OrderingSpecs(),
		Revision:     col.Revision(),
	}
}
