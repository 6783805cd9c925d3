package main

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/config"
	"github.com/kailas-cloud/kbase/internal/db"
	"github.com/kailas-cloud/kbase/internal/db/memory"
	dbRedis "github.com/kailas-cloud/kbase/internal/db/redis"
	"github.com/kailas-cloud/kbase/internal/domain"
	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
	logpkg "github.com/kailas-cloud/kbase/internal/logger"
	"github.com/kailas-cloud/kbase/internal/metrics"
	collectionrepo "github.com/kailas-cloud/kbase/internal/repository/collection"
	"github.com/kailas-cloud/kbase/internal/repository/postgres"
	recordrepo "github.com/kailas-cloud/kbase/internal/repository/record"
	chiTransport "github.com/kailas-cloud/kbase/internal/transport/chi"
	collectionuc "github.com/kailas-cloud/kbase/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/kbase/internal/usecase/health"
	recorduc "github.com/kailas-cloud/kbase/internal/usecase/record"
	searchuc "github.com/kailas-cloud/kbase/internal/usecase/search"
	"github.com/kailas-cloud/kbase/internal/version"
)

// recordStore is satisfied by both record backends.
type recordStore interface {
	recorduc.Repository
	searchuc.Source
	collectionuc.RecordPurger
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, logpkg.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kbase API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	domain.KeyPrefix = cfg.Storage.KeyPrefix
	ctx := context.Background()

	// Schemas always live in the hash store; records follow the driver.
	var store db.Store
	switch db.Driver(cfg.Database.Driver) {
	case db.DriverRedis, db.DriverValkey:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Database.Addrs,
			Username:  cfg.Database.Username,
			Password:  cfg.Database.Password,
			DB:        cfg.Database.DB,
			ScanCount: cfg.Database.ScanCount,
		})
	case db.DriverMemory, db.DriverPostgres:
		store = memory.NewStore()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	pingers := map[string]healthuc.Pinger{"store": store}

	var records recordStore = recordrepo.New(store)
	if db.Driver(cfg.Database.Driver) == db.DriverPostgres {
		pgCfg := postgres.DefaultConfig(cfg.Database.URL)
		pgCfg.Table = cfg.Database.Table
		conn, err := postgres.Connect(ctx, pgCfg)
		if err != nil {
			logger.Fatal("Failed to connect to postgres", zap.Error(err))
		}
		defer conn.Close()
		if err := conn.InitSchema(ctx); err != nil {
			logger.Fatal("Failed to initialize postgres schema", zap.Error(err))
		}
		records = postgres.NewSource(conn)
		pingers["records"] = conn
	}
	logger.Info("Connected to database")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	collRepo := collectionrepo.New(store)

	collSvc := collectionuc.New(collRepo, records)
	recSvc := recorduc.New(records, collRepo).WithMaxBatchSize(cfg.Search.MaxBatchSize)
	searchSvc := searchuc.New(records, collRepo,
		searchuc.WithExcludedTermRanking(cfg.Search.RankExcluded()),
		searchuc.WithRecorder(metrics.SearchRecorder{}),
	)
	healthSvc := healthuc.New(pingers)
	logger.Debug("Health checks registered", zap.Strings("components", healthSvc.Components()))

	if err := registerCollections(ctx, cfg.Collections, collSvc, recSvc, logger); err != nil {
		logger.Fatal("Failed to register collections", zap.Error(err))
	}

	server := chiTransport.NewServer(collSvc, recSvc, searchSvc, healthSvc, logger).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.NewHTTP(prometheus.DefaultRegisterer).Middleware("/metrics"))
	chiTransport.Handler(server, chiTransport.Options{BaseRouter: r})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// registerCollections ensures every configured collection exists with its
// declared schema and upserts its seed records.
func registerCollections(
	ctx context.Context,
	cols []config.CollectionConfig,
	collSvc *collectionuc.Service,
	recSvc *recorduc.Service,
	logger *zap.Logger,
) error {
	for _, cc := range cols {
		fields := make([]field.Field, len(cc.Fields))
		for i, fc := range cc.Fields {
			f, err := field.New(fc.Name, field.Type(fc.Type))
			if err != nil {
				return fmt.Errorf("collection %s: %w", cc.Name, err)
			}
			fields[i] = f
		}

		col, err := domcol.New(cc.Name, fields, cc.SearchFields, cc.Ordering)
		if err != nil {
			return fmt.Errorf("collection %s: %w", cc.Name, err)
		}
		if _, err := collSvc.Ensure(ctx, col); err != nil {
			return fmt.Errorf("ensure collection %s: %w", cc.Name, err)
		}

		if len(cc.Seed) == 0 {
			continue
		}
		items := make([]recorduc.Item, len(cc.Seed))
		for i, seed := range cc.Seed {
			values := maps.Clone(seed)
			id := values[domcol.IDField]
			delete(values, domcol.IDField)
			items[i] = recorduc.Item{ID: id, Fields: values}
		}
		for _, res := range recSvc.BatchUpsert(ctx, cc.Name, items) {
			if res.Err() != nil {
				logger.Warn("Seed record rejected",
					zap.String("collection", cc.Name),
					zap.String("id", res.ID()),
					zap.Error(res.Err()),
				)
			}
		}
		logger.Info("Collection registered",
			zap.String("collection", cc.Name),
			zap.Int("seed", len(items)),
		)
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.Attach(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
