// Package app wires the ledger services from configuration. The API server
// and the maintenance worker share it so both run against the same stores,
// locks and numbering.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"erpledger/internal/config"
	corelock "erpledger/internal/core/lock"
	corenumerator "erpledger/internal/core/numerator"
	"erpledger/internal/core/tx"
	"erpledger/internal/domain"
	"erpledger/internal/domain/audit"
	"erpledger/internal/domain/consistency"
	"erpledger/internal/domain/masterdata"
	"erpledger/internal/domain/reports"
	"erpledger/internal/domain/workflow"
	"erpledger/internal/infrastructure/http/v1/handlers"
	"erpledger/internal/infrastructure/lock"
	"erpledger/internal/infrastructure/numerator"
	"erpledger/internal/infrastructure/storage/memory"
	"erpledger/internal/infrastructure/storage/postgres"
	"erpledger/internal/infrastructure/storage/postgres/record_repo"
	"erpledger/internal/infrastructure/storage/postgres/report_repo"
	"erpledger/pkg/logger"
)

// App holds the wired services.
type App struct {
	Stores    domain.Stores
	TxManager tx.Manager
	Locker    corelock.Locker
	// Pool is nil on the in-memory backend
	Pool      *postgres.Pool

	Maintainer *consistency.Maintainer
	MasterData *masterdata.Services
	Orders     *workflow.OrderService
	Invoices   *workflow.InvoiceService
	Reports    *reports.Service

	// Checks are pinged by the readiness endpoint, keyed by store name
	Checks map[string]handlers.Pinger

	closers []func()
}

// pingFunc adapts a function to handlers.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// backend is the storage-specific part of the wiring.
type backend struct {
	stores    domain.Stores
	txm       tx.Manager
	audit     audit.Recorder
	numerator corenumerator.Generator
	reports   reports.Repository
}

// New builds the application. Close releases pools and clients.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Checks: make(map[string]handlers.Pinger)}

	var (
		b   backend
		err error
	)
	if cfg.UseMemoryStore() {
		b = a.memoryBackend()
		log.Warnw("DATABASE_URL not set, using in-memory store")
	} else {
		b, err = a.postgresBackend(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		log.Infow("postgres store connected", "max_conns", cfg.Database.MaxConns)
	}

	a.Locker = corelock.NewKeyedMutex()
	if cfg.UseRedisLocks() {
		rcfg := lock.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.LockTTL,
		}
		rdb, err := lock.NewRedisClient(ctx, rcfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		a.Checks["redis"] = redisPing(rdb)
		a.Locker = lock.NewRedisLocker(rdb, rcfg)
		log.Infow("redis locks enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.LockTTL)
	}

	a.Stores = b.stores
	a.TxManager = b.txm
	a.Maintainer = consistency.New(consistency.Config{
		Stores:            b.stores,
		TxManager:         b.txm,
		Locker:            a.Locker,
		Audit:             b.audit,
		BackdateLimitDays: cfg.BackdateLimitDays,
		PriceTolerance:    cfg.PriceTolerance,
	})
	a.MasterData = masterdata.New(masterdata.Config{
		Stores:    b.stores,
		TxManager: b.txm,
		Locker:    a.Locker,
		Audit:     b.audit,
	})
	wf := workflow.Config{
		Maintainer: a.Maintainer,
		Numerator:  b.numerator,
		Audit:      b.audit,
	}
	a.Orders = workflow.NewOrderService(wf)
	a.Invoices = workflow.NewInvoiceService(wf)
	a.Reports = reports.NewService(b.reports)
	return a, nil
}

func (a *App) memoryBackend() backend {
	db := memory.NewDB()
	stores := memory.NewStores(db)
	return backend{
		stores:    stores,
		txm:       db,
		audit:     memory.NewAuditLog(db),
		numerator: memory.NewNumerator(),
		reports:   reports.NewStoreRepository(stores),
	}
}

func (a *App) postgresBackend(ctx context.Context, cfg *config.Config) (backend, error) {
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL, cfg.Database.MaxConns))
	if err != nil {
		return backend{}, fmt.Errorf("connect database: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	a.Checks["database"] = pool
	a.Pool = pool

	txm := postgres.NewTxManager(pool, cfg.Database.StatementTimeout)
	auditLog, err := postgres.NewAuditService(txm)
	if err != nil {
		return backend{}, fmt.Errorf("audit service: %w", err)
	}
	return backend{
		stores: record_repo.NewStores(txm),
		txm:    txm,
		audit:  auditLog,
		numerator: numerator.New(func(ctx context.Context) numerator.Querier {
			return txm.GetQuerier(ctx)
		}),
		reports: report_repo.NewReportRepo(txm),
	}, nil
}

func redisPing(rdb *redis.Client) pingFunc {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return rdb.Ping(ctx).Err()
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
