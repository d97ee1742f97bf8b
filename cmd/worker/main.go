// Package main is the entry point for the ledger maintenance worker. Each
// sweep marks past-due invoices overdue and rewrites stale aggregates.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"erpledger/internal/app"
	"erpledger/internal/config"
	"erpledger/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer application.Close()

	worker := NewWorker(application, cfg.WorkerInterval, log)
	if *once {
		if err := worker.Sweep(ctx); err != nil {
			log.Errorw("sweep failed", "error", err)
			os.Exit(1)
		}
		return
	}

	log.Infow("starting erpledger worker", "interval", cfg.WorkerInterval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker runs maintenance sweeps on a fixed interval.
type Worker struct {
	app      *app.App
	interval time.Duration
	log      *logger.Logger
}

// NewWorker creates a worker.
func NewWorker(a *app.App, interval time.Duration, log *logger.Logger) *Worker {
	return &Worker{
		app:      a,
		interval: interval,
		log:      log.WithComponent("worker"),
	}
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
			w.log.Errorw("sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep marks overdue invoices, then recomputes every derived aggregate.
func (w *Worker) Sweep(ctx context.Context) error {
	start := time.Now()

	overdue, err := w.app.Invoices.MarkOverdue(ctx)
	if err != nil {
		return fmt.Errorf("mark overdue: %w", err)
	}

	report, err := w.app.Maintainer.RecomputeAll(ctx)
	if err != nil {
		return fmt.Errorf("recompute: %w", err)
	}

	w.log.Infow("sweep completed",
		"overdue_marked", overdue,
		"sales_orders_changed", report.SalesOrders.Changed,
		"purchase_orders_changed", report.PurchaseOrders.Changed,
		"invoices_changed", report.Invoices.Changed,
		"accounts_changed", report.Accounts.Changed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if w.app.Pool != nil {
		w.app.Pool.LogStats(ctx)
	}
	return nil
}
