package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/store"
)

type pinger interface {
	Ping(context.Context) error
}

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting expensetracker", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)

	backendResult, err := cli.OpenStorage(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to open storage", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := backendResult.Close(); err != nil {
			logger.Error("Failed to close storage", log.FieldError, err)
		}
	}()

	expenseOpts := []store.ExpenseOption{store.WithLogger(logger)}
	if cfg.EventsEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		expenseOpts = append(expenseOpts, store.WithNotifier(amqp.NewPublisher(amqpClient)))
		logger.Info("Expense events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Expense events disabled - no AMQP_URL provided")
	}

	ctx := context.Background()
	expenses := store.NewExpenseStore(backendResult.Storage, expenseOpts...)
	res := expenses.LoadFromStorage(ctx)
	switch res.Status {
	case store.LoadOK, store.LoadMissing:
		logger.Info("Expenses loaded", log.FieldOperation, log.OpLoad, "status", res.Status, log.FieldCount, res.Count)
	default:
		logger.Warn("Expenses reset after load failure", log.FieldOperation, log.OpLoad, "status", res.Status, log.FieldError, res.Err)
	}

	theme := store.NewThemeStore(backendResult.Storage, store.NewElement(), store.AmbientFromConfig(cfg.ColorScheme),
		store.WithThemeLogger(logger))
	theme.Initialize(ctx)

	opts := []apphttp.Option{
		apphttp.WithLogger(logger),
		apphttp.WithRateLimit(cfg.RateLimitPerMin),
	}
	if p, ok := backendResult.Storage.(pinger); ok {
		opts = append(opts, apphttp.WithReadinessCheck("storage", p.Ping))
	}
	srv := apphttp.NewServer(":"+cfg.Port, expenses, theme, opts...)

	runCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if runCtx.Err() != nil {
			<-done
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
