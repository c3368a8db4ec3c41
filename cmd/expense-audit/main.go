package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/log"
	"expensetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentAudit)
	logger.Info("Starting expense-audit", log.FieldBackend, cfg.DataBackend)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the audit consumer")
		os.Exit(1)
	}

	backendResult, err := cli.OpenStorage(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to open storage", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer backendResult.Close()

	auditWorker := worker.NewAuditWorker(backendResult.Storage, logger)
	if err := auditWorker.Load(context.Background()); err != nil {
		logger.Error("Failed to load audit ledger", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeExpenseEvents(gctx, auditWorker.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		auditWorker.Report(gctx, worker.DefaultReportInterval)
		return nil
	})

	err = g.Wait()
	if ctx.Err() != nil {
		<-done
	}
	if err != nil {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Audit consumer stopped")
}
