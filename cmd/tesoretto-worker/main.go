package main

import (
	"context"
	"errors"
	"os"
	"time"

	"tesoretto/internal/amqp"
	"tesoretto/internal/budget"
	"tesoretto/internal/cli"
	"tesoretto/internal/config"
	"tesoretto/internal/export"
	"tesoretto/internal/gamification"
	applog "tesoretto/internal/log"
	gsheet "tesoretto/internal/sheets/google"
	"tesoretto/internal/storage"
	"tesoretto/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	logger.Info("Starting tesoretto-worker")
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is private to this process; use sqlite to share state with the server")
	}

	store := cli.OpenBackend(ctx, logger, cfg)
	defer store.Cleanup()

	clock := time.Now
	scheduler := worker.NewScheduler(cfg.JobTimeout)
	mustAdd := func(schedule string, job worker.Job) {
		if err := scheduler.AddJob(schedule, job); err != nil {
			logger.Error("Failed to register job", applog.FieldError, err)
			os.Exit(1)
		}
	}

	budgets := budget.NewEngine(store.Store)
	mustAdd(cfg.StreakSchedule, worker.StreakJob(gamification.NewTracker(store.Store), clock))
	mustAdd(cfg.RolloverSchedule, worker.RolloverJob(budgets, clock))

	if cfg.BackupEnabled() {
		sink, err := export.NewS3Sink(ctx, export.S3Config{
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			logger.Error("Failed to initialize S3 backups", applog.FieldError, err)
			os.Exit(1)
		}
		mustAdd(cfg.BackupSchedule, worker.BackupJob(store.Store, sink, clock))
	} else {
		logger.Info("S3 backups disabled - no S3_BUCKET provided")
	}

	syncWorker := newSyncWorker(ctx, logger, cfg, store.Store)
	if syncWorker != nil {
		resync := worker.ResyncJob(syncWorker)
		mustAdd(cfg.ResyncSchedule, resync)
		// Catch up on anything missed while the worker was down.
		if err := scheduler.RunNow(ctx, resync); err != nil {
			logger.Error("Startup resync failed", applog.FieldError, err)
		}
	}

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", applog.FieldError, err)
		os.Exit(1)
	}

	if syncWorker != nil && cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		go func() {
			if err := client.ConsumeEntryEvents(ctx, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
				cancel()
			}
		}()
	} else {
		logger.Info("Skipping AMQP message consumption - needs both AMQP_URL and a sheet mirror")
	}

	<-ctx.Done()
	logger.Info("Shutting down worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("Shutdown timeout reached", applog.FieldError, err)
	}
	logger.Info("Worker shutdown complete")
}

func newSyncWorker(ctx context.Context, logger *applog.Logger, cfg *config.Config, entries storage.EntryStore) *worker.SyncWorker {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
		return nil
	}
	mirror, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenJSON:  cfg.GoogleOAuthTokenJSON,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets mirror", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	return worker.NewSyncWorker(entries, mirror)
}
