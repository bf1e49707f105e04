package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tesoretto/internal/amqp"
	"tesoretto/internal/budget"
	"tesoretto/internal/cli"
	"tesoretto/internal/core"
	apphttp "tesoretto/internal/http"
	applog "tesoretto/internal/log"
	"tesoretto/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	store := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close store", applog.FieldError, err)
		}
	}()

	// Event publishing is optional; writes never depend on the broker.
	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	budgets := budget.NewEngine(store.Store)
	analyzerCfg := services.AnalyzerConfig{TrendWindow: cfg.TrendWindow, ForecastMonths: cfg.ForecastMonths}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Entries:     services.NewEntryService(store.Store, budgets, publisher),
		Analyzer:    services.NewAnalyzer(store.Store, budgets, analyzerCfg),
		Budgets:     budgets,
		Preferences: services.NewPreferences(store.Store, core.Theme(cfg.DefaultTheme)),
		Ready:       store.Ready,
		Logger:      logger.WithComponent(applog.ComponentHTTP),
		RateLimit:   cfg.RateLimit,
	})

	// Apply any rollover due since the last run before serving.
	if err := budgets.Rollover(ctx, time.Now()); err != nil {
		logger.Error("Budget rollover failed", applog.FieldError, err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting tesoretto server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", applog.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
