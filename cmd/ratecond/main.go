package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dray-ops/ratecon-tracker/internal/common"
	"github.com/dray-ops/ratecon-tracker/internal/export"
	"github.com/dray-ops/ratecon-tracker/internal/extract"
	"github.com/dray-ops/ratecon-tracker/internal/ingest"
	"github.com/dray-ops/ratecon-tracker/internal/report"
	"github.com/dray-ops/ratecon-tracker/internal/repository"
	"github.com/dray-ops/ratecon-tracker/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, cleanup, err := repository.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open record store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := backend.Ping(ctx); err != nil {
		logger.Error("store health failed", "error", err)
		os.Exit(1)
	}
	logger.Info("store health OK", "driver", cfg.Store.Driver)

	store := repository.NewCachedStore(backend, cfg.Store.CacheTTL, logger)

	decoder := extract.NewPopplerDecoder(cfg.Ingest.Pdftotext, logger)
	extractor := extract.NewExtractor(decoder, logger)
	pipeline := ingest.NewDedupPipeline(extractor, cfg.Pricing.DefaultCustomer, logger)
	exporter := export.NewService(cfg.Export.SheetName, logger)
	metrics := report.NewMetrics()

	srv := server.New(store, backend, pipeline, exporter, metrics, cfg, logger)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("stopped")
}
