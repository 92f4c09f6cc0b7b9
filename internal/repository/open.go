package repository

import (
	"context"
	"log/slog"

	"github.com/dray-ops/ratecon-tracker/internal/common"
)

// Backend is a record store that can also be pinged and closed.
type Backend interface {
	RecordStore
	HealthChecker
}

// Open dispatches on the configured driver and returns the backend plus
// a cleanup func for main to defer.
func Open(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (Backend, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Error("store.close", "error", err)
			}
		}, nil
	default:
		s, err := OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
}
