package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dray-ops/ratecon-tracker/internal/common"
	"github.com/dray-ops/ratecon-tracker/internal/entity"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS load_records (
	seq         BIGSERIAL PRIMARY KEY,
	id          UUID        NOT NULL,
	date_added  DATE        NOT NULL,
	customer    TEXT        NOT NULL DEFAULT '',
	reference   TEXT        NOT NULL,
	equipment   TEXT        NOT NULL DEFAULT '',
	container   TEXT        NOT NULL DEFAULT '',
	rate        TEXT        NOT NULL DEFAULT '0.00',
	source_file TEXT        NOT NULL,
	status      TEXT        NOT NULL DEFAULT 'Active',
	notes       TEXT        NOT NULL DEFAULT ''
)`

// PostgresStore keeps load records in Postgres through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates the pool, pings it, and ensures the schema.
func OpenPostgres(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "ratecon-tracker"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, common.WrapError(err, "connect to postgres")
	}

	s := &PostgresStore{pool: pool, logger: logger}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, common.WrapError(err, "ping postgres")
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, common.WrapError(err, "ensure schema")
	}
	logger.Info("store.postgres.open", "max_conns", cfg.MaxConns)
	return s, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) LoadAll(ctx context.Context) ([]entity.LoadRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, date_added, customer, reference, equipment, container,
		       rate, source_file, status, notes
		FROM load_records ORDER BY seq`)
	if err != nil {
		s.logger.Error("store.load_all.failed", "error", err)
		return nil, common.WrapError(err, "load records")
	}
	defer rows.Close()

	var recs []entity.LoadRecord
	for rows.Next() {
		var r entity.LoadRecord
		if err := rows.Scan(&r.ID, &r.DateAdded, &r.Customer, &r.Reference,
			&r.Equipment, &r.Container, &r.Rate, &r.SourceFile, &r.Status, &r.Notes); err != nil {
			return nil, common.WrapError(err, "scan record")
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "load records")
	}
	return recs, nil
}

func (s *PostgresStore) AppendMany(ctx context.Context, recs []entity.LoadRecord) error {
	if len(recs) == 0 {
		return nil
	}
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"load_records"}, recordColumns, copySource(recs))
	if err != nil {
		s.logger.Error("store.append.failed", "count", len(recs), "error", err)
		return common.WrapError(err, "append records")
	}
	s.logger.Info("store.append.ok", "count", n)
	return nil
}

func (s *PostgresStore) ReplaceAll(ctx context.Context, recs []entity.LoadRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return common.WrapError(err, "begin replace")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE load_records`); err != nil {
		return common.WrapError(err, "clear records")
	}
	if len(recs) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"load_records"}, recordColumns, copySource(recs)); err != nil {
			return common.WrapError(err, "write replacement records")
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return common.WrapError(err, "commit replace")
	}
	s.logger.Info("store.replace.ok", "count", len(recs))
	return nil
}

func copySource(recs []entity.LoadRecord) pgx.CopyFromSource {
	return pgx.CopyFromSlice(len(recs), func(i int) ([]any, error) {
		r := recs[i]
		return []any{r.ID, r.DateAdded, r.Customer, r.Reference, r.Equipment,
			r.Container, r.Rate, r.SourceFile, r.Status, r.Notes}, nil
	})
}
