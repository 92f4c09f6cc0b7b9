package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dray-ops/ratecon-tracker/internal/common"
	"github.com/dray-ops/ratecon-tracker/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS load_records (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL,
	date_added  TEXT NOT NULL,
	customer    TEXT NOT NULL DEFAULT '',
	reference   TEXT NOT NULL,
	equipment   TEXT NOT NULL DEFAULT '',
	container   TEXT NOT NULL DEFAULT '',
	rate        TEXT NOT NULL DEFAULT '0.00',
	source_file TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'Active',
	notes       TEXT NOT NULL DEFAULT ''
)`

const dateLayout = "2006-01-02"

// SQLiteStore keeps load records in a local SQLite database. Used by the
// batch CLI and for single-host deployments; ":memory:" works too.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.WrapError(err, "open sqlite")
	}
	// modernc sqlite serializes writes; one connection avoids lock churn.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "ping sqlite")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "ensure schema")
	}
	logger.Info("store.sqlite.open", "dsn", dsn)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) LoadAll(ctx context.Context) ([]entity.LoadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
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
		var id, date string
		if err := rows.Scan(&id, &date, &r.Customer, &r.Reference,
			&r.Equipment, &r.Container, &r.Rate, &r.SourceFile, &r.Status, &r.Notes); err != nil {
			return nil, common.WrapError(err, "scan record")
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("record id %q: %w", id, err)
		}
		if r.DateAdded, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("record date %q: %w", date, err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "load records")
	}
	return recs, nil
}

func (s *SQLiteStore) AppendMany(ctx context.Context, recs []entity.LoadRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin append")
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertRecords(ctx, tx, recs); err != nil {
		s.logger.Error("store.append.failed", "count", len(recs), "error", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.WrapError(err, "commit append")
	}
	s.logger.Info("store.append.ok", "count", len(recs))
	return nil
}

func (s *SQLiteStore) ReplaceAll(ctx context.Context, recs []entity.LoadRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin replace")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM load_records`); err != nil {
		return common.WrapError(err, "clear records")
	}
	if err := insertRecords(ctx, tx, recs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.WrapError(err, "commit replace")
	}
	s.logger.Info("store.replace.ok", "count", len(recs))
	return nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, recs []entity.LoadRecord) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO load_records (%s) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		strings.Join(recordColumns, ", ")))
	if err != nil {
		return common.WrapError(err, "prepare insert")
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx,
			r.ID.String(), r.DateAdded.Format(dateLayout), r.Customer, r.Reference,
			r.Equipment, r.Container, r.Rate, r.SourceFile, r.Status, r.Notes); err != nil {
			return common.WrapError(err, "insert record")
		}
	}
	return nil
}
