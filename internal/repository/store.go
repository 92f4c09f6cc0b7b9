package repository

import (
	"context"

	"github.com/dray-ops/ratecon-tracker/internal/entity"
)

// RecordStore is the durable list of accepted load records. Uniqueness
// of references and filenames is the ingest pipeline's job, not the
// store's; bulk deletes go through ReplaceAll with a filtered set.
type RecordStore interface {
	LoadAll(ctx context.Context) ([]entity.LoadRecord, error)
	AppendMany(ctx context.Context, recs []entity.LoadRecord) error
	// ReplaceAll swaps the whole collection, atomically from the
	// caller's perspective.
	ReplaceAll(ctx context.Context, recs []entity.LoadRecord) error
}

// HealthChecker is implemented by backends that can be pinged.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

var recordColumns = []string{
	"id", "date_added", "customer", "reference", "equipment",
	"container", "rate", "source_file", "status", "notes",
}
