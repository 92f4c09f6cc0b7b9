package ingest

import (
	"context"

	"github.com/dray-ops/ratecon-tracker/internal/entity"
)

// Document is one uploaded rate confirmation: raw bytes plus the display
// name used for filename-level dedup. Consumed once, then discarded.
type Document struct {
	Filename string
	Content  []byte
}

// SkippedFile records why a document was not accepted.
type SkippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// Result is the batch outcome. Accepted records are not yet persisted;
// saving through the record store is the caller's explicit step.
type Result struct {
	Accepted []entity.LoadRecord `json:"accepted"`
	Skipped  []SkippedFile       `json:"skipped"`
}

// Progress is invoked after each document completes, in input order.
type Progress func(done, total int, filename string)

// Pipeline is the behavior the server and batch CLI depend on.
type Pipeline interface {
	Run(ctx context.Context, docs []Document, existing []entity.LoadRecord) (Result, error)
}
