package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dray-ops/ratecon-tracker/constants"
	"github.com/dray-ops/ratecon-tracker/internal/entity"
	"github.com/dray-ops/ratecon-tracker/internal/extract"
)

// Skip reasons surfaced verbatim on the review screen.
const (
	ReasonDuplicateFilename = "duplicate filename"
	ReasonUnsupportedFormat = "unsupported format"
)

// DedupPipeline runs the extractor over a batch and classifies each
// document as accepted or skipped. Documents are processed strictly in
// input order; the reference set grows as records are accepted so a
// later duplicate within the same batch is rejected too.
type DedupPipeline struct {
	Extractor       extract.FieldExtractor
	DefaultCustomer string
	Progress        Progress
	Logger          *slog.Logger

	// Now is stubbed in tests; records get date-only timestamps.
	Now func() time.Time
}

func NewDedupPipeline(ex extract.FieldExtractor, defaultCustomer string, logger *slog.Logger) *DedupPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &DedupPipeline{
		Extractor:       ex,
		DefaultCustomer: defaultCustomer,
		Logger:          logger,
		Now:             time.Now,
	}
}

// Run processes docs against a snapshot of the existing record set.
// Each document's outcome is independent; one bad document never aborts
// the batch. Cancellation is honored between documents.
func (p *DedupPipeline) Run(ctx context.Context, docs []Document, existing []entity.LoadRecord) (Result, error) {
	existingFiles := make(map[string]struct{}, len(existing))
	seenRefs := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		existingFiles[rec.SourceFile] = struct{}{}
		seenRefs[rec.Reference] = struct{}{}
	}

	now := p.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var res Result
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		outcome := p.processOne(ctx, doc, today, existingFiles, seenRefs, &res)
		p.Logger.Info("ingest.document",
			"file", doc.Filename, "outcome", outcome, "position", i+1, "of", len(docs))
		if p.Progress != nil {
			p.Progress(i+1, len(docs), doc.Filename)
		}
	}

	p.Logger.Info("ingest.batch_done",
		"documents", len(docs), "accepted", len(res.Accepted), "skipped", len(res.Skipped))
	return res, nil
}

func (p *DedupPipeline) processOne(
	ctx context.Context,
	doc Document,
	today time.Time,
	existingFiles, seenRefs map[string]struct{},
	res *Result,
) string {
	if _, dup := existingFiles[doc.Filename]; dup {
		res.Skipped = append(res.Skipped, SkippedFile{Filename: doc.Filename, Reason: ReasonDuplicateFilename})
		return "skipped:" + ReasonDuplicateFilename
	}

	fields := p.Extractor.Extract(ctx, doc.Content)
	if fields.Reference == constants.UnknownReference {
		res.Skipped = append(res.Skipped, SkippedFile{Filename: doc.Filename, Reason: ReasonUnsupportedFormat})
		return "skipped:" + ReasonUnsupportedFormat
	}

	if _, dup := seenRefs[fields.Reference]; dup {
		reason := fmt.Sprintf("duplicate reference %s", fields.Reference)
		res.Skipped = append(res.Skipped, SkippedFile{Filename: doc.Filename, Reason: reason})
		return "skipped:" + reason
	}

	rec := entity.LoadRecord{
		ID:         uuid.New(),
		DateAdded:  today,
		Customer:   p.DefaultCustomer,
		Reference:  fields.Reference,
		Equipment:  fields.Equipment,
		Container:  fields.Container,
		Rate:       fields.Rate,
		SourceFile: doc.Filename,
		Status:     string(constants.StatusActive),
		Notes:      "",
	}
	res.Accepted = append(res.Accepted, rec)
	seenRefs[fields.Reference] = struct{}{}
	return "accepted"
}
