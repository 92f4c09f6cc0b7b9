// Package extract pulls the structured fields out of a rate confirmation
// PDF using ordered regex fallback chains. Issuers label the same field
// differently ("Route #" vs "Load #"), so each field tries a priority
// list of patterns and the first match wins. Missing fields resolve to
// sentinel values, never errors; the pipeline decides what to skip.
package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dray-ops/ratecon-tracker/constants"
)

// Fields is the extraction result for one document. Every field is
// always populated, with a sentinel when no pattern matched.
type Fields struct {
	Reference string
	Rate      string
	Equipment string
	Container string
}

// SentinelFields is the all-sentinel result for unreadable documents.
func SentinelFields() Fields {
	return Fields{
		Reference: constants.UnknownReference,
		Rate:      constants.ZeroRate,
		Equipment: constants.NoEquipment,
		Container: constants.NoContainer,
	}
}

// Pattern order encodes priority among synonymous document layouts.
// First match wins, not most specific.
var (
	refPatterns = compilePatterns(
		`Route #\s*(\S+)`,
		`Reference #\s*(\S+)`,
		`Pro #\s*(\S+)`,
		`Load #\s*(\S+)`,
		`Job #\s*(\S+)`,
	)
	ratePatterns = compilePatterns(
		`Total Rate:\s*\$?([\d,]+\.?\d{0,2})`,
		`Total Cost\s*\$?([\d,]+\.?\d{0,2})`,
		`Amount:\s*\$?([\d,]+\.?\d{0,2})`,
		`Rate:\s*\$?([\d,]+\.?\d{0,2})`,
	)
	equipPatterns = compilePatterns(
		`Equipment:\s*([^\n]+)`,
		`Trailer Type:\s*([^\n]+)`,
		`Equipment Type:\s*([^\n]+)`,
	)
	containerPatterns = compilePatterns(
		`Container #:\s*(\S+)`,
		`Container Number:\s*(\S+)`,
		`Container ID:\s*(\S+)`,
	)
)

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return out
}

// FieldExtractor is the behavior the ingest pipeline depends on.
type FieldExtractor interface {
	Extract(ctx context.Context, content []byte) Fields
}

// Extractor decodes a document and matches the field patterns.
type Extractor struct {
	decoder TextDecoder
	logger  *slog.Logger
}

func NewExtractor(decoder TextDecoder, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{decoder: decoder, logger: logger}
}

// Extract decodes content and parses the field set. Decode failures are
// absorbed: they log and yield all sentinels so one bad document never
// aborts a batch.
func (e *Extractor) Extract(ctx context.Context, content []byte) Fields {
	text, pages, err := e.decoder.DecodeText(ctx, content)
	if err != nil {
		e.logger.Error("extract.decode_failed", "error", err)
		return SentinelFields()
	}
	e.logger.Debug("extract.decoded", "pages", pages, "text_bytes", len(text))
	return ParseText(text)
}

// ParseText runs the fallback chains over already-decoded text.
func ParseText(text string) Fields {
	f := SentinelFields()
	if m := findFirst(refPatterns, text); m != "" {
		f.Reference = m
	}
	if m := findFirst(ratePatterns, text); m != "" {
		// strip thousands separators; no further numeric validation here
		f.Rate = strings.ReplaceAll(m, ",", "")
	}
	if m := findFirst(equipPatterns, text); m != "" {
		f.Equipment = m
	}
	if m := findFirst(containerPatterns, text); m != "" {
		f.Container = m
	}
	return f
}

func findFirst(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
