package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/dray-ops/ratecon-tracker/constants"
	"github.com/dray-ops/ratecon-tracker/internal/common"
	"github.com/dray-ops/ratecon-tracker/internal/export"
	"github.com/dray-ops/ratecon-tracker/internal/extract"
	"github.com/dray-ops/ratecon-tracker/internal/ingest"
	"github.com/dray-ops/ratecon-tracker/internal/reconcile"
	"github.com/dray-ops/ratecon-tracker/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem = flag.Bool("inmem", false, "use in-memory SQLite instead of the configured store")
		dir   = flag.String("dir", "", "directory of rate confirmation PDFs to process (required)")
		out   = flag.String("out", "", "output XLSX file path (defaults to <dir>/../rate_confirmations.xlsx)")
		dry   = flag.Bool("dry-run", false, "process and report without saving or exporting")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "rate_confirmations.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if *inmem {
		cfg.Store.Driver = "sqlite"
		cfg.Store.DSN = ":memory:"
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	docs, err := collectDocuments(*dir)
	if err != nil {
		printError("Error: reading %s: %v\n", *dir, err)
		os.Exit(1)
	}
	if len(docs) == 0 {
		color.Yellow("no PDF files found under %s", *dir)
		return
	}
	color.Cyan("processing %d files from %s", len(docs), *dir)

	backend, cleanup, err := repository.Open(ctx, cfg.Store, logger)
	if err != nil {
		printError("Error: opening store: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	existing, err := backend.LoadAll(ctx)
	if err != nil {
		printError("Error: loading records: %v\n", err)
		os.Exit(1)
	}

	decoder := extract.NewPopplerDecoder(cfg.Ingest.Pdftotext, logger)
	pipeline := ingest.NewDedupPipeline(extract.NewExtractor(decoder, logger), cfg.Pricing.DefaultCustomer, logger)
	pipeline.Progress = func(done, total int, filename string) {
		fmt.Printf("  [%d/%d] %s\n", done, total, filename)
	}

	res, err := pipeline.Run(ctx, docs, existing)
	if err != nil {
		printError("Error: processing aborted: %v\n", err)
		os.Exit(1)
	}

	color.Green("accepted: %d", len(res.Accepted))
	if len(res.Skipped) > 0 {
		color.Yellow("skipped:  %d", len(res.Skipped))
		for _, s := range res.Skipped {
			fmt.Printf("  - %s: %s\n", s.Filename, s.Reason)
		}
	}

	pricing := reconcile.Pricing{BaseRate: cfg.Pricing.BaseRate, UnitRate: cfg.Pricing.UnitRate}
	for _, rec := range pricing.Records(res.Accepted) {
		if rec.Mismatch {
			color.Red("  mismatch %s: rate %s, expected %.2f (%d units)",
				rec.Reference, rec.Rate, rec.ExpectedRate, rec.UnitCount)
		}
	}

	if *dry {
		color.Cyan("dry run, nothing saved")
		return
	}

	if len(res.Accepted) > 0 {
		if err := backend.AppendMany(ctx, res.Accepted); err != nil {
			printError("Error: saving records: %v\n", err)
			os.Exit(1)
		}
	}

	all, err := backend.LoadAll(ctx)
	if err != nil {
		printError("Error: reloading records: %v\n", err)
		os.Exit(1)
	}
	exporter := export.NewService(cfg.Export.SheetName, logger)
	data, err := exporter.XLSX(pricing.Records(all))
	if err != nil {
		printError("Error: building workbook: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		printError("Error: writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	color.Green("wrote %s (%d records)", *out, len(all))
}

// collectDocuments walks dir and loads every PDF, sorted by path for a
// deterministic processing order.
func collectDocuments(dir string) ([]ingest.Document, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if constants.AllowedExt(constants.NormalizeExt(filepath.Ext(path))) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	docs := make([]ingest.Document, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		docs = append(docs, ingest.Document{
			Filename: strings.TrimPrefix(filepath.Base(p), "./"),
			Content:  content,
		})
	}
	return docs, nil
}
