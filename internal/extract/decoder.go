package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// TextDecoder turns raw PDF bytes into plain text. Implementations are a
// black box to the extractor: bytes in, concatenated page text out.
type TextDecoder interface {
	// DecodeText returns the document text (pages joined by newlines,
	// empty pages dropped) and the page count.
	DecodeText(ctx context.Context, content []byte) (text string, pages int, err error)
}

// PopplerDecoder shells out to pdftotext. The PDF is validated with
// pdfcpu first so corrupt uploads fail before we spawn a subprocess.
type PopplerDecoder struct {
	pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	runner    Runner
	logger    *slog.Logger
}

func NewPopplerDecoder(pdftotext string, logger *slog.Logger) *PopplerDecoder {
	if pdftotext == "" {
		pdftotext = "pdftotext"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PopplerDecoder{pdftotext: pdftotext, runner: execRunner{}, logger: logger}
}

func (d *PopplerDecoder) DecodeText(ctx context.Context, content []byte) (string, int, error) {
	tmp, err := os.CreateTemp("", "ratecon-*.pdf")
	if err != nil {
		return "", 0, fmt.Errorf("temp file: %w", err)
	}
	path := tmp.Name()
	defer func() {
		if err := os.Remove(path); err != nil {
			d.logger.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return "", 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("close temp file: %w", err)
	}

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, cfg); err != nil {
		return "", 0, fmt.Errorf("validate pdf: %w", err)
	}
	pages, err := api.PageCountFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("page count: %w", err)
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := d.runner.Run(ctx, d.pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}

	return joinPages(string(out)), pages, nil
}

// joinPages splits pdftotext output on its form-feed page separators and
// rejoins the non-empty pages with newlines.
func joinPages(raw string) string {
	segs := strings.Split(raw, "\f")
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		s = strings.TrimRight(s, "\n")
		if strings.TrimSpace(s) == "" {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}
