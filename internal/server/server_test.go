package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dray-ops/ratecon-tracker/internal/common"
	"github.com/dray-ops/ratecon-tracker/internal/entity"
	"github.com/dray-ops/ratecon-tracker/internal/export"
	"github.com/dray-ops/ratecon-tracker/internal/ingest"
	"github.com/dray-ops/ratecon-tracker/internal/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore is an in-memory RecordStore for handler tests.
type memStore struct {
	recs []entity.LoadRecord
}

func (m *memStore) LoadAll(ctx context.Context) ([]entity.LoadRecord, error) {
	out := make([]entity.LoadRecord, len(m.recs))
	copy(out, m.recs)
	return out, nil
}

func (m *memStore) AppendMany(ctx context.Context, recs []entity.LoadRecord) error {
	m.recs = append(m.recs, recs...)
	return nil
}

func (m *memStore) ReplaceAll(ctx context.Context, recs []entity.LoadRecord) error {
	m.recs = append([]entity.LoadRecord(nil), recs...)
	return nil
}

// echoPipeline accepts every document as a record named after its file.
type echoPipeline struct{}

func (echoPipeline) Run(ctx context.Context, docs []ingest.Document, existing []entity.LoadRecord) (ingest.Result, error) {
	var res ingest.Result
	for _, d := range docs {
		res.Accepted = append(res.Accepted, entity.LoadRecord{
			Reference:  "REF-" + d.Filename,
			Rate:       "400.00",
			SourceFile: d.Filename,
			Status:     "Active",
		})
	}
	return res, nil
}

func testConfig() *common.Config {
	return &common.Config{
		Pricing: common.PricingConfig{BaseRate: 400, UnitRate: 35, DefaultCustomer: "Covenant"},
		Ingest:  common.IngestConfig{MaxUploadBytes: 1 << 20},
	}
}

func newTestServer(store *memStore) (*Server, *gin.Engine) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(
		store,
		nil,
		echoPipeline{},
		export.NewService("RateCons", logger),
		report.NewMetrics(),
		testConfig(),
		logger,
	)
	return s, s.Router()
}

func do(r *gin.Engine, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func stored(ref, file, rate string) entity.LoadRecord {
	return entity.LoadRecord{
		DateAdded:  time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		Customer:   "Covenant",
		Reference:  ref,
		Rate:       rate,
		SourceFile: file,
		Status:     "Active",
	}
}

func TestProcessUploads(t *testing.T) {
	store := &memStore{recs: []entity.LoadRecord{stored("REF-old.pdf", "old.pdf", "400.00")}}
	_, r := newTestServer(store)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"a.pdf", "readme.txt"} {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte("content")); err != nil {
			t.Fatal(err)
		}
	}
	_ = mw.Close()

	w := do(r, http.MethodPost, "/api/loads/process", mw.FormDataContentType(), buf.Bytes())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var res ingest.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Accepted) != 1 || res.Accepted[0].SourceFile != "a.pdf" {
		t.Fatalf("accepted = %+v", res.Accepted)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != reasonNotPDF {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	// Processing must not persist anything.
	if len(store.recs) != 1 {
		t.Fatalf("store grew to %d records", len(store.recs))
	}
}

func TestSaveRecords(t *testing.T) {
	store := &memStore{recs: []entity.LoadRecord{stored("R1", "old.pdf", "400.00")}}
	_, r := newTestServer(store)

	payload := `{"records":[
		{"reference":"R2","rate":"785.00","source_file":"b.pdf"},
		{"reference":"R1","rate":"400.00","source_file":"dup-ref.pdf"},
		{"reference":"R3","rate":"400.00","source_file":"old.pdf"}
	]}`
	w := do(r, http.MethodPost, "/api/loads", "application/json", []byte(payload))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Saved   int                  `json:"saved"`
		Skipped []ingest.SkippedFile `json:"skipped"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Saved != 1 || len(resp.Skipped) != 2 {
		t.Fatalf("saved = %d skipped = %+v", resp.Saved, resp.Skipped)
	}
	if resp.Skipped[0].Reason != "duplicate reference R1" {
		t.Fatalf("skip reason = %q", resp.Skipped[0].Reason)
	}
	if resp.Skipped[1].Reason != ingest.ReasonDuplicateFilename {
		t.Fatalf("skip reason = %q", resp.Skipped[1].Reason)
	}

	if len(store.recs) != 2 {
		t.Fatalf("store has %d records", len(store.recs))
	}
	got := store.recs[1]
	if got.Customer != "Covenant" || got.Status != "Active" || got.DateAdded.IsZero() {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

func TestSaveRecords_RejectsBadPayload(t *testing.T) {
	_, r := newTestServer(&memStore{})

	cases := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"empty records", `{"records":[]}`},
		{"missing reference", `{"records":[{"rate":"400.00","source_file":"a.pdf"}]}`},
		{"bad rate", `{"records":[{"reference":"R1","rate":"$400","source_file":"a.pdf"}]}`},
		{"unknown field", `{"records":[{"reference":"R1","rate":"400.00","source_file":"a.pdf","extra":1}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/loads", "application/json", []byte(tc.body))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestListRecords_IncludesReconciliation(t *testing.T) {
	store := &memStore{recs: []entity.LoadRecord{stored("R1", "a.pdf", "800.00")}}
	_, r := newTestServer(store)

	w := do(r, http.MethodGet, "/api/loads", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Records []entity.ReconciledRecord `json:"records"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Records) != 1 {
		t.Fatalf("records = %+v", resp.Records)
	}
	got := resp.Records[0]
	if got.UnitCount != 11 || got.ExpectedRate != 785 || !got.Mismatch {
		t.Fatalf("reconciliation wrong: %+v", got)
	}
}

func TestSummary(t *testing.T) {
	store := &memStore{recs: []entity.LoadRecord{
		stored("R1", "a.pdf", "785.00"),
		stored("R2", "b.pdf", "400.00"),
	}}
	_, r := newTestServer(store)

	w := do(r, http.MethodGet, "/api/loads/summary", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var sum report.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.TotalLoads != 2 || sum.TotalRevenue != 1185 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestUpdateRecord(t *testing.T) {
	store := &memStore{recs: []entity.LoadRecord{stored("R1", "a.pdf", "400.00")}}
	_, r := newTestServer(store)

	w := do(r, http.MethodPatch, "/api/loads/R1", "application/json",
		[]byte(`{"status":"Completed","notes":"pod received"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if store.recs[0].Status != "Completed" || store.recs[0].Notes != "pod received" {
		t.Fatalf("record not updated: %+v", store.recs[0])
	}

	w = do(r, http.MethodPatch, "/api/loads/R9", "application/json", []byte(`{"notes":"x"}`))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing reference: status = %d", w.Code)
	}

	w = do(r, http.MethodPatch, "/api/loads/R1", "application/json", []byte(`{"status":"Bogus"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid status: status = %d", w.Code)
	}
}

func TestDeleteRecords(t *testing.T) {
	store := &memStore{recs: []entity.LoadRecord{
		stored("R1", "a.pdf", "400.00"),
		stored("R2", "b.pdf", "400.00"),
	}}
	store.recs[1].Status = "Cancelled"
	_, r := newTestServer(store)

	w := do(r, http.MethodDelete, "/api/loads/R1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(store.recs) != 1 || store.recs[0].Reference != "R2" {
		t.Fatalf("store = %+v", store.recs)
	}

	w = do(r, http.MethodDelete, "/api/loads?status=Cancelled", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(store.recs) != 0 {
		t.Fatalf("store = %+v", store.recs)
	}
}

func TestExportCSV(t *testing.T) {
	store := &memStore{recs: []entity.LoadRecord{stored("R1", "a.pdf", "785.00")}}
	_, r := newTestServer(store)

	w := do(r, http.MethodGet, "/api/export/csv", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d", len(lines))
	}
	if !strings.Contains(lines[1], "R1") || !strings.Contains(lines[1], "785.00") {
		t.Fatalf("csv row = %q", lines[1])
	}
}

func TestHealthz(t *testing.T) {
	_, r := newTestServer(&memStore{})
	w := do(r, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
