package server

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dray-ops/ratecon-tracker/constants"
	"github.com/dray-ops/ratecon-tracker/internal/entity"
	"github.com/dray-ops/ratecon-tracker/internal/ingest"
	"github.com/dray-ops/ratecon-tracker/internal/report"
)

// Upload-boundary skip reasons. Size and type limits are enforced here
// so the extractor never sees an oversized or non-PDF upload.
const (
	reasonFileTooLarge = "file too large"
	reasonNotPDF       = "unsupported file type"
)

// processUploads runs the dedup pipeline over the uploaded files against
// a fresh snapshot of the store. Nothing is persisted; the client saves
// the returned records explicitly.
func (s *Server) processUploads(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required: " + err.Error()})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	var docs []ingest.Document
	var boundarySkips []ingest.SkippedFile
	for _, fh := range files {
		if fh.Size > s.cfg.Ingest.MaxUploadBytes {
			boundarySkips = append(boundarySkips, ingest.SkippedFile{Filename: fh.Filename, Reason: reasonFileTooLarge})
			continue
		}
		if !constants.AllowedExt(constants.NormalizeExt(filepath.Ext(fh.Filename))) {
			boundarySkips = append(boundarySkips, ingest.SkippedFile{Filename: fh.Filename, Reason: reasonNotPDF})
			continue
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("open %s: %v", fh.Filename, err)})
			return
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("read %s: %v", fh.Filename, err)})
			return
		}
		docs = append(docs, ingest.Document{Filename: fh.Filename, Content: content})
	}

	existing, err := s.store.LoadAll(c.Request.Context())
	if err != nil {
		s.storeError(c, "load", err)
		return
	}

	res, err := s.pipeline.Run(c.Request.Context(), docs, existing)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing aborted: " + err.Error()})
		return
	}
	res.Skipped = append(res.Skipped, boundarySkips...)
	if s.metrics != nil {
		s.metrics.ObserveBatch(res)
	}

	c.JSON(http.StatusOK, res)
}

// saveRecords persists processed records. The payload is validated
// against the record schema, then dedup checks run again against the
// current store so a stale client cannot introduce duplicates.
func (s *Server) saveRecords(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body: " + err.Error()})
		return
	}
	recs, err := decodeSavePayload(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := s.store.LoadAll(c.Request.Context())
	if err != nil {
		s.storeError(c, "load", err)
		return
	}
	files := make(map[string]struct{}, len(existing))
	refs := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		files[r.SourceFile] = struct{}{}
		refs[r.Reference] = struct{}{}
	}

	var accepted []entity.LoadRecord
	var skipped []ingest.SkippedFile
	for _, r := range recs {
		if _, dup := files[r.SourceFile]; dup {
			skipped = append(skipped, ingest.SkippedFile{Filename: r.SourceFile, Reason: ingest.ReasonDuplicateFilename})
			continue
		}
		if _, dup := refs[r.Reference]; dup {
			skipped = append(skipped, ingest.SkippedFile{Filename: r.SourceFile, Reason: fmt.Sprintf("duplicate reference %s", r.Reference)})
			continue
		}
		s.applyDefaults(&r)
		accepted = append(accepted, r)
		files[r.SourceFile] = struct{}{}
		refs[r.Reference] = struct{}{}
	}

	if len(accepted) > 0 {
		if err := s.store.AppendMany(c.Request.Context(), accepted); err != nil {
			s.storeError(c, "append", err)
			return
		}
	}
	s.logger.Info("loads.saved", "saved", len(accepted), "skipped", len(skipped))
	c.JSON(http.StatusOK, gin.H{"saved": len(accepted), "skipped": skipped})
}

func (s *Server) applyDefaults(r *entity.LoadRecord) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.DateAdded.IsZero() {
		now := time.Now().UTC()
		r.DateAdded = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if r.Customer == "" {
		r.Customer = s.cfg.Pricing.DefaultCustomer
	}
	if r.Status == "" {
		r.Status = string(constants.StatusActive)
	}
}

func (s *Server) listRecords(c *gin.Context) {
	recs, err := s.store.LoadAll(c.Request.Context())
	if err != nil {
		s.storeError(c, "load", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": s.pricing.Records(recs)})
}

func (s *Server) summary(c *gin.Context) {
	recs, err := s.store.LoadAll(c.Request.Context())
	if err != nil {
		s.storeError(c, "load", err)
		return
	}
	sum := report.Summarize(s.pricing.Records(recs), s.pricing)
	if s.metrics != nil {
		s.metrics.ObserveSummary(sum)
	}
	c.JSON(http.StatusOK, sum)
}

type updateRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

func (s *Server) updateRecord(c *gin.Context) {
	ref := c.Param("reference")
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	if req.Status == nil && req.Notes == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if req.Status != nil && !constants.ValidStatus(*req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("status must be one of %v", constants.StatusStrings()),
		})
		return
	}

	recs, err := s.store.LoadAll(c.Request.Context())
	if err != nil {
		s.storeError(c, "load", err)
		return
	}
	found := false
	for i := range recs {
		if recs[i].Reference != ref {
			continue
		}
		found = true
		if req.Status != nil {
			recs[i].Status = *req.Status
		}
		if req.Notes != nil {
			recs[i].Notes = *req.Notes
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no record with reference " + ref})
		return
	}
	if err := s.store.ReplaceAll(c.Request.Context(), recs); err != nil {
		s.storeError(c, "replace", err)
		return
	}
	s.logger.Info("loads.updated", "reference", ref)
	c.JSON(http.StatusOK, gin.H{"updated": ref})
}

func (s *Server) deleteRecord(c *gin.Context) {
	ref := c.Param("reference")
	recs, err := s.store.LoadAll(c.Request.Context())
	if err != nil {
		s.storeError(c, "load", err)
		return
	}
	kept := recs[:0:0]
	for _, r := range recs {
		if r.Reference != ref {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(recs) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no record with reference " + ref})
		return
	}
	if err := s.store.ReplaceAll(c.Request.Context(), kept); err != nil {
		s.storeError(c, "replace", err)
		return
	}
	s.logger.Info("loads.deleted", "reference", ref)
	c.JSON(http.StatusOK, gin.H{"deleted": len(recs) - len(kept)})
}

// deleteRecords bulk-deletes by status filter, or clears the store when
// no filter is given. Both are a filtered ReplaceAll underneath.
func (s *Server) deleteRecords(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !constants.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("status must be one of %v", constants.StatusStrings()),
		})
		return
	}

	recs, err := s.store.LoadAll(c.Request.Context())
	if err != nil {
		s.storeError(c, "load", err)
		return
	}
	var kept []entity.LoadRecord
	if status != "" {
		for _, r := range recs {
			if r.Status != status {
				kept = append(kept, r)
			}
		}
	}
	if err := s.store.ReplaceAll(c.Request.Context(), kept); err != nil {
		s.storeError(c, "replace", err)
		return
	}
	s.logger.Info("loads.bulk_deleted", "status", status, "deleted", len(recs)-len(kept))
	c.JSON(http.StatusOK, gin.H{"deleted": len(recs) - len(kept)})
}
