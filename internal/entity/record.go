package entity

import (
	"time"

	"github.com/google/uuid"
)

// LoadRecord represents one ingested rate confirmation for data transfer
// between layers. Reference and SourceFile are unique across the store;
// uniqueness is enforced by the ingest pipeline, not by the backend.
type LoadRecord struct {
	ID         uuid.UUID `json:"id"`
	DateAdded  time.Time `json:"date_added"`
	Customer   string    `json:"customer"`
	Reference  string    `json:"reference"`
	Equipment  string    `json:"equipment"`
	Container  string    `json:"container"`
	Rate       string    `json:"rate"`
	SourceFile string    `json:"source_file"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
}

// ReconciledRecord is a LoadRecord augmented with the pricing-model
// fields. It is derived fresh on every read and never persisted.
type ReconciledRecord struct {
	LoadRecord
	ParsedRate   float64 `json:"parsed_rate"`
	UnitCount    int     `json:"unit_count"`
	ExpectedRate float64 `json:"expected_rate"`
	Mismatch     bool    `json:"mismatch"`
}
