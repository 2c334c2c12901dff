// Package source provides the interface and types for fuel record sources.
package source

import (
	"context"

	"github.com/ustunfatih/oktan/internal/models"
)

// Source defines the interface for fuel record sources.
type Source interface {
	// Name returns the source identifier.
	Name() string

	// Fetch reads all records the source offers.
	Fetch(ctx context.Context) (Batch, error)
}

// Batch is the result of one fetch.
type Batch struct {
	// Records are the rows that could be read.
	Records []models.FuelRecord
	// Rejected describes rows that could not be turned into records.
	Rejected []string
}
