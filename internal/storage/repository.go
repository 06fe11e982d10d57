// ABOUTME: Repository interface for the cohort store.
// ABOUTME: Read side satisfies aggregate.Source; write side loads ingest batches.
package storage

import (
	"context"

	"github.com/harperreed/workwell/internal/aggregate"
)

// Repository defines the storage interface for cohort data.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	aggregate.Source

	// Ingest
	InsertBatch(ctx context.Context, b *Batch) (*BatchSummary, error)
	ListBatches(ctx context.Context) ([]BatchSummary, error)
	TableCounts(ctx context.Context) (map[string]int, error)

	// Export/Import
	GetAllData(ctx context.Context) (*ExportData, error)
	ImportData(ctx context.Context, data *ExportData) error

	// Lifecycle
	Close() error
}

var _ Repository = (*DB)(nil)
