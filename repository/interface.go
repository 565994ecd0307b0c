package repository

import (
	"context"

	"cellar-service/models"
)

// BatchRepo defines the batch bookkeeping operations used by the import
// pipeline. The store is the cross-process source of truth for the batch
// lifecycle: the Processing claim is a single conditional write here, not an
// in-memory lock.
type BatchRepo interface {
	Create(ctx context.Context, batch *models.ImportBatch) error
	FindByID(ctx context.Context, ownerID, id string) (*models.ImportBatch, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*models.ImportBatch, error)
	// SetMapping stores the confirmed column mapping and moves the batch to
	// mapped. It only matches batches still in uploaded or mapped state;
	// the bool result reports whether a document was updated.
	SetMapping(ctx context.Context, ownerID, id string, mapping map[string]string) (bool, error)
	// ClaimProcessing atomically flips an eligible batch (uploaded or mapped,
	// mapping attached) to processing and returns it. A batch in any other
	// state does not match and mongo.ErrNoDocuments is returned.
	ClaimProcessing(ctx context.Context, ownerID, id string) (*models.ImportBatch, error)
	// Finalize writes the terminal status and counters. It only matches a
	// batch still in processing, so the terminal write happens exactly once.
	Finalize(ctx context.Context, id string, status models.BatchStatus, created, skipped int, rowErrors []string) error
	Delete(ctx context.Context, ownerID, id string) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

// WineRepo is the inventory record store the pipeline commits finished
// records into. Records are inserted once and never mutated by the importer.
type WineRepo interface {
	Create(ctx context.Context, wine *models.Wine) error
	EnsureIndexes(ctx context.Context) error
}
