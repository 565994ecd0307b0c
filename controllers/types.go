package controllers

import (
	"context"
	"time"

	"cellar-service/models"
	"cellar-service/services"
)

// Default configuration values
const (
	DefaultCacheTTL       = 10 * time.Minute
	DefaultContextTimeout = 30 * time.Second
)

// ImportServiceAPI defines the interface for import pipeline operations.
type ImportServiceAPI interface {
	Upload(ctx context.Context, ownerID, filename string, kind models.FileKind, data []byte) (*models.ImportBatch, map[string]string, error)
	ConfirmMapping(ctx context.Context, ownerID, id string, mapping map[string]string) (*models.ImportBatch, error)
	Process(ctx context.Context, ownerID, id string, opts services.ProcessOptions) (*models.ImportResult, error)
	List(ctx context.Context, ownerID string) ([]*models.ImportBatch, error)
	Get(ctx context.Context, ownerID, id string) (*models.ImportBatch, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// ConfirmMappingRequest is the payload for PUT /imports/:id/mapping.
type ConfirmMappingRequest struct {
	Mapping map[string]string `json:"mapping" validate:"required,min=1"`
}

// ProcessRequest is the payload for POST /imports/:id/process. Pointer
// fields distinguish "absent" from zero values so defaults apply.
type ProcessRequest struct {
	SkipNonWineRows *bool `json:"skip_non_wine_rows"`
	DefaultQuantity *int  `json:"default_quantity" validate:"omitnil,min=1,max=10000"`
}

// BatchResponse is the client-facing batch shape: full bookkeeping plus the
// bounded preview, never the full row set.
type BatchResponse struct {
	ID             string              `json:"id"`
	Filename       string              `json:"filename"`
	Kind           models.FileKind     `json:"kind"`
	Status         models.BatchStatus  `json:"status"`
	Headers        []string            `json:"headers"`
	RowCount       int                 `json:"row_count"`
	Preview        []map[string]string `json:"preview"`
	Mapping        map[string]string   `json:"mapping,omitempty"`
	RecordsCreated int                 `json:"records_created"`
	RowsSkipped    int                 `json:"rows_skipped"`
	Errors         []string            `json:"errors"`
	CreatedAt      time.Time           `json:"created_at"`
}

func toBatchResponse(b *models.ImportBatch) BatchResponse {
	errs := b.Errors
	if errs == nil {
		errs = []string{}
	}
	return BatchResponse{
		ID:             b.ID,
		Filename:       b.Filename,
		Kind:           b.Kind,
		Status:         b.Status,
		Headers:        b.Headers,
		RowCount:       b.RowCount,
		Preview:        b.Preview,
		Mapping:        b.Mapping,
		RecordsCreated: b.RecordsCreated,
		RowsSkipped:    b.RowsSkipped,
		Errors:         errs,
		CreatedAt:      b.CreatedAt,
	}
}
