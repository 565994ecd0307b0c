package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cellar-service/apperrors"
	"cellar-service/models"
	"cellar-service/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ProcessOptions tunes one processing run.
type ProcessOptions struct {
	SkipNonWineRows bool
	DefaultQuantity int
}

// ImportService owns the batch lifecycle: upload, mapping confirmation, row
// processing and the owner-scoped bookkeeping operations.
type ImportService struct {
	batches repository.BatchRepo
	wines   repository.WineRepo
	mapper  *ColumnMapper
}

func NewImportService(batches repository.BatchRepo, wines repository.WineRepo, mapper *ColumnMapper) *ImportService {
	return &ImportService{
		batches: batches,
		wines:   wines,
		mapper:  mapper,
	}
}

// Upload parses the raw payload, persists a new batch in uploaded state and
// returns it together with a suggested column mapping. The suggestion is
// oracle-assisted when an oracle is configured and reachable, otherwise the
// static alias lookup.
func (s *ImportService) Upload(ctx context.Context, ownerID, filename string, kind models.FileKind, data []byte) (*models.ImportBatch, map[string]string, error) {
	var (
		headers []string
		rows    []map[string]string
		err     error
	)
	switch kind {
	case models.FileKindCSV:
		headers, rows, err = ParseCSV(data)
	case models.FileKindXLSX:
		headers, rows, err = ParseXLSX(data)
	default:
		return nil, nil, apperrors.NewValidation("unsupported file kind %q", kind)
	}
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	batch := &models.ImportBatch{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Filename:  filename,
		Kind:      kind,
		Status:    models.BatchStatusUploaded,
		Headers:   headers,
		Rows:      rows,
		RowCount:  len(rows),
		Preview:   previewRows(rows),
		Errors:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, nil, apperrors.NewInternal("failed to store import batch", err)
	}

	suggested, err := s.mapper.SuggestAssisted(ctx, headers, batch.Preview)
	if err != nil {
		if !errors.Is(err, ErrOracleUnavailable) {
			zap.L().Warn("assisted mapping suggestion failed", zap.Error(err))
		}
		suggested = s.mapper.Suggest(headers)
	}

	zap.L().Info("import batch uploaded",
		zap.String("batch_id", batch.ID),
		zap.String("kind", string(kind)),
		zap.Int("rows", batch.RowCount))
	return batch, suggested, nil
}

// ConfirmMapping validates and attaches the column mapping. Allowed only
// while the batch is in uploaded or mapped state.
func (s *ImportService) ConfirmMapping(ctx context.Context, ownerID, id string, mapping map[string]string) (*models.ImportBatch, error) {
	if err := ValidateMapping(mapping); err != nil {
		return nil, err
	}

	batch, err := s.findBatch(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if batch.Status != models.BatchStatusUploaded && batch.Status != models.BatchStatusMapped {
		return nil, apperrors.NewStateConflict("mapping cannot be changed while the import is %s", batch.Status)
	}

	updated, err := s.batches.SetMapping(ctx, ownerID, id, mapping)
	if err != nil {
		return nil, apperrors.NewInternal("failed to store column mapping", err)
	}
	if !updated {
		// Lost a race with a concurrent process call.
		return nil, apperrors.NewStateConflict("mapping cannot be changed while the import is processing")
	}

	batch.Mapping = mapping
	batch.Status = models.BatchStatusMapped
	return batch, nil
}

// Process runs the per-row conversion loop. The transition to processing is
// a single conditional write against the store, so a concurrent duplicate
// call observes a state conflict rather than double-processing. Per-row
// failures are captured into the batch error list and never abort the run;
// once the loop finishes the batch completes unconditionally, even when
// every row failed.
func (s *ImportService) Process(ctx context.Context, ownerID, id string, opts ProcessOptions) (*models.ImportResult, error) {
	batch, err := s.batches.ClaimProcessing(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, s.classifyClaimFailure(ctx, ownerID, id)
		}
		return nil, apperrors.NewInternal("failed to start import processing", err)
	}

	// The claim succeeded, so this run owns the batch and must bring it to a
	// terminal state; the row loop and the terminal write run detached from
	// the request deadline so an expired request cannot strand the batch in
	// processing.
	runCtx := context.WithoutCancel(ctx)

	if len(batch.Mapping) == 0 {
		// Pipeline-level failure: nothing can be processed without a mapping.
		failure := []string{"no column mapping attached"}
		if err := s.finalize(id, models.BatchStatusFailed, 0, 0, failure); err != nil {
			return nil, apperrors.NewInternal("failed to finalize import", err)
		}
		return &models.ImportResult{Errors: failure, Status: models.BatchStatusFailed}, nil
	}

	now := time.Now().UTC()
	created, skipped := 0, 0
	rowErrors := []string{}

	for i, row := range batch.Rows {
		if opts.SkipNonWineRows && IsNonWineRow(batch.Headers, row, batch.Mapping) {
			skipped++
			continue
		}
		wine, skip := ConvertRow(batch.Headers, row, batch.Mapping, opts.DefaultQuantity, now)
		if skip {
			skipped++
			continue
		}
		wine.ID = uuid.NewString()
		wine.OwnerID = ownerID
		wine.CreatedAt = now
		if err := s.wines.Create(runCtx, wine); err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		created++
	}

	if err := s.finalize(id, models.BatchStatusCompleted, created, skipped, rowErrors); err != nil {
		return nil, apperrors.NewInternal("failed to finalize import", err)
	}

	zap.L().Info("import batch processed",
		zap.String("batch_id", id),
		zap.Int("records_created", created),
		zap.Int("rows_skipped", skipped),
		zap.Int("row_errors", len(rowErrors)))

	return &models.ImportResult{
		RecordsCreated: created,
		RowsSkipped:    skipped,
		Errors:         rowErrors,
		Status:         models.BatchStatusCompleted,
	}, nil
}

// finalizeTimeout bounds the terminal batch write.
const finalizeTimeout = 15 * time.Second

// finalize writes the terminal state under its own deadline. A claimed batch
// must always leave processing, so this write never inherits a request
// context.
func (s *ImportService) finalize(id string, status models.BatchStatus, created, skipped int, rowErrors []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	return s.batches.Finalize(ctx, id, status, created, skipped, rowErrors)
}

// classifyClaimFailure turns a missed claim into the right client error:
// missing batch, ineligible state, or an eligible batch with no mapping.
func (s *ImportService) classifyClaimFailure(ctx context.Context, ownerID, id string) error {
	batch, err := s.findBatch(ctx, ownerID, id)
	if err != nil {
		return err
	}
	switch batch.Status {
	case models.BatchStatusUploaded, models.BatchStatusMapped:
		return apperrors.NewValidation("no column mapping has been confirmed for this import")
	case models.BatchStatusProcessing:
		return apperrors.NewStateConflict("import is already processing")
	default:
		return apperrors.NewStateConflict("import is already %s; upload a new file to retry", batch.Status)
	}
}

func (s *ImportService) List(ctx context.Context, ownerID string) ([]*models.ImportBatch, error) {
	batches, err := s.batches.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list imports", err)
	}
	if batches == nil {
		batches = []*models.ImportBatch{}
	}
	return batches, nil
}

func (s *ImportService) Get(ctx context.Context, ownerID, id string) (*models.ImportBatch, error) {
	return s.findBatch(ctx, ownerID, id)
}

// Delete removes the batch bookkeeping only; wines created from the batch
// stay in the cellar.
func (s *ImportService) Delete(ctx context.Context, ownerID, id string) error {
	deleted, err := s.batches.Delete(ctx, ownerID, id)
	if err != nil {
		return apperrors.NewInternal("failed to delete import", err)
	}
	if deleted == 0 {
		return apperrors.NewNotFound("import not found")
	}
	return nil
}

func (s *ImportService) findBatch(ctx context.Context, ownerID, id string) (*models.ImportBatch, error) {
	batch, err := s.batches.FindByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("import not found")
		}
		return nil, apperrors.NewInternal("failed to load import", err)
	}
	return batch, nil
}

func previewRows(rows []map[string]string) []map[string]string {
	n := len(rows)
	if n > PreviewRows {
		n = PreviewRows
	}
	preview := make([]map[string]string, n)
	copy(preview, rows[:n])
	return preview
}
