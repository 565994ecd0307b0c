package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"cellar-service/apperrors"
	"cellar-service/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// fakeBatchRepo is an in-memory BatchRepo that enforces the same conditional
// write semantics as the Mongo implementation.
type fakeBatchRepo struct {
	batches map[string]*models.ImportBatch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[string]*models.ImportBatch)}
}

func (r *fakeBatchRepo) Create(ctx context.Context, batch *models.ImportBatch) error {
	r.batches[batch.ID] = batch
	return nil
}

func (r *fakeBatchRepo) FindByID(ctx context.Context, ownerID, id string) (*models.ImportBatch, error) {
	b, ok := r.batches[id]
	if !ok || b.OwnerID != ownerID {
		return nil, mongo.ErrNoDocuments
	}
	clone := *b
	return &clone, nil
}

func (r *fakeBatchRepo) FindByOwner(ctx context.Context, ownerID string) ([]*models.ImportBatch, error) {
	var out []*models.ImportBatch
	for _, b := range r.batches {
		if b.OwnerID == ownerID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBatchRepo) SetMapping(ctx context.Context, ownerID, id string, mapping map[string]string) (bool, error) {
	b, ok := r.batches[id]
	if !ok || b.OwnerID != ownerID {
		return false, nil
	}
	if b.Status != models.BatchStatusUploaded && b.Status != models.BatchStatusMapped {
		return false, nil
	}
	b.Mapping = mapping
	b.Status = models.BatchStatusMapped
	return true, nil
}

func (r *fakeBatchRepo) ClaimProcessing(ctx context.Context, ownerID, id string) (*models.ImportBatch, error) {
	b, ok := r.batches[id]
	if !ok || b.OwnerID != ownerID {
		return nil, mongo.ErrNoDocuments
	}
	if b.Status != models.BatchStatusUploaded && b.Status != models.BatchStatusMapped {
		return nil, mongo.ErrNoDocuments
	}
	if len(b.Mapping) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	b.Status = models.BatchStatusProcessing
	clone := *b
	return &clone, nil
}

func (r *fakeBatchRepo) Finalize(ctx context.Context, id string, status models.BatchStatus, created, skipped int, rowErrors []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, ok := r.batches[id]
	if !ok || b.Status != models.BatchStatusProcessing {
		return mongo.ErrNoDocuments
	}
	b.Status = status
	b.RecordsCreated = created
	b.RowsSkipped = skipped
	b.Errors = rowErrors
	return nil
}

func (r *fakeBatchRepo) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	b, ok := r.batches[id]
	if !ok || b.OwnerID != ownerID {
		return 0, nil
	}
	delete(r.batches, id)
	return 1, nil
}

func (r *fakeBatchRepo) EnsureIndexes(ctx context.Context) error { return nil }

// fakeWineRepo records created wines and can fail specific rows by name.
type fakeWineRepo struct {
	created []*models.Wine
	failOn  map[string]bool
}

func newFakeWineRepo() *fakeWineRepo {
	return &fakeWineRepo{failOn: make(map[string]bool)}
}

func (r *fakeWineRepo) Create(ctx context.Context, wine *models.Wine) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.failOn[wine.Name] {
		return fmt.Errorf("duplicate wine %q", wine.Name)
	}
	r.created = append(r.created, wine)
	return nil
}

func (r *fakeWineRepo) EnsureIndexes(ctx context.Context) error { return nil }

func newTestService() (*ImportService, *fakeBatchRepo, *fakeWineRepo) {
	batches := newFakeBatchRepo()
	wines := newFakeWineRepo()
	svc := NewImportService(batches, wines, NewColumnMapper(nil))
	return svc, batches, wines
}

const testOwner = "owner-1"

func uploadCSV(t *testing.T, svc *ImportService, csv string) (*models.ImportBatch, map[string]string) {
	t.Helper()
	batch, suggested, err := svc.Upload(context.Background(), testOwner, "cellar.csv", models.FileKindCSV, []byte(csv))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	return batch, suggested
}

func TestUploadSuggestsStaticMapping(t *testing.T) {
	svc, _, _ := newTestService()

	batch, suggested, err := svc.Upload(context.Background(), testOwner, "cellar.csv", models.FileKindCSV,
		[]byte("Wine Name,Producer,Year,Country\nChateau Margaux,Margaux,2015,France\n"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if batch.Status != models.BatchStatusUploaded {
		t.Fatalf("expected uploaded status, got %s", batch.Status)
	}
	if batch.RowCount != 1 || len(batch.Preview) != 1 {
		t.Fatalf("unexpected row bookkeeping: count=%d preview=%d", batch.RowCount, len(batch.Preview))
	}
	if suggested["Wine Name"] != FieldName || suggested["Producer"] != FieldWinery ||
		suggested["Year"] != FieldVintage || suggested["Country"] != FieldCountry {
		t.Fatalf("unexpected suggestion: %v", suggested)
	}
}

func TestUploadPreviewCapped(t *testing.T) {
	svc, _, _ := newTestService()

	var b strings.Builder
	b.WriteString("Name\n")
	for i := 0; i < PreviewRows+3; i++ {
		fmt.Fprintf(&b, "Wine %d\n", i)
	}
	batch, _ := uploadCSV(t, svc, b.String())

	if len(batch.Preview) != PreviewRows {
		t.Fatalf("expected %d preview rows, got %d", PreviewRows, len(batch.Preview))
	}
}

func TestUploadRejectsHeaderlessFile(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.Upload(context.Background(), testOwner, "empty.csv", models.FileKindCSV, []byte(""))
	if err == nil {
		t.Fatal("expected error for headerless file")
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Code != 400 {
		t.Fatalf("expected a 400 error, got %v", err)
	}
}

func TestProcessCreatesRecords(t *testing.T) {
	svc, batches, wines := newTestService()
	ctx := context.Background()

	batch, suggested := uploadCSV(t, svc, "Wine Name,Producer,Year,Country\nChateau Margaux,Margaux,2015,France\n")
	if _, err := svc.ConfirmMapping(ctx, testOwner, batch.ID, suggested); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	result, err := svc.Process(ctx, testOwner, batch.ID, ProcessOptions{SkipNonWineRows: true, DefaultQuantity: 1})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if result.RecordsCreated != 1 || result.RowsSkipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Status != models.BatchStatusCompleted {
		t.Fatalf("expected completed, got %s", result.Status)
	}
	if len(wines.created) != 1 {
		t.Fatalf("expected 1 wine created, got %d", len(wines.created))
	}
	w := wines.created[0]
	if w.Name != "Chateau Margaux" || w.Winery != "Margaux" || w.Country != "France" {
		t.Fatalf("unexpected wine: %+v", w)
	}
	if w.Vintage == nil || *w.Vintage != 2015 {
		t.Fatalf("unexpected vintage: %v", w.Vintage)
	}
	if w.OwnerID != testOwner || w.ID == "" {
		t.Fatalf("expected owner and id set, got %+v", w)
	}
	if batches.batches[batch.ID].Status != models.BatchStatusCompleted {
		t.Fatalf("expected stored batch completed")
	}
}

func TestProcessSkipsNonWineRows(t *testing.T) {
	svc, _, wines := newTestService()
	ctx := context.Background()

	batch, _ := uploadCSV(t, svc, "Name,Type\nChateau Margaux,Red\nJameson,Whiskey\n")
	mapping := map[string]string{"Name": FieldName, "Type": FieldWineType}
	if _, err := svc.ConfirmMapping(ctx, testOwner, batch.ID, mapping); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	result, err := svc.Process(ctx, testOwner, batch.ID, ProcessOptions{SkipNonWineRows: true, DefaultQuantity: 1})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if result.RecordsCreated != 1 || result.RowsSkipped != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(wines.created) != 1 || wines.created[0].Name != "Chateau Margaux" {
		t.Fatalf("expected only the wine row committed, got %v", wines.created)
	}
}

func TestProcessKeepsNonWineRowsWhenDisabled(t *testing.T) {
	svc, _, wines := newTestService()
	ctx := context.Background()

	batch, _ := uploadCSV(t, svc, "Name,Type\nJameson,Whiskey\n")
	mapping := map[string]string{"Name": FieldName, "Type": FieldWineType}
	if _, err := svc.ConfirmMapping(ctx, testOwner, batch.ID, mapping); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	result, err := svc.Process(ctx, testOwner, batch.ID, ProcessOptions{SkipNonWineRows: false, DefaultQuantity: 1})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.RecordsCreated != 1 || len(wines.created) != 1 {
		t.Fatalf("expected row kept when filter disabled, got %+v", result)
	}
}

func TestProcessRowErrorAccounting(t *testing.T) {
	svc, _, wines := newTestService()
	ctx := context.Background()
	wines.failOn["Broken Bottle"] = true

	batch, _ := uploadCSV(t, svc, "Name\nGood One\n\nBroken Bottle\nGood Two\n,\n")
	mapping := map[string]string{"Name": FieldName}
	if _, err := svc.ConfirmMapping(ctx, testOwner, batch.ID, mapping); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	result, err := svc.Process(ctx, testOwner, batch.ID, ProcessOptions{DefaultQuantity: 1})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	// Every kept row is accounted for exactly once.
	rowCount := svc.mustBatch(t, ctx, batch.ID).RowCount
	if result.RecordsCreated+result.RowsSkipped+len(result.Errors) != rowCount {
		t.Fatalf("accounting mismatch: %+v against %d rows", result, rowCount)
	}
	if result.RecordsCreated != 2 || len(result.Errors) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.HasPrefix(result.Errors[0], "Row 2: ") {
		t.Fatalf("expected 1-based row prefix, got %q", result.Errors[0])
	}
	if result.Status != models.BatchStatusCompleted {
		t.Fatalf("row errors must not fail the batch, got %s", result.Status)
	}
}

// mustBatch reads the stored batch back through the service.
func (s *ImportService) mustBatch(t *testing.T, ctx context.Context, id string) *models.ImportBatch {
	t.Helper()
	batch, err := s.Get(ctx, testOwner, id)
	if err != nil {
		t.Fatalf("failed to load batch: %v", err)
	}
	return batch
}

func TestProcessAllRowsFailingStillCompletes(t *testing.T) {
	svc, _, wines := newTestService()
	ctx := context.Background()
	wines.failOn["Only Bottle"] = true

	batch, _ := uploadCSV(t, svc, "Name\nOnly Bottle\n")
	if _, err := svc.ConfirmMapping(ctx, testOwner, batch.ID, map[string]string{"Name": FieldName}); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	result, err := svc.Process(ctx, testOwner, batch.ID, ProcessOptions{DefaultQuantity: 1})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.Status != models.BatchStatusCompleted || result.RecordsCreated != 0 {
		t.Fatalf("expected completed with zero records, got %+v", result)
	}
}

func TestProcessCompletesAfterRequestExpiry(t *testing.T) {
	svc, batches, wines := newTestService()
	ctx := context.Background()

	batch, _ := uploadCSV(t, svc, "Name\nBarolo\nRioja Alta\n")
	if _, err := svc.ConfirmMapping(ctx, testOwner, batch.ID, map[string]string{"Name": FieldName}); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	// The request context dies right after the claim. The claimed batch
	// must still reach a terminal state with its rows committed.
	reqCtx, cancel := context.WithCancel(ctx)
	cancel()

	result, err := svc.Process(reqCtx, testOwner, batch.ID, ProcessOptions{DefaultQuantity: 1})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.Status != models.BatchStatusCompleted || result.RecordsCreated != 2 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(wines.created) != 2 {
		t.Fatalf("expected rows committed despite expired request, got %d", len(wines.created))
	}
	if batches.batches[batch.ID].Status != models.BatchStatusCompleted {
		t.Fatalf("expected stored batch completed, got %s", batches.batches[batch.ID].Status)
	}
}

func TestProcessWithoutMappingRejected(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	batch, _ := uploadCSV(t, svc, "Name\nBarolo\n")

	_, err := svc.Process(ctx, testOwner, batch.ID, ProcessOptions{DefaultQuantity: 1})
	if err == nil {
		t.Fatal("expected error without a confirmed mapping")
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Code != 400 {
		t.Fatalf("expected a 400 error, got %v", err)
	}
	if !strings.Contains(err.Error(), "mapping") {
		t.Fatalf("expected error to mention the missing mapping, got %v", err)
	}
}

func TestProcessTwiceIsConflict(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	batch, _ := uploadCSV(t, svc, "Name\nBarolo\n")
	if _, err := svc.ConfirmMapping(ctx, testOwner, batch.ID, map[string]string{"Name": FieldName}); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := svc.Process(ctx, testOwner, batch.ID, ProcessOptions{DefaultQuantity: 1}); err != nil {
		t.Fatalf("first process failed: %v", err)
	}

	_, err := svc.Process(ctx, testOwner, batch.ID, ProcessOptions{DefaultQuantity: 1})
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if !strings.Contains(err.Error(), string(models.BatchStatusCompleted)) {
		t.Fatalf("expected terminal state named, got %v", err)
	}
}

func TestProcessWhileProcessingIsConflict(t *testing.T) {
	svc, batches, _ := newTestService()
	ctx := context.Background()

	batch, _ := uploadCSV(t, svc, "Name\nBarolo\n")
	if _, err := svc.ConfirmMapping(ctx, testOwner, batch.ID, map[string]string{"Name": FieldName}); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	batches.batches[batch.ID].Status = models.BatchStatusProcessing

	_, err := svc.Process(ctx, testOwner, batch.ID, ProcessOptions{DefaultQuantity: 1})
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if !strings.Contains(err.Error(), "already processing") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestProcessUnknownBatch(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Process(context.Background(), testOwner, "missing", ProcessOptions{DefaultQuantity: 1})
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Code != 404 {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConfirmMappingRequiresName(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	batch, _ := uploadCSV(t, svc, "Region\nRioja\n")

	_, err := svc.ConfirmMapping(ctx, testOwner, batch.ID, map[string]string{"Region": FieldRegion})
	if err == nil || !strings.Contains(err.Error(), "name") {
		t.Fatalf("expected name requirement error, got %v", err)
	}
}

func TestConfirmMappingAfterCompletionIsConflict(t *testing.T) {
	svc, batches, _ := newTestService()
	ctx := context.Background()

	batch, _ := uploadCSV(t, svc, "Name\nBarolo\n")
	batches.batches[batch.ID].Status = models.BatchStatusCompleted

	_, err := svc.ConfirmMapping(ctx, testOwner, batch.ID, map[string]string{"Name": FieldName})
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestGetScopedToOwner(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	batch, _ := uploadCSV(t, svc, "Name\nBarolo\n")

	_, err := svc.Get(ctx, "someone-else", batch.ID)
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Code != 404 {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.Delete(context.Background(), testOwner, "missing")
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Code != 404 {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListEmptyIsNotNil(t *testing.T) {
	svc, _, _ := newTestService()

	batches, err := svc.List(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if batches == nil {
		t.Fatal("expected empty slice, got nil")
	}
}
