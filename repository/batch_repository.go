package repository

import (
	"context"
	"time"

	"cellar-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BatchRepository struct {
	collection *mongo.Collection
}

func NewBatchRepository(db *mongo.Database) *BatchRepository {
	return &BatchRepository{
		collection: db.Collection("import_batches"),
	}
}

var _ BatchRepo = (*BatchRepository)(nil)

// eligibleStatuses are the states from which processing may be claimed.
var eligibleStatuses = bson.A{models.BatchStatusUploaded, models.BatchStatusMapped}

func (r *BatchRepository) Create(ctx context.Context, batch *models.ImportBatch) error {
	_, err := r.collection.InsertOne(ctx, batch)
	return err
}

func (r *BatchRepository) FindByID(ctx context.Context, ownerID, id string) (*models.ImportBatch, error) {
	filter := bson.M{"_id": id, "owner_id": ownerID}
	var batch models.ImportBatch
	if err := r.collection.FindOne(ctx, filter).Decode(&batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// FindByOwner lists an owner's batches, newest first. Row data is projected
// out; listings only need the bookkeeping fields.
func (r *BatchRepository) FindByOwner(ctx context.Context, ownerID string) ([]*models.ImportBatch, error) {
	findOptions := options.Find().
		SetProjection(bson.M{"rows": 0}).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var batches []*models.ImportBatch
	if err = cursor.All(ctx, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *BatchRepository) SetMapping(ctx context.Context, ownerID, id string, mapping map[string]string) (bool, error) {
	filter := bson.M{
		"_id":      id,
		"owner_id": ownerID,
		"status":   bson.M{"$in": eligibleStatuses},
	}
	update := bson.M{"$set": bson.M{
		"mapping":    mapping,
		"status":     models.BatchStatusMapped,
		"updated_at": time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0 || result.MatchedCount > 0, nil
}

// ClaimProcessing is the read-check-write gate in front of row processing.
// The filter requires an eligible status and an attached mapping, so a
// concurrent duplicate call finds no matching document and observes busy.
func (r *BatchRepository) ClaimProcessing(ctx context.Context, ownerID, id string) (*models.ImportBatch, error) {
	filter := bson.M{
		"_id":      id,
		"owner_id": ownerID,
		"status":   bson.M{"$in": eligibleStatuses},
		"mapping":  bson.M{"$exists": true, "$ne": bson.M{}},
	}
	update := bson.M{"$set": bson.M{
		"status":     models.BatchStatusProcessing,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var batch models.ImportBatch
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *BatchRepository) Finalize(ctx context.Context, id string, status models.BatchStatus, created, skipped int, rowErrors []string) error {
	if rowErrors == nil {
		rowErrors = []string{}
	}
	filter := bson.M{"_id": id, "status": models.BatchStatusProcessing}
	update := bson.M{"$set": bson.M{
		"status":          status,
		"records_created": created,
		"rows_skipped":    skipped,
		"errors":          rowErrors,
		"updated_at":      time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes batch bookkeeping only; records created from the batch are
// never touched.
func (r *BatchRepository) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *BatchRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
