package repository

import (
	"context"

	"cellar-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type WineRepository struct {
	collection *mongo.Collection
}

func NewWineRepository(db *mongo.Database) *WineRepository {
	return &WineRepository{
		collection: db.Collection("wines"),
	}
}

var _ WineRepo = (*WineRepository)(nil)

func (r *WineRepository) Create(ctx context.Context, wine *models.Wine) error {
	_, err := r.collection.InsertOne(ctx, wine)
	return err
}

func (r *WineRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "name", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
