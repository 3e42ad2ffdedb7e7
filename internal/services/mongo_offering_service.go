package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devotee-memorial/backend/internal/models"
)

// MongoOfferingStore stores offerings in the "offerings" collection.
type MongoOfferingStore struct {
	offeringsCol *mongo.Collection
}

func NewMongoOfferingStore(ctx context.Context, db *mongo.Database) *MongoOfferingStore {
	col := db.Collection("offerings")

	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "profile_id", Value: 1}, {Key: "created_at", Value: -1}},
	})

	return &MongoOfferingStore{offeringsCol: col}
}

func (s *MongoOfferingStore) Create(ctx context.Context, o *models.Offering) error {
	_, err := s.offeringsCol.InsertOne(ctx, o)
	return err
}

func (s *MongoOfferingStore) ListByProfile(ctx context.Context, profileID string) ([]*models.Offering, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.offeringsCol.Find(ctx, bson.M{"profile_id": profileID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Offering, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for _, o := range out {
		if o.Images == nil {
			o.Images = []string{}
		}
		if o.Audios == nil {
			o.Audios = []string{}
		}
	}
	return out, nil
}
