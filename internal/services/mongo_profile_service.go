package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devotee-memorial/backend/internal/models"
)

// MongoProfileStore stores profiles in the "profiles" collection.
type MongoProfileStore struct {
	profilesCol *mongo.Collection
}

func NewMongoProfileStore(ctx context.Context, db *mongo.Database) *MongoProfileStore {
	col := db.Collection("profiles")

	// Best-effort indexes.
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})

	return &MongoProfileStore{profilesCol: col}
}

func (s *MongoProfileStore) Create(ctx context.Context, p *models.Profile) error {
	_, err := s.profilesCol.InsertOne(ctx, p)
	return err
}

func (s *MongoProfileStore) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var prof models.Profile
	if err := s.profilesCol.FindOne(ctx, bson.M{"_id": id}).Decode(&prof); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	prof.EnsureLists()
	return &prof, nil
}

func (s *MongoProfileStore) ListByStatus(ctx context.Context, status models.ProfileStatus) ([]*models.Profile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.profilesCol.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Profile, 0)
	for cur.Next(ctx) {
		var prof models.Profile
		if err := cur.Decode(&prof); err != nil {
			return nil, err
		}
		prof.EnsureLists()
		out = append(out, &prof)
	}
	return out, cur.Err()
}

func (s *MongoProfileStore) UpdateStatus(ctx context.Context, id string, status models.ProfileStatus) (*models.Profile, error) {
	return s.findAndUpdate(ctx, id, bson.M{
		"$set": bson.M{"status": status, "updated_at": time.Now().UTC()},
	})
}

// AppendAchievement appends atomically with $push.
func (s *MongoProfileStore) AppendAchievement(ctx context.Context, id string, achievement string) (*models.Profile, error) {
	return s.findAndUpdate(ctx, id, bson.M{
		"$push": bson.M{"key_achievements": achievement},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (s *MongoProfileStore) AppendTimeline(ctx context.Context, id string, entry models.TimelineEntry) (*models.Profile, error) {
	return s.findAndUpdate(ctx, id, bson.M{
		"$push": bson.M{"timeline": entry},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (s *MongoProfileStore) Delete(ctx context.Context, id string) error {
	res, err := s.profilesCol.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (s *MongoProfileStore) findAndUpdate(ctx context.Context, id string, update bson.M) (*models.Profile, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var prof models.Profile
	err := s.profilesCol.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&prof)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	prof.EnsureLists()
	return &prof, nil
}
