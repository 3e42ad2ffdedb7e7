package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/devotee-memorial/backend/internal/config"
	"github.com/devotee-memorial/backend/internal/storage"
)

// Stores bundles the persistence backends chosen at startup.
type Stores struct {
	Profiles  ProfileStore
	Offerings OfferingStore
	Backend   string

	client *mongo.Client
}

// OpenStores connects to MongoDB when a URI is configured and otherwise
// falls back to JSON files under dataDir.
func OpenStores(ctx context.Context, cfg config.MongoConfig, dataDir string) (*Stores, error) {
	if cfg.URI == "" {
		profileFile, err := storage.NewJSONStore(dataDir, "profiles.json")
		if err != nil {
			return nil, err
		}
		offeringFile, err := storage.NewJSONStore(dataDir, "offerings.json")
		if err != nil {
			return nil, err
		}
		profiles, err := NewFileProfileStore(profileFile)
		if err != nil {
			return nil, fmt.Errorf("load profiles: %w", err)
		}
		offerings, err := NewFileOfferingStore(offeringFile)
		if err != nil {
			return nil, fmt.Errorf("load offerings: %w", err)
		}
		return &Stores{Profiles: profiles, Offerings: offerings, Backend: "file"}, nil
	}

	client, err := storage.ConnectMongo(ctx, cfg.URI, cfg.TLS)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Database)
	return &Stores{
		Profiles:  NewMongoProfileStore(ctx, db),
		Offerings: NewMongoOfferingStore(ctx, db),
		Backend:   "mongo",
		client:    client,
	}, nil
}

func (s *Stores) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
