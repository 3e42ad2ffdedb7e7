package storage

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo opens a client and pings the primary.
func ConnectMongo(ctx context.Context, uri string, forceTLS12 bool) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri)
	if forceTLS12 {
		// Atlas occasionally fails TLS negotiation unless TLS 1.2 is pinned.
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS12,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("storage: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("storage: mongo ping: %w", err)
	}
	return client, nil
}
