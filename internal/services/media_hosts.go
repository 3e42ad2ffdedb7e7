package services

import (
	"context"
	"fmt"

	"github.com/devotee-memorial/backend/internal/config"
)

// NewMediaHost builds the host selected by cfg.Provider.
func NewMediaHost(ctx context.Context, cfg config.MediaConfig) (MediaHost, error) {
	switch cfg.Provider {
	case "cloudinary":
		return NewCloudinaryHost(CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Timeout:   cfg.Timeout,
		}), nil
	case "gcs":
		return NewGCSHost(ctx, cfg.GCSBucket)
	case "local":
		return NewLocalHost(cfg.UploadDir, cfg.PublicBaseURL)
	}
	return nil, fmt.Errorf("unknown media provider %q", cfg.Provider)
}
