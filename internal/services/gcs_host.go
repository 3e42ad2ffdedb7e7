package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/devotee-memorial/backend/internal/models"
)

// GCSHost writes media into a Cloud Storage bucket whose objects are
// publicly readable.
type GCSHost struct {
	gcs    *gcs.Client
	bucket string
}

// NewGCSHost creates a storage client once at server startup using
// Application Default Credentials.
func NewGCSHost(ctx context.Context, bucket string) (*GCSHost, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: storage client: %w", err)
	}
	return &GCSHost{gcs: client, bucket: bucket}, nil
}

func (h *GCSHost) Close() error {
	return h.gcs.Close()
}

func (h *GCSHost) Upload(ctx context.Context, localPath, folder string, kind ResourceKind) (*models.MediaUploadResult, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("gcs: open staged file: %w", err)
	}
	defer src.Close()

	ext := filepath.Ext(localPath)
	objectName := path.Join(folder, uuid.NewString()+ext)

	w := h.gcs.Bucket(h.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = mime.TypeByExtension(ext)
	w.Metadata = map[string]string{"kind": string(kind)}

	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return nil, fmt.Errorf("gcs: write %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gcs: finalize %s: %w", objectName, err)
	}

	var size int64
	if attrs := w.Attrs(); attrs != nil {
		size = attrs.Size
	}
	return &models.MediaUploadResult{
		URL:          gcsPublicURL(h.bucket, objectName),
		PublicID:     objectName,
		ResourceType: string(kind),
		Bytes:        size,
	}, nil
}

func (h *GCSHost) Delete(ctx context.Context, publicID string, kind ResourceKind) error {
	err := h.gcs.Bucket(h.bucket).Object(publicID).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func gcsPublicURL(bucket, objectName string) string {
	u := url.URL{
		Scheme: "https",
		Host:   "storage.googleapis.com",
		Path:   "/" + bucket + "/" + objectName,
	}
	return u.String()
}
