package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/devotee-memorial/backend/internal/models"
)

var ErrMediaNotFound = errors.New("media not found")

// LocalHost keeps media in a directory served by the API under /uploads/.
// It stands in for the external host during development.
type LocalHost struct {
	uploadDir string
	baseURL   string
}

func NewLocalHost(uploadDir, publicBaseURL string) (*LocalHost, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("local media: create upload dir: %w", err)
	}
	return &LocalHost{
		uploadDir: uploadDir,
		baseURL:   strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (h *LocalHost) Upload(ctx context.Context, localPath, folder string, kind ResourceKind) (*models.MediaUploadResult, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("local media: open staged file: %w", err)
	}
	defer src.Close()

	ext := filepath.Ext(localPath)
	if ext == "" && kind == KindImage {
		ext = ".jpg"
	}
	rel := filepath.ToSlash(filepath.Join(cleanFolder(folder), uuid.NewString()+ext))
	dstPath := filepath.Join(h.uploadDir, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return nil, fmt.Errorf("local media: create folder: %w", err)
	}
	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("local media: create file: %w", err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("local media: save file: %w", err)
	}

	return &models.MediaUploadResult{
		URL:          h.baseURL + "/uploads/" + rel,
		PublicID:     rel,
		ResourceType: string(kind),
		Bytes:        n,
	}, nil
}

func (h *LocalHost) Delete(ctx context.Context, publicID string, kind ResourceKind) error {
	rel := filepath.FromSlash(publicID)
	if rel == "" || strings.Contains(rel, "..") {
		return ErrMediaNotFound
	}
	if err := os.Remove(filepath.Join(h.uploadDir, rel)); err != nil {
		if os.IsNotExist(err) {
			return ErrMediaNotFound
		}
		return fmt.Errorf("local media: delete file: %w", err)
	}
	return nil
}

// cleanFolder keeps folder names inside the upload directory.
func cleanFolder(folder string) string {
	parts := strings.Split(filepath.ToSlash(folder), "/")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		kept = append(kept, p)
	}
	return filepath.Join(kept...)
}
