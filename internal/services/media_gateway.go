package services

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devotee-memorial/backend/internal/metrics"
	"github.com/devotee-memorial/backend/internal/models"
)

// ResourceKind tells the media host how to treat an uploaded file.
type ResourceKind string

const (
	KindImage ResourceKind = "image"
	KindVideo ResourceKind = "video" // audio and video
	KindAuto  ResourceKind = "auto"
)

// MediaHost stores files durably and returns their public location.
type MediaHost interface {
	Upload(ctx context.Context, localPath, folder string, kind ResourceKind) (*models.MediaUploadResult, error)
	Delete(ctx context.Context, publicID string, kind ResourceKind) error
}

// ImageScreener decides whether an image is fit to publish.
type ImageScreener interface {
	Screen(ctx context.Context, localPath string) (safe bool, err error)
}

// MediaGateway moves staged files to the media host. It never returns an
// error: a failed upload yields nil and the caller decides whether to skip the
// file or abort. The local file is removed exactly once per call, whatever the
// outcome.
type MediaGateway struct {
	host     MediaHost
	screener ImageScreener
	timeout  time.Duration
	log      *logrus.Logger
}

func NewMediaGateway(host MediaHost, screener ImageScreener, timeout time.Duration, log *logrus.Logger) *MediaGateway {
	return &MediaGateway{
		host:     host,
		screener: screener,
		timeout:  timeout,
		log:      log,
	}
}

func (g *MediaGateway) Upload(ctx context.Context, localPath, folder string, kind ResourceKind) *models.MediaUploadResult {
	entry := g.log.WithFields(logrus.Fields{"path": localPath, "folder": folder, "kind": kind})

	if localPath == "" {
		entry.Warn("media upload skipped: no file path")
		metrics.MediaUploads.WithLabelValues(string(kind), "missing").Inc()
		return nil
	}
	defer g.removeLocal(localPath, entry)

	if _, err := os.Stat(localPath); err != nil {
		entry.WithError(err).Error("media upload skipped: staged file missing")
		metrics.MediaUploads.WithLabelValues(string(kind), "missing").Inc()
		return nil
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if kind == KindImage && g.screener != nil {
		safe, err := g.screener.Screen(ctx, localPath)
		if err != nil {
			entry.WithError(err).Error("image screening failed")
			metrics.MediaUploads.WithLabelValues(string(kind), "screen_error").Inc()
			return nil
		}
		if !safe {
			entry.Warn("image rejected by screening")
			metrics.MediaUploads.WithLabelValues(string(kind), "rejected").Inc()
			return nil
		}
	}

	res, err := g.host.Upload(ctx, localPath, folder, kind)
	if err != nil {
		entry.WithError(err).Error("media upload failed")
		metrics.MediaUploads.WithLabelValues(string(kind), "failed").Inc()
		return nil
	}
	if res == nil || res.URL == "" {
		entry.Error("media upload returned no url")
		metrics.MediaUploads.WithLabelValues(string(kind), "failed").Inc()
		return nil
	}

	entry.WithField("url", res.URL).Info("media upload succeeded")
	metrics.MediaUploads.WithLabelValues(string(kind), "ok").Inc()
	return res
}

// Discard removes already uploaded media after a later step failed. Errors
// are logged only.
func (g *MediaGateway) Discard(ctx context.Context, results []*models.MediaUploadResult) {
	for _, res := range results {
		if res == nil || res.PublicID == "" {
			continue
		}
		kind := ResourceKind(res.ResourceType)
		if kind == "" || kind == KindAuto {
			kind = KindImage
		}
		if err := g.host.Delete(ctx, res.PublicID, kind); err != nil {
			g.log.WithError(err).WithField("public_id", res.PublicID).Warn("failed to discard uploaded media")
		}
	}
}

func (g *MediaGateway) removeLocal(path string, entry *logrus.Entry) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		entry.WithError(err).Warn("failed to remove staged file")
	}
}
