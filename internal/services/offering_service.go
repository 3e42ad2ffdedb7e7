package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/storage"
	"github.com/devotee-memorial/backend/internal/videolink"
)

const (
	OfferingImagesField = "images"
	OfferingAudiosField = "audios"
)

// profileRefFields are the form fields that may carry the offering's profile
// id, in order of preference.
var profileRefFields = []string{"devoteeId", "profileId", "profile"}

type OfferingService struct {
	store      OfferingStore
	profiles   ProfileStore
	gateway    *MediaGateway
	rootFolder string
	log        *logrus.Logger
	now        func() time.Time
}

func NewOfferingService(store OfferingStore, profiles ProfileStore, gateway *MediaGateway, rootFolder string, log *logrus.Logger) *OfferingService {
	return &OfferingService{
		store:      store,
		profiles:   profiles,
		gateway:    gateway,
		rootFolder: rootFolder,
		log:        log,
		now:        time.Now,
	}
}

// Create stores an offering for an existing profile. Staged parts with the
// wrong content type and failed uploads are dropped.
func (s *OfferingService) Create(ctx context.Context, values map[string][]string, batch *storage.Batch) (*models.OfferingView, error) {
	get := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	var profileID string
	for _, field := range profileRefFields {
		if profileID = get(field); profileID != "" {
			break
		}
	}
	message := get("message")

	errs := make(map[string]string)
	if profileID == "" {
		errs["devoteeId"] = "Profile id is required"
	}
	if message == "" {
		errs["message"] = "Message is required"
	}
	images := batch.Field(OfferingImagesField)
	if len(images) > models.MaxOfferingImages {
		errs[OfferingImagesField] = fmt.Sprintf("At most %d images are allowed", models.MaxOfferingImages)
	}
	audios := batch.Field(OfferingAudiosField)
	if len(audios) > models.MaxOfferingAudios {
		errs[OfferingAudiosField] = fmt.Sprintf("At most %d audio files are allowed", models.MaxOfferingAudios)
	}
	if len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	if _, err := s.profiles.GetByID(ctx, profileID); err != nil {
		return nil, err
	}

	o := &models.Offering{
		ProfileID: profileID,
		Message:   message,
		Relation:  get("relation"),
		VideoLink: get("videoLink"),
		Images:    []string{},
		Audios:    []string{},
	}

	var uploaded []*models.MediaUploadResult
	imageFolder := path.Join(s.rootFolder, "offerings", "images")
	for _, f := range images {
		if !f.IsImage() {
			s.log.WithField("content_type", f.ContentType).Warn("offering image dropped: not an image")
			continue
		}
		batch.Handoff(f)
		if res := s.gateway.Upload(ctx, f.Path, imageFolder, KindImage); res != nil {
			uploaded = append(uploaded, res)
			o.Images = append(o.Images, res.URL)
		}
	}
	audioFolder := path.Join(s.rootFolder, "offerings", "audios")
	for _, f := range audios {
		if !f.IsAudio() {
			s.log.WithField("content_type", f.ContentType).Warn("offering audio dropped: not audio")
			continue
		}
		batch.Handoff(f)
		if res := s.gateway.Upload(ctx, f.Path, audioFolder, KindVideo); res != nil {
			uploaded = append(uploaded, res)
			o.Audios = append(o.Audios, res.URL)
		}
	}

	now := s.now().UTC()
	o.ID = uuid.NewString()
	o.Status = models.OfferingStatusPending
	o.CreatedAt = now
	o.UpdatedAt = now

	if err := s.store.Create(ctx, o); err != nil {
		s.gateway.Discard(context.WithoutCancel(ctx), uploaded)
		return nil, fmt.Errorf("store offering: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"offering_id": o.ID,
		"profile_id":  profileID,
		"images":      len(o.Images),
		"audios":      len(o.Audios),
	}).Info("offering created")

	view := NewOfferingView(o)
	return &view, nil
}

// ListByProfile returns a profile's offerings newest first. An unknown
// profile id yields an empty list.
func (s *OfferingService) ListByProfile(ctx context.Context, profileID string) ([]models.OfferingView, error) {
	offerings, err := s.store.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	views := make([]models.OfferingView, 0, len(offerings))
	for _, o := range offerings {
		views = append(views, NewOfferingView(o))
	}
	return views, nil
}

// NewOfferingView attaches embed information for the stored video link. The
// link itself is returned unchanged.
func NewOfferingView(o *models.Offering) models.OfferingView {
	view := models.OfferingView{Offering: *o}
	if e, ok := videolink.Parse(o.VideoLink); ok {
		view.Video = &models.VideoEmbed{
			Provider:     e.Provider,
			EmbedURL:     e.EmbedURL,
			ThumbnailURL: e.ThumbnailURL,
		}
	}
	return view
}
