package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devotee-memorial/backend/internal/config"
	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/storage"
)

const (
	CoverImageField = "coverImage"
	MaxAudioFields  = 10

	notifyTimeout = 15 * time.Second
)

// AudioField returns the form field name of the i-th profile audio file.
func AudioField(i int) string {
	return fmt.Sprintf("audioFile_%d", i)
}

type ProfileService struct {
	store      ProfileStore
	gateway    *MediaGateway
	policy     config.ValidationPolicy
	rootFolder string
	log        *logrus.Logger
	notifier   SubmissionNotifier
	now        func() time.Time
}

func NewProfileService(store ProfileStore, gateway *MediaGateway, policy config.ValidationPolicy, rootFolder string, log *logrus.Logger) *ProfileService {
	return &ProfileService{
		store:      store,
		gateway:    gateway,
		policy:     policy,
		rootFolder: rootFolder,
		log:        log,
		now:        time.Now,
	}
}

// WithNotifier makes Create announce every stored submission to n.
func (s *ProfileService) WithNotifier(n SubmissionNotifier) *ProfileService {
	s.notifier = n
	return s
}

// Create validates a submitted profile form, uploads its media and stores it
// as pending. values holds the text fields, batch the staged files. Nothing
// is stored unless the cover image reached the media host.
func (s *ProfileService) Create(ctx context.Context, values map[string][]string, batch *storage.Batch) (*models.Profile, error) {
	p, err := s.profileFromForm(values)
	if err != nil {
		return nil, err
	}

	covers := batch.Field(CoverImageField)
	if len(covers) == 0 {
		return nil, ErrCoverImageRequired
	}
	if len(covers) > 1 {
		return nil, fieldError(CoverImageField, "Only one cover image is allowed")
	}
	cover := covers[0]
	if !cover.IsImage() {
		return nil, ErrCoverImageInvalid
	}

	batch.Handoff(cover)
	coverRes := s.gateway.Upload(ctx, cover.Path, path.Join(s.rootFolder, "profiles", "covers"), KindImage)
	if coverRes == nil {
		return nil, ErrCoverUploadFailed
	}
	uploaded := []*models.MediaUploadResult{coverRes}
	p.CoverImage = coverRes.URL

	audioFolder := path.Join(s.rootFolder, "profiles", "audio")
	for i := 0; i < MaxAudioFields; i++ {
		for _, f := range batch.Field(AudioField(i)) {
			batch.Handoff(f)
			res := s.gateway.Upload(ctx, f.Path, audioFolder, KindVideo)
			if res == nil {
				s.log.WithField("field", f.Field).Warn("audio upload skipped")
				continue
			}
			uploaded = append(uploaded, res)
			p.AudioFiles = append(p.AudioFiles, res.URL)
		}
	}

	now := s.now().UTC()
	p.ID = uuid.NewString()
	p.Status = models.ProfileStatusPending
	p.CreatedAt = now
	p.UpdatedAt = now
	p.EnsureLists()

	if err := s.store.Create(ctx, p); err != nil {
		s.gateway.Discard(context.WithoutCancel(ctx), uploaded)
		return nil, fmt.Errorf("store profile: %w", err)
	}

	s.log.WithFields(logrus.Fields{"profile_id": p.ID, "audio_files": len(p.AudioFiles)}).Info("profile submitted")
	if s.notifier != nil {
		go s.notify(context.WithoutCancel(ctx), p)
	}
	return p, nil
}

// notify runs after the response is written; failures are only logged.
func (s *ProfileService) notify(ctx context.Context, p *models.Profile) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := s.notifier.ProfileSubmitted(ctx, p); err != nil {
		s.log.WithError(err).WithField("profile_id", p.ID).Warn("submission notification failed")
	}
}

// profileFromForm builds an unsaved profile from the text fields and applies
// every rule that does not need the uploaded files.
func (s *ProfileService) profileFromForm(values map[string][]string) (*models.Profile, error) {
	get := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	required := []struct{ field, label string }{
		{"name", "Name"},
		{"birthDate", "Birth date"},
		{"deathDate", "Death date"},
		{"location", "Location"},
		{"description", "Description"},
		{"contributorName", "Contributor name"},
		{"contributorPhone", "Contributor phone"},
	}
	if s.policy.RequireSpiritualMaster {
		required = append(required, struct{ field, label string }{"spiritualMaster", "Spiritual master"})
	}

	errs := make(map[string]string)
	for _, r := range required {
		if get(r.field) == "" {
			errs[r.field] = r.label + " is required"
		}
	}

	var birth, death time.Time
	var err error
	if raw := get("birthDate"); raw != "" {
		if birth, err = ParseCalendarDate(raw); err != nil {
			errs["birthDate"] = "Birth date must be a valid date (yyyy-MM-dd)"
		}
	}
	if raw := get("deathDate"); raw != "" {
		if death, err = ParseCalendarDate(raw); err != nil {
			errs["deathDate"] = "Death date must be a valid date (yyyy-MM-dd)"
		}
	}
	if len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	if !death.After(birth) {
		return nil, fieldError("deathDate", "Death date must be after birth date")
	}
	if limit := s.policy.MaxLifespanYears; limit > 0 && death.Year()-birth.Year() > limit {
		return nil, fieldError("deathDate", fmt.Sprintf("Lifespan cannot exceed %d years", limit))
	}

	p := &models.Profile{
		Name:                       get("name"),
		Honorific:                  get("honorific"),
		BirthDate:                  birth,
		DeathDate:                  death,
		Years:                      get("years"),
		SpiritualMaster:            get("spiritualMaster"),
		Location:                   get("location"),
		Description:                get("description"),
		ContributorName:            get("contributorName"),
		ContributorPhone:           get("contributorPhone"),
		AssociatedTemple:           get("associatedTemple"),
		AshramRole:                 get("ashramRole"),
		AccountType:                get("accountType"),
		BirthPlace:                 get("birthPlace"),
		SpiritualLineage:           get("spiritualLineage"),
		NotableWorks:               get("notableWorks"),
		PhilosophicalContributions: get("philosophicalContributions"),
		Disciples:                  get("disciples"),
		MemorialLocation:           get("memorialLocation"),
		CoreServices:               NormalizeStringList(values["coreServices"], true),
		KeyAchievements:            NormalizeStringList(values["keyAchievements"], false),
		Timeline:                   NormalizeTimeline(values["timeline"]),
	}
	p.Derive()
	return p, nil
}

// Import stores a complete profile as given, deriving date fields. Used by
// the seeder.
func (s *ProfileService) Import(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if !p.Status.Valid() {
		p.Status = models.ProfileStatusPending
	}
	now := s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Derive()
	p.EnsureLists()

	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("store profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	return s.store.GetByID(ctx, id)
}

func (s *ProfileService) ListByStatus(ctx context.Context, status models.ProfileStatus) ([]*models.Profile, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.store.ListByStatus(ctx, status)
}

// AcceptedCards lists accepted profiles in their card projection.
func (s *ProfileService) AcceptedCards(ctx context.Context) ([]models.ProfileCard, error) {
	profiles, err := s.store.ListByStatus(ctx, models.ProfileStatusAccepted)
	if err != nil {
		return nil, err
	}
	cards := make([]models.ProfileCard, 0, len(profiles))
	for _, p := range profiles {
		cards = append(cards, p.Card())
	}
	return cards, nil
}

func (s *ProfileService) UpdateStatus(ctx context.Context, id string, status models.ProfileStatus) (*models.Profile, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	p, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"profile_id": id, "status": status}).Info("profile status updated")
	return p, nil
}

func (s *ProfileService) AddAchievement(ctx context.Context, id, achievement string) (*models.Profile, error) {
	achievement = strings.TrimSpace(achievement)
	if achievement == "" {
		return nil, fieldError("achievement", "Achievement is required")
	}
	return s.store.AppendAchievement(ctx, id, achievement)
}

func (s *ProfileService) AddTimeline(ctx context.Context, id string, req *models.AddTimelineRequest) (*models.Profile, error) {
	req.Year = strings.TrimSpace(req.Year)
	req.Title = strings.TrimSpace(req.Title)
	req.Event = strings.TrimSpace(req.Event)
	req.Description = strings.TrimSpace(req.Description)
	if errs := req.Validate(); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}
	return s.store.AppendTimeline(ctx, id, req.Entry())
}

func (s *ProfileService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("profile_id", id).Info("profile deleted")
	return nil
}
