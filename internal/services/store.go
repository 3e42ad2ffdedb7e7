package services

import (
	"context"

	"github.com/devotee-memorial/backend/internal/models"
)

// ProfileStore persists memorial profiles. Implementations return
// ErrProfileNotFound for unknown ids and apply list appends atomically.
type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	// ListByStatus returns profiles with the given status, newest first.
	ListByStatus(ctx context.Context, status models.ProfileStatus) ([]*models.Profile, error)
	UpdateStatus(ctx context.Context, id string, status models.ProfileStatus) (*models.Profile, error)
	AppendAchievement(ctx context.Context, id string, achievement string) (*models.Profile, error)
	AppendTimeline(ctx context.Context, id string, entry models.TimelineEntry) (*models.Profile, error)
	Delete(ctx context.Context, id string) error
}

// OfferingStore persists offerings. The profile reference is not enforced.
type OfferingStore interface {
	Create(ctx context.Context, o *models.Offering) error
	// ListByProfile returns a profile's offerings, newest first.
	ListByProfile(ctx context.Context, profileID string) ([]*models.Offering, error)
}
