package models

import "time"

type OfferingStatus string

const (
	OfferingStatusPending  OfferingStatus = "pending"
	OfferingStatusApproved OfferingStatus = "approved"
	OfferingStatusRejected OfferingStatus = "rejected"
)

const (
	MaxOfferingImages = 5
	MaxOfferingAudios = 3
)

// Offering is a tribute left by a visitor on a profile.
type Offering struct {
	ID        string         `json:"id" bson:"_id"`
	ProfileID string         `json:"profile" bson:"profile_id"`
	Message   string         `json:"message" bson:"message"`
	Relation  string         `json:"relation,omitempty" bson:"relation,omitempty"`
	Images    []string       `json:"images" bson:"images"`
	Audios    []string       `json:"audios" bson:"audios"`
	VideoLink string         `json:"videoLink,omitempty" bson:"video_link,omitempty"`
	Status    OfferingStatus `json:"status" bson:"status"`
	CreatedAt time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time      `json:"updatedAt" bson:"updated_at"`
}

// VideoEmbed is the playable form of an offering's video link.
type VideoEmbed struct {
	Provider     string `json:"provider"`
	EmbedURL     string `json:"embedUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// OfferingView is an offering as returned to clients.
type OfferingView struct {
	Offering
	Video *VideoEmbed `json:"video,omitempty"`
}
