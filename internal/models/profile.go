package models

import (
	"fmt"
	"time"
)

type ProfileStatus string

const (
	ProfileStatusPending  ProfileStatus = "pending"
	ProfileStatusAccepted ProfileStatus = "accepted"
	ProfileStatusDeclined ProfileStatus = "declined"
)

func (s ProfileStatus) Valid() bool {
	switch s {
	case ProfileStatusPending, ProfileStatusAccepted, ProfileStatusDeclined:
		return true
	}
	return false
}

// TimelineEntry is one dated event in a profile's life story.
type TimelineEntry struct {
	Year  string `json:"year" bson:"year"`
	Title string `json:"title" bson:"title"`
	Event string `json:"event" bson:"event"`
}

// Profile is a memorial record for one departed devotee.
type Profile struct {
	ID               string        `json:"id" bson:"_id"`
	Name             string        `json:"name" bson:"name"`
	Honorific        string        `json:"honorific,omitempty" bson:"honorific,omitempty"`
	BirthDate        time.Time     `json:"birthDate" bson:"birth_date"`
	DeathDate        time.Time     `json:"deathDate" bson:"death_date"`
	BirthYear        int           `json:"birthYear" bson:"birth_year"`
	BirthMonth       int           `json:"birthMonth" bson:"birth_month"`
	BirthDay         int           `json:"birthDay" bson:"birth_day"`
	DeathYear        int           `json:"deathYear" bson:"death_year"`
	DeathMonth       int           `json:"deathMonth" bson:"death_month"`
	DeathDay         int           `json:"deathDay" bson:"death_day"`
	Years            string        `json:"years" bson:"years"`
	SpiritualMaster  string        `json:"spiritualMaster" bson:"spiritual_master"`
	Location         string        `json:"location" bson:"location"`
	Description      string        `json:"description" bson:"description"`
	CoverImage       string        `json:"coverImage" bson:"cover_image"`
	ContributorName  string        `json:"contributorName" bson:"contributor_name"`
	ContributorPhone string        `json:"contributorPhone" bson:"contributor_phone"`
	Status           ProfileStatus `json:"status" bson:"status"`

	AssociatedTemple           string          `json:"associatedTemple,omitempty" bson:"associated_temple,omitempty"`
	AshramRole                 string          `json:"ashramRole,omitempty" bson:"ashram_role,omitempty"`
	AccountType                string          `json:"accountType,omitempty" bson:"account_type,omitempty"`
	BirthPlace                 string          `json:"birthPlace,omitempty" bson:"birth_place,omitempty"`
	SpiritualLineage           string          `json:"spiritualLineage,omitempty" bson:"spiritual_lineage,omitempty"`
	NotableWorks               string          `json:"notableWorks,omitempty" bson:"notable_works,omitempty"`
	PhilosophicalContributions string          `json:"philosophicalContributions,omitempty" bson:"philosophical_contributions,omitempty"`
	Disciples                  string          `json:"disciples,omitempty" bson:"disciples,omitempty"`
	MemorialLocation           string          `json:"memorialLocation,omitempty" bson:"memorial_location,omitempty"`
	CoreServices               []string        `json:"coreServices" bson:"core_services"`
	AudioFiles                 []string        `json:"audioFiles" bson:"audio_files"`
	KeyAchievements            []string        `json:"keyAchievements" bson:"key_achievements"`
	Timeline                   []TimelineEntry `json:"timeline" bson:"timeline"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// Derive fills the date parts and the display years string from BirthDate
// and DeathDate. A years value that is already set is kept.
func (p *Profile) Derive() {
	if !p.BirthDate.IsZero() {
		b := p.BirthDate.UTC()
		p.BirthYear, p.BirthMonth, p.BirthDay = b.Year(), int(b.Month()), b.Day()
	}
	if !p.DeathDate.IsZero() {
		d := p.DeathDate.UTC()
		p.DeathYear, p.DeathMonth, p.DeathDay = d.Year(), int(d.Month()), d.Day()
	}
	if p.Years == "" && p.BirthYear != 0 && p.DeathYear != 0 {
		p.Years = FormatYears(p.BirthYear, p.DeathYear)
	}
}

// EnsureLists replaces nil list fields with empty slices so they encode as [].
func (p *Profile) EnsureLists() {
	if p.CoreServices == nil {
		p.CoreServices = []string{}
	}
	if p.AudioFiles == nil {
		p.AudioFiles = []string{}
	}
	if p.KeyAchievements == nil {
		p.KeyAchievements = []string{}
	}
	if p.Timeline == nil {
		p.Timeline = []TimelineEntry{}
	}
}

func FormatYears(birthYear, deathYear int) string {
	return fmt.Sprintf("%d - %d", birthYear, deathYear)
}

// ProfileCard is the listing projection shown on the memorial board.
type ProfileCard struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Years       string `json:"years"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Memories    int    `json:"memories"`
	Image       string `json:"image"`
}

func (p *Profile) Card() ProfileCard {
	years := p.Years
	if years == "" {
		years = FormatYears(p.BirthYear, p.DeathYear)
	}
	return ProfileCard{
		ID:          p.ID,
		Name:        p.Name,
		Years:       years,
		Description: p.Description,
		Location:    p.Location,
		Memories:    len(p.Timeline),
		Image:       p.CoverImage,
	}
}

type UpdateStatusRequest struct {
	Status ProfileStatus `json:"status"`
}

type AddAchievementRequest struct {
	Achievement string `json:"achievement"`
}

type AddTimelineRequest struct {
	Year        string `json:"year"`
	Title       string `json:"title"`
	Event       string `json:"event"`
	Description string `json:"description"`
}

func (r *AddTimelineRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Year == "" {
		errors["year"] = "Year is required"
	}
	if r.Title == "" && r.Event == "" && r.Description == "" {
		errors["event"] = "One of title, event or description is required"
	}
	return errors
}

// Entry builds the stored entry, using description when event is empty.
func (r *AddTimelineRequest) Entry() TimelineEntry {
	event := r.Event
	if event == "" {
		event = r.Description
	}
	return TimelineEntry{Year: r.Year, Title: r.Title, Event: event}
}
