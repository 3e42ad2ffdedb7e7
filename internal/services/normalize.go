package services

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/devotee-memorial/backend/internal/models"
)

var errInvalidDate = errors.New("invalid date")

// ParseCalendarDate accepts yyyy-MM-dd (month and day may be unpadded) or an
// RFC 3339 timestamp and returns midnight UTC of that calendar day.
func ParseCalendarDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errInvalidDate
	}
	for _, layout := range []string{"2006-01-02", "2006-1-2"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		u := t.UTC()
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, errInvalidDate
}

// NormalizeStringList turns the encodings a form may use for a list field
// into one slice: repeated values, a JSON array string, or (with allowCSV) a
// comma separated string. A value that looks like JSON but does not parse
// yields an empty list.
func NormalizeStringList(values []string, allowCSV bool) []string {
	out := []string{}

	if len(values) > 1 {
		for _, v := range values {
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if len(values) == 0 {
		return out
	}

	s := strings.TrimSpace(values[0])
	switch {
	case s == "":
		return out
	case strings.HasPrefix(s, "["):
		var raw []interface{}
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return out
		}
		for _, item := range raw {
			if str := scalarString(item); str != "" {
				out = append(out, str)
			}
		}
		return out
	case allowCSV:
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return append(out, s)
	}
}

// NormalizeTimeline accepts a JSON array string or repeated JSON object
// values. Any unparseable input yields an empty list.
func NormalizeTimeline(values []string) []models.TimelineEntry {
	out := []models.TimelineEntry{}

	var raw []timelineInput
	switch {
	case len(values) == 0:
		return out
	case len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "["):
		if err := json.Unmarshal([]byte(values[0]), &raw); err != nil {
			return out
		}
	default:
		for _, v := range values {
			if strings.TrimSpace(v) == "" {
				continue
			}
			var item timelineInput
			if err := json.Unmarshal([]byte(v), &item); err != nil {
				return []models.TimelineEntry{}
			}
			raw = append(raw, item)
		}
	}

	for _, item := range raw {
		entry := item.entry()
		if entry.Year == "" && entry.Title == "" && entry.Event == "" {
			continue
		}
		out = append(out, entry)
	}
	return out
}

type timelineInput struct {
	Year        looseString `json:"year"`
	Title       looseString `json:"title"`
	Event       looseString `json:"event"`
	Description looseString `json:"description"`
}

func (t timelineInput) entry() models.TimelineEntry {
	event := strings.TrimSpace(string(t.Event))
	if event == "" {
		event = strings.TrimSpace(string(t.Description))
	}
	return models.TimelineEntry{
		Year:  strings.TrimSpace(string(t.Year)),
		Title: strings.TrimSpace(string(t.Title)),
		Event: event,
	}
}

// looseString decodes a JSON string, number or bool as text. Clients send
// timeline years both as "1950" and 1950.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = looseString(scalarString(v))
	return nil
}

func scalarString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
