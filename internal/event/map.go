package event

import (
	"errors"
	"fmt"
	"time"

	"fairhaven/internal/airtable"
	"fairhaven/internal/model"
)

// Field names in the events table. These are contract with the Airtable base;
// renaming a column upstream breaks the mapper.
const (
	fieldName       = "Name"
	fieldStartDate  = "Start Date"
	fieldEndDate    = "End Date"
	fieldDesc       = "Description"
	fieldLocation   = "Location"
	fieldNotes      = "Notes"
	fieldURL        = "URL"
	fieldHost       = "Host"
	fieldType       = "Type"
	fieldStatus     = "Status"
	fieldFeatured   = "Featured"
	fieldPriority   = "Priority"
	fieldRecurrence = "Recurrence"
	fieldPoster     = "Poster"
	fieldRetro      = "Retro"
)

// FromRecord maps one Airtable record onto the canonical Event.
//
// The mapping is a straight rename per field, with three exceptions: the two
// date fields are parsed from ISO-8601 strings, and the poster comes from the
// first element of the attachment array (an empty array maps to nil). Absent
// optional fields stay at their zero value and are omitted from JSON; nothing
// is defaulted to "". The function performs no I/O, so mapping the same
// record twice yields deep-equal events.
func FromRecord(rec airtable.Record) (model.Event, error) {
	var ev model.Event

	name := str(rec.Fields, fieldName)
	if name == "" {
		return ev, fmt.Errorf("event %s: missing %s", rec.ID, fieldName)
	}

	start, err := parseISO(str(rec.Fields, fieldStartDate))
	if err != nil {
		return ev, fmt.Errorf("event %s: %w", rec.ID, err)
	}

	ev = model.Event{
		ID:          rec.ID,
		Name:        name,
		StartDate:   start,
		Description: str(rec.Fields, fieldDesc),
		Location:    str(rec.Fields, fieldLocation),
		Notes:       str(rec.Fields, fieldNotes),
		URL:         str(rec.Fields, fieldURL),
		Host:        str(rec.Fields, fieldHost),
		Type:        str(rec.Fields, fieldType),
		Status:      str(rec.Fields, fieldStatus),
		Featured:    boolean(rec.Fields, fieldFeatured),
		Priority:    str(rec.Fields, fieldPriority),
		Recurrence:  str(rec.Fields, fieldRecurrence),
		Retro:       str(rec.Fields, fieldRetro),
	}

	if raw := str(rec.Fields, fieldEndDate); raw != "" {
		end, err := parseISO(raw)
		if err != nil {
			return model.Event{}, fmt.Errorf("event %s: %w", rec.ID, err)
		}
		ev.EndDate = &end
	}

	ev.Poster = posterFrom(rec.Fields[fieldPoster])

	return ev, nil
}

// parseISO accepts the date-time shapes Airtable emits: RFC3339 and bare
// dates for date-only columns.
func parseISO(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("missing date value")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", v)
}

// posterFrom resolves the first element of an attachment array into a Poster.
// Anything other than a non-empty array of objects yields nil.
func posterFrom(v any) *model.Poster {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return nil
	}
	att, ok := arr[0].(map[string]any)
	if !ok {
		return nil
	}

	p := &model.Poster{
		URL:    str(att, "url"),
		Width:  integer(att, "width"),
		Height: integer(att, "height"),
	}
	if p.URL == "" {
		return nil
	}

	if thumbs, ok := att["thumbnails"].(map[string]any); ok {
		p.Small = thumbnailFrom(thumbs["small"])
		p.Large = thumbnailFrom(thumbs["large"])
	}

	return p
}

func thumbnailFrom(v any) *model.Thumbnail {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	t := &model.Thumbnail{
		URL:    str(m, "url"),
		Width:  integer(m, "width"),
		Height: integer(m, "height"),
	}
	if t.URL == "" {
		return nil
	}
	return t
}

func str(fields map[string]any, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

func boolean(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

func integer(m map[string]any, key string) int {
	// JSON numbers decode as float64.
	if f, ok := m[key].(float64); ok {
		return int(f)
	}
	return 0
}
