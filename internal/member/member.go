// Package member maps the members table into the public directory.
package member

import (
	"context"

	"fairhaven/internal/airtable"
	appLog "fairhaven/internal/log"
	"fairhaven/internal/model"
)

// Field names in the members table.
const (
	fieldName   = "Name"
	fieldRole   = "Role"
	fieldBio    = "Bio"
	fieldPhoto  = "Photo"
	fieldURL    = "URL"
	fieldActive = "Active"
)

// Store reads the members table.
type Store struct {
	client *airtable.Client
	table  string
}

func NewStore(client *airtable.Client, table string) *Store {
	return &Store{client: client, table: table}
}

// ListActive returns directory entries for active members, sorted by name.
// Absent optional fields stay empty and are omitted from JSON, same as the
// event mapper.
func (s *Store) ListActive(ctx context.Context) ([]model.Member, error) {
	recs, err := s.client.List(ctx, s.table, airtable.ListOptions{
		FilterByFormula: "{" + fieldActive + "}",
		Sort:            []airtable.SortField{{Field: fieldName, Direction: "asc"}},
	})
	if err != nil {
		return nil, err
	}

	members := make([]model.Member, 0, len(recs))
	for _, rec := range recs {
		m, ok := fromRecord(rec)
		if !ok {
			appLog.Warn("skipping nameless member record", "record", rec.ID)
			continue
		}
		members = append(members, m)
	}
	return members, nil
}

func fromRecord(rec airtable.Record) (model.Member, bool) {
	name, _ := rec.Fields[fieldName].(string)
	if name == "" {
		return model.Member{}, false
	}

	m := model.Member{
		ID:   rec.ID,
		Name: name,
	}
	if s, ok := rec.Fields[fieldRole].(string); ok {
		m.Role = s
	}
	if s, ok := rec.Fields[fieldBio].(string); ok {
		m.Bio = s
	}
	if s, ok := rec.Fields[fieldURL].(string); ok {
		m.URL = s
	}
	m.Photo = photoURL(rec.Fields[fieldPhoto])

	return m, true
}

// photoURL resolves the first attachment's URL, if any.
func photoURL(v any) string {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return ""
	}
	att, ok := arr[0].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := att["url"].(string)
	return s
}
