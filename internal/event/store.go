package event

import (
	"context"
	"fmt"
	"strings"

	"fairhaven/internal/airtable"
	appLog "fairhaven/internal/log"
	"fairhaven/internal/model"
)

// Store reads and writes the events table through the Airtable client.
type Store struct {
	client *airtable.Client
	table  string
}

// NewStore returns a Store bound to one events table.
func NewStore(client *airtable.Client, table string) *Store {
	return &Store{client: client, table: table}
}

// List fetches every event record and maps it. Records that fail to map
// (missing name, malformed date) are logged and skipped rather than failing
// the whole listing.
func (s *Store) List(ctx context.Context) ([]model.Event, error) {
	recs, err := s.client.List(ctx, s.table, airtable.ListOptions{
		Sort: []airtable.SortField{{Field: fieldStartDate, Direction: "asc"}},
	})
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(recs))
	for _, rec := range recs {
		ev, err := FromRecord(rec)
		if err != nil {
			appLog.Warn("skipping unmappable event record", "record", rec.ID, "reason", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Get fetches and maps a single event.
func (s *Store) Get(ctx context.Context, id string) (model.Event, error) {
	rec, err := s.client.Get(ctx, s.table, id)
	if err != nil {
		return model.Event{}, err
	}
	return FromRecord(rec)
}

// Draft is a proposed event as submitted by the proposal form. Dates arrive
// as ISO-8601 strings, typically pre-filled by the scraper or the
// natural-language parser and confirmed by the submitter.
type Draft struct {
	Name        string `json:"name"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	URL         string `json:"url,omitempty"`
	Host        string `json:"host,omitempty"`
	Type        string `json:"type,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Validate checks the two required fields and that supplied dates parse.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("event draft: name is required")
	}
	if _, err := parseISO(d.StartDate); err != nil {
		return fmt.Errorf("event draft: start date: %w", err)
	}
	if d.EndDate != "" {
		if _, err := parseISO(d.EndDate); err != nil {
			return fmt.Errorf("event draft: end date: %w", err)
		}
	}
	return nil
}

// fields builds the partial field set for record creation. Only supplied
// fields are written; new proposals always enter as status Idea.
func (d Draft) fields() map[string]any {
	fields := map[string]any{
		fieldName:      d.Name,
		fieldStartDate: d.StartDate,
		fieldStatus:    "Idea",
	}
	if d.EndDate != "" {
		fields[fieldEndDate] = d.EndDate
	}
	if d.Description != "" {
		fields[fieldDesc] = d.Description
	}
	if d.Location != "" {
		fields[fieldLocation] = d.Location
	}
	if d.URL != "" {
		fields[fieldURL] = d.URL
	}
	if d.Host != "" {
		fields[fieldHost] = d.Host
	}
	if d.Type != "" {
		fields[fieldType] = d.Type
	}
	if d.Notes != "" {
		fields[fieldNotes] = d.Notes
	}
	return fields
}

// Create validates the draft and writes it as a new record. Airtable
// rejections come back as *airtable.APIError so the remote message can be
// shown to the submitter.
func (s *Store) Create(ctx context.Context, d Draft) (model.Event, error) {
	if err := d.Validate(); err != nil {
		return model.Event{}, err
	}
	rec, err := s.client.Create(ctx, s.table, d.fields())
	if err != nil {
		return model.Event{}, err
	}
	return FromRecord(rec)
}

// UpdateStatus patches just the status field of an existing event.
func (s *Store) UpdateStatus(ctx context.Context, id, status string) (model.Event, error) {
	rec, err := s.client.Update(ctx, s.table, id, map[string]any{fieldStatus: status})
	if err != nil {
		return model.Event{}, err
	}
	return FromRecord(rec)
}
