// Package booking implements the room-booking tool: room listing and
// overlap-checked reservation creation against the bookings table.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fairhaven/internal/airtable"
	appLog "fairhaven/internal/log"
	"fairhaven/internal/model"
)

// Field names in the rooms and bookings tables.
const (
	roomFieldName     = "Name"
	roomFieldCapacity = "Capacity"
	roomFieldNotes    = "Notes"

	bookingFieldRoom   = "Room"
	bookingFieldMember = "Member"
	bookingFieldTitle  = "Title"
	bookingFieldStart  = "Start"
	bookingFieldEnd    = "End"
)

// ErrConflict is returned when the requested window overlaps an existing
// booking for the same room.
var ErrConflict = errors.New("booking: time slot already taken")

// Request is a reservation attempt.
type Request struct {
	RoomID string    `json:"room_id"`
	Member string    `json:"member,omitempty"`
	Title  string    `json:"title,omitempty"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Validate checks the window before any remote call.
func (r Request) Validate() error {
	if r.RoomID == "" {
		return fmt.Errorf("booking: room is required")
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("booking: start and end are required")
	}
	if !r.End.After(r.Start) {
		return fmt.Errorf("booking: end must be after start")
	}
	return nil
}

// Store reads rooms and reads/writes bookings.
type Store struct {
	client        *airtable.Client
	roomsTable    string
	bookingsTable string
}

func NewStore(client *airtable.Client, roomsTable, bookingsTable string) *Store {
	return &Store{client: client, roomsTable: roomsTable, bookingsTable: bookingsTable}
}

// ListRooms returns the bookable rooms.
func (s *Store) ListRooms(ctx context.Context) ([]model.Room, error) {
	recs, err := s.client.List(ctx, s.roomsTable, airtable.ListOptions{
		Sort: []airtable.SortField{{Field: roomFieldName, Direction: "asc"}},
	})
	if err != nil {
		return nil, err
	}

	rooms := make([]model.Room, 0, len(recs))
	for _, rec := range recs {
		name, _ := rec.Fields[roomFieldName].(string)
		if name == "" {
			continue
		}
		room := model.Room{ID: rec.ID, Name: name}
		if f, ok := rec.Fields[roomFieldCapacity].(float64); ok {
			room.Capacity = int(f)
		}
		if s, ok := rec.Fields[roomFieldNotes].(string); ok {
			room.Notes = s
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// overlapFormula selects bookings for the room whose window intersects
// [start, end): an existing booking conflicts when it starts before our end
// and ends after our start.
func overlapFormula(roomID string, start, end time.Time) string {
	return fmt.Sprintf(
		"AND({%s}='%s', IS_BEFORE({%s},'%s'), IS_AFTER({%s},'%s'))",
		bookingFieldRoom, escapeFormulaString(roomID),
		bookingFieldStart, end.UTC().Format(time.RFC3339),
		bookingFieldEnd, start.UTC().Format(time.RFC3339),
	)
}

// escapeFormulaString makes a value safe inside single quotes in an Airtable
// formula.
func escapeFormulaString(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

// Create checks for overlapping bookings with a single formula query, then
// writes the reservation. Two concurrent submissions can still both pass the
// check; the database keeps last-write-wins and that race is accepted.
func (s *Store) Create(ctx context.Context, req Request) (model.Booking, error) {
	var booking model.Booking

	if err := req.Validate(); err != nil {
		return booking, err
	}

	conflicts, err := s.client.List(ctx, s.bookingsTable, airtable.ListOptions{
		FilterByFormula: overlapFormula(req.RoomID, req.Start, req.End),
		MaxRecords:      1,
	})
	if err != nil {
		return booking, err
	}
	if len(conflicts) > 0 {
		appLog.Info("booking conflict", "room", req.RoomID, "start", req.Start, "existing", conflicts[0].ID)
		return booking, fmt.Errorf("%w: room %s at %s", ErrConflict, req.RoomID, req.Start.Format(time.RFC3339))
	}

	fields := map[string]any{
		bookingFieldRoom:  req.RoomID,
		bookingFieldStart: req.Start.UTC().Format(time.RFC3339),
		bookingFieldEnd:   req.End.UTC().Format(time.RFC3339),
	}
	if req.Member != "" {
		fields[bookingFieldMember] = req.Member
	}
	if req.Title != "" {
		fields[bookingFieldTitle] = req.Title
	}

	rec, err := s.client.Create(ctx, s.bookingsTable, fields)
	if err != nil {
		return booking, err
	}

	booking = model.Booking{
		ID:     rec.ID,
		RoomID: req.RoomID,
		Member: req.Member,
		Title:  req.Title,
		Start:  req.Start,
		End:    req.End,
	}
	return booking, nil
}
