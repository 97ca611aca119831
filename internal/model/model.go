package model

import (
	"strings"
	"time"
)

// Source identifies which hosting platform a scraped URL belongs to.
// It is derived once from the URL hostname and never re-derived downstream.
type Source string

const (
	SourceLuma     Source = "luma"
	SourcePartiful Source = "partiful"
	SourceUnknown  Source = "unknown"
)

// Event statuses that are excluded from every public-facing query.
// Matching is case-insensitive.
const (
	StatusIdea      = "idea"
	StatusMaybe     = "maybe"
	StatusCancelled = "cancelled"
	StatusConfirmed = "confirmed"
)

// IsHiddenStatus reports whether an event with the given status must be
// excluded from public views (upcoming and past alike).
func IsHiddenStatus(status string) bool {
	switch strings.ToLower(status) {
	case StatusIdea, StatusMaybe, StatusCancelled:
		return true
	}
	return false
}

// Priority values used for tie-break ordering of historical events.
// An empty priority sorts after p3.
const (
	PriorityP1 = "p1"
	PriorityP2 = "p2"
	PriorityP3 = "p3"
)

// PriorityRank maps a priority string to its sort rank. Lower ranks sort
// first; unknown or absent priorities rank last.
func PriorityRank(p string) int {
	switch strings.ToLower(p) {
	case PriorityP1:
		return 0
	case PriorityP2:
		return 1
	case PriorityP3:
		return 2
	}
	return 3
}

// Thumbnail is a pre-rendered size variant of a poster attachment.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Poster is an image attachment on an event record.
type Poster struct {
	URL    string     `json:"url"`
	Width  int        `json:"width,omitempty"`
	Height int        `json:"height,omitempty"`
	Small  *Thumbnail `json:"small,omitempty"`
	Large  *Thumbnail `json:"large,omitempty"`
}

// Event is the canonical event entity read back from the events table.
//
// Optional fields that are absent at the source stay at their zero value and
// are omitted from JSON, so display layers can apply their own placeholders.
// EndDate and Poster are pointers because their absence is meaningful: an
// event without an EndDate is a point-in-time event, not a zero-length one.
type Event struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`

	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Notes       string `json:"notes,omitempty"`
	URL         string `json:"url,omitempty"`
	Host        string `json:"host,omitempty"`

	Type     string `json:"type,omitempty"`
	Status   string `json:"status,omitempty"`
	Featured bool   `json:"featured,omitempty"`
	Priority string `json:"priority,omitempty"`

	// Recurrence is an optional RRULE string (e.g. "FREQ=WEEKLY;BYDAY=WE")
	// expanded into concrete occurrences for grid views and the ICS feed.
	Recurrence string `json:"recurrence,omitempty"`

	Poster *Poster `json:"poster,omitempty"`
	Retro  string  `json:"retro,omitempty"`
}

// Occurrence is a single concrete instance of an event within a query window,
// after recurrence expansion and timezone normalization.
type Occurrence struct {
	EventID string `json:"event_id"`

	// InstanceKey uniquely identifies one occurrence of a recurring event,
	// derived from the local start time.
	InstanceKey string `json:"instance_key"`

	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	URL      string `json:"url,omitempty"`
	Type     string `json:"type,omitempty"`

	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// ScrapedEventData is the ephemeral result of scraping an event URL. It is
// never persisted; it pre-fills the proposal form and nothing else.
//
// StartDate and EndDate are carried verbatim as found on the page (ISO-8601
// expected, not validated here).
type ScrapedEventData struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	URL         string   `json:"url,omitempty"`
	HostNames   []string `json:"hostNames,omitempty"`
	Source      Source   `json:"source"`
}

// Member is a directory entry from the members table.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Bio   string `json:"bio,omitempty"`
	Photo string `json:"photo,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Room is a bookable room from the rooms table.
type Room struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Booking is a room reservation.
type Booking struct {
	ID     string    `json:"id"`
	RoomID string    `json:"room_id"`
	Member string    `json:"member,omitempty"`
	Title  string    `json:"title,omitempty"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}
