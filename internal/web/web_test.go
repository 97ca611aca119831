package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairhaven/internal/airtable"
	"fairhaven/internal/booking"
	"fairhaven/internal/config"
	"fairhaven/internal/event"
	"fairhaven/internal/member"
	"fairhaven/internal/scrape"
)

// newTestServer wires a Server against a fake Airtable API.
func newTestServer(t *testing.T, airtableHandler http.HandlerFunc) *Server {
	t.Helper()

	fake := httptest.NewServer(airtableHandler)
	t.Cleanup(fake.Close)

	client := airtable.NewClient("appBASE", "key123", airtable.WithBaseURL(fake.URL))

	cfg := config.DefaultConfig()
	cfg.Airtable.BaseID = "appBASE"

	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	return NewServer(cfg, loc, Deps{
		Events:   event.NewStore(client, cfg.Airtable.EventsTable),
		Members:  member.NewStore(client, cfg.Airtable.MembersTable),
		Bookings: booking.NewStore(client, cfg.Airtable.RoomsTable, cfg.Airtable.BookingsTable),
		Scraper:  scrape.NewScraper(),
	})
}

// eventsAirtable serves an events table with one upcoming, one past, and one
// hidden record.
func eventsAirtable(t *testing.T) http.HandlerFunc {
	t.Helper()
	future := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	past := time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339)

	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/appBASE/Events", r.URL.Path)
		fmt.Fprintf(w, `{"records":[
			{"id":"recPast","fields":{"Name":"Old Mixer","Start Date":"%s","Status":"Confirmed","Priority":"p1","Featured":true}},
			{"id":"recUp","fields":{"Name":"Demo Night","Start Date":"%s","Status":"Confirmed","Type":"public"}},
			{"id":"recHidden","fields":{"Name":"Half an Idea","Start Date":"%s","Status":"Idea"}}
		]}`, past, future, future)
	}
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type eventsPayload struct {
	Events []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"events"`
	Timezone string `json:"timezone"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestEventsUpcomingDefault(t *testing.T) {
	s := newTestServer(t, eventsAirtable(t))
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload eventsPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	// Past and hidden records are excluded from the default scope.
	require.Len(t, payload.Events, 1)
	assert.Equal(t, "recUp", payload.Events[0].ID)
	assert.Equal(t, "America/Los_Angeles", payload.Timezone)
}

func TestEventsPastScope(t *testing.T) {
	s := newTestServer(t, eventsAirtable(t))
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/events?scope=past&featured=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload eventsPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Events, 1)
	assert.Equal(t, "recPast", payload.Events[0].ID)
}

func TestEventsTypeFilter(t *testing.T) {
	s := newTestServer(t, eventsAirtable(t))
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/events?type=PUBLIC", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload eventsPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Events, 1)
	assert.Equal(t, "Demo Night", payload.Events[0].Name)
}

func TestEventsBadScope(t *testing.T) {
	s := newTestServer(t, eventsAirtable(t))
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/events?scope=sideways", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsAirtableFailureIs502(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"type":"AUTHENTICATION_REQUIRED","message":"bad key"}}`)
	})
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/events", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad key")
}

func TestCreateEvent(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Fields map[string]any `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Idea", body.Fields["Status"])
		fmt.Fprintf(w, `{"id":"recNEW","fields":{"Name":"%s","Start Date":"%s","Status":"Idea"}}`,
			body.Fields["Name"], body.Fields["Start Date"])
	})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/events",
		`{"name":"Pitch Night","startDate":"2026-05-01T18:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "recNEW")
}

func TestCreateEventInvalidDraft(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid drafts must not reach the table")
	})
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/events", `{"name":"No Start"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScrape(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<script type="application/ld+json">{"@type":"Event","name":"Scraped Social"}</script>`)
	}))
	defer page.Close()

	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/scrape", fmt.Sprintf(`{"url":"%s"}`, page.URL))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scraped Social")
}

func TestScrapeRejectsNonHTTP(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/scrape", `{"url":"ftp://example.org"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScrapeUpstreamFailureIs502(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer page.Close()

	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/scrape", fmt.Sprintf(`{"url":"%s"}`, page.URL))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestProposeUnconfigured(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/events/propose", `{"text":"pitch night thursday"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRooms(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/appBASE/Rooms", r.URL.Path)
		fmt.Fprint(w, `{"records":[{"id":"recA","fields":{"Name":"Focus Room","Capacity":4}}]}`)
	})
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/rooms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Focus Room")
}

func TestCreateBookingConflictIs409(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, `{"records":[{"id":"recEXISTING","fields":{}}]}`)
	})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/bookings",
		`{"room_id":"recRoom1","start":"2026-03-10T10:00:00Z","end":"2026-03-10T11:00:00Z"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestICSFeed(t *testing.T) {
	s := newTestServer(t, eventsAirtable(t))
	rec := doJSON(t, s.Handler(), http.MethodGet, "/calendar.ics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, rec.Body.String(), "Demo Night")
	// Hidden statuses never leak into the feed.
	assert.NotContains(t, rec.Body.String(), "Half an Idea")
}

func TestCalendarBuckets(t *testing.T) {
	s := newTestServer(t, eventsAirtable(t))
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/events/calendar?days=7", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Days     map[string][]json.RawMessage `json:"days"`
		Timezone string                       `json:"timezone"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "America/Los_Angeles", payload.Timezone)

	total := 0
	for _, occs := range payload.Days {
		total += len(occs)
	}
	assert.Equal(t, 1, total)
}

func TestCalendarBadParams(t *testing.T) {
	s := newTestServer(t, eventsAirtable(t))

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/events/calendar?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/events/calendar?days=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsListingIsCached(t *testing.T) {
	calls := 0
	handler := eventsAirtable(t)
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	})

	doJSON(t, s.Handler(), http.MethodGet, "/api/events", "")
	doJSON(t, s.Handler(), http.MethodGet, "/api/events", "")
	assert.Equal(t, 1, calls)
}
