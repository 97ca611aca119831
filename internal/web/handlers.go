package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"fairhaven/internal/booking"
	"fairhaven/internal/event"
	"fairhaven/internal/feed"
	"fairhaven/internal/llm"
	"fairhaven/internal/model"
	"fairhaven/internal/query"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// eventsResponse is the JSON shape for GET /api/events.
type eventsResponse struct {
	Events   []model.Event `json:"events"`
	Timezone string        `json:"timezone"`
}

// handleEvents serves the filtered, sorted event listing.
//
// GET /api/events?scope=upcoming|past&featured=true&type=public
//
// Hidden statuses are excluded before the scope split, so upcoming and past
// apply the identical visibility rule.
func (s *Server) handleEvents(c echo.Context) error {
	events, err := s.listEvents(c.Request().Context())
	if err != nil {
		return err
	}

	events = query.Visible(events)

	if t := c.QueryParam("type"); t != "" {
		filtered := events[:0:0]
		for _, ev := range events {
			if strings.EqualFold(ev.Type, t) {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}

	now := time.Now()
	switch c.QueryParam("scope") {
	case "", "upcoming":
		events = query.Upcoming(events, now, s.loc)
	case "past":
		events = query.Past(events, now, s.loc)
		if c.QueryParam("featured") == "true" {
			events = query.Featured(events)
		}
		events = query.SortPastEventsByPriorityAndDate(events)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "scope must be upcoming or past")
	}

	return c.JSON(http.StatusOK, eventsResponse{
		Events:   events,
		Timezone: s.loc.String(),
	})
}

// calendarResponse is the JSON shape for GET /api/events/calendar.
type calendarResponse struct {
	Days       map[string][]model.Occurrence `json:"days"`
	RangeStart string                        `json:"range_start"`
	RangeEnd   string                        `json:"range_end"`
	Timezone   string                        `json:"timezone"`
}

// handleCalendar serves day buckets of occurrences for grid views.
//
// GET /api/events/calendar?from=2026-09-01&days=30
func (s *Server) handleCalendar(c echo.Context) error {
	from := time.Now().In(s.loc)
	if raw := c.QueryParam("from"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, s.loc)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		from = parsed
	}
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, s.loc)

	days := s.cfg.HorizonDays
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 366 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a positive number")
		}
		days = n
	}
	until := from.AddDate(0, 0, days)

	events, err := s.listEvents(c.Request().Context())
	if err != nil {
		return err
	}

	occs, err := feed.ExpandOccurrences(query.Visible(events), feed.ExpandConfig{
		Location:   s.loc,
		RangeStart: from,
		RangeEnd:   until,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, calendarResponse{
		Days:       query.BucketOccurrencesByDay(occs, s.loc),
		RangeStart: from.Format("2006-01-02"),
		RangeEnd:   until.Format("2006-01-02"),
		Timezone:   s.loc.String(),
	})
}

// handleCreateEvent writes a proposal draft into the events table.
func (s *Server) handleCreateEvent(c echo.Context) error {
	var draft event.Draft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := draft.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := s.events.Create(c.Request().Context(), draft)
	if err != nil {
		return err
	}

	s.invalidateEventsCache()
	return c.JSON(http.StatusCreated, created)
}

// scrapeRequest is the body for POST /api/scrape.
type scrapeRequest struct {
	URL string `json:"url"`
}

// handleScrape runs the extraction pipeline against a pasted URL. An empty
// result is a 200 with just the source set — scraping is a convenience, never
// a requirement for event creation.
func (s *Server) handleScrape(c echo.Context) error {
	var req scrapeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.URL = strings.TrimSpace(req.URL)
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		return echo.NewHTTPError(http.StatusBadRequest, "url must be an http(s) URL")
	}

	data, err := s.scraper.Scrape(c.Request().Context(), req.URL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data)
}

// proposeRequest is the body for POST /api/events/propose.
type proposeRequest struct {
	Text string `json:"text"`
}

// handlePropose parses a natural-language proposal into draft fields. The
// draft is returned for confirmation, not written.
func (s *Server) handlePropose(c echo.Context) error {
	if s.llm == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "proposal parsing is not configured")
	}

	var req proposeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	draft, err := llm.ParseProposal(c.Request().Context(), s.llm, s.cfg.LLM.Model, req.Text, time.Now().In(s.loc))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, draft)
}

func (s *Server) handleMembers(c echo.Context) error {
	members, err := s.members.ListActive(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"members": members})
}

func (s *Server) handleRooms(c echo.Context) error {
	rooms, err := s.bookings.ListRooms(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *Server) handleCreateBooking(c echo.Context) error {
	var req booking.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := s.bookings.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// handleICSFeed serves upcoming visible events (recurring ones expanded) as a
// subscribable calendar.
func (s *Server) handleICSFeed(c echo.Context) error {
	events, err := s.listEvents(c.Request().Context())
	if err != nil {
		return err
	}

	now := time.Now().In(s.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	until := from.AddDate(0, 0, s.cfg.HorizonDays)

	occs, err := feed.ExpandOccurrences(query.Visible(events), feed.ExpandConfig{
		Location:   s.loc,
		RangeStart: from,
		RangeEnd:   until,
	})
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed.BuildICS(occs, s.cfg.SiteURL)))
}

// handleSignage serves the last captured lobby PNG from disk; the cron loop
// keeps it fresh.
func (s *Server) handleSignage(c echo.Context) error {
	return c.File(s.cfg.Signage.OutputPath)
}
