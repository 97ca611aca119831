// Package web exposes the HTTP API: event queries, the URL scraper, proposal
// parsing, the member directory, room booking, the ICS feed, and the signage
// image.
package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"fairhaven/internal/airtable"
	"fairhaven/internal/booking"
	"fairhaven/internal/config"
	"fairhaven/internal/event"
	"fairhaven/internal/llm"
	appLog "fairhaven/internal/log"
	"fairhaven/internal/member"
	"fairhaven/internal/model"
	"fairhaven/internal/scrape"
)

// eventsCacheTTL is a request-collapsing measure for the read-only event
// queries; correctness-sensitive paths (booking check, record writes) never
// read a cache.
const eventsCacheTTL = 30 * time.Second

// Server wires the stores and the pipeline into HTTP handlers.
type Server struct {
	cfg *config.Config
	loc *time.Location

	events   *event.Store
	members  *member.Store
	bookings *booking.Store
	scraper  *scrape.Scraper
	llm      llm.MessagesClient

	echo *echo.Echo

	eventsMu    sync.RWMutex
	eventsCache *eventsCache
}

// eventsCache holds the last mapped event listing and its timestamp.
type eventsCache struct {
	events    []model.Event
	updatedAt time.Time
}

// Deps carries the injected collaborators.
type Deps struct {
	Events   *event.Store
	Members  *member.Store
	Bookings *booking.Store
	Scraper  *scrape.Scraper
	LLM      llm.MessagesClient
}

// NewServer constructs the Server and registers all routes.
func NewServer(cfg *config.Config, loc *time.Location, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		loc:      loc,
		events:   deps.Events,
		members:  deps.Members,
		bookings: deps.Bookings,
		scraper:  deps.Scraper,
		llm:      deps.LLM,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger)
	e.HTTPErrorHandler = errorHandler

	s.echo = e
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(s.cfg.Listen)
	}()

	appLog.Info("http server listening", "listen", s.cfg.Listen)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	e := s.echo

	e.GET("/health", s.handleHealth)

	api := e.Group("/api")
	api.GET("/events", s.handleEvents)
	api.GET("/events/calendar", s.handleCalendar)
	api.POST("/events", s.handleCreateEvent)
	api.POST("/events/propose", s.handlePropose)
	api.POST("/scrape", s.handleScrape)
	api.GET("/members", s.handleMembers)
	api.GET("/rooms", s.handleRooms)
	api.POST("/bookings", s.handleCreateBooking)

	e.GET("/calendar.ics", s.handleICSFeed)
	e.GET("/signage.png", s.handleSignage)
}

// requestLogger routes echo request logs through the shared logger.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		appLog.Debug("http request",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", c.Response().Status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
}

// errorHandler maps pipeline errors onto user-facing JSON. Remote failures
// keep their remote detail (spec'd behavior for staff-facing surfaces);
// everything else collapses to a generic message.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := classifyError(err)
	if status >= 500 {
		appLog.Error("request failed", err, "path", c.Request().URL.Path, "status", status)
	}
	_ = c.JSON(status, map[string]string{"error": msg})
}

func classifyError(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			return he.Code, m
		}
		return he.Code, http.StatusText(he.Code)
	}

	var statusErr *scrape.StatusError
	if errors.As(err, &statusErr) {
		return http.StatusBadGateway, statusErr.Error()
	}
	if errors.Is(err, scrape.ErrTimeout) {
		return http.StatusGatewayTimeout, "the event page took too long to respond; fill in the details manually"
	}

	var apiErr *airtable.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway, apiErr.Error()
	}

	if errors.Is(err, booking.ErrConflict) {
		return http.StatusConflict, err.Error()
	}

	return http.StatusInternalServerError, "internal error"
}

// listEvents returns the mapped event listing, served from the short TTL
// cache when fresh.
func (s *Server) listEvents(ctx context.Context) ([]model.Event, error) {
	s.eventsMu.RLock()
	ec := s.eventsCache
	s.eventsMu.RUnlock()
	if ec != nil && time.Since(ec.updatedAt) < eventsCacheTTL {
		return ec.events, nil
	}

	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}

	s.eventsMu.Lock()
	s.eventsCache = &eventsCache{events: events, updatedAt: time.Now()}
	s.eventsMu.Unlock()

	return events, nil
}

// WarmEventsCache refreshes the listing cache; the cron loop calls this so
// interactive requests rarely pay the Airtable round trip.
func (s *Server) WarmEventsCache(ctx context.Context) error {
	events, err := s.events.List(ctx)
	if err != nil {
		return err
	}
	s.eventsMu.Lock()
	s.eventsCache = &eventsCache{events: events, updatedAt: time.Now()}
	s.eventsMu.Unlock()
	appLog.Info("events cache warmed", "events", len(events))
	return nil
}

// invalidateEventsCache drops the cache after a write so the new record shows
// up on the next read.
func (s *Server) invalidateEventsCache() {
	s.eventsMu.Lock()
	s.eventsCache = nil
	s.eventsMu.Unlock()
}
