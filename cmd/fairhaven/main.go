package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"fairhaven/internal/airtable"
	"fairhaven/internal/booking"
	"fairhaven/internal/capture"
	"fairhaven/internal/config"
	"fairhaven/internal/event"
	"fairhaven/internal/llm"
	appLog "fairhaven/internal/log"
	"fairhaven/internal/member"
	"fairhaven/internal/query"
	"fairhaven/internal/scrape"
	"fairhaven/internal/web"
)

const version = "0.3.0"

// Options are the command-line flags.
type Options struct {
	Config string `short:"c" long:"config" default:"./fairhaven.yaml" description:"Path to config file"`
	Listen string `short:"l" long:"listen" description:"HTTP listen address (overrides config)"`
	Debug  bool   `short:"d" long:"debug" description:"Enable debug logging"`
	Once   bool   `long:"once" description:"Capture the signage image once and exit"`
}

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		// go-flags already printed the message (or the help text).
		os.Exit(1)
	}

	if opts.Debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("fairhaven starting", "version", version)

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		appLog.Debug("loaded .env file")
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", opts.Config)
		os.Exit(1)
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		appLog.Error("invalid timezone in config; falling back to default", err, "timezone", cfg.Timezone)
		loc, _ = time.LoadLocation(query.DefaultTimezone)
	}

	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"refresh", cfg.RefreshCron,
		"horizon_days", cfg.HorizonDays,
		"airtable_base", cfg.Airtable.BaseID,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if opts.Once {
		if err := captureSignage(ctx, cfg); err != nil {
			appLog.Error("signage capture failed", err)
			os.Exit(1)
		}
		appLog.Info("signage captured", "output", cfg.Signage.OutputPath)
		return
	}

	apiKey := os.Getenv("AIRTABLE_API_KEY")
	if apiKey == "" {
		appLog.Error("missing required environment", errors.New("AIRTABLE_API_KEY is not set"))
		os.Exit(1)
	}
	client := airtable.NewClient(cfg.Airtable.BaseID, apiKey)

	deps := web.Deps{
		Events:   event.NewStore(client, cfg.Airtable.EventsTable),
		Members:  member.NewStore(client, cfg.Airtable.MembersTable),
		Bookings: booking.NewStore(client, cfg.Airtable.RoomsTable, cfg.Airtable.BookingsTable),
		Scraper:  scrape.NewScraper(),
	}
	if anthropicKey := os.Getenv("ANTHROPIC_API_KEY"); anthropicKey != "" {
		deps.LLM = llm.NewClient(anthropicKey)
	} else {
		appLog.Warn("ANTHROPIC_API_KEY not set; proposal parsing disabled")
	}

	srv := web.NewServer(cfg, loc, deps)

	// Periodic refresh: warm the events cache and recapture the signage
	// image on the configured schedule.
	c := cron.New()
	_, err = c.AddFunc(cfg.RefreshCron, func() {
		jobCtx, jobCancel := context.WithTimeout(ctx, 2*time.Minute)
		defer jobCancel()

		if err := srv.WarmEventsCache(jobCtx); err != nil {
			appLog.Error("events cache refresh failed", err)
		}
		if cfg.Signage.URL != "" {
			if err := captureSignage(jobCtx, cfg); err != nil {
				appLog.Error("signage refresh failed", err)
			}
		}
	})
	if err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", cfg.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	if err := srv.Start(ctx); err != nil {
		appLog.Error("http server exited", err)
		os.Exit(1)
	}
	appLog.Info("fairhaven exiting")
}

func captureSignage(ctx context.Context, cfg *config.Config) error {
	return capture.SignagePNG(ctx, capture.Options{
		URL:        cfg.Signage.URL,
		OutputPath: cfg.Signage.OutputPath,
		Width:      cfg.Signage.Width,
		Height:     cfg.Signage.Height,
	})
}
