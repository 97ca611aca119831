// Package capture renders the public calendar page to a PNG for the lobby
// display using headless Chromium.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultWidth      = 1920
	DefaultHeight     = 1080
	DefaultTimeoutSec = 30
)

// Options defines parameters for one signage capture.
type Options struct {
	// URL of the calendar page to capture.
	URL string

	// OutputPath is where the PNG is written; /signage.png serves this file.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. Zero values
	// fall back to the defaults.
	Width  int
	Height int

	// Timeout bounds the entire capture. Zero means DefaultTimeoutSec.
	Timeout time.Duration
}

// SignagePNG navigates headless Chromium to opts.URL, waits for the page to
// signal readiness via a data-ready="true" attribute on its root element, and
// writes a full screenshot to opts.OutputPath (atomically, temp + rename, so
// the HTTP handler never serves a half-written file).
func SignagePNG(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return fmt.Errorf("capture: create output dir: %w", err)
	}

	tmp := opts.OutputPath + ".tmp"
	if err := os.WriteFile(tmp, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	if err := os.Rename(tmp, opts.OutputPath); err != nil {
		return fmt.Errorf("capture: failed to move PNG into place: %w", err)
	}

	return nil
}
