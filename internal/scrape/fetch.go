package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	appLog "fairhaven/internal/log"
)

const (
	// fetchTimeout bounds the whole fetch. Scraping is a convenience for the
	// proposal form; past ten seconds the submitter fills it in by hand.
	fetchTimeout = 10 * time.Second

	userAgent = "FairhavenEventBot/1.0 (+https://fairhaven.work)"

	maxBodyBytes = 4 << 20
)

// ErrTimeout marks a fetch that exceeded fetchTimeout. Callers surface it as
// its own message instead of retrying.
var ErrTimeout = errors.New("scrape: fetch timed out")

// StatusError is a non-2xx response from the target site. The status code is
// carried for display to the submitter; the fetch is not retried.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scrape: page returned %s", e.Status)
}

// Fetcher downloads event pages for extraction.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher with the fixed scrape timeout. Redirects are
// followed (the default client policy); event platforms redirect short links.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// WithClient overrides the internal HTTP client (useful for tests).
func (f *Fetcher) WithClient(hc *http.Client) *Fetcher {
	f.client = hc
	return f
}

// FetchHTML downloads the page at rawURL and returns its body as a string.
// Timeouts come back wrapping ErrTimeout; non-2xx responses come back as
// *StatusError. Both are user-reportable, neither is retried.
func (f *Fetcher) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("scrape: invalid URL: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			appLog.Warn("scrape fetch timed out", "url", rawURL)
			return "", fmt.Errorf("%w: %s", ErrTimeout, rawURL)
		}
		return "", fmt.Errorf("scrape: fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("scrape: read body: %w", err)
	}

	return string(body), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return true
	}
	return false
}
