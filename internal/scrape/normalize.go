package scrape

import (
	"context"
	"net/url"
	"strings"

	appLog "fairhaven/internal/log"
	"fairhaven/internal/model"
)

// hostPatterns maps case-insensitive hostname substrings to a source. Two
// platforms are known today; a third is a row addition.
var hostPatterns = []struct {
	pattern string
	source  model.Source
}{
	{"lu.ma", model.SourceLuma},
	{"luma.com", model.SourceLuma},
	{"partiful.com", model.SourcePartiful},
}

// DetectSource derives the hosting platform from the URL hostname alone. It
// needs no network access and no HTML, and it is computed exactly once at the
// top of the pipeline — nothing downstream re-derives it.
func DetectSource(rawURL string) model.Source {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	host = strings.ToLower(host)

	for _, p := range hostPatterns {
		if strings.Contains(host, p.pattern) {
			return p.source
		}
	}
	return model.SourceUnknown
}

// pageDataFields lists, per canonical field, the synonym chain probed on a
// page-data event object. First non-empty string wins.
var pageDataFields = map[string][]string{
	"name":        {"title", "name"},
	"start":       {"startDate", "start_at"},
	"end":         {"endDate", "end_at"},
	"description": {"description", "invitationMessage"},
	"url":         {"shortUrl", "short_url", "url"},
}

// Scraper runs the full pipeline: fetch, extract, normalize.
type Scraper struct {
	fetcher *Fetcher
}

func NewScraper() *Scraper {
	return &Scraper{fetcher: NewFetcher()}
}

// WithFetcher overrides the fetcher (useful for tests).
func (s *Scraper) WithFetcher(f *Fetcher) *Scraper {
	s.fetcher = f
	return s
}

// Scrape fetches rawURL and normalizes whatever the page yields. Transport
// failures (timeout, non-2xx) are returned as errors; extraction coming up
// empty is not an error — the result then carries only the source, and the
// submitter fills the form by hand.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (model.ScrapedEventData, error) {
	source := DetectSource(rawURL)

	html, err := s.fetcher.FetchHTML(ctx, rawURL)
	if err != nil {
		return model.ScrapedEventData{}, err
	}

	data := Normalize(html, rawURL, source)
	appLog.Info("scrape completed",
		"url", rawURL,
		"source", data.Source,
		"found_name", data.Name != "",
		"found_start", data.StartDate != "",
	)
	return data, nil
}

// Normalize runs the extraction strategies in order against an already
// fetched document and maps the winner onto ScrapedEventData. The source is
// passed in, having been detected once from the requested URL.
func Normalize(html, requestedURL string, source model.Source) model.ScrapedEventData {
	if obj, ok := ExtractJSONLDEvent(html); ok {
		return normalizeJSONLD(obj, requestedURL, source)
	}
	if obj, ok := ExtractPageData(html); ok {
		return normalizePageData(obj, requestedURL, source)
	}
	return normalizeOpenGraph(ExtractOpenGraph(html), requestedURL, source)
}

// normalizeJSONLD maps a JSON-LD Event object. Dates pass through verbatim as
// found — no re-parsing or validation at this stage.
func normalizeJSONLD(obj map[string]any, requestedURL string, source model.Source) model.ScrapedEventData {
	data := model.ScrapedEventData{
		Source:      source,
		Name:        DecodeHTMLEntities(stringField(obj, "name")),
		Description: DecodeHTMLEntities(stringField(obj, "description")),
		StartDate:   stringField(obj, "startDate"),
		EndDate:     stringField(obj, "endDate"),
		ImageURL:    ResolveImageURL(obj["image"]),
		URL:         stringField(obj, "url"),
	}
	if data.URL == "" {
		data.URL = requestedURL
	}
	return data
}

// normalizePageData maps an embedded page-data event object, reconciling the
// two platforms' field names through the synonym table.
func normalizePageData(obj map[string]any, requestedURL string, source model.Source) model.ScrapedEventData {
	data := model.ScrapedEventData{
		Source:    source,
		Name:      DecodeHTMLEntities(pick(obj, pageDataFields["name"])),
		StartDate: pick(obj, pageDataFields["start"]),
		EndDate:   pick(obj, pageDataFields["end"]),
	}

	desc := pick(obj, pageDataFields["description"])
	if desc == "" {
		desc = ExtractDocText(obj["description_mirror"])
	}
	data.Description = DecodeHTMLEntities(desc)

	// image.url first, then the flat cover_url.
	if img, ok := obj["image"].(map[string]any); ok {
		data.ImageURL = stringField(img, "url")
	}
	if data.ImageURL == "" {
		data.ImageURL = stringField(obj, "cover_url")
	}

	if names, ok := obj["hostNames"].([]string); ok {
		data.HostNames = names
	}

	// Canonical URL: prefer the platform's short URL when it is absolute;
	// otherwise fall back to what the submitter pasted.
	if u := pick(obj, pageDataFields["url"]); strings.Contains(u, "://") {
		data.URL = u
	} else {
		data.URL = requestedURL
	}

	return data
}

// normalizeOpenGraph maps og:* tags. Open Graph carries no start or end date;
// downstream consumers must treat both as absent and prompt for them.
func normalizeOpenGraph(tags map[string]string, requestedURL string, source model.Source) model.ScrapedEventData {
	data := model.ScrapedEventData{
		Source:      source,
		Name:        DecodeHTMLEntities(tags["og:title"]),
		Description: DecodeHTMLEntities(tags["og:description"]),
		ImageURL:    DecodeHTMLEntities(tags["og:image"]),
		URL:         tags["og:url"],
	}
	if data.URL == "" {
		data.URL = requestedURL
	}
	return data
}

// pick returns the first non-empty string among the synonym keys.
func pick(obj map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
