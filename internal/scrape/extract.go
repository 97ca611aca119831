package scrape

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Extraction strategies, tried in strict order: JSON-LD, then the embedded
// page-data blob, then Open Graph tags. Each one is a pure function over the
// document text; the first success wins. A strategy that finds nothing
// reports ok=false, never an error — malformed blocks are a normal condition
// on third-party pages.

var (
	jsonLDScriptRe = regexp.MustCompile(`(?is)<script[^>]*type\s*=\s*["']application/ld\+json["'][^>]*>(.*?)</script>`)

	// Both hosting platforms are Next.js apps; the page-data blob lives in a
	// single well-known script tag.
	pageDataScriptRe = regexp.MustCompile(`(?is)<script[^>]*id\s*=\s*["']__NEXT_DATA__["'][^>]*>(.*?)</script>`)

	metaTagRe      = regexp.MustCompile(`(?is)<meta\b[^>]*>`)
	metaPropertyRe = regexp.MustCompile(`(?is)(?:property|name)\s*=\s*["'](og:[^"']+)["']`)
	metaContentRe  = regexp.MustCompile(`(?is)content\s*=\s*["']([^"']*)["']`)
)

// ExtractJSONLDEvent scans every application/ld+json block in document order
// and returns the first object whose @type is Event or SocialEvent, either
// directly or as the first such element of an @graph array. Blocks that fail
// to parse are skipped; the scan never aborts on one bad block.
func ExtractJSONLDEvent(html string) (map[string]any, bool) {
	for _, match := range jsonLDScriptRe.FindAllStringSubmatch(html, -1) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), &obj); err != nil {
			continue
		}

		if isEventType(obj["@type"]) {
			return obj, true
		}

		if graph, ok := obj["@graph"].([]any); ok {
			for _, item := range graph {
				if m, ok := item.(map[string]any); ok && isEventType(m["@type"]) {
					return m, true
				}
			}
		}
	}
	return nil, false
}

// isEventType accepts "@type": "Event" / "SocialEvent", including the array
// form some generators emit.
func isEventType(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Event" || t == "SocialEvent"
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && (s == "Event" || s == "SocialEvent") {
				return true
			}
		}
	}
	return false
}

// pageDataShape describes where one host family keeps its event object inside
// the page-data blob and how to recognize it. Shapes are probed in order;
// adding a platform is a row addition here, not new control flow.
type pageDataShape struct {
	name    string
	extract func(root map[string]any) (map[string]any, bool)
}

var pageDataShapes = []pageDataShape{
	{
		// Partiful keeps the event directly under pageProps, keyed by "title".
		name: "partiful",
		extract: func(root map[string]any) (map[string]any, bool) {
			ev, ok := dig(root, "props", "pageProps", "event")
			if !ok || ev["title"] == nil {
				return nil, false
			}
			return ev, true
		},
	},
	{
		// Luma nests the event under initialData.data, keyed by "name". The
		// sibling description_mirror document and hosts array are folded onto
		// the event object so the normalizer sees one shape.
		name: "luma",
		extract: func(root map[string]any) (map[string]any, bool) {
			data, ok := dig(root, "props", "pageProps", "initialData", "data")
			if !ok {
				return nil, false
			}
			ev, ok := data["event"].(map[string]any)
			if !ok || ev["name"] == nil {
				return nil, false
			}

			if mirror, ok := data["description_mirror"]; ok && ev["description_mirror"] == nil {
				ev["description_mirror"] = mirror
			}
			if hosts, ok := data["hosts"].([]any); ok {
				names := make([]string, 0, len(hosts))
				for _, h := range hosts {
					if hm, ok := h.(map[string]any); ok {
						if n, ok := hm["name"].(string); ok && n != "" {
							names = append(names, n)
						}
					}
				}
				if len(names) > 0 {
					ev["hostNames"] = names
				}
			}
			return ev, true
		},
	},
}

// ExtractPageData locates the page-data script tag, parses it, and probes the
// known shapes in order. Absent tag, unparseable JSON, or no matching shape
// all report ok=false.
func ExtractPageData(html string) (map[string]any, bool) {
	match := pageDataScriptRe.FindStringSubmatch(html)
	if match == nil {
		return nil, false
	}

	var root map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), &root); err != nil {
		return nil, false
	}

	for _, shape := range pageDataShapes {
		if ev, ok := shape.extract(root); ok {
			return ev, true
		}
	}
	return nil, false
}

// ExtractOpenGraph collects every og:* meta tag into a key→content map. The
// property attribute may come before or after content within the tag. An
// empty map is a valid result; no particular tag is required.
func ExtractOpenGraph(html string) map[string]string {
	tags := make(map[string]string)

	for _, tag := range metaTagRe.FindAllString(html, -1) {
		prop := metaPropertyRe.FindStringSubmatch(tag)
		if prop == nil {
			continue
		}
		content := metaContentRe.FindStringSubmatch(tag)
		if content == nil {
			continue
		}
		key := prop[1]
		if _, seen := tags[key]; !seen {
			tags[key] = content[1]
		}
	}

	return tags
}

// ResolveImageURL resolves an image value that may be a string, an array, or
// an object into a single URL. Arrays resolve on their first element; objects
// yield their url field, falling back to contentUrl. Anything else yields "".
func ResolveImageURL(v any) string {
	switch img := v.(type) {
	case string:
		return img
	case []any:
		if len(img) > 0 {
			return ResolveImageURL(img[0])
		}
	case map[string]any:
		if s, ok := img["url"].(string); ok && s != "" {
			return s
		}
		if s, ok := img["contentUrl"].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// dig walks nested objects by key, reporting false as soon as a step is
// missing or not an object.
func dig(m map[string]any, path ...string) (map[string]any, bool) {
	cur := m
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
