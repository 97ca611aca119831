package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

// namedEntities are substituted literally, in this order, before the generic
// numeric passes run. The table intentionally covers only the entities the
// two event platforms actually emit.
var namedEntities = []struct{ entity, text string }{
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#x27;", "'"},
	{"&#x2F;", "/"},
	{"&#39;", "'"},
	{"&apos;", "'"},
}

var (
	decimalEntityRe = regexp.MustCompile(`&#(\d+);`)
	hexEntityRe     = regexp.MustCompile(`&#[xX]([0-9a-fA-F]+);`)
)

// DecodeHTMLEntities decodes the named entities above, then decimal
// (&#NNN;) and hexadecimal (&#xHHH;) numeric references. Named substitution
// runs first; the numeric passes only see what the table left behind.
func DecodeHTMLEntities(s string) string {
	if s == "" {
		return s
	}

	for _, e := range namedEntities {
		s = strings.ReplaceAll(s, e.entity, e.text)
	}

	s = decimalEntityRe.ReplaceAllStringFunc(s, func(m string) string {
		digits := m[2 : len(m)-1]
		n, err := strconv.ParseInt(digits, 10, 32)
		if err != nil {
			return m
		}
		return string(rune(n))
	})

	s = hexEntityRe.ReplaceAllStringFunc(s, func(m string) string {
		digits := m[3 : len(m)-1]
		n, err := strconv.ParseInt(digits, 16, 32)
		if err != nil {
			return m
		}
		return string(rune(n))
	})

	return s
}
