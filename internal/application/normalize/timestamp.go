package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// alternative layouts seen in admin exports and scraped pages
var (
	dateTimeLayouts = []string{
		"2006.01.02 15:04:05",
		"2006.01.02 15:04",
		"2006/01/02 15:04:05",
		"2006/01/02 15:04",
		"20060102150405",
	}
	dateLayouts = []string{
		"2006.01.02",
		"2006/01/02",
		"20060102",
	}
)

// NormalizeTimestamp rewrites known order-date layouts to ISO-8601.
// Date-only inputs stay date-only. A trailing weekday suffix such as
// "(화)" is dropped. Epoch milliseconds are converted in loc. Values
// in unknown layouts are returned trimmed.
func NormalizeTimestamp(raw string, loc *time.Location) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "("); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	if s == "" {
		return ""
	}

	if isoDatePrefix.MatchString(s) {
		if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
			return t.Format("2006-01-02T15:04:05")
		}
		if t, err := time.Parse("2006-01-02 15:04", s); err == nil {
			return t.Format("2006-01-02T15:04:05")
		}
		return s
	}

	if len(s) == 13 {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			if loc == nil {
				loc = time.Local
			}
			return time.UnixMilli(ms).In(loc).Format("2006-01-02T15:04:05")
		}
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02T15:04:05")
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
