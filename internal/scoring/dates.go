package scoring

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Known timestamp layouts, tried in order. Layouts without a zone are
// interpreted in the caller's location.
var (
	zonedLayouts = []string{
		// RFC 5322, numeric offset
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04 -0700",
		// RFC 5322, named zone
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2 Jan 2006 15:04:05 MST",
		// ISO 8601 with offset
		time.RFC3339,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05-0700",
		"2006-01-02T15:04:05-0700",
	}
	naiveLayouts = []string{
		// RFC 5322 without zone
		"Mon, 2 Jan 2006 15:04:05",
		"2 Jan 2006 15:04:05",
		// ISO 8601 without offset
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
)

// Obsolete RFC 5322 zone names. time.Parse only knows abbreviations of the
// local zone and records any other name with a zero offset.
var namedZones = map[string]int{
	"UT":  0,
	"UTC": 0,
	"GMT": 0,
	"Z":   0,
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

var trailingComment = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// ErrUnparseableDate is returned when no known layout matches
var ErrUnparseableDate = errors.New("unrecognized date format")

// ParseDate parses a message timestamp against the known layouts. Values
// without a zone are taken to be in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, _, err := parseDate(value, loc)
	return t, err
}

// parseDate also returns the zone name when the value carries a named zone
// outside the table, which time.Parse records with a zero offset
func parseDate(value string, loc *time.Location) (time.Time, string, error) {
	value = strings.TrimSpace(trailingComment.ReplaceAllString(value, ""))
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return time.Time{}, "", ErrUnparseableDate
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t, unknown := fixNamedZone(t)
			return t, unknown, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, "", nil
		}
	}
	return time.Time{}, "", ErrUnparseableDate
}

func fixNamedZone(t time.Time) (time.Time, string) {
	name, offset := t.Zone()
	if offset != 0 || name == "" {
		return t, ""
	}
	known, ok := namedZones[strings.ToUpper(name)]
	if !ok {
		return t, name
	}
	if known == 0 {
		return t, ""
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
		time.FixedZone(name, known)), ""
}
