package inbound

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISOLayout is the stored timestamp format (UTC, millisecond precision).
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// Values above this are already milliseconds; below are seconds.
const msThreshold = 1e12

var (
	minTimestamp = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	maxTimestamp = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

	digitsOnly = regexp.MustCompile(`^\d+$`)
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// NormalizeTimestamp converts seconds, milliseconds or date text to a UTC
// time within [2000, 2100). fellBack reports that now() was substituted.
func NormalizeTimestamp(v any, now func() time.Time) (t time.Time, fellBack bool) {
	if now == nil {
		now = time.Now
	}
	ms, ok := toMillis(v)
	if ok {
		t = time.UnixMilli(ms).UTC()
	} else if s, isStr := v.(string); isStr {
		t, ok = parseDate(s)
	}
	if !ok || t.Before(minTimestamp) || !t.Before(maxTimestamp) {
		return now().UTC(), true
	}
	return t, false
}

// FormatTimestamp renders t the way stored rows expect it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

func toMillis(v any) (int64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.TrimSpace(t)
		if !digitsOnly.MatchString(s) {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if f > msThreshold {
		return int64(f), true
	}
	return int64(f * 1000), true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
