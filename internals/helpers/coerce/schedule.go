package coerce

import (
	"strings"
	"time"
)

// Schedule is a parsed date or the raw text it was given. Both nil means null.
type Schedule struct {
	At  *time.Time
	Raw *string
}

func (s Schedule) IsNull() bool { return s.At == nil && s.Raw == nil }

// Zone-less layouts are read as UTC.
var scheduleLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// ParseSchedule returns a date when value parses as one, the raw text when it
// does not, and null when value is absent or empty.
func ParseSchedule(value any) Schedule {
	if !Truthy(value) {
		return Schedule{}
	}
	raw, ok := String(value)
	if !ok || raw == "" {
		return Schedule{}
	}
	if t, ok := ParseDate(raw); ok {
		return Schedule{At: &t}
	}
	return Schedule{Raw: &raw}
}

// ParseDate tries the accepted date layouts in order.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
