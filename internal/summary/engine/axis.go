// Package engine turns expense/income documents into the branch summary
// pivot: a taxonomy-shaped table with one column per day of the period.
// Everything here is pure; callers fetch documents and the taxonomy first.
package engine

import (
	"strings"
	"time"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Axis is the ordered list of day keys of a report period.
type Axis struct {
	keys  []string
	index map[string]int
	loc   *time.Location
}

// NewAxis covers start..end inclusive. A missing, malformed or inverted
// range yields an empty axis.
func NewAxis(start, end string, loc *time.Location) Axis {
	loc = locationOrUTC(loc)
	from, ok := parseDay(start, loc)
	if !ok {
		return emptyAxis(loc)
	}
	to, ok := parseDay(end, loc)
	if !ok || to.Before(from) {
		return emptyAxis(loc)
	}
	return spanAxis(from, to, loc)
}

// MonthAxis covers every day of a YYYY-MM month.
func MonthAxis(month string, loc *time.Location) Axis {
	loc = locationOrUTC(loc)
	first, err := time.ParseInLocation(monthLayout, strings.TrimSpace(month), loc)
	if err != nil {
		return emptyAxis(loc)
	}
	last := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, loc)
	return spanAxis(first, last, loc)
}

func spanAxis(from, to time.Time, loc *time.Location) Axis {
	a := Axis{index: make(map[string]int), loc: loc}
	for d := from; !d.After(to); d = time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc) {
		key := d.Format(dayLayout)
		a.index[key] = len(a.keys)
		a.keys = append(a.keys, key)
	}
	return a
}

func emptyAxis(loc *time.Location) Axis {
	return Axis{index: map[string]int{}, loc: loc}
}

// Keys returns a copy of the day keys in order.
func (a Axis) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

func (a Axis) Len() int { return len(a.keys) }

func (a Axis) Empty() bool { return len(a.keys) == 0 }

// First and Last return the period bounds; both are empty for an empty axis.
func (a Axis) First() string {
	if len(a.keys) == 0 {
		return ""
	}
	return a.keys[0]
}

func (a Axis) Last() string {
	if len(a.keys) == 0 {
		return ""
	}
	return a.keys[len(a.keys)-1]
}

// Index returns the position of a day key.
func (a Axis) Index(key string) (int, bool) {
	i, ok := a.index[key]
	return i, ok
}

// DayKey resolves a document date (plain date or RFC 3339 timestamp) to the
// day key in the axis location.
func (a Axis) DayKey(raw string) (string, bool) {
	day, ok := parseDay(raw, locationOrUTC(a.loc))
	if !ok {
		return "", false
	}
	return day.Format(dayLayout), true
}

// ResolveDay returns the calendar day of a document date in loc.
func ResolveDay(raw string, loc *time.Location) (time.Time, bool) {
	return parseDay(raw, locationOrUTC(loc))
}

func parseDay(raw string, loc *time.Location) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(dayLayout, value, loc); err == nil {
		return t, true
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			local := t.In(loc)
			return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

func locationOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
