package reconcile

import (
	"strings"
	"time"
)

// Each source feed writes dates in its own text format. All parsers normalize
// to a calendar date at midnight UTC and return nil for values that do not
// parse; a nil date means "unknown" and is excluded from date-range filters
// without dropping the row.

const (
	// fill-rate feed: DD-MM-YYYY
	fillRateDateLayout = "2-1-2006"
	// purchase-order feed: DD Mon YYYY HH:MM AM/PM
	poDateLayout = "2 Jan 2006 3:04 PM"
)

// day-first layouts tried in order for the sales feed, which is ambiguous
// about separators and may carry a time component.
var salesDateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2/1/2006 15:04",
	"2-1-2006 15:04",
	"2 Jan 2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// ParseSalesDate parses a date cell from the sales feed, day first.
func ParseSalesDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range salesDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t)
		}
	}
	return nil
}

// ParsePODate parses a date cell from the purchase-order feed and discards the
// time-of-day component.
func ParsePODate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(poDateLayout, s)
	if err != nil {
		return nil
	}
	return dateOnly(t)
}

// ParseFillRateDate parses a date cell from the fill-rate feed. It is used for
// both the PO date and the (nullable) GRN date.
func ParseFillRateDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(fillRateDateLayout, s)
	if err != nil {
		return nil
	}
	return dateOnly(t)
}

func dateOnly(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// Date builds a canonical calendar date. Mostly a convenience for callers and
// tests that need to construct window bounds.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// inWindow reports whether t falls inside the closed interval [from, to].
// A nil t never satisfies a window.
func inWindow(t *time.Time, from, to time.Time) bool {
	if t == nil {
		return false
	}
	return !t.Before(from) && !t.After(to)
}

// dateKey renders a date as a join-key component. Unknown dates share a
// sentinel key so rows with unparsable dates still line up with each other.
func dateKey(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
