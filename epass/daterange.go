package epass

import (
	"fmt"
	"time"
)

const (
	// dateLayout is the operator's wire format for date-range filters.
	dateLayout = "02/01/2006"
	// timestampLayout is the operator's wire format for transaction
	// timestamps. Not ISO-8601; never assume otherwise.
	timestampLayout = "02/01/2006 15:04:05"

	// maxRangeDays is the operator's hard limit on a single listing query.
	maxRangeDays = 30
)

// DateRange is an inclusive calendar-date interval.
type DateRange struct {
	From time.Time
	To   time.Time
}

// FormatDate renders a date in the operator's DD/MM/YYYY format.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseTimestamp parses an operator transaction timestamp
// (DD/MM/YYYY HH:mm:ss). Invalid input fails with a *ParseTimestampError
// rather than producing a silently wrong date.
func ParseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, &ParseTimestampError{Value: value, Err: err}
	}
	return t, nil
}

// SplitDateRange splits [from, to] into contiguous, non-overlapping
// sub-ranges of at most maxDays calendar days each, in ascending order.
// The sub-ranges cover [from, to] exactly: each starts the day after its
// predecessor ends, and the last one ends on to.
func SplitDateRange(from, to time.Time, maxDays int) ([]DateRange, error) {
	from = truncateToDay(from)
	to = truncateToDay(to)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid date range: %s is after %s", FormatDate(from), FormatDate(to))
	}

	var ranges []DateRange
	for current := from; !current.After(to); {
		end := current.AddDate(0, 0, maxDays-1)
		if end.After(to) {
			end = to
		}
		ranges = append(ranges, DateRange{From: current, To: end})
		current = end.AddDate(0, 0, 1)
	}
	return ranges, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
