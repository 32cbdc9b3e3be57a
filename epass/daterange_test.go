package epass

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestSplitDateRangeSixtyOneDays(t *testing.T) {
	ranges, err := SplitDateRange(date(2023, time.January, 1), date(2023, time.March, 2), 30)
	require.NoError(t, err)
	require.Len(t, ranges, 3)

	require.Equal(t, date(2023, time.January, 1), ranges[0].From)
	require.Equal(t, date(2023, time.January, 30), ranges[0].To)
	require.Equal(t, date(2023, time.January, 31), ranges[1].From)
	require.Equal(t, date(2023, time.March, 1), ranges[1].To)
	require.Equal(t, date(2023, time.March, 2), ranges[2].From)
	require.Equal(t, date(2023, time.March, 2), ranges[2].To)
}

func TestSplitDateRangeWithinLimit(t *testing.T) {
	ranges, err := SplitDateRange(date(2023, time.June, 1), date(2023, time.June, 30), 30)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	require.Equal(t, date(2023, time.June, 1), ranges[0].From)
	require.Equal(t, date(2023, time.June, 30), ranges[0].To)
}

func TestSplitDateRangeSingleDay(t *testing.T) {
	ranges, err := SplitDateRange(date(2023, time.June, 15), date(2023, time.June, 15), 30)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	require.Equal(t, ranges[0].From, ranges[0].To)
}

func TestSplitDateRangeIgnoresTimeOfDay(t *testing.T) {
	from := time.Date(2023, time.June, 1, 23, 59, 58, 0, time.UTC)
	to := time.Date(2023, time.June, 1, 0, 0, 1, 0, time.UTC)

	ranges, err := SplitDateRange(from, to, 30)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	require.Equal(t, date(2023, time.June, 1), ranges[0].From)
}

func TestSplitDateRangeInverted(t *testing.T) {
	_, err := SplitDateRange(date(2023, time.June, 2), date(2023, time.June, 1), 30)
	require.Error(t, err)
}

func TestSplitDateRangeCoversWithoutGaps(t *testing.T) {
	from := date(2023, time.January, 1)
	to := date(2023, time.December, 31)

	ranges, err := SplitDateRange(from, to, 30)
	require.NoError(t, err)

	require.Equal(t, from, ranges[0].From)
	require.Equal(t, to, ranges[len(ranges)-1].To)
	for i := 1; i < len(ranges); i++ {
		require.Equal(t, ranges[i-1].To.AddDate(0, 0, 1), ranges[i].From)
	}
	for _, r := range ranges {
		days := int(r.To.Sub(r.From).Hours()/24) + 1
		require.LessOrEqual(t, days, 30)
	}
}

func TestParseTimestamp(t *testing.T) {
	parsed, err := ParseTimestamp("15/06/2023 14:30:05")
	require.NoError(t, err)
	require.Equal(t, time.Date(2023, time.June, 15, 14, 30, 5, 0, time.UTC), parsed)
}

func TestParseTimestampRejectsISO(t *testing.T) {
	_, err := ParseTimestamp("2023-06-15T14:30:05Z")
	require.Error(t, err)

	var parseErr *ParseTimestampError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "2023-06-15T14:30:05Z", parseErr.Value)
}

func TestFormatDate(t *testing.T) {
	require.Equal(t, "05/06/2023", FormatDate(date(2023, time.June, 5)))
}
