package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
)

// EndBoundary decides how the end date of a range is interpreted.
type EndBoundary string

const (
	// EndOfDay keeps every row on the end date: [start, end+1d).
	EndOfDay EndBoundary = "day"
	// EndAtMidnight keeps rows up to and including end 00:00.
	EndAtMidnight EndBoundary = "midnight"
)

func ParseEndBoundary(s string) (EndBoundary, error) {
	switch EndBoundary(strings.ToLower(strings.TrimSpace(s))) {
	case "", EndOfDay:
		return EndOfDay, nil
	case EndAtMidnight:
		return EndAtMidnight, nil
	default:
		return "", fmt.Errorf("unknown range end boundary %q", s)
	}
}

type RangeResult struct {
	Table   entity.Table
	Applied bool
	Start   time.Time
	End     time.Time
	Warning error
}

// FilterRange keeps the rows inside the calendar range given by endpoints.
// Only the dates of the endpoints matter. When endpoints is not exactly two
// ordered dates nothing is filtered and Warning wraps ErrMalformedRange.
func FilterRange(t entity.Table, endpoints []time.Time, mode EndBoundary) RangeResult {
	if len(endpoints) != 2 {
		return RangeResult{
			Table:   t.Clone(),
			Warning: fmt.Errorf("%w: expected 2 dates, got %d", ErrMalformedRange, len(endpoints)),
		}
	}

	start, end := midnight(endpoints[0]), midnight(endpoints[1])
	if start.After(end) {
		return RangeResult{
			Table: t.Clone(),
			Warning: fmt.Errorf("%w: start %s is after end %s", ErrMalformedRange,
				start.Format(time.DateOnly), end.Format(time.DateOnly)),
		}
	}

	upper := end
	if mode != EndAtMidnight {
		upper = end.AddDate(0, 0, 1)
	}

	out := entity.Table{Columns: t.Columns, Rows: make([]entity.Row, 0, len(t.Rows))}
	for _, row := range t.Rows {
		if row.Timestamp.Before(start) {
			continue
		}
		if mode == EndAtMidnight && row.Timestamp.After(upper) {
			continue
		}
		if mode != EndAtMidnight && !row.Timestamp.Before(upper) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}

	return RangeResult{Table: out.Clone(), Applied: true, Start: start, End: end}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DefaultRange returns endpoints unchanged when any were given, otherwise
// the [first, last] span of cleaned. An empty table keeps no endpoints.
func DefaultRange(cleaned entity.Table, endpoints []time.Time) []time.Time {
	if len(endpoints) > 0 {
		return endpoints
	}
	if first, last, ok := cleaned.Bounds(); ok {
		return []time.Time{first, last}
	}
	return nil
}

// ParseRange parses two date strings with the same layouts as the data.
// Empty strings are skipped so a half-filled range comes back with one
// endpoint and is rejected by FilterRange.
func ParseRange(parser *TimeParser, values ...string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		ts, err := parser.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRange, err)
		}
		out = append(out, ts)
	}
	return out, nil
}
