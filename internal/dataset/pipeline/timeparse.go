package pipeline

import (
	"fmt"
	"strings"
	"time"
)

var (
	isoLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}

	monthFirstLayouts = []string{
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"1/2/2006 3:04:05 PM",
		"1/2/2006 3:04 PM",
		"1/2/2006",
		"1/2/06 15:04:05",
		"1/2/06 15:04",
		"1/2/06",
	}

	dayFirstLayouts = []string{
		"2/1/2006 15:04:05",
		"2/1/2006 15:04",
		"2/1/2006 3:04:05 PM",
		"2/1/2006 3:04 PM",
		"2/1/2006",
		"2/1/06 15:04:05",
		"2/1/06 15:04",
		"2/1/06",
	}

	otherLayouts = []string{
		"2006/1/2 15:04:05",
		"2006/1/2 15:04",
		"2006/1/2",
		"2006.01.02 15:04:05",
		"2006.01.02 15:04",
		"2006.01.02",
		"20060102 150405",
		"20060102 15:04:05",
		"20060102 15:04",
		"20060102",
	}
)

// DefaultLayouts returns the inference order used when no layout is
// configured. Ambiguous slash dates are month-first unless dayFirst is set.
func DefaultLayouts(dayFirst bool) []string {
	slash := monthFirstLayouts
	if dayFirst {
		slash = dayFirstLayouts
	}

	layouts := make([]string, 0, len(isoLayouts)+len(slash)+len(otherLayouts))
	layouts = append(layouts, isoLayouts...)
	layouts = append(layouts, slash...)
	layouts = append(layouts, otherLayouts...)
	return layouts
}

// TimeParser parses timestamps against an ordered list of layouts. The
// layout that matched last is tried first. Not safe for concurrent use.
type TimeParser struct {
	layouts []string
	last    int
}

// NewTimeParser uses layouts verbatim when given, DefaultLayouts otherwise.
func NewTimeParser(layouts []string, dayFirst bool) *TimeParser {
	clean := make([]string, 0, len(layouts))
	for _, l := range layouts {
		if l = strings.TrimSpace(l); l != "" {
			clean = append(clean, l)
		}
	}
	if len(clean) == 0 {
		clean = DefaultLayouts(dayFirst)
	}

	return &TimeParser{layouts: clean, last: -1}
}

func (p *TimeParser) Layouts() []string {
	out := make([]string, len(p.layouts))
	copy(out, p.layouts)
	return out
}

// Parse collapses runs of whitespace in raw and parses it.
func (p *TimeParser) Parse(raw string) (time.Time, error) {
	value := strings.Join(strings.Fields(raw), " ")
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseableTimestamp)
	}

	if p.last >= 0 {
		if ts, err := time.Parse(p.layouts[p.last], value); err == nil {
			return ts, nil
		}
	}

	for i, layout := range p.layouts {
		if i == p.last {
			continue
		}
		if ts, err := time.Parse(layout, value); err == nil {
			p.last = i
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTimestamp, raw)
}
