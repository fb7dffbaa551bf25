package pipeline

import (
	"fmt"
	"time"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
)

type Options struct {
	Layouts  []string
	DayFirst bool
	RangeEnd EndBoundary
}

// Pipeline is stateless and safe for concurrent use; every run gets its own
// TimeParser.
type Pipeline struct {
	opts Options
}

func New(opts Options) *Pipeline {
	if opts.RangeEnd == "" {
		opts.RangeEnd = EndOfDay
	}
	return &Pipeline{opts: opts}
}

func (p *Pipeline) Parser() *TimeParser {
	return NewTimeParser(p.opts.Layouts, p.opts.DayFirst)
}

type Result struct {
	Cleaned      entity.Table
	Filtered     entity.Table
	Diagnostics  []entity.Diagnostic
	Report       entity.Report
	RangeWarning error
}

// Clean runs normalization, timestamp reconstruction and order resolution.
// Filtered is a copy of Cleaned.
func (p *Pipeline) Clean(raw entity.Table) (Result, error) {
	table := NormalizeSchema(raw)

	ts, err := BuildTimestamps(table, p.Parser())
	if err != nil {
		return Result{}, err
	}

	resolved := ResolveOrder(ts.Table)

	res := Result{
		Cleaned:  resolved.Table,
		Filtered: resolved.Table.Clone(),
		Report: entity.Report{
			InputRows:       raw.Len(),
			UnparseableRows: ts.Unparseable.Count,
			OutOfOrderRows:  resolved.OutOfOrder.Count,
			DuplicateGroups: resolved.DuplicateGroups,
			DuplicateRows:   resolved.Duplicates.Count,
			RemovedRows:     resolved.Duplicates.Count - resolved.DuplicateGroups,
			OutputRows:      resolved.Table.Len(),
			FilteredRows:    resolved.Table.Len(),
			MergedDateTime:  ts.Merged,
			AlreadySorted:   resolved.AlreadySorted,
		},
	}

	for _, d := range []entity.Diagnostic{ts.Unparseable, resolved.OutOfOrder, resolved.Duplicates} {
		if !d.Empty() {
			res.Diagnostics = append(res.Diagnostics, d)
		}
	}

	return res, nil
}

// Run cleans raw and filters the result by endpoints. A malformed range is
// not an error: Filtered equals Cleaned and RangeWarning is set.
func (p *Pipeline) Run(raw entity.Table, endpoints []time.Time) (Result, error) {
	res, err := p.Clean(raw)
	if err != nil {
		return Result{}, err
	}

	res.ApplyRange(p.Filter(res.Cleaned, endpoints))
	return res, nil
}

func (p *Pipeline) Filter(cleaned entity.Table, endpoints []time.Time) RangeResult {
	return FilterRange(cleaned, endpoints, p.opts.RangeEnd)
}

func (r *Result) ApplyRange(rr RangeResult) {
	r.Filtered = rr.Table
	r.RangeWarning = rr.Warning
	r.Report.RangeApplied = rr.Applied
	r.Report.FilteredRows = rr.Table.Len()
}

// Log renders the run as the lines shown to a user.
func (r Result) Log() []string {
	lines := make([]string, 0, 6)

	if r.Report.MergedDateTime {
		lines = append(lines, "Combined 'Date' and 'Time' columns into a single 'Date' column.")
	} else {
		lines = append(lines, "No separate 'Time' column found; parsed 'Date' on its own.")
	}

	if r.Report.UnparseableRows > 0 {
		lines = append(lines, fmt.Sprintf("%d rows failed to parse and were dropped.", r.Report.UnparseableRows))
	}

	if r.Report.AlreadySorted {
		lines = append(lines, "Data is already in chronological order.")
	} else {
		lines = append(lines, fmt.Sprintf("Data is not in strict chronological order: %d rows out of sequence were re-ordered.",
			r.Report.OutOfOrderRows))
	}

	if r.Report.DuplicateGroups == 0 {
		lines = append(lines, "No duplicate timestamps found.")
	} else {
		lines = append(lines, fmt.Sprintf("Found %d rows with duplicate timestamps in %d groups; kept the first of each and removed %d.",
			r.Report.DuplicateRows, r.Report.DuplicateGroups, r.Report.RemovedRows))
	}

	switch {
	case r.RangeWarning != nil:
		lines = append(lines, fmt.Sprintf("Date range ignored (%v); filtered output equals the cleaned data.", r.RangeWarning))
	case r.Report.RangeApplied:
		lines = append(lines, fmt.Sprintf("Filtered to %d of %d rows.", r.Report.FilteredRows, r.Report.OutputRows))
	}

	return lines
}
