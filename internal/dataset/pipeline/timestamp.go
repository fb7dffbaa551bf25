package pipeline

import (
	"fmt"
	"strings"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
)

type TimestampResult struct {
	Table       entity.Table
	Unparseable entity.Diagnostic
	Merged      bool
}

// BuildTimestamps parses the Date column, or Date and Time joined by a
// space when both exist, into Row.Timestamp and the Date cell. Time is
// dropped after a merge. Rows that fail to parse, or that miss either half
// of a Date/Time pair, are dropped and reported.
func BuildTimestamps(t entity.Table, parser *TimeParser) (TimestampResult, error) {
	dateIdx := t.Index(ColumnDate)
	if dateIdx < 0 {
		return TimestampResult{}, ErrMissingTimestampColumn
	}
	timeIdx := t.Index(ColumnTime)
	merged := timeIdx >= 0

	out := entity.Table{
		Columns: make([]entity.Column, len(t.Columns)),
		Rows:    make([]entity.Row, 0, len(t.Rows)),
	}
	copy(out.Columns, t.Columns)
	out.Columns[dateIdx].Kind = entity.KindTime

	diag := entity.Diagnostic{Kind: entity.DiagnosticUnparseableTimestamp}

	for _, row := range t.Rows {
		raw := cellText(row, dateIdx)
		blank := strings.TrimSpace(raw) == ""
		if merged {
			timeText := cellText(row, timeIdx)
			blank = blank || strings.TrimSpace(timeText) == ""
			raw = raw + " " + timeText
		}

		// A merged row with one side missing must not parse as midnight.
		ts, err := parser.Parse(raw)
		if blank || err != nil {
			diag.Rows = append(diag.Rows, entity.Anomaly{
				Kind:     entity.DiagnosticUnparseableTimestamp,
				Position: row.Position,
				Raw:      raw,
				Values:   row.Texts(),
			})
			continue
		}

		cells := make([]entity.Value, len(out.Columns))
		copy(cells, row.Cells)
		cells[dateIdx] = entity.TimeValue(raw, ts)

		out.Rows = append(out.Rows, entity.Row{
			Position:  row.Position,
			Cells:     cells,
			Timestamp: ts,
		})
	}

	if merged {
		out.DropColumn(ColumnTime)
	}

	diag.Count = len(diag.Rows)
	if diag.Count > 0 {
		diag.Message = fmt.Sprintf("%d rows failed to parse and were dropped", diag.Count)
		if merged {
			diag.Message += " after combining Date/Time"
		}
	}

	return TimestampResult{Table: out, Unparseable: diag, Merged: merged}, nil
}

func cellText(row entity.Row, idx int) string {
	if idx < 0 || idx >= len(row.Cells) {
		return ""
	}
	return row.Cells[idx].Raw
}
