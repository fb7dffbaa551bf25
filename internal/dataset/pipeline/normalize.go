package pipeline

import (
	"strings"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
)

const (
	ColumnDate  = "Date"
	ColumnTime  = "Time"
	ColumnLast  = "Last"
	ColumnClose = "Close"
)

// NormalizeSchema trims every column name and renames Last to Close. Cells
// are shared with the input, only the column slice is copied.
func NormalizeSchema(t entity.Table) entity.Table {
	out := entity.Table{
		Columns: make([]entity.Column, len(t.Columns)),
		Rows:    t.Rows,
	}
	for i, c := range t.Columns {
		c.Name = strings.TrimSpace(c.Name)
		out.Columns[i] = c
	}

	out.RenameColumn(ColumnLast, ColumnClose)

	return out
}
