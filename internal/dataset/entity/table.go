package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the type of a column and of the cells it holds.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindTime:
		return "timestamp"
	default:
		return "text"
	}
}

// Value is one typed cell. Raw always holds the trimmed source text.
type Value struct {
	Kind Kind            `json:"kind"`
	Raw  string          `json:"raw"`
	Num  decimal.Decimal `json:"num"`
	Time time.Time       `json:"time"`
}

func TextValue(raw string) Value {
	return Value{Kind: KindText, Raw: raw}
}

func NumberValue(raw string, num decimal.Decimal) Value {
	return Value{Kind: KindNumber, Raw: raw, Num: num}
}

func TimeValue(raw string, ts time.Time) Value {
	return Value{Kind: KindTime, Raw: raw, Time: ts}
}

func (v Value) IsEmpty() bool {
	return v.Raw == ""
}

type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Row is one observation. Position is the 0-based index of the row in the
// uploaded file and survives every stage unchanged.
type Row struct {
	Position  int       `json:"position"`
	Cells     []Value   `json:"cells"`
	Timestamp time.Time `json:"timestamp"`
}

// Texts returns the raw text of every cell.
func (r Row) Texts() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Raw
	}
	return out
}

// Table is an ordered sequence of rows sharing one column schema.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

func (t Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of the first column named name, or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t Table) Has(name string) bool {
	return t.Index(name) >= 0
}

func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// RenameColumn renames the first column called from. It reports whether a
// column was renamed.
func (t *Table) RenameColumn(from, to string) bool {
	idx := t.Index(from)
	if idx < 0 {
		return false
	}
	t.Columns[idx].Name = to
	return true
}

// DropColumn removes the first column called name and its cells.
func (t *Table) DropColumn(name string) bool {
	idx := t.Index(name)
	if idx < 0 {
		return false
	}

	t.Columns = append(t.Columns[:idx:idx], t.Columns[idx+1:]...)
	for i := range t.Rows {
		cells := t.Rows[i].Cells
		if idx < len(cells) {
			t.Rows[i].Cells = append(cells[:idx:idx], cells[idx+1:]...)
		}
	}
	return true
}

// Clone returns a deep copy whose rows and cells can be mutated freely.
func (t Table) Clone() Table {
	out := Table{
		Columns: make([]Column, len(t.Columns)),
		Rows:    make([]Row, len(t.Rows)),
	}
	copy(out.Columns, t.Columns)
	for i, r := range t.Rows {
		cells := make([]Value, len(r.Cells))
		copy(cells, r.Cells)
		out.Rows[i] = Row{Position: r.Position, Cells: cells, Timestamp: r.Timestamp}
	}
	return out
}

// Head returns a copy holding at most n leading rows.
func (t Table) Head(n int) Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	head := Table{Columns: t.Columns, Rows: t.Rows[:n]}
	return head.Clone()
}

// Bounds returns the first and last row timestamps. The table is expected to
// be sorted.
func (t Table) Bounds() (time.Time, time.Time, bool) {
	if len(t.Rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t.Rows[0].Timestamp, t.Rows[len(t.Rows)-1].Timestamp, true
}
