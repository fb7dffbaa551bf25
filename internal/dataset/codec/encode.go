package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
)

// DefaultTimeLayout renders timestamps as MM/DD/YYYY HH:MM.
const DefaultTimeLayout = "01/02/2006 15:04"

const sheetName = "Sheet1"

// Encode writes t in the given format.
func Encode(w io.Writer, t entity.Table, format entity.Format, layout string) error {
	switch format {
	case entity.FormatCSV, "":
		return EncodeCSV(w, t, layout)
	case entity.FormatXLSX:
		return EncodeXLSX(w, t, layout)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func ContentType(format entity.Format) string {
	if format == entity.FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// EncodeCSV writes a header and one line per row. The last row has no
// trailing newline.
func EncodeCSV(w io.Writer, t entity.Table, layout string) error {
	var buf bytes.Buffer

	cw := csv.NewWriter(&buf)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(FormatRow(t, row, layout)); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return err
}

// EncodeXLSX writes t to the first sheet of a new workbook. Numeric cells are
// stored as numbers, timestamps as text in layout.
func EncodeXLSX(w io.Writer, t entity.Table, layout string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		values := make([]any, len(t.Columns))
		for j, text := range FormatRow(t, row, layout) {
			values[j] = text
			if j < len(row.Cells) && row.Cells[j].Kind == entity.KindNumber && !row.Cells[j].IsEmpty() {
				values[j] = row.Cells[j].Num.InexactFloat64()
			}
		}

		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	return f.Write(w)
}

// FormatRow renders the cells of row as text, timestamps in layout.
func FormatRow(t entity.Table, row entity.Row, layout string) []string {
	if layout == "" {
		layout = DefaultTimeLayout
	}

	out := make([]string, len(t.Columns))
	for i := range t.Columns {
		if i >= len(row.Cells) {
			continue
		}
		v := row.Cells[i]
		if v.Kind == entity.KindTime {
			out[i] = v.Time.Format(layout)
			continue
		}
		out[i] = v.Raw
	}
	return out
}
