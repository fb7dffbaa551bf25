package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/shopspring/decimal"
	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
)

var ErrFileParse = errors.New("file could not be parsed")

var (
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
	gzipMagic = []byte{0x1F, 0x8B}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
)

type DecodeOptions struct {
	// Comma is the field delimiter of text input. Zero means ','.
	Comma rune
	// Sheet selects the worksheet of xlsx input. Empty means the first one.
	Sheet string
	// MaxBytes caps the decompressed size. Zero means no limit.
	MaxBytes int64
}

// Decode reads a delimited text file or an xlsx workbook, optionally gzip,
// zstd or xz compressed, into a Table. The first record is the header.
func Decode(name string, payload []byte, opts DecodeOptions) (entity.Table, error) {
	data, err := decompress(payload, opts.MaxBytes)
	if err != nil {
		return entity.Table{}, fmt.Errorf("%w: %w", ErrFileParse, err)
	}

	var records [][]string
	if bytes.HasPrefix(data, zipMagic) || strings.EqualFold(filepath.Ext(name), ".xlsx") {
		records, err = readSheet(data, opts.Sheet)
	} else {
		records, err = readDelimited(data, opts.Comma)
	}
	if err != nil {
		return entity.Table{}, err
	}

	return buildTable(records)
}

func decompress(payload []byte, limit int64) ([]byte, error) {
	var (
		r   io.Reader
		err error
	)

	src := bytes.NewReader(payload)
	switch {
	case bytes.HasPrefix(payload, gzipMagic):
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(src); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	case bytes.HasPrefix(payload, zstdMagic):
		var dec *zstd.Decoder
		if dec, err = zstd.NewReader(src); err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		r = dec
	case bytes.HasPrefix(payload, xzMagic):
		if r, err = xz.NewReader(src); err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
	default:
		return payload, nil
	}

	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("decompressed size exceeds %d bytes", limit)
	}

	return data, nil
}

func readDelimited(data []byte, comma rune) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	if comma != 0 {
		cr.Comma = comma
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileParse, err)
	}

	return records, nil
}

func readSheet(data []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %w", ErrFileParse, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrFileParse)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %w", ErrFileParse, sheet, err)
	}

	return rows, nil
}

func buildTable(records [][]string) (entity.Table, error) {
	if len(records) == 0 {
		return entity.Table{}, fmt.Errorf("%w: empty file", ErrFileParse)
	}

	header := records[0]
	if len(header) == 0 || allBlank(header) {
		return entity.Table{}, fmt.Errorf("%w: missing header row", ErrFileParse)
	}

	t := entity.Table{
		Columns: make([]entity.Column, len(header)),
		Rows:    make([]entity.Row, 0, len(records)-1),
	}
	for i, name := range header {
		t.Columns[i] = entity.Column{Name: name, Kind: entity.KindText}
	}

	for i, rec := range records[1:] {
		if allBlank(rec) {
			continue
		}
		if len(rec) > len(header) {
			return entity.Table{}, fmt.Errorf("%w: line %d has %d fields, header has %d",
				ErrFileParse, i+2, len(rec), len(header))
		}

		cells := make([]entity.Value, len(header))
		for j := range cells {
			raw := ""
			if j < len(rec) {
				raw = strings.TrimSpace(rec[j])
			}
			cells[j] = entity.TextValue(raw)
		}

		t.Rows = append(t.Rows, entity.Row{Position: len(t.Rows), Cells: cells})
	}

	inferKinds(&t)
	return t, nil
}

// inferKinds marks a column as numeric when it has at least one value and
// every non-empty value is a decimal.
func inferKinds(t *entity.Table) {
	for col := range t.Columns {
		nums := make([]decimal.Decimal, len(t.Rows))
		numeric, seen := true, false

		for i, row := range t.Rows {
			v := row.Cells[col]
			if v.IsEmpty() {
				continue
			}
			d, err := decimal.NewFromString(v.Raw)
			if err != nil {
				numeric = false
				break
			}
			nums[i], seen = d, true
		}

		if !numeric || !seen {
			continue
		}

		t.Columns[col].Kind = entity.KindNumber
		for i := range t.Rows {
			raw := t.Rows[i].Cells[col].Raw
			t.Rows[i].Cells[col] = entity.NumberValue(raw, nums[i])
		}
	}
}

func allBlank(rec []string) bool {
	for _, s := range rec {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
