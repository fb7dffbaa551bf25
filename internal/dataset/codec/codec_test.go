package codec_test

import (
	"bytes"
	"compress/gzip"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/codec"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
)

const sample = "Date,Time,Open,High,Low,Last,Note\n" +
	"01/02/2024,09:00,100.5,101,99.75,100.25,a\n" +
	"01/02/2024,09:01,100.25,100.5,100,100.5\n"

func TestDecode_DelimitedText(t *testing.T) {
	payload := append([]byte{0xEF, 0xBB, 0xBF}, sample...)

	table, err := codec.Decode("bars.txt", payload, codec.DecodeOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Time", "Open", "High", "Low", "Last", "Note"}, table.ColumnNames())
	require.Equal(t, 2, table.Len())

	assert.Equal(t, entity.KindText, table.Columns[0].Kind)
	assert.Equal(t, entity.KindNumber, table.Columns[2].Kind)
	assert.True(t, decimal.RequireFromString("100.5").Equal(table.Rows[0].Cells[2].Num))

	// short row is padded
	assert.Equal(t, "", table.Rows[1].Cells[6].Raw)
	assert.Equal(t, 0, table.Rows[0].Position)
	assert.Equal(t, 1, table.Rows[1].Position)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty", payload: ""},
		{name: "only blank lines", payload: "\n\n"},
		{name: "row longer than header", payload: "Date,Close\n2024-01-01,1,2\n"},
		{name: "bad quoting", payload: "Date,Close\n\"2024-01-01,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode("x.csv", []byte(tt.payload), codec.DecodeOptions{})
			assert.ErrorIs(t, err, codec.ErrFileParse)
		})
	}
}

func TestDecode_Compressed(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := enc.EncodeAll([]byte(sample), nil)
	require.NoError(t, enc.Close())

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	require.NoError(t, err)
	_, err = xw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, xw.Close())

	for name, payload := range map[string][]byte{
		"bars.csv.gz":  gz.Bytes(),
		"bars.csv.zst": zst,
		"bars.csv.xz":  xzBuf.Bytes(),
	} {
		t.Run(name, func(t *testing.T) {
			table, err := codec.Decode(name, payload, codec.DecodeOptions{})
			require.NoError(t, err)
			assert.Equal(t, 2, table.Len())
			assert.Equal(t, "09:01", table.Rows[1].Cells[1].Raw)
		})
	}
}

func TestDecode_MaxBytes(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte(sample))
	require.NoError(t, gw.Close())

	_, err := codec.Decode("bars.gz", gz.Bytes(), codec.DecodeOptions{MaxBytes: 10})
	assert.ErrorIs(t, err, codec.ErrFileParse)
}

func cleanedTable() entity.Table {
	ts1 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	ts2 := time.Date(2024, 1, 2, 9, 1, 0, 0, time.UTC)

	return entity.Table{
		Columns: []entity.Column{
			{Name: "Date", Kind: entity.KindTime},
			{Name: "Close", Kind: entity.KindNumber},
			{Name: "Note", Kind: entity.KindText},
		},
		Rows: []entity.Row{
			{Position: 0, Timestamp: ts1, Cells: []entity.Value{
				entity.TimeValue("2024-01-02 09:00", ts1),
				entity.NumberValue("100.25", decimal.RequireFromString("100.25")),
				entity.TextValue("a,b"),
			}},
			{Position: 1, Timestamp: ts2, Cells: []entity.Value{
				entity.TimeValue("2024-01-02 09:01", ts2),
				entity.NumberValue("100.5", decimal.RequireFromString("100.5")),
				entity.TextValue(""),
			}},
		},
	}
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, codec.EncodeCSV(&buf, cleanedTable(), ""))

	want := "Date,Close,Note\n" +
		"01/02/2024 09:00,100.25,\"a,b\"\n" +
		"01/02/2024 09:01,100.5,"
	assert.Equal(t, want, buf.String())
}

func TestEncodeCSV_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, codec.EncodeCSV(&buf, cleanedTable().Head(1), time.RFC3339))

	assert.Equal(t, "Date,Close,Note\n2024-01-02T09:00:00Z,100.25,\"a,b\"", buf.String())
}

func TestEncodeCSV_Empty(t *testing.T) {
	table := cleanedTable()
	table.Rows = nil

	var buf bytes.Buffer
	require.NoError(t, codec.EncodeCSV(&buf, table, ""))
	assert.Equal(t, "Date,Close,Note", buf.String())
}

func TestEncodeXLSX_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, cleanedTable(), entity.FormatXLSX, ""))

	table, err := codec.Decode("out.xlsx", buf.Bytes(), codec.DecodeOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Close", "Note"}, table.ColumnNames())
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "01/02/2024 09:00", table.Rows[0].Cells[0].Raw)
	assert.Equal(t, entity.KindNumber, table.Columns[1].Kind)
	assert.True(t, decimal.RequireFromString("100.5").Equal(table.Rows[1].Cells[1].Num))
	assert.Equal(t, "a,b", table.Rows[0].Cells[2].Raw)
}

func TestEncode_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, codec.Encode(&buf, cleanedTable(), entity.Format("parquet"), ""))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", codec.ContentType(entity.FormatCSV))
	assert.Contains(t, codec.ContentType(entity.FormatXLSX), "spreadsheetml")
}
