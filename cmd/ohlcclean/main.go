// Command ohlcclean runs the cleaning pipeline on a local file and writes the
// cleaned and range-filtered tables to a folder.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/codec"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/pipeline"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/store"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/usecase"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkglog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("ohlcclean failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	input        string
	outDir       string
	cleanedName  string
	filteredName string
	start        string
	end          string
	layouts      string
	dayFirst     bool
	rangeEnd     string
	format       string
	exportLayout string
	maxMB        int64
	logLevel     string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("ohlcclean", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.input, "input", "", "path of the file to clean (csv, txt, xlsx, optionally .gz/.zst/.xz)")
	fs.StringVar(&opts.outDir, "out-dir", ".", "folder the output files are written to")
	fs.StringVar(&opts.cleanedName, "cleaned", usecase.DefaultCleanedName, "file name of the cleaned table")
	fs.StringVar(&opts.filteredName, "filtered", usecase.DefaultFilteredName, "file name of the filtered table, empty to skip")
	fs.StringVar(&opts.start, "start", "", "first day of the date range")
	fs.StringVar(&opts.end, "end", "", "last day of the date range")
	fs.StringVar(&opts.layouts, "layouts", "", "comma separated time layouts used instead of the built-in list")
	fs.BoolVar(&opts.dayFirst, "day-first", false, "read ambiguous dates as day/month")
	fs.StringVar(&opts.rangeEnd, "range-end", string(pipeline.EndOfDay), "range end boundary: day | midnight")
	fs.StringVar(&opts.format, "format", string(entity.FormatCSV), "output format: csv | xlsx")
	fs.StringVar(&opts.exportLayout, "export-layout", codec.DefaultTimeLayout, "layout of the Date column in the output")
	fs.Int64Var(&opts.maxMB, "max-mb", 200, "largest accepted input in MiB")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "debug | info | warn | error")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.input == "" {
		return opts, errors.New("-input is required")
	}

	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	slog.SetDefault(pkglog.NewLogger(stderr, "ohlcclean", pkglog.ParseLevel(opts.logLevel)))

	format, err := entity.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	rangeEnd, err := pipeline.ParseEndBoundary(opts.rangeEnd)
	if err != nil {
		return err
	}

	pl := pipeline.New(pipeline.Options{
		Layouts:  splitComma(opts.layouts),
		DayFirst: opts.dayFirst,
		RangeEnd: rangeEnd,
	})

	endpoints, err := pipeline.ParseRange(pl.Parser(), opts.start, opts.end)
	if err != nil {
		return err
	}

	raw, err := readInput(opts.input, opts.maxMB<<20)
	if err != nil {
		return err
	}

	started := time.Now()
	res, err := pl.Clean(raw)
	if err != nil {
		return err
	}
	res.ApplyRange(pl.Filter(res.Cleaned, pipeline.DefaultRange(res.Cleaned, endpoints)))

	slog.InfoContext(ctx, "pipeline finished",
		"input", opts.input,
		"input_rows", res.Report.InputRows,
		"output_rows", res.Report.OutputRows,
		"filtered_rows", res.Report.FilteredRows,
		"elapsed", time.Since(started),
	)

	files, err := encodeOutputs(res, format, opts)
	if err != nil {
		return err
	}

	folder, err := store.NewFolder(opts.outDir)
	if err != nil {
		return err
	}
	paths, err := folder.Write(ctx, files)
	if err != nil {
		return err
	}

	for _, line := range res.Log() {
		fmt.Fprintln(stdout, line)
	}
	for _, p := range paths {
		fmt.Fprintln(stdout, "wrote", p)
	}

	return nil
}

func readInput(path string, limit int64) (entity.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return entity.Table{}, err
	}
	if limit > 0 && info.Size() > limit {
		return entity.Table{}, fmt.Errorf("%s: %w", path, usecase.ErrUploadTooLarge)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return entity.Table{}, err
	}

	return codec.Decode(filepath.Base(path), payload, codec.DecodeOptions{MaxBytes: 8 * limit})
}

type output struct {
	name  string
	table entity.Table
}

func encodeOutputs(res pipeline.Result, format entity.Format, opts options) ([]usecase.ExportFile, error) {
	tables := []output{{name: opts.cleanedName, table: res.Cleaned}}
	if opts.filteredName != "" {
		tables = append(tables, output{name: opts.filteredName, table: res.Filtered})
	}

	files := make([]usecase.ExportFile, 0, len(tables))
	for _, t := range tables {
		var buf bytes.Buffer
		if err := codec.Encode(&buf, t.table, format, opts.exportLayout); err != nil {
			return nil, err
		}
		files = append(files, usecase.ExportFile{Name: withExtension(t.name, format), Data: buf.Bytes()})
	}

	return files, nil
}

func withExtension(name string, format entity.Format) string {
	name = filepath.Base(name)
	return strings.TrimSuffix(name, filepath.Ext(name)) + format.Extension()
}

func splitComma(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
