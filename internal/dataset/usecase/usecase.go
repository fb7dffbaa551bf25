package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/codec"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/pipeline"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgerror"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkglog"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkguid"
)

var ErrUploadTooLarge = errors.New("upload exceeds the size limit")

// ErrDuplicateFileName rejects a save that would write two files to one path.
var ErrDuplicateFileName = errors.New("duplicate export file name")

const (
	DefaultCleanedName  = "converted_data.csv"
	DefaultFilteredName = "filtered_data.csv"

	defaultFileName    = "upload.csv"
	defaultPreviewRows = 5
	maxPreviewRows     = 1000
)

type Store interface {
	CreateDataset(ctx context.Context, meta entity.DatasetMeta) error
	UpdateMeta(ctx context.Context, id string, fn func(meta *entity.DatasetMeta)) error
	SaveResult(ctx context.Context, id string, result entity.Result) error
	SaveFiltered(ctx context.Context, id string, filtered entity.Table) error
	GetMeta(ctx context.Context, id string) (entity.DatasetMeta, error)
	GetTable(ctx context.Context, id string, variant entity.Variant) (entity.Table, entity.DatasetMeta, error)
	ListAnomalies(ctx context.Context, id string, filter AnomalyFilter, page, pageSize int) ([]entity.Anomaly, int, entity.DatasetMeta, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.DatasetReadyEvent) error
}

type Runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error) bool
}

type Clock interface {
	Now() time.Time
}

// Saver writes exported files somewhere durable and returns their paths.
type Saver interface {
	Write(ctx context.Context, files []ExportFile) ([]string, error)
}

type Metrics interface {
	DatasetProcessed(status string, elapsed time.Duration)
	RowsProcessed(outcome string, n int)
}

type Options struct {
	// ExportLayout formats timestamps in previews and exports.
	ExportLayout   string
	MaxUploadBytes int64
	CleanedName    string
	FilteredName   string
}

type Dependency struct {
	Store    Store
	Events   EventPublisher
	Runner   Runner
	Clock    Clock
	ID       pkguid.StringID
	EventID  pkguid.NumberID
	Pipeline *pipeline.Pipeline
	Saver    Saver
	Metrics  Metrics
	Options  Options
	RootCtx  context.Context
}

type Usecase struct {
	store    Store
	events   EventPublisher
	runner   Runner
	clock    Clock
	id       pkguid.StringID
	eventID  pkguid.NumberID
	pipeline *pipeline.Pipeline
	saver    Saver
	metrics  Metrics
	opts     Options
	rootCtx  context.Context
}

func New(dep Dependency) *Usecase {
	root := dep.RootCtx
	if root == nil {
		root = context.Background()
	}

	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	pl := dep.Pipeline
	if pl == nil {
		pl = pipeline.New(pipeline.Options{})
	}

	metrics := dep.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	opts := dep.Options
	if opts.ExportLayout == "" {
		opts.ExportLayout = codec.DefaultTimeLayout
	}
	if opts.CleanedName == "" {
		opts.CleanedName = DefaultCleanedName
	}
	if opts.FilteredName == "" {
		opts.FilteredName = DefaultFilteredName
	}

	return &Usecase{
		store:    dep.Store,
		events:   dep.Events,
		runner:   dep.Runner,
		clock:    clock,
		id:       dep.ID,
		eventID:  dep.EventID,
		pipeline: pl,
		saver:    dep.Saver,
		metrics:  metrics,
		opts:     opts,
		rootCtx:  root,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type noopMetrics struct{}

func (noopMetrics) DatasetProcessed(string, time.Duration) {}
func (noopMetrics) RowsProcessed(string, int)              {}

// Upload registers a dataset and cleans in.Data in the background. The
// caller keeps writing into in.Data after Upload returns when it is a pipe.
func (u *Usecase) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	if u.store == nil || u.id == nil || u.runner == nil {
		return UploadResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}
	if in.Data == nil {
		return UploadResult{}, pkgerror.NewInvalidInput(errors.New("file is required"))
	}

	endpoints, err := pipeline.ParseRange(u.pipeline.Parser(), in.Range...)
	if err != nil {
		return UploadResult{}, pkgerror.NewInvalidInput(err)
	}

	datasetID := u.id.Generate()
	fileName := cleanFileName(in.FileName)

	if err := u.store.CreateDataset(ctx, entity.DatasetMeta{
		ID:        datasetID,
		FileName:  fileName,
		Status:    entity.DatasetStatusQueued,
		CreatedAt: u.clock.Now().Unix(),
		Range:     endpoints,
	}); err != nil {
		return UploadResult{}, normalizeErr(err)
	}

	scheduled := u.runner.Go(pkglog.Detach(u.rootCtx, ctx), func(ctx context.Context) error {
		if err := u.processUpload(ctx, datasetID, fileName, in.Data, endpoints); err != nil {
			slog.ErrorContext(ctx, "dataset processing failed", "dataset_id", datasetID, "error", err)
			return err
		}
		return nil
	})
	if !scheduled {
		closeReader(in.Data, errors.New("processing was not scheduled"))
		u.fail(ctx, datasetID, u.clock.Now(), errors.New("server is shutting down"))
		return UploadResult{}, pkgerror.NewServer(errors.New("processing was not scheduled"))
	}

	return UploadResult{DatasetID: datasetID}, nil
}

func (u *Usecase) Dataset(ctx context.Context, id string) (DatasetResult, error) {
	if id == "" {
		return DatasetResult{}, pkgerror.NewInvalidInput(errors.New("dataset id is required"))
	}

	meta, err := u.store.GetMeta(ctx, id)
	if err != nil {
		return DatasetResult{}, mapStoreErr(err)
	}

	return toDatasetResult(meta), nil
}

func (u *Usecase) Diagnostics(ctx context.Context, id string, filter AnomalyFilter, page, pageSize int) (DiagnosticsResult, error) {
	if id == "" {
		return DiagnosticsResult{}, pkgerror.NewInvalidInput(errors.New("dataset id is required"))
	}
	if page < 1 || pageSize < 1 {
		return DiagnosticsResult{}, pkgerror.NewInvalidInput(errors.New("invalid pagination"))
	}

	anomalies, total, meta, err := u.store.ListAnomalies(ctx, id, filter, page, pageSize)
	if err != nil {
		return DiagnosticsResult{}, mapStoreErr(err)
	}

	columns := make([]string, 0, len(meta.Columns))
	for _, c := range meta.Columns {
		columns = append(columns, c.Name)
	}

	return DiagnosticsResult{
		ID:        id,
		Status:    meta.Status,
		Anomalies: anomalies,
		Columns:   columns,
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
	}, nil
}

// Preview returns the first limit rows of a variant, formatted as they would
// be exported.
func (u *Usecase) Preview(ctx context.Context, id string, variant entity.Variant, limit int) (PreviewResult, error) {
	if limit <= 0 {
		limit = defaultPreviewRows
	}
	limit = min(limit, maxPreviewRows)

	table, err := u.readyTable(ctx, id, variant)
	if err != nil {
		return PreviewResult{}, err
	}

	head := table.Head(limit)
	rows := make([][]string, 0, head.Len())
	for _, row := range head.Rows {
		rows = append(rows, codec.FormatRow(head, row, u.opts.ExportLayout))
	}

	return PreviewResult{
		ID:      id,
		Variant: variant,
		Columns: table.Columns,
		Rows:    rows,
		Total:   table.Len(),
	}, nil
}

// SetRange re-filters the stored cleaned table without re-running the
// earlier stages.
func (u *Usecase) SetRange(ctx context.Context, id string, rangeText []string) (DatasetResult, error) {
	endpoints, err := pipeline.ParseRange(u.pipeline.Parser(), rangeText...)
	if err != nil {
		return DatasetResult{}, pkgerror.NewInvalidInput(err)
	}

	cleaned, err := u.readyTable(ctx, id, entity.VariantCleaned)
	if err != nil {
		return DatasetResult{}, err
	}

	rr := u.pipeline.Filter(cleaned, endpoints)
	if err := u.store.SaveFiltered(ctx, id, rr.Table); err != nil {
		return DatasetResult{}, mapStoreErr(err)
	}

	var meta entity.DatasetMeta
	if err := u.store.UpdateMeta(ctx, id, func(m *entity.DatasetMeta) {
		res := pipeline.Result{Report: m.Report}
		res.ApplyRange(rr)

		m.Range = endpoints
		m.Report = res.Report
		m.RangeWarning = warningText(rr.Warning)
		m.Log = res.Log()
		meta = *m
	}); err != nil {
		return DatasetResult{}, mapStoreErr(err)
	}

	slog.InfoContext(ctx, "dataset range updated",
		"dataset_id", id,
		"range_applied", rr.Applied,
		"filtered_rows", rr.Table.Len(),
	)

	return toDatasetResult(meta), nil
}

func (u *Usecase) Export(ctx context.Context, id string, variant entity.Variant, format entity.Format) (ExportResult, error) {
	table, err := u.readyTable(ctx, id, variant)
	if err != nil {
		return ExportResult{}, err
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, table, format, u.opts.ExportLayout); err != nil {
		return ExportResult{}, pkgerror.NewServer(err)
	}

	return ExportResult{
		FileName:    withExtension(u.defaultName(variant), format),
		ContentType: codec.ContentType(format),
		Data:        buf.Bytes(),
	}, nil
}

// Save writes the chosen variants as CSV through the configured Saver.
// Without variants both tables are written.
func (u *Usecase) Save(ctx context.Context, id string, in SaveInput) (SaveResult, error) {
	if u.saver == nil {
		return SaveResult{}, pkgerror.NewBusiness("export folder is not configured", pkgerror.CodeConflict)
	}

	variants := in.Variants
	if len(variants) == 0 {
		variants = []entity.Variant{entity.VariantCleaned, entity.VariantFiltered}
	}

	files := make([]ExportFile, 0, len(variants))
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		exp, err := u.Export(ctx, id, v, entity.FormatCSV)
		if err != nil {
			return SaveResult{}, err
		}

		name := in.CleanedName
		if v == entity.VariantFiltered {
			name = in.FilteredName
		}
		if strings.TrimSpace(name) == "" {
			name = exp.FileName
		} else {
			name = withExtension(cleanFileName(name), entity.FormatCSV)
		}

		if _, dup := seen[name]; dup {
			return SaveResult{}, pkgerror.NewInvalidInput(fmt.Errorf("%w: %s", ErrDuplicateFileName, name))
		}
		seen[name] = struct{}{}

		files = append(files, ExportFile{Name: name, Data: exp.Data})
	}

	paths, err := u.saver.Write(ctx, files)
	if err != nil {
		return SaveResult{}, normalizeErr(err)
	}

	slog.InfoContext(ctx, "dataset saved to folder", "dataset_id", id, "paths", paths)

	return SaveResult{ID: id, Paths: paths}, nil
}

func (u *Usecase) processUpload(ctx context.Context, id, fileName string, r io.Reader, endpoints []time.Time) error {
	started := u.clock.Now()
	if err := u.store.UpdateMeta(ctx, id, func(meta *entity.DatasetMeta) {
		meta.Status = entity.DatasetStatusProcessing
		meta.StartedAt = started.Unix()
	}); err != nil {
		closeReader(r, err)
		return err
	}

	res, err := u.clean(ctx, fileName, r, endpoints)
	if err != nil {
		u.fail(ctx, id, started, err)
		return err
	}

	if err := u.store.SaveResult(ctx, id, entity.Result{
		Cleaned:     res.Cleaned,
		Filtered:    res.Filtered,
		Diagnostics: res.Diagnostics,
	}); err != nil {
		u.fail(ctx, id, started, err)
		return err
	}

	summaries := make([]entity.DiagnosticSummary, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		summaries = append(summaries, d.Summary())
	}
	minTS, maxTS, _ := res.Cleaned.Bounds()
	log := res.Log()

	if err := u.store.UpdateMeta(ctx, id, func(meta *entity.DatasetMeta) {
		meta.Status = entity.DatasetStatusDone
		meta.EndedAt = u.clock.Now().Unix()
		meta.Columns = res.Cleaned.Columns
		meta.Report = res.Report
		meta.Summaries = summaries
		meta.Range = endpoints
		meta.RangeWarning = warningText(res.RangeWarning)
		meta.MinTimestamp = minTS
		meta.MaxTimestamp = maxTS
		meta.Log = log
	}); err != nil {
		u.fail(ctx, id, started, err)
		return err
	}

	for _, line := range log {
		slog.InfoContext(ctx, line, "dataset_id", id)
	}
	u.observe(entity.DatasetStatusDone, started, res.Report)

	if u.events != nil && u.eventID != nil {
		event := entity.DatasetReadyEvent{EventID: u.eventID.Generate(), DatasetID: id, FileName: fileName}
		if err := u.events.Publish(ctx, event); err != nil {
			slog.WarnContext(ctx, "failed to publish event", "dataset_id", id, "event_id", event.EventID, "error", err)
		}
	}

	return nil
}

// clean reads the upload, decodes it and runs the pipeline. Without a range
// the whole span of the cleaned data is selected.
func (u *Usecase) clean(ctx context.Context, fileName string, r io.Reader, endpoints []time.Time) (pipeline.Result, error) {
	payload, err := readAll(r, u.opts.MaxUploadBytes)
	if err != nil {
		return pipeline.Result{}, err
	}

	raw, err := codec.Decode(fileName, payload, codec.DecodeOptions{MaxBytes: 8 * max(u.opts.MaxUploadBytes, 0)})
	if err != nil {
		return pipeline.Result{}, err
	}
	slog.DebugContext(ctx, "upload decoded", "file_name", fileName, "bytes", len(payload), "rows", raw.Len())

	res, err := u.pipeline.Clean(raw)
	if err != nil {
		return pipeline.Result{}, err
	}

	res.ApplyRange(u.pipeline.Filter(res.Cleaned, pipeline.DefaultRange(res.Cleaned, endpoints)))

	return res, nil
}

func (u *Usecase) fail(ctx context.Context, id string, started time.Time, cause error) {
	kind := failureKind(cause)
	if err := u.store.UpdateMeta(ctx, id, func(meta *entity.DatasetMeta) {
		meta.Status = entity.DatasetStatusFailed
		meta.Err = cause.Error()
		meta.ErrKind = kind
		meta.EndedAt = u.clock.Now().Unix()
	}); err != nil {
		slog.ErrorContext(ctx, "failed to mark dataset failed", "dataset_id", id, "error", err)
	}
	u.observe(entity.DatasetStatusFailed, started, entity.Report{})
}

func (u *Usecase) observe(status entity.DatasetStatus, started time.Time, rep entity.Report) {
	u.metrics.DatasetProcessed(string(status), u.clock.Now().Sub(started))
	u.metrics.RowsProcessed("input", rep.InputRows)
	u.metrics.RowsProcessed("unparseable", rep.UnparseableRows)
	u.metrics.RowsProcessed("out_of_order", rep.OutOfOrderRows)
	u.metrics.RowsProcessed("duplicate_removed", rep.RemovedRows)
	u.metrics.RowsProcessed("output", rep.OutputRows)
}

// readyTable loads a variant of a DONE dataset. Datasets that are not done
// yield a conflict, failed ones the error that stopped them.
func (u *Usecase) readyTable(ctx context.Context, id string, variant entity.Variant) (entity.Table, error) {
	if id == "" {
		return entity.Table{}, pkgerror.NewInvalidInput(errors.New("dataset id is required"))
	}

	meta, err := u.store.GetMeta(ctx, id)
	if err != nil {
		return entity.Table{}, mapStoreErr(err)
	}
	if err := statusErr(meta); err != nil {
		return entity.Table{}, err
	}

	table, _, err := u.store.GetTable(ctx, id, variant)
	if err != nil {
		return entity.Table{}, mapStoreErr(err)
	}

	return table, nil
}

func (u *Usecase) defaultName(variant entity.Variant) string {
	if variant == entity.VariantFiltered {
		return u.opts.FilteredName
	}
	return u.opts.CleanedName
}

func statusErr(meta entity.DatasetMeta) error {
	switch meta.Status {
	case entity.DatasetStatusDone:
		return nil
	case entity.DatasetStatusFailed:
		return failureErr(meta.ErrKind, errors.New(meta.Err))
	default:
		return pkgerror.NewBusiness(fmt.Sprintf("dataset is %s", strings.ToLower(string(meta.Status))), pkgerror.CodeConflict)
	}
}

func failureKind(err error) entity.FailureKind {
	switch {
	case errors.Is(err, codec.ErrFileParse):
		return entity.FailureParse
	case errors.Is(err, pipeline.ErrMissingTimestampColumn):
		return entity.FailureSchema
	case errors.Is(err, ErrUploadTooLarge):
		return entity.FailureTooLarge
	default:
		return entity.FailureInternal
	}
}

func failureErr(kind entity.FailureKind, cause error) error {
	switch kind {
	case entity.FailureParse:
		return pkgerror.NewInvalidFormat(cause)
	case entity.FailureSchema:
		return pkgerror.NewInvalidInput(cause)
	case entity.FailureTooLarge:
		return pkgerror.NewBusiness(cause.Error(), pkgerror.CodeTooLarge)
	default:
		return pkgerror.NewServer(cause)
	}
}

func toDatasetResult(meta entity.DatasetMeta) DatasetResult {
	return DatasetResult{
		ID:           meta.ID,
		FileName:     meta.FileName,
		Status:       meta.Status,
		Err:          meta.Err,
		Columns:      meta.Columns,
		Report:       meta.Report,
		Summaries:    meta.Summaries,
		Range:        meta.Range,
		RangeWarning: meta.RangeWarning,
		MinTimestamp: meta.MinTimestamp,
		MaxTimestamp: meta.MaxTimestamp,
		Log:          meta.Log,
		StartedAt:    meta.StartedAt,
		EndedAt:      meta.EndedAt,
	}
}

func readAll(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		data, err := io.ReadAll(r)
		closeReader(r, err)
		return data, err
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err == nil && int64(len(data)) > limit {
		err = fmt.Errorf("%w: more than %d bytes", ErrUploadTooLarge, limit)
	}
	closeReader(r, err)
	return data, err
}

// closeReader releases the writer side of a pipe, failing it with cause.
func closeReader(r io.Reader, cause error) {
	switch c := r.(type) {
	case *io.PipeReader:
		if cause == nil {
			cause = io.ErrClosedPipe
		}
		_ = c.CloseWithError(cause)
	case io.Closer:
		_ = c.Close()
	}
}

func cleanFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == "/" || name == "" {
		return defaultFileName
	}
	return name
}

func withExtension(name string, format entity.Format) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + format.Extension()
}

func warningText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func mapStoreErr(err error) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewNotFound("dataset not found")
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
