package usecase

import (
	"io"
	"slices"
	"time"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
)

type UploadInput struct {
	FileName string
	Data     io.Reader
	// Range holds the start and end date as typed by the user. Blank
	// entries are ignored.
	Range []string
}

type UploadResult struct {
	DatasetID string
}

type DatasetResult struct {
	ID           string
	FileName     string
	Status       entity.DatasetStatus
	Err          string
	Columns      []entity.Column
	Report       entity.Report
	Summaries    []entity.DiagnosticSummary
	Range        []time.Time
	RangeWarning string
	MinTimestamp time.Time
	MaxTimestamp time.Time
	Log          []string
	StartedAt    int64
	EndedAt      int64
}

type AnomalyFilter struct {
	Kinds   []entity.DiagnosticKind
	Actions []entity.Action
}

func (f AnomalyFilter) Matches(a entity.Anomaly) bool {
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, a.Kind) {
		return false
	}
	if len(f.Actions) > 0 && !slices.Contains(f.Actions, a.Action) {
		return false
	}
	return true
}

type DiagnosticsResult struct {
	ID        string
	Status    entity.DatasetStatus
	Anomalies []entity.Anomaly
	Columns   []string
	Page      int
	PageSize  int
	Total     int
}

type PreviewResult struct {
	ID      string
	Variant entity.Variant
	Columns []entity.Column
	Rows    [][]string
	Total   int
}

type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

type SaveInput struct {
	Variants     []entity.Variant
	CleanedName  string
	FilteredName string
}

type SaveResult struct {
	ID    string
	Paths []string
}

// ExportFile is one serialized table handed to a Saver.
type ExportFile struct {
	Name string
	Data []byte
}
