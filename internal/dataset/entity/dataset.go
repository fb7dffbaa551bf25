package entity

import "time"

// FailureKind records why a dataset ended FAILED.
type FailureKind string

const (
	FailureNone     FailureKind = ""
	FailureParse    FailureKind = "PARSE"
	FailureSchema   FailureKind = "SCHEMA"
	FailureTooLarge FailureKind = "TOO_LARGE"
	FailureInternal FailureKind = "INTERNAL"
)

type DatasetMeta struct {
	ID        string        `json:"id"`
	FileName  string        `json:"file_name"`
	Status    DatasetStatus `json:"status"`
	Err       string        `json:"err,omitempty"`
	ErrKind   FailureKind   `json:"err_kind,omitempty"`
	CreatedAt int64         `json:"created_at"`
	StartedAt int64         `json:"started_at"`
	EndedAt   int64         `json:"ended_at"`

	Columns      []Column            `json:"columns"`
	Report       Report              `json:"report"`
	Summaries    []DiagnosticSummary `json:"summaries"`
	Range        []time.Time         `json:"range"`
	RangeWarning string              `json:"range_warning,omitempty"`
	MinTimestamp time.Time           `json:"min_timestamp"`
	MaxTimestamp time.Time           `json:"max_timestamp"`
	Log          []string            `json:"log"`
}

// Result is everything a finished run stores for one dataset.
type Result struct {
	Cleaned     Table        `json:"cleaned"`
	Filtered    Table        `json:"filtered"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// DatasetReadyEvent is published once a dataset reached DONE.
type DatasetReadyEvent struct {
	EventID   int64  `json:"event_id"`
	DatasetID string `json:"dataset_id"`
	FileName  string `json:"file_name"`
}
