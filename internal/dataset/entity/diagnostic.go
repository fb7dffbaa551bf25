package entity

import "time"

type DiagnosticKind string

const (
	DiagnosticOutOfOrder           DiagnosticKind = "OUT_OF_ORDER"
	DiagnosticDuplicateTimestamp   DiagnosticKind = "DUPLICATE_TIMESTAMP"
	DiagnosticUnparseableTimestamp DiagnosticKind = "UNPARSEABLE_TIMESTAMP"
)

type Action string

const (
	ActionKept    Action = "KEPT"
	ActionRemoved Action = "REMOVED"
)

// Anomaly is one row affected by a data-quality condition.
type Anomaly struct {
	Kind      DiagnosticKind `json:"kind"`
	Position  int            `json:"position"`
	Timestamp time.Time      `json:"timestamp"`
	Raw       string         `json:"raw,omitempty"`
	Values    []string       `json:"values"`
	Action    Action         `json:"action,omitempty"`
	Group     int            `json:"group,omitempty"`
}

// Diagnostic groups every anomaly of one kind found in a run.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	Count   int            `json:"count"`
	Rows    []Anomaly      `json:"rows"`
}

func (d Diagnostic) Empty() bool {
	return len(d.Rows) == 0
}

// DiagnosticSummary is a Diagnostic without its rows.
type DiagnosticSummary struct {
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	Count   int            `json:"count"`
}

func (d Diagnostic) Summary() DiagnosticSummary {
	return DiagnosticSummary{Kind: d.Kind, Message: d.Message, Count: d.Count}
}

// Report holds the counters of a pipeline run.
type Report struct {
	InputRows       int  `json:"input_rows"`
	UnparseableRows int  `json:"unparseable_rows"`
	OutOfOrderRows  int  `json:"out_of_order_rows"`
	DuplicateGroups int  `json:"duplicate_groups"`
	DuplicateRows   int  `json:"duplicate_rows"`
	RemovedRows     int  `json:"removed_rows"`
	OutputRows      int  `json:"output_rows"`
	FilteredRows    int  `json:"filtered_rows"`
	MergedDateTime  bool `json:"merged_date_time"`
	AlreadySorted   bool `json:"already_sorted"`
	RangeApplied    bool `json:"range_applied"`
}
