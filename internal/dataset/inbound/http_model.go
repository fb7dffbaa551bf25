package inbound

import (
	"net/http"
	"time"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/usecase"
)

type rangeRequest struct {
	Start string `json:"start" validate:"max=64"`
	End   string `json:"end" validate:"max=64"`
}

type saveRequest struct {
	Variants     []string `json:"variants" validate:"omitempty,max=2,dive,oneof=cleaned filtered"`
	CleanedName  string   `json:"cleaned_name" validate:"omitempty,max=255,filename"`
	FilteredName string   `json:"filtered_name" validate:"omitempty,max=255,filename"`
}

type UploadResponse struct {
	DatasetID string `json:"dataset_id"`
}

func (UploadResponse) StatusCode() int {
	return http.StatusAccepted
}

func (UploadResponse) Message() string {
	return "dataset accepted"
}

type Column struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type DatasetResponse struct {
	DatasetID    string                     `json:"dataset_id"`
	FileName     string                     `json:"file_name"`
	Status       entity.DatasetStatus       `json:"status"`
	Error        string                     `json:"error,omitempty"`
	Columns      []Column                   `json:"columns"`
	Report       entity.Report              `json:"report"`
	Diagnostics  []entity.DiagnosticSummary `json:"diagnostics"`
	Range        *DateRange                 `json:"range,omitempty"`
	RangeWarning string                     `json:"range_warning,omitempty"`
	MinTimestamp *time.Time                 `json:"min_timestamp,omitempty"`
	MaxTimestamp *time.Time                 `json:"max_timestamp,omitempty"`
	Log          []string                   `json:"log"`
	StartedAt    int64                      `json:"started_at,omitempty"`
	EndedAt      int64                      `json:"ended_at,omitempty"`
}

func toDatasetResponse(r usecase.DatasetResult) DatasetResponse {
	resp := DatasetResponse{
		DatasetID:    r.ID,
		FileName:     r.FileName,
		Status:       r.Status,
		Error:        r.Err,
		Columns:      make([]Column, 0, len(r.Columns)),
		Report:       r.Report,
		Diagnostics:  r.Summaries,
		RangeWarning: r.RangeWarning,
		Log:          r.Log,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
	}

	for _, c := range r.Columns {
		resp.Columns = append(resp.Columns, Column{Name: c.Name, Kind: c.Kind.String()})
	}
	if len(r.Range) == 2 {
		resp.Range = &DateRange{
			Start: r.Range[0].Format(time.DateOnly),
			End:   r.Range[1].Format(time.DateOnly),
		}
	}
	if !r.MinTimestamp.IsZero() {
		resp.MinTimestamp = &r.MinTimestamp
	}
	if !r.MaxTimestamp.IsZero() {
		resp.MaxTimestamp = &r.MaxTimestamp
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []entity.DiagnosticSummary{}
	}
	if resp.Log == nil {
		resp.Log = []string{}
	}

	return resp
}

type Anomaly struct {
	Kind      entity.DiagnosticKind `json:"kind"`
	Row       int                   `json:"row"`
	Timestamp *time.Time            `json:"timestamp,omitempty"`
	Raw       string                `json:"raw,omitempty"`
	Values    []string              `json:"values"`
	Action    entity.Action         `json:"action,omitempty"`
	Group     int                   `json:"group,omitempty"`
}

func toHTTPAnomaly(a entity.Anomaly) Anomaly {
	out := Anomaly{
		Kind:   a.Kind,
		Row:    a.Position,
		Raw:    a.Raw,
		Values: a.Values,
		Action: a.Action,
		Group:  a.Group,
	}
	if !a.Timestamp.IsZero() {
		ts := a.Timestamp
		out.Timestamp = &ts
	}
	return out
}

type DiagnosticsResponse struct {
	DatasetID string               `json:"dataset_id"`
	Status    entity.DatasetStatus `json:"status"`
	Columns   []string             `json:"columns"`
	Anomalies []Anomaly            `json:"anomalies"`
	page      int
	pageSize  int
	total     int
}

func (r DiagnosticsResponse) Meta() map[string]any {
	return map[string]any{
		"page":      r.page,
		"page_size": r.pageSize,
		"total":     r.total,
	}
}

type PreviewResponse struct {
	DatasetID string         `json:"dataset_id"`
	Variant   entity.Variant `json:"variant"`
	Columns   []string       `json:"columns"`
	Rows      [][]string     `json:"rows"`
	total     int
}

func (r PreviewResponse) Meta() map[string]any {
	return map[string]any{"total": r.total}
}

// ExportResponse is sent as a file download.
type ExportResponse struct {
	fileName    string
	contentType string
	body        []byte
}

func (r ExportResponse) FileName() string    { return r.fileName }
func (r ExportResponse) ContentType() string { return r.contentType }
func (r ExportResponse) Body() []byte        { return r.body }

type SaveResponse struct {
	DatasetID string   `json:"dataset_id"`
	Paths     []string `json:"paths"`
}

func (SaveResponse) Message() string {
	return "dataset saved"
}
