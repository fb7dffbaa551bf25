package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/usecase"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgerror"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgrouter"
)

const maxFieldBytes = 256

type HTTPEndpoint struct {
	uc       uc
	validate *validator.Validate
}

func (h *HTTPEndpoint) Upload(ctx context.Context, r *http.Request) (any, error) {
	form, err := extractUpload(r)
	if err != nil {
		return nil, err
	}
	defer form.close()

	if err := validateStruct(h.validate, form); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	result, err := h.uc.Upload(ctx, usecase.UploadInput{
		FileName: form.FileName,
		Data:     pr,
		Range:    []string{form.Start, form.End},
	})
	if err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, err
	}

	if err := streamToPipe(form.file, pw); err != nil {
		if errors.Is(err, usecase.ErrUploadTooLarge) {
			return nil, pkgerror.NewBusiness("upload exceeds the size limit", pkgerror.CodeTooLarge)
		}
		return nil, pkgerror.NewServer(err)
	}

	return UploadResponse{DatasetID: result.DatasetID}, nil
}

func (h *HTTPEndpoint) Dataset(ctx context.Context, r *http.Request) (any, error) {
	result, err := h.uc.Dataset(ctx, pkgrouter.GetParam(ctx, "id"))
	if err != nil {
		return nil, err
	}

	return toDatasetResponse(result), nil
}

func (h *HTTPEndpoint) Diagnostics(ctx context.Context, r *http.Request) (any, error) {
	query := r.URL.Query()

	page, pageSize, err := parsePagination(query.Get("page"), query.Get("page_size"))
	if err != nil {
		return nil, err
	}

	filter, err := parseAnomalyFilter(query.Get("kind"), query.Get("action"))
	if err != nil {
		return nil, err
	}

	result, err := h.uc.Diagnostics(ctx, pkgrouter.GetParam(ctx, "id"), filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	rows := make([]Anomaly, 0, len(result.Anomalies))
	for _, a := range result.Anomalies {
		rows = append(rows, toHTTPAnomaly(a))
	}

	return DiagnosticsResponse{
		DatasetID: result.ID,
		Status:    result.Status,
		Columns:   result.Columns,
		Anomalies: rows,
		page:      result.Page,
		pageSize:  result.PageSize,
		total:     result.Total,
	}, nil
}

func (h *HTTPEndpoint) Preview(ctx context.Context, r *http.Request) (any, error) {
	query := r.URL.Query()

	variant, err := entity.ParseVariant(query.Get("variant"))
	if err != nil {
		return nil, pkgerror.NewInvalidInput(err)
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 {
			return nil, pkgerror.NewInvalidInput(errors.New("invalid limit"))
		}
	}

	result, err := h.uc.Preview(ctx, pkgrouter.GetParam(ctx, "id"), variant, limit)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(result.Columns))
	for _, c := range result.Columns {
		columns = append(columns, c.Name)
	}

	return PreviewResponse{
		DatasetID: result.ID,
		Variant:   result.Variant,
		Columns:   columns,
		Rows:      result.Rows,
		total:     result.Total,
	}, nil
}

func (h *HTTPEndpoint) SetRange(ctx context.Context, r *http.Request) (any, error) {
	var req rangeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		return nil, err
	}
	if err := validateStruct(h.validate, req); err != nil {
		return nil, err
	}

	result, err := h.uc.SetRange(ctx, pkgrouter.GetParam(ctx, "id"), []string{req.Start, req.End})
	if err != nil {
		return nil, err
	}

	return toDatasetResponse(result), nil
}

func (h *HTTPEndpoint) Export(ctx context.Context, r *http.Request) (any, error) {
	query := r.URL.Query()

	variant, err := entity.ParseVariant(query.Get("variant"))
	if err != nil {
		return nil, pkgerror.NewInvalidInput(err)
	}
	format, err := entity.ParseFormat(query.Get("format"))
	if err != nil {
		return nil, pkgerror.NewInvalidInput(err)
	}

	result, err := h.uc.Export(ctx, pkgrouter.GetParam(ctx, "id"), variant, format)
	if err != nil {
		return nil, err
	}

	return ExportResponse{fileName: result.FileName, contentType: result.ContentType, body: result.Data}, nil
}

func (h *HTTPEndpoint) Save(ctx context.Context, r *http.Request) (any, error) {
	var req saveRequest
	if err := decodeJSON(r, &req, true); err != nil {
		return nil, err
	}
	if err := validateStruct(h.validate, req); err != nil {
		return nil, err
	}

	in := usecase.SaveInput{CleanedName: req.CleanedName, FilteredName: req.FilteredName}
	for _, v := range req.Variants {
		variant, err := entity.ParseVariant(v)
		if err != nil {
			return nil, pkgerror.NewInvalidInput(err)
		}
		in.Variants = append(in.Variants, variant)
	}

	result, err := h.uc.Save(ctx, pkgrouter.GetParam(ctx, "id"), in)
	if err != nil {
		return nil, err
	}

	return SaveResponse{DatasetID: result.ID, Paths: result.Paths}, nil
}

func parsePagination(pageRaw, sizeRaw string) (int, int, error) {
	page := 1
	pageSize := 10

	if pageRaw != "" {
		value, err := strconv.Atoi(pageRaw)
		if err != nil || value < 1 {
			return 0, 0, pkgerror.NewInvalidInput(errors.New("invalid page"))
		}
		page = value
	}

	if sizeRaw != "" {
		value, err := strconv.Atoi(sizeRaw)
		if err != nil || value < 1 {
			return 0, 0, pkgerror.NewInvalidInput(errors.New("invalid page_size"))
		}
		pageSize = min(value, 100)
	}

	return page, pageSize, nil
}

func parseAnomalyFilter(kindRaw, actionRaw string) (usecase.AnomalyFilter, error) {
	var filter usecase.AnomalyFilter

	for _, value := range splitList(kindRaw) {
		kind, err := parseKind(value)
		if err != nil {
			return filter, err
		}
		filter.Kinds = append(filter.Kinds, kind)
	}

	for _, value := range splitList(actionRaw) {
		switch entity.Action(strings.ToUpper(value)) {
		case entity.ActionKept:
			filter.Actions = append(filter.Actions, entity.ActionKept)
		case entity.ActionRemoved:
			filter.Actions = append(filter.Actions, entity.ActionRemoved)
		default:
			return filter, pkgerror.NewInvalidInput(errors.New("invalid action filter"))
		}
	}

	return filter, nil
}

func parseKind(value string) (entity.DiagnosticKind, error) {
	switch entity.DiagnosticKind(strings.ToUpper(value)) {
	case entity.DiagnosticOutOfOrder:
		return entity.DiagnosticOutOfOrder, nil
	case entity.DiagnosticDuplicateTimestamp:
		return entity.DiagnosticDuplicateTimestamp, nil
	case entity.DiagnosticUnparseableTimestamp:
		return entity.DiagnosticUnparseableTimestamp, nil
	default:
		return "", pkgerror.NewInvalidInput(errors.New("invalid kind filter"))
	}
}

func splitList(raw string) []string {
	var out []string
	for _, value := range strings.Split(raw, ",") {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

// decodeJSON reads a single JSON object from the body. With allowEmpty an
// empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	if r.Body == nil {
		if allowEmpty {
			return nil
		}
		return pkgerror.NewInvalidFormat(nil)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return pkgerror.NewInvalidFormat(nil)
	}

	return nil
}

// uploadForm is the file being uploaded and the optional date range sent
// with it.
type uploadForm struct {
	FileName string `form:"filename" validate:"required,max=255,filename"`
	Start    string `form:"start" validate:"max=64"`
	End      string `form:"end" validate:"max=64"`

	file  io.Reader
	close func()
}

// extractUpload accepts either multipart/form-data with a "file" part or
// the raw file as the request body. Range fields come from form fields sent
// before the file part, or from the query string.
func extractUpload(r *http.Request) (*uploadForm, error) {
	query := r.URL.Query()
	form := &uploadForm{
		FileName: strings.TrimSpace(query.Get("filename")),
		Start:    query.Get("start"),
		End:      query.Get("end"),
		close:    func() {},
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil && strings.EqualFold(mediaType, "multipart/form-data") {
			if err := readMultipart(r, form); err != nil {
				return nil, err
			}
			return form, nil
		}
	}

	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil, pkgerror.NewInvalidInput(errors.New("empty request body"))
	}
	if form.FileName == "" {
		form.FileName = "upload.csv"
	}
	form.file = r.Body

	return form, nil
}

func readMultipart(r *http.Request, form *uploadForm) error {
	reader, err := r.MultipartReader()
	if err != nil {
		return pkgerror.NewInvalidFormat(nil)
	}

	for {
		part, err := reader.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return pkgerror.NewInvalidInput(errors.New("file part is required"))
			}
			return pkgerror.NewInvalidFormat(nil)
		}

		switch part.FormName() {
		case "file":
			if name := strings.TrimSpace(part.FileName()); name != "" && form.FileName == "" {
				form.FileName = name
			}
			if form.FileName == "" {
				form.FileName = "upload.csv"
			}
			form.file = part
			form.close = func() { _ = part.Close() }
			return nil
		case "start":
			if form.Start, err = readField(part); err != nil {
				return err
			}
		case "end":
			if form.End, err = readField(part); err != nil {
				return err
			}
		default:
			_ = part.Close()
		}
	}
}

func readField(part *multipart.Part) (string, error) {
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
	if err != nil {
		return "", pkgerror.NewInvalidFormat(nil)
	}
	if len(data) > maxFieldBytes {
		return "", pkgerror.NewInvalidInput(errors.New(part.FormName() + " is too long"))
	}
	return strings.TrimSpace(string(data)), nil
}

// streamToPipe copies the upload into the pipe read by the background job.
// A body over the MaxBody limit fails the job as too large.
func streamToPipe(src io.Reader, dst *io.PipeWriter) error {
	if _, err := io.Copy(dst, src); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = fmt.Errorf("%w: %w", usecase.ErrUploadTooLarge, err)
		}
		_ = dst.CloseWithError(err)
		return err
	}

	return dst.Close()
}
