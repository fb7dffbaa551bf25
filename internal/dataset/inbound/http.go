package inbound

import (
	"context"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/usecase"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgrouter"
)

type uc interface {
	Upload(ctx context.Context, in usecase.UploadInput) (usecase.UploadResult, error)
	Dataset(ctx context.Context, id string) (usecase.DatasetResult, error)
	Diagnostics(ctx context.Context, id string, filter usecase.AnomalyFilter, page, pageSize int) (usecase.DiagnosticsResult, error)
	Preview(ctx context.Context, id string, variant entity.Variant, limit int) (usecase.PreviewResult, error)
	SetRange(ctx context.Context, id string, rangeText []string) (usecase.DatasetResult, error)
	Export(ctx context.Context, id string, variant entity.Variant, format entity.Format) (usecase.ExportResult, error)
	Save(ctx context.Context, id string, in usecase.SaveInput) (usecase.SaveResult, error)
}

type Options struct {
	// MaxUploadBytes bounds the request body of an upload. Zero disables
	// the check.
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
}

// multipartOverhead leaves room for boundaries and form fields around the
// file part.
const multipartOverhead = 1 << 20

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc, opts Options) {
	end := &HTTPEndpoint{uc: uc, validate: newValidator()}

	var uploadMws []pkgrouter.Middleware
	if opts.RateLimitRPS > 0 {
		uploadMws = append(uploadMws, pkgrouter.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
	}
	if opts.MaxUploadBytes > 0 {
		uploadMws = append(uploadMws, pkgrouter.MaxBody(opts.MaxUploadBytes+multipartOverhead))
	}

	r.POST("/datasets", end.Upload, uploadMws...) // multipart "file", or raw body with ?filename=

	r.GET("/datasets/:id", end.Dataset)
	r.GET("/datasets/:id/diagnostics", end.Diagnostics) // ?kind=&action=&page=&page_size=
	r.GET("/datasets/:id/preview", end.Preview)         // ?variant=&limit=
	r.PUT("/datasets/:id/range", end.SetRange)
	r.GET("/datasets/:id/export", end.Export) // ?variant=&format=
	r.POST("/datasets/:id/save", end.Save)
}
