package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/rs/cors"

	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgconfig"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkglog"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgmetric"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgrouter"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgroutine"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkguid"
)

var defaults = map[string]any{
	"tz":                         "UTC",
	"log.level":                  "info",
	"server.address.http":        ":8080",
	"server.max_upload_mb":       200,
	"server.rate_limit.rps":      5,
	"server.rate_limit.burst":    10,
	"server.node_id":             -1,
	"modules.dataset.enabled":    true,
	"store.driver":               "memory",
	"store.sqlite.path":          "./data/datasets.db",
	"pipeline.timestamp_layouts": "",
	"pipeline.day_first":         false,
	"pipeline.range_end":         "day",
	"export.timestamp_layout":    "01/02/2006 15:04",
	"export.folder":              "",
	"export.cleaned_name":        "converted_data.csv",
	"export.filtered_name":       "filtered_data.csv",
	"export.autosave":            false,
	"events.workers":             2,
	"events.max_retries":         3,
	"events.backoff_ms":          200,
}

func (a *App) initConfig() {
	path := "/config/config.yaml"
	if os.Getenv("LOCAL") == "true" {
		path = "./config/config.yaml"
	}

	cfg, err := pkgconfig.NewViper(path, defaults)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	pkglog.InitLogging(serviceName, cfg.GetString("log.level"))

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("tz"))

	a.config = cfg
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(100)
	a.uuid = pkguid.NewUUID()
	a.metrics = pkgmetric.New("ohlc")

	sf, err := pkguid.NewSnowflake(a.config.GetInt("server.node_id"))
	if err != nil {
		slog.Error("failed to init snowflake", "error", err)
		os.Exit(1)
	}
	a.snowflake = sf
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(serviceName, a.uuid)
	a.router.Use(a.metrics.Middleware)
	a.router.Handle(http.MethodGet, "/metrics", a.metrics.Handler())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition", "Retry-After", "X-Correlation-ID"},
	})

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (a *App) initClosers() {
	a.closers = append(a.closers, namedCloser{name: "Config", fn: func(context.Context) error {
		return a.config.Close()
	}})
}
