package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/event"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/inbound"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/pipeline"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/store"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/usecase"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgconfig"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgmetric"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgrouter"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgroutine"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkguid"
)

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Metrics   *pkgmetric.Metrics
	Context   context.Context
	ID        pkguid.StringID
	EventID   pkguid.NumberID
}

type datasetStore interface {
	usecase.Store
	Close() error
}

// New wires the dataset module and registers its routes. The returned
// function drains pending events and closes the store.
func New(dep Dependency) (func(context.Context) error, error) {
	cfg := dep.Config

	storage, err := newStore(dep.Context, cfg)
	if err != nil {
		return nil, err
	}

	rangeEnd, err := pipeline.ParseEndBoundary(cfg.GetString("pipeline.range_end"))
	if err != nil {
		_ = storage.Close()
		return nil, err
	}

	pl := pipeline.New(pipeline.Options{
		Layouts:  cfg.GetArray("pipeline.timestamp_layouts"),
		DayFirst: cfg.GetBool("pipeline.day_first"),
		RangeEnd: rangeEnd,
	})

	var saver usecase.Saver
	if dir := cfg.GetString("export.folder"); dir != "" {
		folder, err := store.NewFolder(dir)
		if err != nil {
			_ = storage.Close()
			return nil, err
		}
		saver = folder
	}

	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}

	var metrics usecase.Metrics
	if dep.Metrics != nil {
		metrics = dep.Metrics
	}

	opts := usecase.Options{
		ExportLayout:   cfg.GetString("export.timestamp_layout"),
		MaxUploadBytes: cfg.GetInt("server.max_upload_mb") << 20,
		CleanedName:    cfg.GetString("export.cleaned_name"),
		FilteredName:   cfg.GetString("export.filtered_name"),
	}

	bus := event.NewBus(512)

	uc := usecase.New(usecase.Dependency{
		Store:    storage,
		Events:   bus,
		Runner:   dep.Goroutine,
		ID:       dep.ID,
		EventID:  dep.EventID,
		Pipeline: pl,
		Saver:    saver,
		Metrics:  metrics,
		Options:  opts,
		RootCtx:  dep.Context,
	})

	var handler event.Handler = event.LogHandler{}
	if cfg.GetBool("export.autosave") {
		if saver == nil {
			_ = storage.Close()
			return nil, errors.New("export.autosave requires export.folder")
		}
		handler = event.AutosaveHandler{Saver: uc, Timeout: time.Minute}
	}

	consumer := event.NewReadyConsumer(bus, handler, event.ConsumerConfig{
		Workers:     int(cfg.GetInt("events.workers")),
		MaxRetries:  int(cfg.GetInt("events.max_retries")),
		BaseBackoff: time.Duration(cfg.GetInt("events.backoff_ms")) * time.Millisecond,
	})
	consumer.Start()

	inbound.RegisterHTTPEndpoint(dep.Router, uc, inbound.Options{
		MaxUploadBytes: opts.MaxUploadBytes,
		RateLimitRPS:   cfg.GetFloat("server.rate_limit.rps"),
		RateLimitBurst: int(cfg.GetInt("server.rate_limit.burst")),
	})

	slog.Info("dataset module ready",
		"store", cfg.GetString("store.driver"),
		"export_folder", cfg.GetString("export.folder"),
		"autosave", cfg.GetBool("export.autosave"),
		"range_end", rangeEnd,
	)

	return func(ctx context.Context) error {
		return errors.Join(consumer.Stop(ctx), storage.Close())
	}, nil
}

func newStore(ctx context.Context, cfg pkgconfig.Config) (datasetStore, error) {
	switch driver := cfg.GetString("store.driver"); driver {
	case "", "memory":
		return store.NewInMemoryStore(), nil
	case "sqlite":
		return store.NewSQLiteStore(ctx, cfg.GetString("store.sqlite.path"))
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
