package app

import (
	"log/slog"
	"os"

	"github.com/yashpatelijc/text-to-csv/internal/dataset"
)

func (a *App) initModules() {
	if !a.config.GetBool("modules.dataset.enabled") {
		slog.Warn("dataset module disabled")
		return
	}

	closer, err := dataset.New(dataset.Dependency{
		Config:    a.config,
		Goroutine: a.goroutine,
		Router:    a.router,
		Metrics:   a.metrics,
		Context:   a.ctx,
		ID:        a.uuid,
		EventID:   a.snowflake,
	})
	if err != nil {
		slog.Error("failed to init module dataset", "error", err)
		os.Exit(1)
	}

	a.closers = append(a.closers, namedCloser{name: "Dataset", fn: closer})
}
