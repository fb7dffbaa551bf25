package app

import (
	"context"
	"net/http"

	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgconfig"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgmetric"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgrouter"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgroutine"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkguid"
)

const serviceName = "text-to-csv"

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config pkgconfig.Config

	// libraries
	uuid      pkguid.StringID
	snowflake pkguid.NumberID
	goroutine *pkgroutine.Manager
	metrics   *pkgmetric.Metrics

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	// closed in order after the http server and background jobs
	closers []namedCloser
}

type namedCloser struct {
	name string
	fn   func(context.Context) error
}

func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initLibraries()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
