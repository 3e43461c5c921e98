package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "StockCast/pkg/http"
	applogger "StockCast/pkg/logger"
)

// Closer is a named resource released on shutdown.
type Closer struct {
	Name string
	io.Closer
}

// App encapsulates the application lifecycle: one HTTP server plus the
// backends it depends on.
type App struct {
	log             *applogger.Logger
	httpServer      *xhttp.Server
	closers         []Closer
	shutdownTimeout time.Duration
}

// New creates an App. Closers are released in reverse order.
func New(log *applogger.Logger, httpServer *xhttp.Server, shutdownTimeout time.Duration, closers ...Closer) *App {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &App{
		log:             log,
		httpServer:      httpServer,
		closers:         closers,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the HTTP server and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		a.closeAll()
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops the server first so no request touches a closed backend.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	err := a.httpServer.Stop(ctx)
	if err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	a.closeAll()
	a.log.Info("shutdown complete")
	return err
}

func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if c.Closer == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
		}
	}
}
