package cyclone

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/bricklayer/cyclone/config"
	"github.com/bricklayer/cyclone/http"
	"github.com/bricklayer/cyclone/http/status"
	"github.com/bricklayer/cyclone/internal/metrics"
	httpserver "github.com/bricklayer/cyclone/internal/server/http"
	"github.com/bricklayer/cyclone/internal/server/tcp"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

type hooks struct {
	OnStart, OnStop func()
}

// App binds the listener and serves every accepted connection with the handler.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	hooks   hooks

	mu     sync.Mutex
	server *tcp.Server
}

// New returns a new App instance. Nil config means defaults.
func New(cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.Default()
	}

	return &App{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// Logger replaces the default logger.
func (a *App) Logger(logger *slog.Logger) *App {
	a.logger = logger
	return a
}

// Instrument registers the connection metrics at the registerer.
func (a *App) Instrument(reg prometheus.Registerer) *App {
	a.metrics = metrics.New(reg)
	return a
}

// NotifyOnStart calls the callback as soon as the listener is bound, so new connections
// are already accepted.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback once the listener is closed and all the connections
// are done.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Addr returns the bound address, nil if the app isn't serving.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return nil
	}

	return a.server.Addr()
}

// Serve listens at the configured address and blocks until the context is done,
// which stops the app, or until the listener fails.
func (a *App) Serve(ctx context.Context, handler http.Handler) error {
	sock, err := net.Listen("tcp", a.cfg.NET.Address)
	if err != nil {
		return err
	}

	return a.ServeListener(ctx, sock, handler)
}

// ServeListener is Serve on an already bound listener.
func (a *App) ServeListener(ctx context.Context, sock net.Listener, handler http.Handler) error {
	srv := httpserver.NewServer(a.cfg, handler, a.logger, a.metrics)
	server := tcp.NewServer(sock, srv.Serve, a.logger)

	a.mu.Lock()
	a.server = server
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	stopped := make(chan struct{})

	g.Go(func() error {
		defer close(stopped)

		if err := server.Start(); !errors.Is(err, status.ErrShutdown) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			// listener may be already closed if it failed on its own
			_ = server.Stop()
		case <-stopped:
		}

		return nil
	})

	callIfNotNil(a.hooks.OnStart)
	err := g.Wait()

	a.mu.Lock()
	a.server = nil
	a.mu.Unlock()

	callIfNotNil(a.hooks.OnStop)

	return err
}

// GracefulStop stops accepting new connections, but keeps serving old ones. Serve
// returns once all of them are closed.
func (a *App) GracefulStop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return nil
	}

	return a.server.GracefulShutdown()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
