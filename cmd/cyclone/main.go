package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bricklayer/cyclone"
	"github.com/bricklayer/cyclone/config"
	"github.com/bricklayer/cyclone/http"
	"github.com/bricklayer/cyclone/http/mime"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const envPrefix = "CYCLONE_"

func main() {
	// .env file is optional
	_ = godotenv.Load()

	cfg, err := config.FromEnv(envPrefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	app := cyclone.New(cfg).Logger(logger).Instrument(reg)
	g.Go(func() error {
		return app.Serve(ctx, http.HandlerFunc(echo))
	})

	if len(cfg.NET.MetricsAddress) > 0 {
		g.Go(func() error {
			return serveMetrics(ctx, cfg.NET.MetricsAddress, reg, logger)
		})
	}

	if err = g.Wait(); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// echo responds with a short summary of the request.
func echo(req *http.Request) {
	body := fmt.Sprintf(
		"%s %s\nremote: %s\narguments: %v\nfiles: %d\nbody: %d bytes\n",
		req.Method, req.FullURL(), req.Remote, map[string][]string(req.Arguments), len(req.Files), len(req.Body),
	)

	response := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: " + mime.Plain + "\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" +
		body

	if err := req.WriteString(response); err != nil {
		slog.Debug("failed to write response", slog.String("error", err.Error()))
	}

	_ = req.Finish()
	slog.Debug("request served",
		slog.String("request", req.String()),
		slog.Duration("elapsed", req.RequestTime()),
	)
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := nethttp.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &nethttp.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", slog.String("address", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return err
	}

	return nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
