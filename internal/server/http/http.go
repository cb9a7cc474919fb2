package http

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/bricklayer/cyclone/config"
	"github.com/bricklayer/cyclone/http"
	"github.com/bricklayer/cyclone/http/status"
	"github.com/bricklayer/cyclone/internal/metrics"
	"github.com/bricklayer/cyclone/internal/protocol/http1"
	"github.com/bricklayer/cyclone/internal/server/tcp"
)

// Server drives HTTP/1.x connections: it pumps the socket into the connection state
// machine and reports the closure back to it.
type Server struct {
	cfg     *config.Config
	handler http.Handler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewServer(cfg *config.Config, handler http.Handler, logger *slog.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		metrics: m,
	}
}

// Serve blocks until the connection is closed by either side.
func (s *Server) Serve(conn net.Conn) {
	s.metrics.ConnectionOpened()
	defer s.metrics.ConnectionClosed()

	client := tcp.NewClient(conn, s.cfg.NET.ReadTimeout, make([]byte, s.cfg.NET.ReadBufferSize))
	logger := s.logger.With(slog.String("remote", conn.RemoteAddr().String()))
	c := http1.New(s.cfg, client, s.handler, logger, s.metrics)

	for {
		data, err := client.Read()
		if len(data) > 0 {
			c.Feed(data)
		}

		if err != nil {
			_ = client.Close()
			c.Closed(err)
			break
		}
	}

	switch reason := c.Reason(); {
	case status.Fatal(reason):
		// already logged in details by the connection itself
	case errors.Is(reason, io.EOF), errors.Is(reason, net.ErrClosed),
		errors.Is(reason, os.ErrDeadlineExceeded), errors.Is(reason, status.ErrConnectionClosed):
		logger.Debug("connection closed", slog.String("reason", reason.Error()))
	default:
		logger.Warn("connection dropped", slog.String("reason", reason.Error()))
	}
}
