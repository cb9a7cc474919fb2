package tcp

import (
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/bricklayer/cyclone/http/status"
)

type onConnection func(net.Conn)

type Server struct {
	sock   net.Listener
	onConn onConnection
	logger *slog.Logger

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	shutdown atomic.Bool
}

func NewServer(sock net.Listener, onConn onConnection, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		sock:   sock,
		onConn: onConn,
		logger: logger,
		conns:  map[net.Conn]struct{}{},
	}
}

// Start accepts connections until the listener is closed. Every connection is served
// in its own goroutine. Returns status.ErrShutdown if stopped via Stop or
// GracefulShutdown, once all the connections are done.
func (s *Server) Start() error {
	s.logger.Info("listening", slog.String("address", s.sock.Addr().String()))

	for {
		conn, err := s.sock.Accept()
		if err != nil {
			s.wg.Wait()

			if s.shutdown.Load() {
				return status.ErrShutdown
			}

			return err
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.connHandler(conn)
	}
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.sock.Addr()
}

func (s *Server) stopListener() error {
	s.shutdown.Store(true)

	return s.sock.Close()
}

// Stop shuts listener and ALL the connections down
func (s *Server) Stop() error {
	if err := s.stopListener(); err != nil {
		return err
	}

	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	return nil
}

// GracefulShutdown stops a listener, but leaving all the connections free to end their
// lives peacefully
func (s *Server) GracefulShutdown() error {
	return s.stopListener()
}

func (s *Server) connHandler(conn net.Conn) {
	defer s.wg.Done()

	s.onConn(conn)

	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}
