package tcp

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/bricklayer/cyclone/http/status"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, onConn onConnection) (*Server, chan error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := NewServer(listener, onConn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	stopCh := make(chan error, 1)
	go func() {
		stopCh <- server.Start()
	}()

	return server, stopCh
}

func echo(conn net.Conn) {
	client := NewClient(conn, time.Second, make([]byte, 64))
	defer client.Close()

	for {
		data, err := client.Read()
		if err != nil {
			return
		}

		if err = client.Write(data); err != nil {
			return
		}
	}
}

func TestServer(t *testing.T) {
	t.Run("stop", func(t *testing.T) {
		server, stopCh := newServer(t, echo)

		conn, err := net.Dial("tcp", server.Addr().String())
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Write([]byte("ping"))
		require.NoError(t, err)
		buff := make([]byte, 4)
		_, err = io.ReadFull(conn, buff)
		require.NoError(t, err)
		require.Equal(t, "ping", string(buff))

		require.NoError(t, server.Stop())
		require.ErrorIs(t, <-stopCh, status.ErrShutdown)

		_, err = conn.Read(buff)
		require.Error(t, err)
	})

	t.Run("graceful shutdown", func(t *testing.T) {
		server, stopCh := newServer(t, echo)

		conn, err := net.Dial("tcp", server.Addr().String())
		require.NoError(t, err)

		_, err = conn.Write([]byte("ping"))
		require.NoError(t, err)
		buff := make([]byte, 4)
		_, err = io.ReadFull(conn, buff)
		require.NoError(t, err)

		require.NoError(t, server.GracefulShutdown())
		select {
		case <-stopCh:
			require.Fail(t, "must wait for the connection to end")
		case <-time.After(50 * time.Millisecond):
		}

		// the connection is still served
		_, err = conn.Write([]byte("pong"))
		require.NoError(t, err)
		_, err = io.ReadFull(conn, buff)
		require.NoError(t, err)
		require.Equal(t, "pong", string(buff))

		require.NoError(t, conn.Close())
		require.ErrorIs(t, <-stopCh, status.ErrShutdown)
	})
}

func TestClient(t *testing.T) {
	server, client := net.Pipe()
	c := NewClient(server, 0, make([]byte, 16))

	go func() {
		_, _ = client.Write([]byte("hello"))
	}()

	data, err := c.Read()
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.ErrorIs(t, c.Write([]byte("late")), net.ErrClosed)
	require.Equal(t, server.RemoteAddr(), c.Remote())
}
