package cyclone

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/bricklayer/cyclone/config"
	"github.com/bricklayer/cyclone/http"
	"github.com/bricklayer/cyclone/http/status"
	"github.com/bricklayer/cyclone/internal/requestgen"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func echo(req *http.Request) {
	body := req.Path + "|" + req.Arguments.Value("name") + "|" + string(req.Body)
	_ = req.WriteString("HTTP/1.1 200 OK\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body)
	_ = req.Finish()
}

func readResponse(t *testing.T, r *bufio.Reader) string {
	var length int
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if line == "\r\n" {
			break
		}

		if value, found := cutPrefix(line, "Content-Length: "); found {
			length, err = strconv.Atoi(value[:len(value)-2])
			require.NoError(t, err)
		}
	}

	body := make([]byte, length)
	_, err := io.ReadFull(r, body)
	require.NoError(t, err)

	return string(body)
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return s, false
	}

	return s[len(prefix):], true
}

func startApp(t *testing.T, cfg *config.Config) (*App, context.CancelFunc, chan error) {
	cfg.NET.Address = "127.0.0.1:0"
	started := make(chan struct{})
	app := New(cfg).
		Logger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Instrument(prometheus.NewRegistry()).
		NotifyOnStart(func() {
			close(started)
		})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Serve(ctx, http.HandlerFunc(echo))
	}()

	select {
	case <-started:
	case err := <-errCh:
		require.FailNow(t, "failed to start", err)
	}

	return app, cancel, errCh
}

func TestApp(t *testing.T) {
	t.Run("keep-alive round trip", func(t *testing.T) {
		app, cancel, errCh := startApp(t, config.Default())
		conn, err := net.Dial("tcp", app.Addr().String())
		require.NoError(t, err)
		defer conn.Close()
		reader := bufio.NewReader(conn)

		_, err = conn.Write([]byte("GET /hello?name=world HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
		require.Equal(t, "/hello|world|", readResponse(t, reader))

		hdrs := requestgen.Headers(3).Set("Content-Type", "application/x-www-form-urlencoded")
		_, err = conn.Write(requestgen.Generate("POST", "/form", "HTTP/1.1", hdrs, []byte("name=cyclone")))
		require.NoError(t, err)
		require.Equal(t, "/form|cyclone|name=cyclone", readResponse(t, reader))

		cancel()
		require.NoError(t, <-errCh)
		require.Nil(t, app.Addr())
	})

	t.Run("100-continue", func(t *testing.T) {
		app, cancel, errCh := startApp(t, config.Default())
		defer func() {
			cancel()
			require.NoError(t, <-errCh)
		}()

		conn, err := net.Dial("tcp", app.Addr().String())
		require.NoError(t, err)
		defer conn.Close()
		reader := bufio.NewReader(conn)

		_, err = conn.Write([]byte("PUT /upload HTTP/1.1\r\nExpect: 100-continue\r\nContent-Length: 5\r\n\r\n"))
		require.NoError(t, err)
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		require.Equal(t, "HTTP/1.1 100 (Continue)\r\n", line)
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		require.Equal(t, "\r\n", line)

		_, err = conn.Write([]byte("hello"))
		require.NoError(t, err)
		require.Equal(t, "/upload||hello", readResponse(t, reader))
	})

	t.Run("no keep-alive", func(t *testing.T) {
		cfg := config.Default()
		cfg.HTTP.NoKeepAlive = true
		app, cancel, errCh := startApp(t, cfg)
		defer func() {
			cancel()
			require.NoError(t, <-errCh)
		}()

		conn, err := net.Dial("tcp", app.Addr().String())
		require.NoError(t, err)
		defer conn.Close()
		reader := bufio.NewReader(conn)

		_, err = conn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
		require.Equal(t, "/||", readResponse(t, reader))

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, err = reader.ReadByte()
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("graceful stop", func(t *testing.T) {
		app, cancel, errCh := startApp(t, config.Default())
		defer cancel()

		require.NoError(t, app.GracefulStop())
		require.NoError(t, <-errCh)
	})
}

func TestServeListenError(t *testing.T) {
	sock, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer sock.Close()

	cfg := config.Default()
	cfg.NET.Address = sock.Addr().String()
	err = New(cfg).Serve(context.Background(), http.HandlerFunc(echo))
	require.Error(t, err)
	require.NotErrorIs(t, err, status.ErrShutdown)
}
