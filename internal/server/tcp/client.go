package tcp

import (
	"net"
	"sync"
	"time"
)

// Client wraps the raw connection. Reads are meant to happen from a single goroutine,
// whereas writes and closing may come from anywhere.
type Client struct {
	conn    net.Conn
	buff    []byte
	timeout time.Duration

	deadlineMu sync.Mutex
	suspended  bool

	mu     sync.Mutex
	closed bool
}

func NewClient(conn net.Conn, timeout time.Duration, buff []byte) *Client {
	return &Client{
		conn:    conn,
		buff:    buff,
		timeout: timeout,
	}
}

// Read returns the next chunk of data. The returned slice is valid only until the
// next call.
func (c *Client) Read() ([]byte, error) {
	c.deadlineMu.Lock()
	if c.timeout > 0 && !c.suspended {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			c.deadlineMu.Unlock()
			return nil, err
		}
	}
	c.deadlineMu.Unlock()

	n, err := c.conn.Read(c.buff)

	return c.buff[:n], err
}

// SuspendTimeout disarms the read deadline, including the one of a read already
// in progress, until ResumeTimeout is called.
func (c *Client) SuspendTimeout() {
	c.deadlineMu.Lock()
	defer c.deadlineMu.Unlock()

	if c.timeout <= 0 || c.suspended {
		return
	}

	c.suspended = true
	_ = c.conn.SetReadDeadline(time.Time{})
}

// ResumeTimeout rearms the read deadline from now on.
func (c *Client) ResumeTimeout() {
	c.deadlineMu.Lock()
	defer c.deadlineMu.Unlock()

	if c.timeout <= 0 || !c.suspended {
		return
	}

	c.suspended = false
	_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
}

func (c *Client) Write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return net.ErrClosed
	}

	_, err := c.conn.Write(b)

	return err
}

func (c *Client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the connection. As writes are synchronous and share the lock, everything
// written before is already handed to the kernel by then. Repeated calls are no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	return c.conn.Close()
}
