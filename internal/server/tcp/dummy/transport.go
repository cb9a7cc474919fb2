package dummy

import (
	"net"
	"sync"
)

// Transport records everything written and whether it was closed. It's implemented in
// testing purposes.
type Transport struct {
	mu      sync.Mutex
	written []byte
	closed  int
	remote  net.Addr
	// suspended tells whether the idle timeout is currently suspended
	suspended bool
}

func NewTransport() *Transport {
	return &Transport{
		remote: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 54321},
	}
}

func (t *Transport) WithRemote(addr net.Addr) *Transport {
	t.remote = addr
	return t
}

func (t *Transport) Write(b []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed > 0 {
		return net.ErrClosed
	}

	t.written = append(t.written, b...)
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed++
	t.mu.Unlock()

	return nil
}

func (t *Transport) SuspendTimeout() {
	t.mu.Lock()
	t.suspended = true
	t.mu.Unlock()
}

func (t *Transport) ResumeTimeout() {
	t.mu.Lock()
	t.suspended = false
	t.mu.Unlock()
}

// TimeoutSuspended reports whether the idle timeout would currently be disarmed.
func (t *Transport) TimeoutSuspended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.suspended
}

func (t *Transport) Remote() net.Addr {
	return t.remote
}

// Written returns everything written so far.
func (t *Transport) Written() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return string(t.written)
}

// Flush returns everything written since the previous flush.
func (t *Transport) Flush() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	written := string(t.written)
	t.written = t.written[:0]

	return written
}

func (t *Transport) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed > 0
}

// CloseCalls returns how many times Close was called.
func (t *Transport) CloseCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed
}
