package http1

import (
	"bytes"
	"errors"
	"log/slog"
	"net"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"

	"github.com/bricklayer/cyclone/config"
	"github.com/bricklayer/cyclone/http"
	"github.com/bricklayer/cyclone/http/headers"
	"github.com/bricklayer/cyclone/http/method"
	"github.com/bricklayer/cyclone/http/mime"
	"github.com/bricklayer/cyclone/http/proto"
	"github.com/bricklayer/cyclone/http/status"
	"github.com/bricklayer/cyclone/internal/formdata"
	"github.com/bricklayer/cyclone/internal/metrics"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

const (
	crlf = "\r\n"
	// excerptLength bounds the offending input quoted in logs.
	excerptLength = 100
	// bodyPrealloc caps the initial body buffer, as the declared length can't be trusted.
	bodyPrealloc = 64 * 1024
)

// Transport is the event-driven side of the connection.
type Transport interface {
	// Write sends the bytes to the peer.
	Write([]byte) error
	// Close closes the connection once everything written so far is sent.
	Close() error
	// Remote returns the peer address.
	Remote() net.Addr
}

// IdleTimer may be implemented by a Transport enforcing an idle read timeout. The
// timeout is suspended while a request is handled, and resumed once the connection
// is ready for the next one.
type IdleTimer interface {
	SuspendTimeout()
	ResumeTimeout()
}

// Conn is an HTTP/1.x connection state machine. It consumes arbitrarily fragmented
// chunks of the incoming stream via Feed, hands every completely received request
// to the handler and, once the response is finished, decides whether the connection
// is reused or closed.
//
// Requests are never pipelined: bytes of the next request arriving while a response
// is in flight are buffered and parsed only after Finish. All the methods are safe
// for concurrent use, the handler is invoked without holding the internal lock, so it
// may Write and Finish either synchronously or from another goroutine.
type Conn struct {
	mu        sync.Mutex
	cfg       *config.Config
	transport Transport
	handler   http.Handler
	logger    *slog.Logger
	metrics   *metrics.Metrics

	state connState
	// pending holds received but not yet consumed bytes.
	pending []byte
	// block accumulates CRLF-terminated request and header lines.
	block []byte
	// body accumulates the body of request while in eAwaitingBody.
	body     []byte
	bodyLeft int
	// request is set in eAwaitingBody and while its response is in flight.
	request  *http.Request
	inFlight bool
	// feeding is set while the parsing loop runs, including the handler invocation.
	feeding bool

	reason   error
	notified bool
	waiter   chan error
}

func New(
	cfg *config.Config, transport Transport, handler http.Handler,
	logger *slog.Logger, m *metrics.Metrics,
) *Conn {
	if logger == nil {
		logger = slog.Default()
	}

	return &Conn{
		cfg:       cfg,
		transport: transport,
		handler:   handler,
		logger:    logger,
		metrics:   m,
		state:     eAwaitingHeaders,
	}
}

// Feed consumes the next chunk of the incoming stream. The chunk is copied, so the
// caller is free to reuse it.
func (c *Conn) Feed(chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == eClosed {
		return
	}

	// nothing is parsed while a response is in flight, so the pending bytes must
	// be bounded here
	if c.inFlight && len(c.pending)+len(chunk) > c.cfg.Headers.MaxBlockSize {
		c.fail(status.ErrHeaderFieldsTooLarge, chunk)
		return
	}

	c.pending = append(c.pending, chunk...)
	if !c.feeding {
		c.process()
	}
}

// Write sends a response chunk. Fails with status.ErrRequestClosed if there's no
// request awaiting a response. The transport is written to without holding the lock,
// so a slow peer doesn't stall the incoming side.
func (c *Conn) Write(b []byte) error {
	c.mu.Lock()
	inFlight, transport := c.inFlight, c.transport
	c.mu.Unlock()

	if !inFlight {
		return status.ErrRequestClosed
	}

	return transport.Write(b)
}

// Finish marks the response of the current request as complete. The connection is
// then either closed or gets ready for the next request, parsing whatever of it has
// already arrived.
func (c *Conn) Finish() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.inFlight {
		return status.ErrRequestClosed
	}

	req := c.request
	c.request, c.inFlight = nil, false

	if c.state == eClosed {
		return nil
	}

	reuse := c.keepAlive(req)
	c.metrics.Reused(reuse)
	if !reuse {
		c.close(status.ErrConnectionClosed)
		return nil
	}

	if timer, ok := c.transport.(IdleTimer); ok {
		timer.ResumeTimeout()
	}

	if !c.feeding {
		c.process()
	}

	return nil
}

// NotifyClosed returns a channel receiving the closure reason exactly once. If the
// connection is already closed, the reason is available immediately. Only the latest
// returned channel is going to be notified.
func (c *Conn) NotifyClosed() <-chan error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan error, 1)
	if c.notified {
		ch <- c.reason
		return ch
	}

	c.waiter = ch
	return ch
}

// Closed must be called by the transport once the connection is gone. If the connection
// was closed actively, the reason of doing so takes precedence over the passed one.
func (c *Conn) Closed(reason error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.notified {
		return
	}

	if c.reason == nil {
		c.reason = reason
	}

	c.notified = true
	c.reset(eClosed)

	if c.waiter != nil {
		c.waiter <- c.reason
		c.waiter = nil
	}
}

// Reason returns why the connection was closed, nil if it's still open.
func (c *Conn) Reason() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.notified {
		return nil
	}

	return c.reason
}

// process runs the parsing loop until the pending bytes are exhausted, a request is
// dispatched and awaits its response, or the connection is closed.
func (c *Conn) process() {
	c.feeding = true
	defer func() {
		c.feeding = false
	}()

	for !c.inFlight && len(c.pending) > 0 {
		switch c.state {
		case eAwaitingHeaders:
			if !c.readLine() {
				return
			}
		case eAwaitingBody:
			c.readBody()
		case eClosed:
			return
		}
	}
}

func (c *Conn) readLine() (progress bool) {
	eol := bytes.Index(c.pending, []byte(crlf))
	if eol == -1 {
		if len(c.block)+len(c.pending) > c.cfg.Headers.MaxBlockSize {
			c.fail(status.ErrHeaderFieldsTooLarge, c.pending)
		}

		return false
	}

	if eol == 0 {
		c.consume(len(crlf))
		if len(c.block) == 0 {
			// stray empty lines between requests
			return true
		}

		block := string(c.block)
		c.block = c.block[:0]
		c.onHeaders(block)

		return true
	}

	if len(c.block)+eol+len(crlf) > c.cfg.Headers.MaxBlockSize {
		c.fail(status.ErrHeaderFieldsTooLarge, c.block)
		return false
	}

	c.block = append(c.block, c.pending[:eol+len(crlf)]...)
	c.consume(eol + len(crlf))

	return true
}

func (c *Conn) onHeaders(block string) {
	eol := strings.Index(block, crlf)
	requestLine := block[:eol]

	fields := strings.Split(requestLine, " ")
	if len(fields) != 3 || !method.IsToken(fields[0]) || len(fields[1]) == 0 || !proto.HasScheme(fields[2]) {
		c.fail(status.ErrMalformedRequestLine, uf.S2B(requestLine))
		return
	}

	protocol := proto.FromString(fields[2])
	if protocol == proto.Unknown {
		c.fail(status.ErrUnsupportedProtocol, uf.S2B(requestLine))
		return
	}

	hdrs, err := headers.Parse(block[eol:])
	if err != nil {
		c.fail(err, uf.S2B(block[eol:]))
		return
	}

	length, err := contentLength(hdrs)
	if err != nil {
		c.fail(err, uf.S2B(hdrs.Value("Content-Length")))
		return
	}

	if length > c.cfg.Body.MaxSize {
		c.fail(status.ErrBodyTooLarge, uf.S2B(hdrs.Value("Content-Length")))
		return
	}

	req := http.NewRequest(
		c, fields[0], fields[1], protocol, hdrs,
		http.RemoteHost(c.transport.Remote()), c.cfg.HTTP.XHeaders,
	)
	req.ContentLength = length

	if length == 0 {
		c.dispatch(req)
		return
	}

	if strcomp.EqualFold(hdrs.Value("Expect"), "100-continue") {
		if err = c.transport.Write([]byte(status.ContinueLine)); err != nil {
			c.logger.Debug("failed to write interim response", slog.String("error", err.Error()))
		}
	}

	c.request = req
	c.bodyLeft = length
	c.body = make([]byte, 0, min(length, bodyPrealloc))
	c.state = eAwaitingBody
}

func (c *Conn) readBody() {
	n := min(c.bodyLeft, len(c.pending))
	c.body = append(c.body, c.pending[:n]...)
	c.consume(n)
	c.bodyLeft -= n

	if c.bodyLeft == 0 {
		c.onBody()
	}
}

func (c *Conn) onBody() {
	req := c.request
	req.Body, c.body = c.body, nil
	c.state = eAwaitingHeaders

	if req.Method == method.POST {
		switch contentType := req.ContentType; {
		case mime.Complies(mime.FormUrlencoded, contentType):
			req.AddForm(uf.B2S(req.Body))
		case mime.Complies(mime.Multipart, contentType):
			if boundary := headers.ParamOf(contentType, "boundary", ""); len(boundary) > 0 {
				c.parseMultipart(req, boundary)
			}
		}
	}

	c.dispatch(req)
}

func (c *Conn) parseMultipart(req *http.Request, boundary string) {
	for part, err := range formdata.Multipart(req.Body, boundary) {
		if err != nil {
			c.metrics.ParseError("multipart")
			c.logger.Warn("skipping multipart/form-data part",
				slog.String("remote", req.Remote),
				slog.String("field", part.Name),
				slog.String("error", err.Error()),
			)
			continue
		}

		req.AddPart(part)
	}
}

// dispatch hands the request to the handler. The lock is released for the time of
// the call, but feeding stays set, so concurrent Feed and Finish calls leave the
// parsing to the loop, which resumes once the handler returns.
func (c *Conn) dispatch(req *http.Request) {
	c.request, c.inFlight = req, true
	c.metrics.RequestDispatched(req.Method, req.Protocol.String(), len(req.Body))

	if timer, ok := c.transport.(IdleTimer); ok {
		timer.SuspendTimeout()
	}

	if recovered, stack := c.handle(req); recovered != nil {
		c.logger.Error("request handler panicked",
			slog.String("remote", req.Remote),
			slog.String("request", req.Method+" "+req.Target),
			slog.Any("panic", recovered),
			slog.String("stack", string(stack)),
		)
		c.request, c.inFlight = nil, false
		c.close(status.ErrHandlerPanicked)
	}
}

// handle invokes the handler with the lock released.
func (c *Conn) handle(req *http.Request) (recovered any, stack []byte) {
	c.mu.Unlock()
	defer c.mu.Lock()
	defer func() {
		if recovered = recover(); recovered != nil {
			stack = debug.Stack()
		}
	}()

	c.handler.Handle(req)

	return nil, nil
}

// keepAlive decides whether the connection may be reused after responding to
// the request.
func (c *Conn) keepAlive(req *http.Request) bool {
	switch {
	case c.cfg.HTTP.NoKeepAlive:
		return false
	case req.SupportsHTTP11():
		return req.Connection != "close"
	case req.Headers.Has("Content-Length") || req.Method == method.GET || req.Method == method.HEAD:
		return req.Connection == "Keep-Alive"
	default:
		return false
	}
}

// fail logs the fatal error along with a bounded excerpt of the offending input and
// drops the connection without any response.
func (c *Conn) fail(err error, input []byte) {
	c.metrics.ParseError(errorKind(err))
	c.logger.Error("malformed HTTP request",
		slog.String("remote", remoteString(c.transport.Remote())),
		slog.String("error", err.Error()),
		slog.String("excerpt", excerpt(input)),
	)
	c.close(err)
}

func (c *Conn) close(reason error) {
	if c.reason == nil {
		c.reason = reason
	}

	c.reset(eClosed)

	if err := c.transport.Close(); err != nil {
		c.logger.Debug("failed to close connection", slog.String("error", err.Error()))
	}
}

func (c *Conn) reset(state connState) {
	c.state = state
	c.pending, c.block, c.body = nil, nil, nil
	c.bodyLeft = 0
}

// consume drops n leading pending bytes. The rest is moved to the beginning of the
// buffer in order to reuse it.
func (c *Conn) consume(n int) {
	c.pending = c.pending[:copy(c.pending, c.pending[n:])]
}

func contentLength(hdrs *headers.Headers) (int, error) {
	value, found := hdrs.Get("Content-Length")
	if !found {
		return 0, nil
	}

	length, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || length < 0 {
		return 0, status.ErrMalformedLength
	}

	return length, nil
}

func excerpt(input []byte) string {
	if len(input) > excerptLength {
		input = input[:excerptLength]
	}

	return strconv.Quote(string(input))
}

func remoteString(addr net.Addr) string {
	if addr == nil {
		return ""
	}

	return addr.String()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, status.ErrMalformedRequestLine):
		return "request_line"
	case errors.Is(err, status.ErrUnsupportedProtocol):
		return "protocol"
	case errors.Is(err, status.ErrMalformedHeaders):
		return "headers"
	case errors.Is(err, status.ErrMalformedLength):
		return "content_length"
	case errors.Is(err, status.ErrHeaderFieldsTooLarge), errors.Is(err, status.ErrBodyTooLarge):
		return "too_large"
	default:
		return "other"
	}
}
