package http

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/bricklayer/cyclone/http/headers"
	"github.com/bricklayer/cyclone/http/proto"
	"github.com/bricklayer/cyclone/internal/formdata"
	json "github.com/json-iterator/go"
)

const (
	defaultScheme = "http"
	defaultHost   = "127.0.0.1"
)

// Conn is the part of a connection a request is allowed to talk to. Responses are
// written raw: serializing status line, headers and body is up to the application.
type Conn interface {
	// Write sends the chunk to the client. Fails if the request was already finished.
	Write([]byte) error
	// Finish marks the response as complete, after which the connection decides
	// whether it's going to be reused or closed.
	Finish() error
	// NotifyClosed returns a channel receiving the closure reason once the connection
	// is closed. Only the latest returned channel is notified.
	NotifyClosed() <-chan error
}

// Request represents a single parsed HTTP request. It's handed to the Handler once
// completely received, and the parser never touches it afterward.
type Request struct {
	// Method is the raw method token.
	Method string
	// Target is the raw request-URI, as it was received.
	Target string
	// Path and Query are the parts of the Target. The fragment is dropped.
	Path, Query string
	// Protocol is either proto.HTTP10 or proto.HTTP11.
	Protocol proto.Protocol
	// Headers hold single-valued canonicalized pairs.
	Headers *headers.Headers
	// Body is the whole request body. Empty, if no Content-Length was declared.
	Body []byte
	// Arguments are merged from the query string and, for form-encoded or multipart
	// POST requests, the body. Query values go first.
	Arguments Arguments
	// Files hold multipart/form-data uploads.
	Files Files
	// Remote is the client address. Taken from the X-Real-Ip or X-Forwarded-For headers
	// if forwarding headers are trusted.
	Remote string
	// Scheme is "http" unless overridden by X-Scheme from a trusted proxy.
	Scheme string
	// Host is the Host header value, or the loopback address if none.
	Host string
	// ContentLength holds the declared body length, 0 if none.
	ContentLength int
	// ContentType holds the Content-Type header value.
	ContentType string
	// Connection holds the Connection header value as is.
	Connection string

	conn     Conn
	started  time.Time
	finished time.Time
}

// NewRequest constructs a request. Forwarding headers (X-Real-Ip, X-Forwarded-For,
// X-Scheme) are taken into account only if xheaders is set.
func NewRequest(
	conn Conn, method, target string, protocol proto.Protocol,
	hdrs *headers.Headers, remote string, xheaders bool,
) *Request {
	if hdrs == nil {
		hdrs = headers.New()
	}

	req := &Request{
		Method:      method,
		Target:      target,
		Protocol:    protocol,
		Headers:     hdrs,
		Arguments:   make(Arguments),
		Files:       make(Files),
		Remote:      remote,
		Scheme:      defaultScheme,
		Host:        hdrs.Value("Host"),
		ContentType: hdrs.Value("Content-Type"),
		Connection:  hdrs.Value("Connection"),
		conn:        conn,
		started:     time.Now(),
	}

	if xheaders {
		req.Remote = hdrs.ValueOr("X-Real-Ip", hdrs.ValueOr("X-Forwarded-For", remote))
		if scheme := hdrs.Value("X-Scheme"); len(scheme) > 0 {
			req.Scheme = scheme
		}
	}

	if len(req.Host) == 0 {
		req.Host = defaultHost
	}

	req.Path, req.Query = splitTarget(target)
	for name, value := range formdata.URLEncoded(req.Query) {
		req.Arguments.Add(name, value)
	}

	return req
}

// SupportsHTTP11 reports whether HTTP/1.1 semantics apply to the request.
func (r *Request) SupportsHTTP11() bool {
	return r.Protocol == proto.HTTP11
}

// FullURL reconstructs the full URL of the request.
func (r *Request) FullURL() string {
	return r.Scheme + "://" + r.Host + r.Target
}

// RequestTime returns how long the request has been processed so far, or how long it
// took if it's already finished.
func (r *Request) RequestTime() time.Duration {
	if r.finished.IsZero() {
		return time.Since(r.started)
	}

	return r.finished.Sub(r.started)
}

// Write writes the chunk to the response stream.
func (r *Request) Write(chunk []byte) error {
	return r.conn.Write(chunk)
}

func (r *Request) WriteString(chunk string) error {
	return r.Write([]byte(chunk))
}

// Finish finishes the request on its connection.
func (r *Request) Finish() error {
	err := r.conn.Finish()
	if err == nil {
		r.finished = time.Now()
	}

	return err
}

// NotifyFinish returns a channel notified once the underlying connection is closed.
func (r *Request) NotifyFinish() <-chan error {
	return r.conn.NotifyClosed()
}

// JSON decodes the body into the model.
func (r *Request) JSON(model any) error {
	iterator := json.ConfigDefault.BorrowIterator(r.Body)
	iterator.ReadVal(model)
	err := iterator.Error
	json.ConfigDefault.ReturnIterator(iterator)

	return err
}

func (r *Request) String() string {
	return fmt.Sprintf(
		"Request(scheme=%q, host=%q, method=%q, target=%q, protocol=%q, remote=%q, body=%q, headers=%s)",
		r.Scheme, r.Host, r.Method, r.Target, r.Protocol, r.Remote, r.Body, r.Headers,
	)
}

// RemoteHost extracts the host out of an address. Addresses without a port are
// returned as is.
func RemoteHost(addr net.Addr) string {
	if addr == nil {
		return ""
	}

	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}

	return host
}

// splitTarget splits the request-URI into path and query. Absolute-form targets lose
// their scheme and authority.
func splitTarget(target string) (path, query string) {
	target, _, _ = strings.Cut(target, "#")
	path, query, _ = strings.Cut(target, "?")

	if scheme := strings.Index(path, "://"); scheme > 0 && !strings.ContainsRune(path[:scheme], '/') {
		authority := path[scheme+len("://"):]
		if slash := strings.IndexByte(authority, '/'); slash != -1 {
			path = authority[slash:]
		} else {
			path = ""
		}
	}

	return path, query
}
