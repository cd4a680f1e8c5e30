// Package transport runs request exchanges over raw TCP connections: one
// connection per attempt, with redirects followed up to MaxRedirects.
package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/flowerfulfort/scurl/internal/errdef"
	"github.com/flowerfulfort/scurl/internal/request"
	"github.com/flowerfulfort/scurl/internal/target"
	"github.com/flowerfulfort/scurl/internal/wire"
)

// MaxRedirects is the number of redirects followed before an exchange is
// treated as a loop.
const MaxRedirects = 5

// ErrRedirectLimit is wrapped by the error returned when an exchange needs
// more than MaxRedirects redirects.
var ErrRedirectLimit = errors.New("redirection loop detected")

// Client is the interface for the transport layer.
type Client interface {
	// Do runs the exchange described by cfg, writing a printable body to
	// the configured output.
	Do(ctx context.Context, cfg *request.Config) (*Result, error)

	// SetRateLimit sets the maximum connection attempts per second.
	SetRateLimit(rps float64)

	// Stats returns transport statistics.
	Stats() *TransportStats
}

// TransportStats holds aggregate statistics over every connection attempt.
type TransportStats struct {
	TotalAttempts int64
	TotalDuration time.Duration
	AvgDuration   time.Duration
}

// ClientOptions holds configuration for creating a new DefaultClient.
type ClientOptions struct {
	// ConnectTimeout bounds each TCP connect (0 = none).
	ConnectTimeout time.Duration

	// Timeout bounds each attempt once connected (0 = none).
	Timeout time.Duration

	// MaxRPS is the maximum connection attempts per second (0 = unlimited).
	MaxRPS float64

	// Output receives printable response bodies. Defaults to os.Stdout.
	Output io.Writer

	// Trace receives the verbose trace. Defaults to os.Stderr.
	Trace io.Writer

	// Logger receives debug events. Defaults to a discarding logger.
	Logger *slog.Logger

	// BodyFilter, when set, transforms a printable body before it is
	// written. The whole body is buffered in that case.
	BodyFilter func(contentType string, body []byte) ([]byte, error)
}

// DefaultClient is the default implementation of the Client interface,
// backed by net.Dialer.
type DefaultClient struct {
	opts    ClientOptions
	dialer  *net.Dialer
	out     io.Writer
	trace   io.Writer
	logger  *slog.Logger
	limiter *rate.Limiter

	mu              sync.RWMutex
	totalAttempts   int64
	totalDurationNs int64
}

// NewClient creates a new DefaultClient with the given options.
func NewClient(opts ClientOptions) *DefaultClient {
	c := &DefaultClient{
		opts:   opts,
		dialer: &net.Dialer{Timeout: opts.ConnectTimeout},
		out:    opts.Output,
		trace:  opts.Trace,
		logger: opts.Logger,
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.trace == nil {
		c.trace = os.Stderr
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c.SetRateLimit(opts.MaxRPS)
	return c
}

// hop is the part of the exchange that changes on every redirect.
type hop struct {
	target    target.Target
	url       string
	redirects int
}

// Do runs the exchange described by cfg. The multipart body, if any, is
// encoded once and re-sent unchanged on every hop.
func (c *DefaultClient) Do(ctx context.Context, cfg *request.Config) (*Result, error) {
	start := time.Now()
	res := &Result{
		Method: cfg.Method(),
		Origin: cfg.Origin(),
		URL:    cfg.Origin(),
	}

	var payload *wire.Multipart
	if cfg.Multipart() {
		m, err := wire.EncodeMultipart(cfg.Parts())
		if err != nil {
			res.State = StateFatal
			return res, err
		}
		defer m.Release()
		payload = m
	}

	h := hop{target: cfg.Target(), url: cfg.Origin()}
	tr := newTracer(c.trace, cfg.Verbose())
	for {
		if h.redirects > MaxRedirects {
			res.State = StateFatal
			res.Duration = time.Since(start)
			return res, errdef.Wrap(errdef.CodeRedirectLimit, ErrRedirectLimit,
				"gave up at %s after %d redirects", h.url, MaxRedirects)
		}

		next, err := c.attempt(ctx, cfg, h, payload, tr, res)
		if err != nil && ctx.Err() != nil {
			// Cancellation reaches the socket as an expired deadline.
			err = errdef.Wrap(errdef.CodeTransport, ctx.Err(), "exchange with %s interrupted", h.url)
		}
		if err != nil {
			c.setState(res, StateFatal, h)
			res.Duration = time.Since(start)
			return res, err
		}
		if next == nil {
			c.setState(res, StateDone, h)
			res.Duration = time.Since(start)
			return res, nil
		}
		h = *next
	}
}

// attempt performs one connection: send the request, read the head, and
// either return the next hop or stream the body.
func (c *DefaultClient) attempt(ctx context.Context, cfg *request.Config, h hop, payload *wire.Multipart, tr *tracer, res *Result) (*hop, error) {
	if lim := c.currentLimiter(); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, errdef.Wrap(errdef.CodeTransport, err, "rate limiter")
		}
	}

	wreq := wire.NewRequest(cfg, h.target.Authority, h.target.Location)
	var (
		head []byte
		err  error
	)
	if payload != nil {
		head, err = wire.FormatMultipartHead(wreq, payload.Len())
	} else {
		head, err = wire.Format(wreq)
	}
	if err != nil {
		return nil, err
	}

	res.URL = h.url
	res.Redirects = h.redirects
	c.setState(res, StateConnecting, h)

	started := time.Now()
	defer func() { c.record(time.Since(started)) }()

	addr := h.target.Address()
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeTransport, err, "connect to %s", addr)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) }) //nolint:errcheck
	defer stop()
	if deadline, ok := c.deadline(ctx); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, errdef.Wrap(errdef.CodeTransport, err, "set deadline")
		}
	}

	tr.connected(h.target.Host, conn.RemoteAddr(), h.target.Port)
	tr.sent(wire.HeadLines(head))

	c.setState(res, StateSending, h)
	if _, err := conn.Write(head); err != nil {
		return nil, errdef.Wrap(errdef.CodeTransport, err, "send request to %s", addr)
	}
	if payload != nil {
		if _, err := payload.WriteTo(conn); err != nil {
			return nil, errdef.Wrap(errdef.CodeTransport, err, "send multipart body to %s", addr)
		}
	}
	tr.infof("Request completely sent off")

	c.setState(res, StateAwaitingHead, h)
	br := bufio.NewReader(conn)
	lines, err := wire.ReadHead(br)
	if err != nil {
		if errdef.CodeOf(err) == errdef.CodeUnknown {
			err = errdef.Wrap(errdef.CodeTransport, err, "read response from %s", addr)
		}
		return nil, err
	}
	tr.received(lines)

	resp, err := wire.ParseLines(lines)
	if err != nil {
		return nil, err
	}
	res.Head = resp
	c.setState(res, StateHeadReceived, h)

	if cfg.FollowRedirects() && resp.IsRedirect() {
		if loc, ok := resp.Get("Location"); ok {
			next, err := h.follow(loc)
			if err != nil {
				return nil, err
			}
			c.setState(res, StateFollowingRedirect, next)
			tr.infof("Issue another request to this URL: '%s'", next.url)
			return &next, nil
		}
	}

	if err := c.emitBody(br, cfg.Method(), resp, h, res); err != nil {
		return nil, err
	}
	tr.plainf("Connection to host %s left intact", h.target.Host)
	return nil, nil
}

// follow resolves a Location value against the current hop.
func (h hop) follow(location string) (hop, error) {
	t, err := h.target.Resolve(location)
	if err != nil {
		return hop{}, errdef.Wrap(errdef.CodeParse, err, "redirect to %q", location)
	}
	url := t.String()
	if target.HasScheme(location) {
		url = location
	}
	return hop{target: t, url: url, redirects: h.redirects + 1}, nil
}

// emitBody writes the response body to the output when its media type is
// printable and the response can carry one.
func (c *DefaultClient) emitBody(br *bufio.Reader, method request.Method, resp *wire.Head, h hop, res *Result) error {
	if !Printable(resp.ContentType()) || !HasBody(method, resp.StatusCode) {
		return nil
	}
	n, err := resp.ContentLength()
	if err != nil {
		return err
	}
	c.setState(res, StateStreamingBody, h)

	if c.opts.BodyFilter == nil {
		written, err := io.CopyN(c.out, br, n)
		res.BodyBytes = written
		res.Printed = written > 0
		return bodyError(err, n, written)
	}

	body, err := io.ReadAll(io.LimitReader(br, n))
	if err != nil {
		return bodyError(err, n, int64(len(body)))
	}
	if int64(len(body)) < n {
		return bodyError(io.EOF, n, int64(len(body)))
	}
	body, err = c.opts.BodyFilter(resp.ContentType(), body)
	if err != nil {
		return err
	}
	if _, err := c.out.Write(body); err != nil {
		return errdef.Wrap(errdef.CodeUnknown, err, "write body")
	}
	res.BodyBytes = int64(len(body))
	res.Printed = true
	return nil
}

func bodyError(err error, want, got int64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return errdef.New(errdef.CodeParse, "connection closed after %d of %d body bytes", got, want)
	default:
		return errdef.Wrap(errdef.CodeTransport, err, "read response body")
	}
}

// Printable reports whether a body with the given Content-Type is written
// to the output: application/json or any text/* media type.
func Printable(contentType string) bool {
	media, _, _ := strings.Cut(contentType, ";")
	media = strings.ToLower(strings.TrimSpace(media))
	return media == "application/json" || strings.HasPrefix(media, "text/")
}

// HasBody reports whether a response to method with the given status can
// carry a body.
func HasBody(method request.Method, status int) bool {
	if method == request.MethodHead {
		return false
	}
	return status >= 200 && status != 204 && status != 304
}

// deadline combines the per-attempt timeout with the context deadline.
func (c *DefaultClient) deadline(ctx context.Context) (time.Time, bool) {
	var d time.Time
	if c.opts.Timeout > 0 {
		d = time.Now().Add(c.opts.Timeout)
	}
	if cd, ok := ctx.Deadline(); ok && (d.IsZero() || cd.Before(d)) {
		d = cd
	}
	return d, !d.IsZero()
}

func (c *DefaultClient) setState(res *Result, s State, h hop) {
	res.State = s
	c.logger.Debug("exchange state", "state", s.String(), "url", h.url, "redirects", h.redirects)
}

func (c *DefaultClient) record(d time.Duration) {
	c.mu.Lock()
	c.totalAttempts++
	c.totalDurationNs += d.Nanoseconds()
	c.mu.Unlock()
}

func (c *DefaultClient) currentLimiter() *rate.Limiter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.limiter
}

// SetRateLimit sets the maximum number of connection attempts per second.
// A value of 0 or less disables rate limiting.
func (c *DefaultClient) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = nil
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

// Stats returns aggregate transport statistics.
func (c *DefaultClient) Stats() *TransportStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := &TransportStats{
		TotalAttempts: c.totalAttempts,
		TotalDuration: time.Duration(c.totalDurationNs),
	}
	if c.totalAttempts > 0 {
		stats.AvgDuration = time.Duration(c.totalDurationNs / c.totalAttempts)
	}
	return stats
}
