// Package testutil provides a scripted raw TCP HTTP server for tests.
//
// Unlike httptest.Server it exposes the exact request bytes the client
// wrote and lets a test answer with arbitrary, even malformed, response
// bytes. Every accepted connection serves exactly one exchange and is then
// closed, matching the client's one-connection-per-request model.
package testutil

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// connDeadline bounds every test connection so a stuck client fails fast.
const connDeadline = 5 * time.Second

// RawRequest is one request as received by a RawServer.
type RawRequest struct {
	// Raw is the head and body exactly as read from the socket.
	Raw []byte

	// Line is the request line, e.g. "GET / HTTP/1.1".
	Line string

	// Headers are the header lines in arrival order.
	Headers []string

	// Body holds Content-Length bytes following the head.
	Body []byte
}

// Header returns the value of the first header whose name matches
// case-insensitively.
func (r *RawRequest) Header(name string) string {
	for _, h := range r.Headers {
		k, v, ok := strings.Cut(h, ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Handler produces the raw response for the n-th connection (0-based).
type Handler func(n int, req *RawRequest) string

// RawServer is a loopback TCP server answering with scripted raw bytes.
type RawServer struct {
	ln      net.Listener
	handler Handler

	mu       sync.Mutex
	requests []*RawRequest
	conns    int

	wg sync.WaitGroup
}

// NewRawServer starts a server on 127.0.0.1 and registers its shutdown with
// t.Cleanup.
func NewRawServer(t testing.TB, h Handler) *RawServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("testutil: listen: %v", err)
	}
	s := &RawServer{ln: ln, handler: h}
	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

// Static returns a Handler answering every connection with raw.
func Static(raw string) Handler {
	return func(int, *RawRequest) string { return raw }
}

// Sequence returns a Handler answering the n-th connection with
// responses[n], repeating the last one once the list is exhausted.
func Sequence(responses ...string) Handler {
	return func(n int, _ *RawRequest) string {
		if n >= len(responses) {
			n = len(responses) - 1
		}
		return responses[n]
	}
}

// URL returns the base URL, without a trailing slash.
func (s *RawServer) URL() string {
	return "http://" + s.ln.Addr().String()
}

// Port returns the listening port.
func (s *RawServer) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Requests returns a snapshot of the requests received so far.
func (s *RawServer) Requests() []*RawRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*RawRequest(nil), s.requests...)
}

// Connections returns how many connections were accepted.
func (s *RawServer) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

// Close stops accepting and waits for in-flight connections.
func (s *RawServer) Close() {
	s.ln.Close()
	s.wg.Wait()
}

func (s *RawServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		n := s.conns
		s.conns++
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(n, conn)
	}
}

func (s *RawServer) serve(n int, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connDeadline)) //nolint:errcheck

	req, err := readRequest(bufio.NewReader(conn))
	if err != nil {
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	io.WriteString(conn, s.handler(n, req)) //nolint:errcheck
}

func readRequest(br *bufio.Reader) (*RawRequest, error) {
	var (
		raw     strings.Builder
		req     RawRequest
		first   = true
		bodyLen int
	)
	for {
		line, err := br.ReadString('\n')
		raw.WriteString(line)
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if first {
			req.Line = line
			first = false
			continue
		}
		req.Headers = append(req.Headers, line)
	}

	if v := req.Header("Content-Length"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("testutil: bad Content-Length %q", v)
		}
		bodyLen = n
	}
	req.Body = make([]byte, bodyLen)
	if _, err := io.ReadFull(br, req.Body); err != nil {
		return nil, err
	}
	raw.Write(req.Body)
	req.Raw = []byte(raw.String())
	return &req, nil
}

// Response renders a complete response with Content-Type and a matching
// Content-Length. Extra header lines are added verbatim after them.
func Response(status, contentType, body string, extra ...string) string {
	var b strings.Builder
	b.WriteString("HTTP/1.1 " + status + "\r\n")
	if contentType != "" {
		b.WriteString("Content-Type: " + contentType + "\r\n")
	}
	b.WriteString("Content-Length: " + strconv.Itoa(len(body)) + "\r\n")
	for _, h := range extra {
		b.WriteString(h + "\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

// Redirect renders a redirect response with an empty body.
func Redirect(status, location string) string {
	return "HTTP/1.1 " + status + "\r\nLocation: " + location + "\r\nContent-Length: 0\r\n\r\n"
}

// ClosedAddr returns a loopback host:port on which nothing is listening.
func ClosedAddr(t testing.TB) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("testutil: listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}
