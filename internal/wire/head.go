package wire

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/flowerfulfort/scurl/internal/errdef"
)

// Limits on the response head. Reads of the head are bounded by these so a
// misbehaving server cannot make the client buffer without end.
const (
	MaxLineBytes = 64 << 10
	MaxHeadBytes = 1 << 20
)

// Synthetic keys added to Head.Map from the status line.
const (
	KeyHTTPVersion = "HTTPVersion"
	KeyStatusCode  = "StatusCode"
	KeyStatus      = "Status"
)

// Head is a parsed response status line plus header block.
//
// Header names keep the case they were received in. A repeated name keeps
// its last value; folded continuation lines are not supported.
type Head struct {
	Version    string
	StatusCode int
	Reason     string

	fields map[string]string
	order  []string
}

// ParseHead parses a raw head block: the status line and header lines
// separated by "\n" (an optional "\r" before each "\n" is ignored), with the
// terminating blank line already removed.
func ParseHead(raw string) (*Head, error) {
	raw = strings.TrimRight(raw, "\r\n")
	if raw == "" {
		return nil, errdef.New(errdef.CodeParse, "empty response head")
	}
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return ParseLines(lines)
}

// ParseLines parses a head already split into lines.
func ParseLines(lines []string) (*Head, error) {
	if len(lines) == 0 {
		return nil, errdef.New(errdef.CodeParse, "empty response head")
	}

	h := &Head{fields: make(map[string]string, len(lines)-1)}
	if err := h.parseStatusLine(lines[0]); err != nil {
		return nil, err
	}

	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, errdef.New(errdef.CodeParse, "header line without colon: %q", line)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errdef.New(errdef.CodeParse, "header line without name: %q", line)
		}
		if _, seen := h.fields[name]; !seen {
			h.order = append(h.order, name)
		}
		h.fields[name] = strings.TrimSpace(value)
	}
	return h, nil
}

// parseStatusLine reads "HTTP/x.y CODE reason phrase". The reason phrase is
// the rest of the line and may contain spaces or be empty.
func (h *Head) parseStatusLine(line string) error {
	version, rest, ok := strings.Cut(line, " ")
	if !ok || !strings.HasPrefix(version, "HTTP/") {
		return errdef.New(errdef.CodeParse, "malformed status line %q", line)
	}
	code, reason, _ := strings.Cut(rest, " ")
	if len(code) != 3 {
		return errdef.New(errdef.CodeParse, "malformed status code in %q", line)
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 100 {
		return errdef.New(errdef.CodeParse, "malformed status code in %q", line)
	}

	h.Version = version
	h.StatusCode = n
	h.Reason = reason
	return nil
}

// Get returns the value of a header. An exact name match wins; otherwise
// the first case-insensitive match in arrival order is used.
func (h *Head) Get(name string) (string, bool) {
	if v, ok := h.fields[name]; ok {
		return v, true
	}
	for _, k := range h.order {
		if strings.EqualFold(k, name) {
			return h.fields[k], true
		}
	}
	return "", false
}

// Names returns header names in first-arrival order.
func (h *Head) Names() []string {
	return append([]string(nil), h.order...)
}

// Map returns the headers keyed as received, plus the HTTPVersion,
// StatusCode and Status keys taken from the status line. A received header
// with one of those names overrides the synthetic value.
func (h *Head) Map() map[string]string {
	m := make(map[string]string, len(h.fields)+3)
	m[KeyHTTPVersion] = h.Version
	m[KeyStatusCode] = strconv.Itoa(h.StatusCode)
	m[KeyStatus] = h.Reason
	for k, v := range h.fields {
		m[k] = v
	}
	return m
}

// IsRedirect reports whether the status code is in [300, 400).
func (h *Head) IsRedirect() bool {
	return h.StatusCode >= 300 && h.StatusCode < 400
}

// ContentType returns the Content-Type header, or "".
func (h *Head) ContentType() string {
	v, _ := h.Get("Content-Type")
	return v
}

// ContentLength returns the declared body length. It fails when the header
// is missing or not a non-negative integer.
func (h *Head) ContentLength() (int64, error) {
	v, ok := h.Get("Content-Length")
	if !ok {
		return 0, errdef.New(errdef.CodeParse, "response has no Content-Length")
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, errdef.New(errdef.CodeParse, "invalid Content-Length %q", v)
	}
	return n, nil
}

// ReadHead reads response lines from r up to the first empty line and
// returns them without line terminators. Blank lines before the status
// line are skipped. Socket errors are returned as-is; oversized heads and
// a connection closed before any line are parse errors.
func ReadHead(r *bufio.Reader) ([]string, error) {
	var (
		lines []string
		total int
	)
	for {
		line, err := readLine(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, err
			}
			if line != "" {
				lines = append(lines, line)
			}
			if len(lines) == 0 {
				return nil, errdef.New(errdef.CodeParse, "connection closed without a response")
			}
			return lines, nil
		}

		total += len(line) + len(CRLF)
		if total > MaxHeadBytes {
			return nil, errdef.New(errdef.CodeParse, "response head exceeds %d bytes", MaxHeadBytes)
		}

		if line == "" {
			if len(lines) == 0 {
				continue
			}
			return lines, nil
		}
		lines = append(lines, line)
	}
}

// readLine reads one line and strips its "\n" or "\r\n" terminator.
func readLine(r *bufio.Reader) (string, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > MaxLineBytes {
			return "", errdef.New(errdef.CodeParse, "response line exceeds %d bytes", MaxLineBytes)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		s := strings.TrimSuffix(string(line), "\n")
		s = strings.TrimSuffix(s, "\r")
		return s, err
	}
}
