// Package wire renders HTTP/1.1 request bytes and parses response heads.
// It talks to nothing: the transport package owns every socket.
package wire

import (
	"strconv"
	"strings"

	"github.com/flowerfulfort/scurl/internal/errdef"
	"github.com/flowerfulfort/scurl/internal/request"
)

const (
	// UserAgent is sent on every request.
	UserAgent = "curl/1.0.0"

	// CRLF terminates every request line and header.
	CRLF = "\r\n"

	defaultContentType = "Content-Type: application/x-www-form-urlencoded"
)

// Request carries what the formatter needs for one attempt. Location and
// Host change between redirect hops; the rest comes from request.Config.
type Request struct {
	Method   request.Method
	Location string
	Host     string
	Headers  []string
	Body     string
	HasBody  bool
}

// NewRequest fills a Request from cfg for the given location and Host
// header value.
func NewRequest(cfg *request.Config, host, location string) Request {
	body, hasBody := cfg.Body()
	return Request{
		Method:   cfg.Method(),
		Location: location,
		Host:     host,
		Headers:  cfg.Headers(),
		Body:     body,
		HasBody:  hasBody,
	}
}

// Format renders a body-based (non-multipart) request.
//
// GET, and any other method without a body, ends with the blank line.
// Body-bearing requests add Content-Length with the body's byte length
// followed by the blank line and the body. POST and PUT get a default
// form Content-Type unless a custom header already sets one.
func Format(r Request) ([]byte, error) {
	var b strings.Builder
	switch r.Method {
	case request.MethodGet:
		writeHead(&b, r, true)
	case request.MethodPost, request.MethodPut, request.MethodDelete, request.MethodHead:
		writeHead(&b, r, true)
		if r.HasBody {
			b.WriteString("Content-Length: ")
			b.WriteString(strconv.Itoa(len(r.Body)))
			b.WriteString(CRLF)
		}
	default:
		return nil, errdef.New(errdef.CodeConfig, "unknown method %q", r.Method)
	}

	b.WriteString(CRLF)
	if r.Method != request.MethodGet && r.HasBody {
		b.WriteString(r.Body)
	}
	return []byte(b.String()), nil
}

// FormatMultipartHead renders the head sent ahead of a multipart body of
// contentLength bytes. The request line is always POST, whatever r.Method
// says.
func FormatMultipartHead(r Request, contentLength int64) ([]byte, error) {
	if contentLength < 0 {
		return nil, errdef.New(errdef.CodeConfig, "negative multipart length %d", contentLength)
	}
	r.Method = request.MethodPost

	var b strings.Builder
	writeHead(&b, r, false)
	b.WriteString("Content-Length: ")
	b.WriteString(strconv.FormatInt(contentLength, 10))
	b.WriteString(CRLF)
	b.WriteString("Content-Type: ")
	b.WriteString(MultipartContentType)
	b.WriteString(CRLF)
	b.WriteString(CRLF)
	return []byte(b.String()), nil
}

// writeHead writes the request line, the fixed headers and the custom
// headers.
func writeHead(b *strings.Builder, r Request, defaultType bool) {
	b.WriteString(string(r.Method))
	b.WriteByte(' ')
	b.WriteString(r.Location)
	b.WriteString(" HTTP/1.1")
	b.WriteString(CRLF)
	b.WriteString("Host: " + r.Host + CRLF)
	b.WriteString("User-Agent: " + UserAgent + CRLF)
	b.WriteString("Accept: */*" + CRLF)

	hasType := false
	for _, h := range r.Headers {
		if hasPrefixFold(h, "Content-Type") {
			hasType = true
		}
		b.WriteString(h)
		b.WriteString(CRLF)
	}
	if defaultType && !hasType && (r.Method == request.MethodPost || r.Method == request.MethodPut) {
		b.WriteString(defaultContentType)
		b.WriteString(CRLF)
	}
}

// HeadLines splits rendered request bytes into the lines of the head, for
// the verbose echo. The body, if any, is not included.
func HeadLines(raw []byte) []string {
	s := string(raw)
	if i := strings.Index(s, CRLF+CRLF); i >= 0 {
		s = s[:i]
	}
	return strings.Split(s, CRLF)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
