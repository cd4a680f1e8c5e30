package transport

import (
	"time"

	"github.com/flowerfulfort/scurl/internal/request"
	"github.com/flowerfulfort/scurl/internal/wire"
)

// Result describes one finished exchange, including every redirect hop
// taken to reach the final response.
type Result struct {
	// Method is the method sent on every hop.
	Method request.Method

	// Origin is the URL the exchange started from.
	Origin string

	// URL is the URL of the final hop.
	URL string

	// Head is the parsed head of the final response. It is nil when no
	// response head was received.
	Head *wire.Head

	// Redirects is the number of redirects followed.
	Redirects int

	// BodyBytes is how many body bytes were written to the output.
	BodyBytes int64

	// Printed reports whether the body was written to the output.
	Printed bool

	// State is the state the exchange ended in.
	State State

	// Duration is the wall time of the whole exchange.
	Duration time.Duration
}

// StatusCode returns the final status code, or 0 without a response.
func (r *Result) StatusCode() int {
	if r.Head == nil {
		return 0
	}
	return r.Head.StatusCode
}

// Reason returns the final reason phrase.
func (r *Result) Reason() string {
	if r.Head == nil {
		return ""
	}
	return r.Head.Reason
}

// ContentType returns the final Content-Type header value.
func (r *Result) ContentType() string {
	if r.Head == nil {
		return ""
	}
	return r.Head.ContentType()
}
