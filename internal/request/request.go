// Package request holds the immutable description of one HTTP exchange and
// the builder that validates it before any network activity.
package request

import (
	"github.com/flowerfulfort/scurl/internal/errdef"
	"github.com/flowerfulfort/scurl/internal/target"
)

// Method is one of the HTTP methods scurl can send.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodHead   Method = "HEAD"
)

// ParseMethod converts a case-sensitive method name into a Method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodHead:
		return m, nil
	default:
		return "", errdef.New(errdef.CodeConfig, "unknown method %q", s)
	}
}

// Part is one element of a multipart/form-data body. A part with a File is
// a file attachment; otherwise Value is sent as a plain form field.
type Part struct {
	Name  string
	File  string
	Value string
}

// IsFile reports whether the part is backed by a file.
func (p Part) IsFile() bool {
	return p.File != ""
}

// Config describes a single HTTP exchange. It is built once by a Builder
// and never changes afterwards; the transport keeps its own copy of the
// evolving target while following redirects.
type Config struct {
	origin  string
	target  target.Target
	method  Method
	body    string
	hasBody bool
	headers []string
	parts   []Part
	follow  bool
	verbose bool
}

// Origin returns the URL as given by the user.
func (c *Config) Origin() string { return c.origin }

// Target returns the host, port and location split from Origin.
func (c *Config) Target() target.Target { return c.target }

// Method returns the request method.
func (c *Config) Method() Method { return c.method }

// Body returns the raw payload and whether one was set.
func (c *Config) Body() (string, bool) { return c.body, c.hasBody }

// Headers returns a copy of the custom "Name: Value" lines in insertion
// order.
func (c *Config) Headers() []string {
	return append([]string(nil), c.headers...)
}

// Parts returns a copy of the multipart parts in the order given.
func (c *Config) Parts() []Part {
	return append([]Part(nil), c.parts...)
}

// Multipart reports whether the request is sent as multipart/form-data.
func (c *Config) Multipart() bool { return len(c.parts) > 0 }

// FollowRedirects reports whether 3xx responses with a Location are
// followed.
func (c *Config) FollowRedirects() bool { return c.follow }

// Verbose reports whether request and response heads are echoed.
func (c *Config) Verbose() bool { return c.verbose }
