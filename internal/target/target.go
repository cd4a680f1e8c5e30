// Package target splits a user-supplied origin string into the host, port
// and request location a raw HTTP/1.1 exchange needs.
package target

import (
	"net"
	"strconv"
	"strings"

	"github.com/flowerfulfort/scurl/internal/errdef"
)

// Default ports implied by the scheme.
const (
	DefaultHTTPPort  = 80
	DefaultHTTPSPort = 443
)

// Target is the decomposed form of an origin string.
type Target struct {
	// Scheme is "http", "https", or empty when the origin had none.
	Scheme string

	// Host is the bare host name or IP literal, without brackets or port.
	Host string

	// Port is the TCP port to dial.
	Port int

	// Authority is host[:port] as it appears in the Host header. The port
	// is only present when the origin spelled it out.
	Authority string

	// Location is the request target: path plus query, always starting
	// with "/".
	Location string
}

// Address returns the host:port pair to dial.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// String reassembles an absolute URL equivalent to the original origin. A
// port is only included when the origin spelled it out.
func (t Target) String() string {
	scheme := t.Scheme
	if scheme == "" {
		scheme = "http"
	}
	authority := t.Authority
	if authority == "" {
		authority = t.Address()
	}
	return scheme + "://" + authority + t.Location
}

// HasScheme reports whether s starts with a recognized scheme token.
func HasScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Split decomposes origin into its scheme-implied port, host and location.
//
// Accepted shapes are scheme://host[:port][/path][?query] and the same
// without a scheme, in which case port 80 is assumed. A fragment is
// dropped. Every failure is a configuration error.
func Split(origin string) (Target, error) {
	if origin == "" {
		return Target{}, errdef.New(errdef.CodeConfig, "host is missing")
	}

	var t Target
	rest := origin
	if i := strings.Index(origin, "://"); i >= 0 {
		scheme := strings.ToLower(origin[:i])
		if scheme != "http" && scheme != "https" {
			return Target{}, errdef.New(errdef.CodeConfig, "unsupported scheme %q in %q", origin[:i], origin)
		}
		t.Scheme = scheme
		rest = origin[i+len("://"):]
	}

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}

	authority, location := rest, "/"
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		authority, location = rest[:i], rest[i:]
		if location[0] == '?' {
			location = "/" + location
		}
	}

	host, port, explicit, err := splitAuthority(authority, defaultPort(t.Scheme))
	if err != nil {
		return Target{}, err
	}

	t.Host = host
	t.Port = port
	t.Location = location
	t.Authority = bracket(host)
	if explicit {
		t.Authority += ":" + strconv.Itoa(port)
	}
	return t, nil
}

// Resolve returns the target that a Location header value ref points to,
// relative to t. Absolute URLs replace the whole target; anything else only
// replaces the location.
func (t Target) Resolve(ref string) (Target, error) {
	switch {
	case HasScheme(ref):
		return Split(ref)
	case strings.HasPrefix(ref, "//"):
		scheme := t.Scheme
		if scheme == "" {
			scheme = "http"
		}
		return Split(scheme + ":" + ref)
	}

	if i := strings.IndexByte(ref, '#'); i >= 0 {
		ref = ref[:i]
	}

	next := t
	switch {
	case ref == "":
	case ref[0] == '/':
		next.Location = ref
	case ref[0] == '?':
		next.Location = pathOf(t.Location) + ref
	default:
		dir := pathOf(t.Location)
		dir = dir[:strings.LastIndexByte(dir, '/')+1]
		next.Location = dir + ref
	}
	return next, nil
}

func splitAuthority(authority string, def int) (host string, port int, explicit bool, err error) {
	if strings.ContainsAny(authority, "@ \t") {
		return "", 0, false, errdef.New(errdef.CodeConfig, "malformed host %q", authority)
	}

	host = authority
	portPart := ""
	switch {
	case strings.HasPrefix(authority, "["):
		end := strings.IndexByte(authority, ']')
		if end < 0 {
			return "", 0, false, errdef.New(errdef.CodeConfig, "unterminated IPv6 literal in %q", authority)
		}
		host = authority[1:end]
		after := authority[end+1:]
		if after != "" {
			if after[0] != ':' {
				return "", 0, false, errdef.New(errdef.CodeConfig, "malformed host %q", authority)
			}
			explicit = true
			portPart = after[1:]
		}
	default:
		if i := strings.IndexByte(authority, ':'); i >= 0 {
			host = authority[:i]
			explicit = true
			portPart = authority[i+1:]
		}
	}

	if host == "" {
		return "", 0, false, errdef.New(errdef.CodeConfig, "host is missing")
	}
	if !explicit {
		return host, def, false, nil
	}

	port, err = parsePort(portPart)
	if err != nil {
		return "", 0, false, errdef.Wrap(errdef.CodeConfig, err, "invalid port in %q", authority)
	}
	return host, port, true, nil
}

// parsePort reads the leading run of decimal digits in s.
func parsePort(s string) (int, error) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, errdef.New(errdef.CodeConfig, "no port digits")
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, err
	}
	if n < 1 || n > 65535 {
		return 0, errdef.New(errdef.CodeConfig, "port %d out of range", n)
	}
	return n, nil
}

func defaultPort(scheme string) int {
	if scheme == "https" {
		return DefaultHTTPSPort
	}
	return DefaultHTTPPort
}

func bracket(host string) string {
	if strings.IndexByte(host, ':') >= 0 {
		return "[" + host + "]"
	}
	return host
}

func pathOf(location string) string {
	if i := strings.IndexByte(location, '?'); i >= 0 {
		return location[:i]
	}
	return location
}
