package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowerfulfort/scurl/internal/errdef"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		origin    string
		host      string
		port      int
		authority string
		location  string
	}{
		{"http default port", "http://example.com", "example.com", 80, "example.com", "/"},
		{"https default port", "https://example.com/", "example.com", 443, "example.com", "/"},
		{"explicit port overrides scheme", "https://example.com:8443/a", "example.com", 8443, "example.com:8443", "/a"},
		{"no scheme no port", "example.com/x/y", "example.com", 80, "example.com", "/x/y"},
		{"no scheme with port", "localhost:8080", "localhost", 8080, "localhost:8080", "/"},
		{"query kept", "http://h/search?q=go&x=1", "h", 80, "h", "/search?q=go&x=1"},
		{"query without path", "http://h?q=1", "h", 80, "h", "/?q=1"},
		{"fragment dropped", "http://h/page#top", "h", 80, "h", "/page"},
		{"trailing slash kept", "http://h/dir/", "h", 80, "h", "/dir/"},
		{"port digit run", "http://h:8080abc/p", "h", 8080, "h:8080", "/p"},
		{"ipv6 literal", "http://[::1]:9000/p", "::1", 9000, "[::1]:9000", "/p"},
		{"upper case scheme", "HTTPS://h/", "h", 443, "h", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.origin)
			require.NoError(t, err)
			assert.Equal(t, tt.host, got.Host)
			assert.Equal(t, tt.port, got.Port)
			assert.Equal(t, tt.authority, got.Authority)
			assert.Equal(t, tt.location, got.Location)
		})
	}
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		name   string
		origin string
	}{
		{"empty", ""},
		{"scheme only", "http://"},
		{"empty host with path", "http:///path"},
		{"unsupported scheme", "ftp://example.com"},
		{"missing port digits", "http://h:/p"},
		{"non numeric port", "http://h:abc"},
		{"port out of range", "http://h:70000"},
		{"port zero", "http://h:0"},
		{"userinfo", "http://user:pw@h/"},
		{"unterminated ipv6", "http://[::1/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.origin)
			require.Error(t, err)
			assert.True(t, errdef.Is(err, errdef.CodeConfig), "want config error, got %v", err)
		})
	}
}

func TestSplit_RoundTrip(t *testing.T) {
	origins := []string{
		"http://example.com",
		"http://example.com:8080/a/b?c=d",
		"https://example.com/index.html",
		"https://10.0.0.1:4443/",
		"http://[2001:db8::1]:80/x",
	}
	for _, origin := range origins {
		first, err := Split(origin)
		require.NoError(t, err)

		second, err := Split(first.String())
		require.NoError(t, err)

		assert.Equal(t, first.Host, second.Host, origin)
		assert.Equal(t, first.Port, second.Port, origin)
		assert.Equal(t, first.Location, second.Location, origin)
	}
}

func TestString_OmitsImpliedPort(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{"http://example.com/new", "http://example.com/new"},
		{"example.com", "http://example.com/"},
		{"https://example.com/a?b=c", "https://example.com/a?b=c"},
		{"http://example.com:80/x", "http://example.com:80/x"},
		{"http://[2001:db8::1]/x", "http://[2001:db8::1]/x"},
	}
	for _, tt := range tests {
		tg, err := Split(tt.origin)
		require.NoError(t, err)
		assert.Equal(t, tt.want, tg.String(), tt.origin)
	}
}

func TestResolve(t *testing.T) {
	base, err := Split("http://example.com:8080/docs/guide/intro?x=1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		ref      string
		host     string
		port     int
		location string
	}{
		{"absolute url", "https://other.org/new", "other.org", 443, "/new"},
		{"scheme relative", "//cdn.example.com/a", "cdn.example.com", 80, "/a"},
		{"absolute path", "/login", "example.com", 8080, "/login"},
		{"relative path", "next", "example.com", 8080, "/docs/guide/next"},
		{"query only", "?page=2", "example.com", 8080, "/docs/guide/intro?page=2"},
		{"empty keeps location", "", "example.com", 8080, "/docs/guide/intro?x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.Resolve(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.host, got.Host)
			assert.Equal(t, tt.port, got.Port)
			assert.Equal(t, tt.location, got.Location)
		})
	}
}

func TestHasScheme(t *testing.T) {
	assert.True(t, HasScheme("http://a"))
	assert.True(t, HasScheme("HTTPS://a"))
	assert.False(t, HasScheme("httpbin.org/get"))
	assert.False(t, HasScheme("/http://a"))
}
