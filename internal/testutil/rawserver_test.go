package testutil

import (
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func roundTrip(t *testing.T, addr, raw string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := io.WriteString(conn, raw); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(resp)
}

func TestRawServer_RecordsRequest(t *testing.T) {
	srv := NewRawServer(t, Static(Response("200 OK", "text/plain", "hi")))
	addr := strings.TrimPrefix(srv.URL(), "http://")

	resp := roundTrip(t, addr, "POST /p HTTP/1.1\r\nHost: x\r\ncontent-length: 3\r\n\r\nabc")

	want := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 2\r\n\r\nhi"
	if resp != want {
		t.Errorf("response = %q, want %q", resp, want)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}
	if reqs[0].Line != "POST /p HTTP/1.1" {
		t.Errorf("Line = %q", reqs[0].Line)
	}
	if got := reqs[0].Header("Content-Length"); got != "3" {
		t.Errorf("Header(Content-Length) = %q, want %q", got, "3")
	}
	if string(reqs[0].Body) != "abc" {
		t.Errorf("Body = %q, want %q", reqs[0].Body, "abc")
	}
	if !strings.HasSuffix(string(reqs[0].Raw), "\r\n\r\nabc") {
		t.Errorf("Raw = %q", reqs[0].Raw)
	}
}

func TestRawServer_Sequence(t *testing.T) {
	srv := NewRawServer(t, Sequence("first", "second"))
	addr := strings.TrimPrefix(srv.URL(), "http://")

	var got []string
	for i := 0; i < 3; i++ {
		got = append(got, roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n"))
	}
	if strings.Join(got, ",") != "first,second,second" {
		t.Errorf("responses = %v", got)
	}
	if srv.Connections() != 3 {
		t.Errorf("Connections() = %d, want 3", srv.Connections())
	}
}

func TestRedirect(t *testing.T) {
	want := "HTTP/1.1 301 Moved\r\nLocation: /x\r\nContent-Length: 0\r\n\r\n"
	if got := Redirect("301 Moved", "/x"); got != want {
		t.Errorf("Redirect = %q, want %q", got, want)
	}
}

func TestClosedAddr(t *testing.T) {
	addr := ClosedAddr(t)
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err == nil {
		conn.Close()
		t.Fatalf("dial %s succeeded, want refusal", addr)
	}
}
