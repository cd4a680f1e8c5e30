package transport

import (
	"fmt"
	"io"
	"net"

	"github.com/fatih/color"
)

// tracer writes the curl-style verbose trace. A disabled tracer drops
// everything.
type tracer struct {
	w       io.Writer
	enabled bool

	info *color.Color
	out  *color.Color
	in   *color.Color
}

func newTracer(w io.Writer, enabled bool) *tracer {
	return &tracer{
		w:       w,
		enabled: enabled,
		info:    color.New(color.FgYellow),
		out:     color.New(color.FgCyan),
		in:      color.New(color.FgGreen),
	}
}

func (t *tracer) infof(format string, args ...any) {
	if !t.enabled {
		return
	}
	t.info.Fprint(t.w, "* ")
	fmt.Fprintf(t.w, format+"\n", args...)
}

// plainf writes an unmarked line.
func (t *tracer) plainf(format string, args ...any) {
	if !t.enabled {
		return
	}
	fmt.Fprintf(t.w, format+"\n", args...)
}

func (t *tracer) connected(host string, remote net.Addr, port int) {
	ip := remote.String()
	if tcp, ok := remote.(*net.TCPAddr); ok {
		ip = tcp.IP.String()
	}
	t.infof("Connected to %s (%s) port %d", host, ip, port)
}

// sent echoes the request head, followed by a bare marker line for the
// blank line that ends it.
func (t *tracer) sent(lines []string) {
	t.echo(t.out, "> ", lines)
}

func (t *tracer) received(lines []string) {
	t.echo(t.in, "< ", lines)
}

func (t *tracer) echo(c *color.Color, marker string, lines []string) {
	if !t.enabled {
		return
	}
	for _, l := range lines {
		c.Fprint(t.w, marker)
		fmt.Fprintln(t.w, l)
	}
	c.Fprintln(t.w, marker)
}
