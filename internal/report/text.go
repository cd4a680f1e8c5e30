package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/flowerfulfort/scurl/internal/history"
)

const (
	doubleLine = "\u2550" // ═
	singleLine = "\u2500" // ─
	lineWidth  = 50
)

// TextReporter outputs plain terminal text.
type TextReporter struct {
	// Detail prints every field of each entry instead of one line per entry.
	Detail bool

	// Now is the reference time for relative ages. Defaults to time.Now.
	Now func() time.Time
}

// Format returns "text".
func (r *TextReporter) Format() string {
	return "text"
}

// Generate writes formatted history entries to w.
func (r *TextReporter) Generate(ctx context.Context, entries []*history.Entry, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	b := &strings.Builder{}
	doubleBar := strings.Repeat(doubleLine, lineWidth)
	singleBar := strings.Repeat(singleLine, lineWidth)

	fmt.Fprintln(b, doubleBar)
	fmt.Fprintln(b, "scurl - Exchange History")
	fmt.Fprintln(b, doubleBar)

	if len(entries) == 0 {
		fmt.Fprintln(b, "No exchanges recorded.")
	}
	for _, e := range entries {
		if r.Detail {
			fmt.Fprintln(b, singleBar)
			writeDetail(b, e, now)
			continue
		}
		writeLine(b, e, now)
	}

	fmt.Fprintln(b, doubleBar)
	fmt.Fprintf(b, "Summary: %d exchange(s), %d failed\n", len(entries), countFailed(entries))
	fmt.Fprintln(b, doubleBar)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeLine(b *strings.Builder, e *history.Entry, now time.Time) {
	fmt.Fprintf(b, "%-8s  %-14s  %-6s  %-16s  %8s  %s\n",
		shortID(e.ID),
		humanize.RelTime(e.CreatedAt, now, "ago", "from now"),
		e.Method,
		outcome(e),
		humanize.Bytes(uint64(e.BodyBytes)),
		e.URL,
	)
}

func writeDetail(b *strings.Builder, e *history.Entry, now time.Time) {
	fmt.Fprintf(b, "ID:        %s\n", e.ID)
	fmt.Fprintf(b, "Time:      %s (%s)\n",
		e.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"),
		humanize.RelTime(e.CreatedAt, now, "ago", "from now"))
	fmt.Fprintf(b, "Request:   %s %s\n", e.Method, e.URL)
	if e.FinalURL != "" && e.FinalURL != e.URL {
		fmt.Fprintf(b, "Final URL: %s\n", e.FinalURL)
	}
	fmt.Fprintf(b, "Status:    %s\n", outcome(e))
	fmt.Fprintf(b, "Redirects: %d\n", e.Redirects)
	if e.ContentType != "" {
		fmt.Fprintf(b, "Body:      %s (%s)\n", humanize.Bytes(uint64(e.BodyBytes)), e.ContentType)
	} else {
		fmt.Fprintf(b, "Body:      %s\n", humanize.Bytes(uint64(e.BodyBytes)))
	}
	fmt.Fprintf(b, "Duration:  %s\n", e.Duration.Round(time.Millisecond))
	if e.Failed() {
		fmt.Fprintf(b, "Error:     [%s] %s\n", e.ErrorCode, e.Error)
	}
}

// outcome is the status line summary, or the error code for exchanges
// that never got a response.
func outcome(e *history.Entry) string {
	if e.StatusCode == 0 {
		if e.Failed() {
			return "error: " + e.ErrorCode
		}
		return "-"
	}
	s := fmt.Sprintf("%d %s", e.StatusCode, e.Reason)
	return strings.TrimSpace(s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
