// Package report provides formatters for exchange history output.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/flowerfulfort/scurl/internal/history"
)

// Reporter generates output in a specific format.
type Reporter interface {
	// Format returns the format name (e.g., "text", "json").
	Format() string

	// Generate writes the formatted history entries to w.
	Generate(ctx context.Context, entries []*history.Entry, w io.Writer) error
}

// New creates a reporter by format name ("text" or "json").
// The format name is case-insensitive.
func New(format string) (Reporter, error) {
	switch strings.ToLower(format) {
	case "text":
		return &TextReporter{}, nil
	case "json":
		return &JSONReporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %q", format)
	}
}

// countFailed counts entries that ended with an error.
func countFailed(entries []*history.Entry) int {
	n := 0
	for _, e := range entries {
		if e.Failed() {
			n++
		}
	}
	return n
}
