package report

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/flowerfulfort/scurl/internal/history"
)

// JSONReporter outputs structured JSON.
type JSONReporter struct {
	// Compact outputs single-line JSON when true (no indentation).
	Compact bool
}

// Format returns "json".
func (r *JSONReporter) Format() string {
	return "json"
}

// jsonOutput is the top-level JSON structure.
type jsonOutput struct {
	SchemaVersion string      `json:"schema_version"`
	Tool          string      `json:"tool"`
	Exchanges     []jsonEntry `json:"exchanges"`
	Summary       jsonSummary `json:"summary"`
}

// jsonEntry represents one exchange in JSON.
type jsonEntry struct {
	ID              string     `json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	Request         jsonTarget `json:"request"`
	FinalURL        string     `json:"final_url,omitempty"`
	StatusCode      int        `json:"status_code,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	Redirects       int        `json:"redirects"`
	BodyBytes       int64      `json:"body_bytes"`
	ContentType     string     `json:"content_type,omitempty"`
	DurationSeconds float64    `json:"duration_seconds"`
	Error           *jsonError `json:"error,omitempty"`
}

// jsonTarget represents the request line in JSON.
type jsonTarget struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// jsonError represents a failed exchange in JSON.
type jsonError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// jsonSummary represents the summary in JSON.
type jsonSummary struct {
	TotalExchanges int `json:"total_exchanges"`
	Failed         int `json:"failed"`
}

// Generate writes JSON history entries to w.
func (r *JSONReporter) Generate(ctx context.Context, entries []*history.Entry, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	output := jsonOutput{
		SchemaVersion: "1.0",
		Tool:          "scurl",
		Exchanges:     make([]jsonEntry, 0, len(entries)),
		Summary: jsonSummary{
			TotalExchanges: len(entries),
			Failed:         countFailed(entries),
		},
	}

	for _, e := range entries {
		je := jsonEntry{
			ID:              e.ID,
			CreatedAt:       e.CreatedAt,
			Request:         jsonTarget{Method: e.Method, URL: e.URL},
			StatusCode:      e.StatusCode,
			Reason:          e.Reason,
			Redirects:       e.Redirects,
			BodyBytes:       e.BodyBytes,
			ContentType:     e.ContentType,
			DurationSeconds: e.Duration.Seconds(),
		}
		if e.FinalURL != e.URL {
			je.FinalURL = e.FinalURL
		}
		if e.Failed() {
			je.Error = &jsonError{Code: e.ErrorCode, Message: e.Error}
		}
		output.Exchanges = append(output.Exchanges, je)
	}

	enc := json.NewEncoder(w)
	if !r.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(output)
}
