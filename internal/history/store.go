// Package history records finished exchanges so they can be listed and
// reviewed after the process exits.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/flowerfulfort/scurl/internal/errdef"
	"github.com/flowerfulfort/scurl/internal/transport"
)

// ErrNotFound is returned when no entry has the requested ID.
var ErrNotFound = errors.New("history: entry not found")

// ErrAmbiguous is returned when an ID prefix matches more than one entry.
var ErrAmbiguous = errors.New("history: ambiguous id prefix")

// Entry is one recorded exchange.
type Entry struct {
	ID          string        `json:"id"`
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	FinalURL    string        `json:"final_url"`
	StatusCode  int           `json:"status_code"`
	Reason      string        `json:"reason"`
	Redirects   int           `json:"redirects"`
	BodyBytes   int64         `json:"body_bytes"`
	ContentType string        `json:"content_type"`
	Duration    time.Duration `json:"duration"`
	ErrorCode   string        `json:"error_code,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Failed reports whether the exchange ended with an error.
func (e *Entry) Failed() bool {
	return e.Error != ""
}

// FromResult builds an entry from a finished exchange and the error it
// ended with, if any.
func FromResult(res *transport.Result, err error) *Entry {
	e := &Entry{}
	if res != nil {
		e.Method = string(res.Method)
		e.URL = res.Origin
		e.FinalURL = res.URL
		e.StatusCode = res.StatusCode()
		e.Reason = res.Reason()
		e.Redirects = res.Redirects
		e.BodyBytes = res.BodyBytes
		e.ContentType = res.ContentType()
		e.Duration = res.Duration
	}
	if err != nil {
		e.ErrorCode = string(errdef.CodeOf(err))
		e.Error = errdef.Message(err)
	}
	return e
}

// Store persists and retrieves history entries.
type Store interface {
	Save(ctx context.Context, e *Entry) error
	LoadByID(ctx context.Context, id string) (*Entry, error)
	ResolveID(ctx context.Context, prefix string) (string, error)
	List(ctx context.Context, limit int) ([]*Entry, error)
	Delete(ctx context.Context, id string) error
	Cleanup(ctx context.Context, maxAge time.Duration) (int64, error)
	Close() error
}
