// Package journal keeps a history of transfers.
package journal

import (
	"context"
	"io"
	"time"

	"stream-fetch/application/http"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

type Outcome string

const (
	Completed Outcome = "completed"
	// Incomplete means the body ended before its declared length.
	Incomplete Outcome = "incomplete"
	// Skipped means the output already held the whole body.
	Skipped Outcome = "skipped"
	Failed  Outcome = "failed"
)

type Entry struct {
	ID         uuid.UUID    `json:"id"`
	URL        string       `json:"url"`
	Output     string       `json:"output"`
	StatusCode int          `json:"status_code"`
	Expected   int64        `json:"expected"` // -1 when unknown
	Received   int64        `json:"received"`
	Outcome    Outcome      `json:"outcome"`
	Error      string       `json:"error,omitempty"`
	Headers    http.Headers `json:"headers,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

func (e Entry) Duration() time.Duration { return e.FinishedAt.Sub(e.StartedAt) }

type Store interface {
	Record(ctx context.Context, entry Entry) error
	// List returns the latest entries first. Zero limit means all.
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// WriteJSON writes entries to w as a JSON array.
func WriteJSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	stream := json.ConfigDefault.BorrowStream(w)
	defer json.ConfigDefault.ReturnStream(stream)

	stream.WriteVal(entries)
	stream.WriteRaw("\n")
	if stream.Error != nil {
		return errors.Wrap(stream.Error, "encoding entries")
	}

	return errors.Wrap(stream.Flush(), "flushing entries")
}
