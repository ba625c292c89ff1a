package journal

import (
	"context"
	"database/sql"
	"time"

	"stream-fetch/application/http"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Fixed width so that the text columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements [Store] on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at path, creating the schema if needed.
// Use ":memory:" for a throwaway journal.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	// A memory database lives as long as its connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}

	schema := `
		CREATE TABLE IF NOT EXISTS transfers (
			id           TEXT PRIMARY KEY,
			url          TEXT NOT NULL,
			output       TEXT NOT NULL,
			status_code  INTEGER NOT NULL DEFAULT 0,
			expected     INTEGER NOT NULL DEFAULT -1,
			received     INTEGER NOT NULL DEFAULT 0,
			outcome      TEXT NOT NULL,
			error        TEXT NOT NULL DEFAULT '',
			headers_json TEXT NOT NULL DEFAULT '[]',
			started_at   TEXT NOT NULL,
			finished_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transfers_started_at ON transfers(started_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}

	return &SQLiteStore{db: db}, nil
}

// Record inserts entry, replacing an earlier entry with the same ID.
func (s *SQLiteStore) Record(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	headers := entry.Headers
	if headers == nil {
		headers = http.Headers{}
	}
	headersJSON, err := json.ConfigDefault.MarshalToString(headers)
	if err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	query := `
		INSERT INTO transfers (id, url, output, status_code, expected, received, outcome, error, headers_json, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url          = excluded.url,
			output       = excluded.output,
			status_code  = excluded.status_code,
			expected     = excluded.expected,
			received     = excluded.received,
			outcome      = excluded.outcome,
			error        = excluded.error,
			headers_json = excluded.headers_json,
			started_at   = excluded.started_at,
			finished_at  = excluded.finished_at
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID.String(),
		entry.URL,
		entry.Output,
		entry.StatusCode,
		entry.Expected,
		entry.Received,
		string(entry.Outcome),
		entry.Error,
		headersJSON,
		entry.StartedAt.UTC().Format(timeLayout),
		entry.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return errors.Wrap(err, "recording transfer")
	}

	return nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT id, url, output, status_code, expected, received, outcome, error, headers_json, started_at, finished_at
		FROM transfers
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing transfers")
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			entry                 Entry
			id, outcome           string
			headersJSON           string
			startedAt, finishedAt string
		)
		if err := rows.Scan(
			&id, &entry.URL, &entry.Output, &entry.StatusCode,
			&entry.Expected, &entry.Received, &outcome, &entry.Error,
			&headersJSON, &startedAt, &finishedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scanning transfer")
		}

		if entry.ID, err = uuid.Parse(id); err != nil {
			return nil, errors.Wrapf(err, "parsing id %q", id)
		}
		entry.Outcome = Outcome(outcome)

		if err := json.ConfigDefault.UnmarshalFromString(headersJSON, &entry.Headers); err != nil {
			return nil, errors.Wrap(err, "decoding headers")
		}
		if entry.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, errors.Wrapf(err, "parsing started_at %q", startedAt)
		}
		if entry.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
			return nil, errors.Wrapf(err, "parsing finished_at %q", finishedAt)
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating transfers")
	}

	return entries, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
