package journal

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"stream-fetch/application/http"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SQLiteStoreTestSuite struct {
	suite.Suite

	store *SQLiteStore
	clock *clock.Mock
}

func TestSQLiteStoreTestSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreTestSuite))
}

func (s *SQLiteStoreTestSuite) SetupTest() {
	store, err := NewSQLiteStore(":memory:")
	s.Require().NoError(err)
	s.store = store

	s.clock = clock.NewMock()
	s.clock.Set(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
}

func (s *SQLiteStoreTestSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *SQLiteStoreTestSuite) entry(url string, outcome Outcome) Entry {
	started := s.clock.Now()
	s.clock.Add(1500 * time.Millisecond)

	return Entry{
		ID:         uuid.New(),
		URL:        url,
		Output:     "download.bin",
		StatusCode: 200,
		Expected:   10,
		Received:   10,
		Outcome:    outcome,
		Headers:    http.Headers{{Name: "Content-Length", Value: "10"}},
		StartedAt:  started,
		FinishedAt: s.clock.Now(),
	}
}

func (s *SQLiteStoreTestSuite) TestRecordList() {
	ctx := context.Background()

	first := s.entry("http://example.com/a", Completed)
	second := s.entry("http://example.com/b", Skipped)
	s.clock.Add(100 * time.Millisecond)
	third := s.entry("http://example.com/c", Failed)
	third.Error = "connection error: dial example.com:80: refused"

	for _, e := range []Entry{first, second, third} {
		s.Require().NoError(s.store.Record(ctx, e))
	}

	entries, err := s.store.List(ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)

	s.Equal([]uuid.UUID{third.ID, second.ID, first.ID}, []uuid.UUID{entries[0].ID, entries[1].ID, entries[2].ID})
	s.Equal(third.Error, entries[0].Error)
	s.Equal(first.Headers, entries[2].Headers)
	s.True(first.StartedAt.Equal(entries[2].StartedAt))
	s.Equal(1500*time.Millisecond, entries[2].Duration())

	limited, err := s.store.List(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Equal(third.ID, limited[0].ID)
}

func (s *SQLiteStoreTestSuite) TestRecordReplaces() {
	ctx := context.Background()

	e := s.entry("http://example.com/a", Incomplete)
	e.Received = 4
	s.Require().NoError(s.store.Record(ctx, e))

	e.Received = 10
	e.Outcome = Completed
	s.Require().NoError(s.store.Record(ctx, e))

	entries, err := s.store.List(ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(int64(10), entries[0].Received)
	s.Equal(Completed, entries[0].Outcome)
}

func (s *SQLiteStoreTestSuite) TestRecordWithoutID() {
	ctx := context.Background()

	e := s.entry("http://example.com/a", Completed)
	e.ID = uuid.Nil
	e.Headers = nil
	s.Require().NoError(s.store.Record(ctx, e))

	entries, err := s.store.List(ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.NotEqual(uuid.Nil, entries[0].ID)
	s.Empty(entries[0].Headers)
}

func (s *SQLiteStoreTestSuite) TestEmpty() {
	entries, err := s.store.List(context.Background(), 10)
	s.Require().NoError(err)
	s.Empty(entries)
}

func TestSQLiteStoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	e := Entry{ID: uuid.New(), URL: "http://example.com/", Output: "-", Outcome: Completed}
	require.NoError(t, store.Record(context.Background(), e))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e.ID, entries[0].ID)
}

func TestWriteJSON(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	entries := []Entry{{
		ID:       id,
		URL:      "http://example.com/",
		Output:   "index.html",
		Expected: -1,
		Received: 5,
		Outcome:  Completed,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, entries))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, id.String(), decoded[0]["id"])
	assert.Equal(t, "completed", decoded[0]["outcome"])
	assert.NotContains(t, decoded[0], "error")

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
