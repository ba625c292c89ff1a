package stream

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"testing"

	"stream-fetch/application/http"
	"stream-fetch/transport"
	"stream-fetch/transport/transporttest"

	"github.com/benbjohnson/clock"
	"github.com/dchest/uniuri"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ReaderTestSuite struct {
	suite.Suite

	logger *slog.Logger
	clock  clock.Clock
}

func TestReaderTestSuite(t *testing.T) {
	suite.Run(t, new(ReaderTestSuite))
}

func (s *ReaderTestSuite) SetupTest() {
	s.logger = slog.New(slog.DiscardHandler)
	s.clock = clock.New()
}

func (s *ReaderTestSuite) newReader(t transport.Transport, opts Options) *Reader {
	return NewReader(t, s.logger, s.clock, opts)
}

// writes records every write to the sink separately.
type writes [][]byte

func (w *writes) Write(p []byte) (int, error) {
	*w = append(*w, bytes.Clone(p))
	return len(p), nil
}

func (w writes) joined() []byte { return bytes.Join(w, nil) }

func (s *ReaderTestSuite) TestReadHeaders() {
	raw := "" +
		"HTTP/1.1 200 OK\r\n" +
		"Content-Type:   text/html  \r\n" +
		"Content-Length: 5\r\n" +
		"\r\n" +
		"Hello"

	r := s.newReader(transporttest.NewScripted(transporttest.Data(raw)...), DefaultOptions)

	block, err := r.ReadHeaders()
	s.Require().NoError(err)
	s.Equal("Content-Type:   text/html  \r\nContent-Length: 5", block)
	s.Equal("HTTP/1.1 200 OK", r.StatusLine())
	s.Equal(AwaitingBody, r.State())
	s.Equal(5, r.Pending())

	headers := http.ParseHeaders(block)
	s.Equal("text/html", headers.Get("Content-Type"))
}

func (s *ReaderTestSuite) TestReadHead() {
	raw := "HTTP/1.1 204 No Content\r\n\r\n"
	r := s.newReader(transporttest.NewScripted(transporttest.Data(raw)...), DefaultOptions)

	status, err := r.ReadStatusLine()
	s.Require().NoError(err)
	s.Equal("HTTP/1.1 204 No Content", status)

	block, err := r.ReadHeaders()
	s.Require().NoError(err)
	s.Empty(block)

	r = s.newReader(transporttest.NewScripted(transporttest.Data(raw)...), DefaultOptions)
	resp, err := r.ReadHead()
	s.Require().NoError(err)
	s.Equal(204, resp.StatusCode)
	s.Equal("No Content", resp.StatusMessage)
	s.Empty(resp.Headers)
}

func (s *ReaderTestSuite) TestReadHeadInvalidStatusLine() {
	r := s.newReader(transporttest.NewScripted(transporttest.Data("SSH-2.0\r\n\r\n")...), DefaultOptions)
	_, err := r.ReadHead()
	s.ErrorIs(err, http.ErrInvalidStatusLine)
}

func (s *ReaderTestSuite) TestIncompleteHead() {
	r := s.newReader(transporttest.NewScripted(transporttest.Data("HTTP/1.1 200 OK\r\nHost: a\r\n")...), DefaultOptions)

	_, err := r.ReadHeaders()
	s.ErrorIs(err, ErrIncompleteHead)
	s.ErrorIs(err, ErrProtocol)
}

func (s *ReaderTestSuite) TestHeadTooLarge() {
	raw := "HTTP/1.1 200 OK\r\nX-Big: " + uniuri.NewLen(200) + "\r\n\r\n"
	opts := DefaultOptions
	opts.MaxHeadLength = 100
	opts.ReadSize = 16

	r := s.newReader(transporttest.NewScripted(transporttest.Data(raw)...), opts)
	_, err := r.ReadHeaders()
	s.ErrorIs(err, ErrHeadTooLarge)
	s.ErrorIs(err, ErrProtocol)
}

func (s *ReaderTestSuite) TestOutOfOrder() {
	r := s.newReader(transporttest.NewScripted(transporttest.Data("HTTP/1.1 200 OK\r\n\r\n")...), DefaultOptions)

	_, err := r.ReadContent(5, nil)
	s.ErrorIs(err, ErrOutOfOrder)
	s.ErrorIs(r.ReadChunkedContent(nil), ErrOutOfOrder)
	_, err = r.ReadSpecifiedChunkedContent(5, nil)
	s.ErrorIs(err, ErrOutOfOrder)

	_, err = r.ReadHeaders()
	s.Require().NoError(err)

	_, err = r.ReadStatusLine()
	s.ErrorIs(err, ErrOutOfOrder)
	_, err = r.ReadHeaders()
	s.ErrorIs(err, ErrOutOfOrder)

	_, err = r.ReadContent(0, nil)
	s.Require().NoError(err)
	s.Equal(Done, r.State())

	_, err = r.ReadContent(0, nil)
	s.ErrorIs(err, ErrOutOfOrder)
}

func (s *ReaderTestSuite) TestReadContentSingleWrite() {
	steps := transporttest.Data(
		"HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nHel",
		"lo",
	)
	r := s.newReader(transporttest.NewScripted(steps...), DefaultOptions)

	_, err := r.ReadHeaders()
	s.Require().NoError(err)

	var w writes
	body, err := r.ReadContent(5, &w)
	s.Require().NoError(err)
	s.Equal([]byte("Hello"), body)
	s.Equal(writes{[]byte("Hello")}, w)
}

func (s *ReaderTestSuite) TestReadContentDrain() {
	steps := transporttest.Data("HTTP/1.0 200 OK\r\n\r\nab", "cd", "ef")
	r := s.newReader(transporttest.NewScripted(steps...), DefaultOptions)

	_, err := r.ReadHeaders()
	s.Require().NoError(err)

	var w writes
	body, err := r.ReadContent(0, &w)
	s.Require().NoError(err)
	s.Equal([]byte("abcdef"), body)
	s.Len(w, 1)
}

func (s *ReaderTestSuite) TestReadContentShort() {
	steps := transporttest.Data("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nabc")
	r := s.newReader(transporttest.NewScripted(steps...), DefaultOptions)

	_, err := r.ReadHeaders()
	s.Require().NoError(err)

	body, err := r.ReadContent(10, nil)
	s.Require().NoError(err)
	s.Equal([]byte("abc"), body)
}

func (s *ReaderTestSuite) TestReadContentTransferError() {
	steps := append(
		transporttest.Data("HTTP/1.1 200 OK\r\n\r\nabc"),
		transporttest.Step{Err: &transport.OpError{Op: "read", Kind: transport.ErrTransfer}},
	)
	r := s.newReader(transporttest.NewScripted(steps...), DefaultOptions)

	_, err := r.ReadHeaders()
	s.Require().NoError(err)

	_, err = r.ReadContent(10, nil)
	s.ErrorIs(err, transport.ErrTransfer)
}

func (s *ReaderTestSuite) TestReadChunkedContent() {
	testcases := []struct {
		desc     string
		input    string
		expected string
		trailers http.Headers
		wantErr  error
	}{
		{
			desc:     "wikipedia",
			input:    "4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n",
			expected: "Wikipedia",
			trailers: http.Headers{},
		},
		{
			desc:     "upper hex and extension",
			input:    "A;name=value\r\n0123456789\r\n0\r\n\r\n",
			expected: "0123456789",
			trailers: http.Headers{},
		},
		{
			desc:     "trailers",
			input:    "3\r\nabc\r\n0\r\nExpires: never\r\nX-Sum:  1 \r\n\r\n",
			expected: "abc",
			trailers: http.Headers{{Name: "Expires", Value: "never"}, {Name: "X-Sum", Value: "1"}},
		},
		{
			desc:     "closed instead of final blank line",
			input:    "3\r\nabc\r\n0\r\n",
			expected: "abc",
			trailers: http.Headers{},
		},
		{
			desc:     "missing CRLF after data",
			input:    "3\r\nabcX\r\n0\r\n\r\n",
			expected: "abc",
			wantErr:  ErrMissingChunkCRLF,
		},
		{
			desc:     "closed before CRLF",
			input:    "3\r\nabc",
			expected: "abc",
			wantErr:  ErrMissingChunkCRLF,
		},
		{
			desc:    "empty size line",
			input:   "\r\nabc\r\n",
			wantErr: ErrMalformedChunk,
		},
		{
			desc:    "invalid hex",
			input:   "zz\r\nabc\r\n",
			wantErr: ErrMalformedChunk,
		},
		{
			desc:    "signed size",
			input:   "-1\r\nabc\r\n",
			wantErr: ErrMalformedChunk,
		},
		{
			desc:     "closed inside data",
			input:    "5\r\nab",
			expected: "ab",
			wantErr:  ErrTruncatedChunk,
		},
		{
			desc:    "closed before size line",
			input:   "",
			wantErr: ErrMalformedChunk,
		},
	}

	for _, tc := range testcases {
		for _, size := range []int{1, 3, len(tc.input) + 1} {
			s.Run(fmt.Sprintf("%s/fragment %d", tc.desc, size), func() {
				head := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n"
				steps := transporttest.Split([]byte(head+tc.input), size)
				r := s.newReader(transporttest.NewScripted(steps...), DefaultOptions)

				_, err := r.ReadHeaders()
				s.Require().NoError(err)

				var buf bytes.Buffer
				err = r.ReadChunkedContent(&buf)
				s.Equal(tc.expected, buf.String())
				if tc.wantErr != nil {
					s.ErrorIs(err, tc.wantErr)
					s.ErrorIs(err, ErrProtocol)
					return
				}

				s.Require().NoError(err)
				s.Equal(tc.trailers, r.Trailers())
			})
		}
	}
}

func (s *ReaderTestSuite) TestChunkedFlushThreshold() {
	data := []byte(uniuri.NewLen(30_000))

	var raw bytes.Buffer
	for _, size := range []int{20_000, 100, 9_900} {
		raw.WriteString(strconv.FormatInt(int64(size), 16) + "\r\n")
		raw.Write(data[:size])
		raw.WriteString("\r\n")
		data = data[size:]
	}
	raw.WriteString("0\r\n\r\n")

	opts := DefaultOptions
	r := s.newReader(transporttest.NewScripted(transporttest.Split(raw.Bytes(), 1000)...), opts)
	r.state = AwaitingBody

	var w writes
	s.Require().NoError(r.ReadChunkedContent(&w))

	s.Require().Greater(len(w), 1)
	for _, b := range w[:len(w)-1] {
		s.GreaterOrEqual(len(b), opts.FlushThreshold)
		s.Less(len(b), opts.FlushThreshold+1000)
	}
	s.Len(w.joined(), 30_000)
}

func (s *ReaderTestSuite) TestSinkError() {
	sinkErr := errors.New("disk full")
	sink := WriterFunc(func([]byte) error { return sinkErr })

	r := s.newReader(transporttest.NewScripted(transporttest.Data("4\r\nWiki\r\n0\r\n\r\n")...), DefaultOptions)
	r.state = AwaitingBody
	s.ErrorIs(r.ReadChunkedContent(sink), sinkErr)

	r = s.newReader(transporttest.NewScripted(transporttest.Data("Wiki")...), DefaultOptions)
	r.state = AwaitingBody
	_, err := r.ReadContent(4, sink)
	s.ErrorIs(err, sinkErr)
}

func (s *ReaderTestSuite) TestChunkSizeLineTooLong() {
	line := bytes.Repeat([]byte("f"), 64<<10)
	t := transporttest.NewScripted(transporttest.Split(line, 4096)...)
	r := s.newReader(t, DefaultOptions)
	r.state = AwaitingBody

	var buf bytes.Buffer
	err := r.ReadChunkedContent(&buf)
	s.ErrorIs(err, ErrMalformedChunk)
	s.NotContains(err.Error(), "ffff")
	s.Empty(buf.Bytes())
	s.LessOrEqual(t.Receives(), 2, "gave up soon after the limit")
}

func (s *ReaderTestSuite) TestNilSink() {
	r := s.newReader(transporttest.NewScripted(transporttest.Data("4\r\nWiki\r\n0\r\nX-A: 1\r\n\r\n")...), DefaultOptions)
	r.state = AwaitingBody
	s.Require().NoError(r.ReadChunkedContent(nil))
	s.Equal("1", r.Trailers().Get("X-A"))

	opts := DefaultOptions
	opts.BulkChunkSize = 3
	r = s.newReader(transporttest.NewScripted(transporttest.Data("Wiki", "pedia")...), opts)
	r.state = AwaitingBody
	n, err := r.ReadSpecifiedChunkedContent(9, nil)
	s.Require().NoError(err)
	s.Equal(int64(9), n)
}

// Reading the same response split at every fragment size gives the same result.
func (s *ReaderTestSuite) TestFragmentationEquivalence() {
	body := uniuri.NewLen(5000)
	chunked := fmt.Sprintf("%x\r\n%s\r\n%x\r\n%s\r\n0\r\n\r\n", 3000, body[:3000], 2000, body[3000:])

	testcases := []struct {
		desc string
		raw  string
		read func(r *Reader, w *bytes.Buffer) error
	}{
		{
			desc: "content length",
			raw:  "HTTP/1.1 200 OK\r\nContent-Length: 5000\r\nContent-Type: text/plain\r\n\r\n" + body,
			read: func(r *Reader, w *bytes.Buffer) error {
				_, err := r.ReadContent(5000, w)
				return err
			},
		},
		{
			desc: "chunked",
			raw:  "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" + chunked,
			read: func(r *Reader, w *bytes.Buffer) error { return r.ReadChunkedContent(w) },
		},
		{
			desc: "bulk",
			raw:  "HTTP/1.1 200 OK\r\nContent-Length: 5000\r\n\r\n" + body,
			read: func(r *Reader, w *bytes.Buffer) error {
				_, err := r.ReadSpecifiedChunkedContent(5000, w)
				return err
			},
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			var (
				firstHead string
				firstBody []byte
			)
			for _, size := range []int{len(tc.raw), 1, 2, 7, 512, 4097} {
				r := s.newReader(transporttest.NewScripted(transporttest.Split([]byte(tc.raw), size)...), DefaultOptions)

				head, err := r.ReadHeaders()
				s.Require().NoError(err)

				var w bytes.Buffer
				s.Require().NoError(tc.read(r, &w))

				if firstBody == nil {
					firstHead, firstBody = head, w.Bytes()
					s.Equal(body, w.String())
					continue
				}
				s.Equal(firstHead, head, "fragment size %d", size)
				s.Equal(firstBody, w.Bytes(), "fragment size %d", size)
			}
		})
	}
}
