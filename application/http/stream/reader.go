// Package stream rebuilds an HTTP/1.1 response from a transport delivering
// bytes in fragments of any size. Nothing is buffered beyond what the
// current read step needs, and bytes received past a frame boundary are
// carried over to the next step.
package stream

import (
	"bytes"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"stream-fetch/application/http"
	"stream-fetch/application/util/rule"
	iolib "stream-fetch/lib/io"
	"stream-fetch/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// State is the read step a [Reader] expects next.
type State uint8

const (
	AwaitingStatusLine State = iota
	AwaitingHeaders
	AwaitingBody
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingStatusLine:
		return "awaiting status line"
	case AwaitingHeaders:
		return "awaiting headers"
	case AwaitingBody:
		return "awaiting body"
	case Done:
		return "done"
	}
	return "unknown"
}

// Reader reads a single response. It owns the transport for the lifetime
// of the response but never closes it.
type Reader struct {
	t  transport.Transport
	ur *iolib.UntilReader

	state      State
	statusLine string
	trailers   http.Headers
	headRead   uint

	logger   *slog.Logger
	clock    clock.Clock
	opts     Options
	progress rate.Sometimes
}

func NewReader(t transport.Transport, logger *slog.Logger, clock clock.Clock, opts Options) *Reader {
	opts.setDefaults()

	return &Reader{
		t:        t,
		ur:       iolib.NewUntilReaderSize(transport.NewReader(t), opts.ReadSize),
		logger:   logger,
		clock:    clock,
		opts:     opts,
		progress: rate.Sometimes{First: 1, Interval: time.Second},
	}
}

func (r *Reader) State() State { return r.state }

// StatusLine returns the status line read so far, without CRLF.
func (r *Reader) StatusLine() string { return r.statusLine }

// Trailers returns the trailer fields of a chunked body.
func (r *Reader) Trailers() http.Headers { return r.trailers }

// Pending returns how many received bytes have not been consumed yet.
func (r *Reader) Pending() int { return r.ur.Buffered() }

func (r *Reader) expect(s State) error {
	if r.state != s {
		return errors.Wrapf(ErrOutOfOrder, "expected %s, got %s", s, r.state)
	}
	return nil
}

// readHeadLine frames one CRLF terminated line of the head and returns it
// without the terminator.
func (r *Reader) readHeadLine() (string, error) {
	limit := uint(0)
	if r.opts.MaxHeadLength > 0 {
		if r.headRead >= r.opts.MaxHeadLength {
			return "", ErrHeadTooLarge
		}
		limit = r.opts.MaxHeadLength - r.headRead
	}

	line, err := r.ur.ReadUntilLimit(rule.CRLF, limit)
	if err != nil {
		switch {
		case errors.Is(err, iolib.ErrLimitExceeded):
			return "", ErrHeadTooLarge
		case errors.Is(err, io.EOF):
			return "", errors.Wrapf(ErrIncompleteHead, "got %q", line)
		}
		return "", err
	}

	r.headRead += uint(len(line))
	return string(line[:len(line)-len(rule.CRLF)]), nil
}

// ReadStatusLine reads the first line of the response.
func (r *Reader) ReadStatusLine() (string, error) {
	if err := r.expect(AwaitingStatusLine); err != nil {
		return "", err
	}

	line, err := r.readHeadLine()
	if err != nil {
		return "", errors.Wrap(err, "reading status line")
	}

	r.statusLine = line
	r.state = AwaitingHeaders
	return line, nil
}

// ReadHeaders reads up to the blank line ending the head and returns the
// header lines joined by CRLF. The status line is read first if needed and
// kept apart, see [Reader.StatusLine].
func (r *Reader) ReadHeaders() (string, error) {
	if r.state == AwaitingStatusLine {
		if _, err := r.ReadStatusLine(); err != nil {
			return "", err
		}
	}
	if err := r.expect(AwaitingHeaders); err != nil {
		return "", err
	}

	lines := make([]string, 0)
	for {
		line, err := r.readHeadLine()
		if err != nil {
			return "", errors.Wrap(err, "reading headers")
		}
		if line == "" {
			break
		}
		lines = append(lines, line)
	}

	r.state = AwaitingBody
	return strings.Join(lines, string(rule.CRLF)), nil
}

// ReadHead reads the status line and headers into a [http.Response].
func (r *Reader) ReadHead() (http.Response, error) {
	block, err := r.ReadHeaders()
	if err != nil {
		return http.Response{}, err
	}

	var resp http.Response
	if !resp.ParseStatusLine(r.statusLine) {
		return http.Response{}, errors.Wrapf(http.ErrInvalidStatusLine, "%q", r.statusLine)
	}
	resp.Headers = http.ParseHeaders(block)

	return resp, nil
}

// ReadContent reads a body delimited by length, or by the end of the stream
// when length is zero or less, and hands it to sink in a single write.
// A stream ending before length bytes is logged and what arrived is kept.
func (r *Reader) ReadContent(length int64, sink io.Writer) ([]byte, error) {
	if err := r.expect(AwaitingBody); err != nil {
		return nil, err
	}
	r.state = Done

	var body []byte
	if length <= 0 {
		rest, err := r.t.ReceiveAll()
		if err != nil {
			return nil, errors.Wrap(err, "reading content")
		}
		body = append(r.ur.Next(r.ur.Buffered()), rest...)
	} else {
		lr := iolib.LimitReader(r.ur, uint(length))
		b, err := io.ReadAll(lr)
		if err != nil {
			return nil, errors.Wrap(err, "reading content")
		}
		if lr.Short() {
			r.logger.Warn("content length mismatch", "expected", length, "received", len(b))
		}
		body = b
	}

	if sink != nil {
		if _, err := sink.Write(body); err != nil {
			return body, errors.Wrap(err, "writing to sink")
		}
	}

	return body, nil
}

// fill receives more bytes into the pending buffer.
// An error is returned only when nothing arrived.
func (r *Reader) fill() error {
	n, err := r.ur.Fill()
	if n > 0 {
		return nil
	}
	return err
}

// ReadChunkedContent decodes a chunked body into sink. Payload is written
// whenever FlushThreshold bytes accumulate, and once more at the end.
// A nil sink discards the payload.
func (r *Reader) ReadChunkedContent(sink io.Writer) error {
	if err := r.expect(AwaitingBody); err != nil {
		return err
	}
	r.state = Done
	if sink == nil {
		sink = io.Discard
	}

	acc := bytes.NewBuffer(make([]byte, 0, r.opts.FlushThreshold))
	flush := func() error {
		if acc.Len() == 0 {
			return nil
		}
		defer acc.Reset()
		if _, err := sink.Write(acc.Bytes()); err != nil {
			return errors.Wrap(err, "writing to sink")
		}
		return nil
	}
	// Payload decoded before a failure is still delivered.
	fail := func(err error) error {
		if ferr := flush(); ferr != nil {
			return ferr
		}
		return err
	}

	for {
		size, err := r.readChunkSize()
		if err != nil {
			return fail(err)
		}
		if size == 0 {
			break
		}

		for remaining := size; remaining > 0; {
			if r.ur.Buffered() == 0 {
				if err := r.fill(); err != nil {
					if errors.Is(err, io.EOF) {
						err = errors.Wrapf(ErrTruncatedChunk, "%d bytes missing", remaining)
					}
					return fail(errors.Wrap(err, "reading chunk data"))
				}
			}

			b := r.ur.Next(int(min(remaining, int64(r.ur.Buffered()))))
			acc.Write(b)
			remaining -= int64(len(b))

			if acc.Len() >= r.opts.FlushThreshold {
				if err := flush(); err != nil {
					return err
				}
			}
		}

		if err := r.ensureCRLF(); err != nil {
			return fail(err)
		}
	}

	if err := flush(); err != nil {
		return err
	}

	return r.readTrailers()
}

// readChunkSize reads a chunk size line. Chunk extensions are ignored.
func (r *Reader) readChunkSize() (int64, error) {
	line, err := r.ur.ReadUntilLimit([]byte{rule.LF}, r.opts.MaxChunkLineLength)
	if err != nil {
		switch {
		case errors.Is(err, iolib.ErrLimitExceeded):
			return 0, errors.Wrapf(ErrMalformedChunk, "size line longer than %d bytes", r.opts.MaxChunkLineLength)
		case errors.Is(err, io.EOF):
			return 0, errors.Wrapf(ErrMalformedChunk, "stream closed after %d bytes of size line", len(line))
		}
		return 0, errors.Wrap(err, "reading chunk size")
	}

	raw, _, _ := bytes.Cut(line, []byte{';'})
	raw = bytes.TrimFunc(raw, rule.IsLineSpace)
	if len(raw) == 0 {
		return 0, ErrMalformedChunk
	}

	size, err := strconv.ParseUint(string(raw), 16, 63)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedChunk, "%q", raw)
	}

	return int64(size), nil
}

func (r *Reader) ensureCRLF() error {
	for r.ur.Buffered() < len(rule.CRLF) {
		if err := r.fill(); err != nil {
			if errors.Is(err, io.EOF) {
				return errors.Wrap(ErrMissingChunkCRLF, "stream closed")
			}
			return errors.Wrap(err, "reading chunk delimiter")
		}
	}

	if b := r.ur.Next(len(rule.CRLF)); !bytes.Equal(b, rule.CRLF) {
		return errors.Wrapf(ErrMissingChunkCRLF, "got %q", b)
	}
	return nil
}

// readTrailers reads fields after the last chunk. A stream closed instead
// of the final blank line is accepted.
func (r *Reader) readTrailers() error {
	trailers := make(http.Headers, 0)
	defer func() { r.trailers = trailers }()

	for {
		line, err := r.ur.ReadUntilLimit(rule.CRLF, r.opts.MaxHeadLength)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.logger.Debug("stream closed before end of trailers")
				return nil
			}
			if errors.Is(err, iolib.ErrLimitExceeded) {
				return errors.Wrap(ErrHeadTooLarge, "reading trailers")
			}
			return errors.Wrap(err, "reading trailers")
		}

		if len(line) == len(rule.CRLF) {
			return nil
		}

		if f, ok := http.ParseField(string(line)); ok {
			trailers.Set(f.Name, f.Value)
		}
	}
}
