// Package transfer encodes message bodies with the chunked transfer coding.
package transfer

import (
	"bytes"
	"io"
	"strconv"

	"stream-fetch/application/http"
	"stream-fetch/application/util/rule"

	"github.com/pkg/errors"
)

const CodingChunked = "chunked"

// ChunkedWriter frames every Write as one chunk.
// Close writes the last chunk and the trailer section.
type ChunkedWriter struct {
	w         io.Writer
	headerBuf *bytes.Buffer

	extensions []http.Field
	trailers   http.Headers
	closed     bool
}

var _ io.WriteCloser = (*ChunkedWriter)(nil)

// NewChunkedWriter writes chunks to w. trailers are sent on Close.
func NewChunkedWriter(w io.Writer, trailers http.Headers) *ChunkedWriter {
	return &ChunkedWriter{
		w:         w,
		headerBuf: bytes.NewBuffer(nil),
		trailers:  trailers,
	}
}

// SetExtensions sets extensions of the next chunk only.
func (cw *ChunkedWriter) SetExtensions(extensions ...http.Field) {
	cw.extensions = extensions
}

func (cw *ChunkedWriter) Write(p []byte) (n int, err error) {
	if cw.closed {
		return 0, errors.New("write after close")
	}
	if len(p) == 0 {
		// A zero sized chunk ends the body.
		return 0, nil
	}

	if err := cw.writeSize(len(p)); err != nil {
		return 0, errors.Wrap(err, "writing chunk size")
	}

	n, err = cw.w.Write(p)
	if err != nil {
		return n, errors.Wrap(err, "writing chunk data")
	}

	if err := writeLine(cw.w, nil); err != nil {
		return n, errors.Wrap(err, "writing chunk delimiter")
	}

	return n, nil
}

func (cw *ChunkedWriter) Close() error {
	if cw.closed {
		return nil
	}
	cw.closed = true

	if err := cw.writeSize(0); err != nil {
		return errors.Wrap(err, "writing last chunk")
	}

	for _, field := range cw.trailers {
		if err := writeLine(cw.w, field.Text()); err != nil {
			return errors.Wrap(err, "writing trailer")
		}
	}

	return errors.Wrap(writeLine(cw.w, nil), "writing last trailer line")
}

func (cw *ChunkedWriter) writeSize(size int) error {
	buf := cw.headerBuf
	buf.Reset()
	buf.WriteString(strconv.FormatUint(uint64(size), 16))
	for _, ext := range cw.extensions {
		buf.WriteByte(';')
		buf.WriteString(ext.Name)
		if ext.Value != "" {
			buf.WriteByte('=')
			buf.WriteString(ext.Value)
		}
	}
	cw.extensions = nil

	return writeLine(cw.w, buf.Bytes())
}

func writeLine(w io.Writer, line []byte) error {
	if _, err := w.Write(append(line, rule.CRLF...)); err != nil {
		return errors.Wrap(err, "writing line")
	}
	return nil
}
