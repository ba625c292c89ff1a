package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"stream-fetch/application/util/rule"

	"github.com/pkg/errors"
)

type messageEncoder struct {
	bw *bufio.Writer
}

func (me *messageEncoder) writeLine(line []byte) error {
	if _, err := me.bw.Write(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	if _, err := me.bw.Write(rule.CRLF); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

func (me *messageEncoder) encodeHeaders(headers Headers) error {
	for _, field := range headers {
		if err := me.writeLine(field.Text()); err != nil {
			return errors.Wrap(err, "writing field")
		}
	}

	// Write a empty line as all the headers are written.
	if err := me.writeLine(nil); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

type RequestEncoder struct{ messageEncoder }

func NewRequestEncoder(w io.Writer) *RequestEncoder {
	return &RequestEncoder{messageEncoder{bw: bufio.NewWriter(w)}}
}

// Encode writes the request head. The whole head is flushed at once.
func (re *RequestEncoder) Encode(request Request) error {
	line := bytes.NewBuffer(nil)
	line.WriteString(request.Method)
	line.WriteByte(rule.SP)
	line.WriteString(request.Path)
	line.WriteByte(rule.SP)
	line.WriteString(request.Version)

	if err := re.writeLine(line.Bytes()); err != nil {
		return errors.Wrap(err, "encoding request line")
	}

	if err := re.encodeHeaders(request.Headers); err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing request head")
	}

	return nil
}

type ResponseEncoder struct{ messageEncoder }

func NewResponseEncoder(w io.Writer) *ResponseEncoder {
	return &ResponseEncoder{messageEncoder{bw: bufio.NewWriter(w)}}
}

func (re *ResponseEncoder) Encode(response Response) error {
	line := bytes.NewBuffer(nil)
	line.WriteString(response.Version)
	line.WriteByte(rule.SP)
	line.WriteString(strconv.Itoa(response.StatusCode))
	line.WriteByte(rule.SP)
	line.WriteString(response.StatusMessage)

	if err := re.writeLine(line.Bytes()); err != nil {
		return errors.Wrap(err, "encoding status line")
	}

	if err := re.encodeHeaders(response.Headers); err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	if _, err := re.bw.Write(response.Body); err != nil {
		return errors.Wrap(err, "writing response body")
	}

	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing response")
	}

	return nil
}
