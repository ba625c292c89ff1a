package http

import (
	"strings"

	"stream-fetch/application/util/rule"

	"github.com/pkg/errors"
)

var (
	ErrInvalidRequestLine = errors.New("invalid request line")
	ErrInvalidStatusLine  = errors.New("invalid status line")
)

// ParseRequest parses a request head as produced by [Request.Text].
func ParseRequest(raw string) (Request, error) {
	line, rest, _ := strings.Cut(raw, string(rule.CRLF))

	tokens := strings.Split(line, string(rule.SP))
	if len(tokens) != 3 || tokens[0] == "" || tokens[1] == "" {
		return Request{}, errors.Wrapf(ErrInvalidRequestLine, "%q", line)
	}

	return Request{
		Method:  tokens[0],
		Path:    tokens[1],
		Version: tokens[2],
		Headers: ParseHeaders(rest),
	}, nil
}

// ParseResponse parses a whole response held in memory.
// Everything after the blank line ending the head is the body.
func ParseResponse(raw string) (Response, error) {
	head, body, found := strings.Cut(raw, string(rule.HeadTerminator))
	if !found {
		head = strings.TrimSuffix(head, string(rule.CRLF))
	}

	line, fields, _ := strings.Cut(head, string(rule.CRLF))

	var resp Response
	if !resp.ParseStatusLine(line) {
		return Response{}, errors.Wrapf(ErrInvalidStatusLine, "%q", line)
	}

	resp.Headers = ParseHeaders(fields)
	if body != "" {
		resp.Body = []byte(body)
	}

	return resp, nil
}
