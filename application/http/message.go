package http

import (
	"bytes"
	"strconv"
	"strings"

	"stream-fetch/application/util/rule"
)

const (
	Version11     = "HTTP/1.1"
	versionPrefix = "HTTP/"
)

type Request struct {
	Method  string
	Path    string
	Version string
	Headers Headers
}

// Text serializes the request line and headers followed by a blank line.
func (r Request) Text() string {
	buf := bytes.NewBuffer(nil)
	// Writing to a bytes.Buffer does not fail.
	_ = NewRequestEncoder(buf).Encode(r)
	return buf.String()
}

type Response struct {
	Version       string
	StatusCode    int
	StatusMessage string
	Headers       Headers

	// Body holds the payload when it was read into memory.
	// It stays empty when the body is streamed to a sink.
	Body []byte
}

// ParseStatusLine fills the status line fields of resp from line.
// Lines not starting with "HTTP/" are ignored and false is returned.
func ParseStatusLine(line string, resp *Response) bool {
	if !strings.HasPrefix(line, versionPrefix) {
		return false
	}

	line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

	version, rest, _ := strings.Cut(line, string(rule.SP))
	code, message, _ := strings.Cut(strings.TrimLeft(rest, string(rule.SP)), string(rule.SP))

	statusCode, err := strconv.Atoi(code)
	if err != nil {
		return false
	}

	resp.Version = version
	resp.StatusCode = statusCode
	resp.StatusMessage = message
	return true
}

func (r *Response) ParseStatusLine(line string) bool { return ParseStatusLine(line, r) }

func (r Response) Header(name string) string { return r.Headers.Get(name) }

// ContentLength returns the declared body length, or -1 when it is absent
// or not a valid non-negative number.
func (r Response) ContentLength() int64 {
	v, ok := r.Headers.Lookup(rule.HeaderContentLength)
	if !ok {
		return -1
	}

	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// IsChunked reports whether chunked is the final transfer coding.
func (r Response) IsChunked() bool {
	v := r.Headers.Get(rule.HeaderTransferEncoding)
	if v == "" {
		return false
	}

	codings := strings.Split(v, ",")
	last := strings.TrimSpace(codings[len(codings)-1])
	return strings.EqualFold(last, "chunked")
}

// MediaType returns the content type without parameters, lowercased.
func (r Response) MediaType() string {
	v, _, _ := strings.Cut(r.Headers.Get(rule.HeaderContentType), ";")
	return strings.ToLower(strings.TrimSpace(v))
}

// Text serializes the status line, headers and the in-memory body.
func (r Response) Text() string {
	buf := bytes.NewBuffer(nil)
	_ = NewResponseEncoder(buf).Encode(r)
	return buf.String()
}
