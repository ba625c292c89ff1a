package origin

import (
	"io"
	"strconv"

	"stream-fetch/application/http"
	"stream-fetch/application/http/status"
	"stream-fetch/application/http/transfer"
	"stream-fetch/application/util/rule"

	"github.com/pkg/errors"
)

// Reply is a canned response.
type Reply struct {
	StatusCode    int
	StatusMessage string
	Headers       http.Headers
	Body          []byte

	// Chunked sends Body in chunks of ChunkSize bytes, all in one when zero,
	// followed by Trailers.
	Chunked   bool
	ChunkSize int
	Trailers  http.Headers

	// Cut closes the connection after this many body bytes when positive.
	Cut int
}

// OK is a 200 reply carrying body. Content-Length is added on write.
func OK(contentType string, body []byte) Reply {
	return Reply{
		StatusCode: 200,
		Headers:    http.Headers{{Name: rule.HeaderContentType, Value: contentType}},
		Body:       body,
	}
}

func (r Reply) head() http.Response {
	resp := http.Response{
		Version:       http.Version11,
		StatusCode:    r.StatusCode,
		StatusMessage: r.StatusMessage,
		Headers:       r.Headers.Clone(),
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = 200
	}
	if resp.StatusMessage == "" {
		resp.StatusMessage = status.Reason(resp.StatusCode)
	}

	if r.Chunked {
		resp.Headers.Set(rule.HeaderTransferEncoding, transfer.CodingChunked)
	} else if _, ok := resp.Headers.Lookup(rule.HeaderContentLength); !ok {
		resp.Headers.Set(rule.HeaderContentLength, strconv.Itoa(len(r.Body)))
	}
	resp.Headers.Set(rule.HeaderConnection, "close")

	return resp
}

func (r Reply) writeTo(w io.Writer) error {
	if err := http.NewResponseEncoder(w).Encode(r.head()); err != nil {
		return errors.Wrap(err, "writing head")
	}

	body := r.Body
	if r.Cut > 0 && r.Cut < len(body) {
		body = body[:r.Cut]
	}

	if !r.Chunked {
		_, err := w.Write(body)
		return errors.Wrap(err, "writing body")
	}

	cw := transfer.NewChunkedWriter(w, r.Trailers)
	size := r.ChunkSize
	if size <= 0 {
		size = max(len(body), 1)
	}
	for len(body) > 0 {
		n := min(size, len(body))
		if _, err := cw.Write(body[:n]); err != nil {
			return err
		}
		body = body[n:]
	}

	if r.Cut > 0 {
		// The last chunk is left out.
		return nil
	}
	return cw.Close()
}
