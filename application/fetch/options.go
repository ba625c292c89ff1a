package fetch

import (
	"io"
	"time"

	"stream-fetch/application/http"
	"stream-fetch/application/http/stream"
	"stream-fetch/transport"
)

type Options struct {
	Transport transport.Options
	Stream    stream.Options

	UserAgent string
	// Headers are set on every request after the default ones.
	Headers http.Headers

	// Output is where the body goes. [Stdout] means standard output.
	// When empty, a name is inferred from the response and placed in Dir.
	Output string
	Dir    string
	Stdout io.Writer

	// ConnectTimeout bounds resolution, dial and handshake together.
	ConnectTimeout time.Duration
}

var DefaultOptions = Options{
	Transport:      transport.DefaultOptions,
	Stream:         stream.DefaultOptions,
	UserAgent:      "CustomDownloader/1.0",
	ConnectTimeout: 30 * time.Second,
}
