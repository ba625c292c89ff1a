// Package fetch downloads a single resource: it opens a transport, sends a
// GET request and streams the response body to a file or standard output.
package fetch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stream-fetch/application/fetch/journal"
	"stream-fetch/application/http"
	"stream-fetch/application/http/resume"
	"stream-fetch/application/http/status"
	"stream-fetch/application/http/stream"
	"stream-fetch/application/util/rule"
	"stream-fetch/application/util/uri"
	"stream-fetch/transport"
	_ "stream-fetch/transport/secure"
	_ "stream-fetch/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Recorder keeps the outcome of each transfer.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// OpenFunc creates an unconnected transport.
type OpenFunc func(kind transport.Kind, ep transport.Endpoint, opts transport.Options) (transport.Transport, error)

type Client struct {
	opts Options

	logger   *slog.Logger
	clock    clock.Clock
	recorder Recorder

	open OpenFunc
}

// New creates a client. recorder may be nil.
func New(logger *slog.Logger, clock clock.Clock, recorder Recorder, opts Options) *Client {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	return &Client{
		opts:     opts,
		logger:   logger,
		clock:    clock,
		recorder: recorder,
		open:     transport.Open,
	}
}

type Result struct {
	ID       uuid.UUID
	Target   uri.Target
	Response http.Response

	Output string
	// Expected is the declared body length, -1 when unknown.
	Expected int64
	Received int64

	// Resume is the state of Output before the transfer.
	Resume  resume.State
	Skipped bool
}

func (r *Result) outcome(err error) journal.Outcome {
	switch {
	case err != nil:
		return journal.Failed
	case r.Skipped:
		return journal.Skipped
	case r.Expected >= 0 && r.Received != r.Expected:
		return journal.Incomplete
	}
	return journal.Completed
}

// Get downloads rawURL. The transport is closed before returning, whatever
// the outcome, and the outcome is recorded when a recorder is set.
func (c *Client) Get(ctx context.Context, rawURL string) (result *Result, err error) {
	result = &Result{ID: uuid.New(), Expected: -1}
	logger := c.logger.With("transfer", result.ID.String())

	started := c.clock.Now()
	defer func() { c.record(ctx, logger, rawURL, started, result, err) }()

	target, err := uri.ParseTarget(rawURL)
	if err != nil {
		return result, errors.Wrap(err, "parsing url")
	}
	result.Target = target

	t, err := c.connect(ctx, target, logger)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := t.Close(); err != nil {
			logger.Warn("closing transport", "error", err)
		}
	}()

	req := NewGetRequest(target, c.opts.UserAgent, c.opts.Headers)
	logger.Debug("sending request", "method", req.Method, "path", req.Path, "host", target.HostHeader())

	if err := t.SendAll([]byte(req.Text())); err != nil {
		return result, errors.Wrap(err, "sending request")
	}

	r := stream.NewReader(t, logger, c.clock, c.opts.Stream)

	resp, err := r.ReadHead()
	if err != nil {
		return result, errors.Wrap(err, "reading response head")
	}
	result.Response = resp
	if !resp.IsChunked() {
		result.Expected = resp.ContentLength()
	}

	logger.Info("response received",
		"status", resp.StatusCode,
		"message", resp.StatusMessage,
		"length", result.Expected,
		"type", resp.MediaType(),
	)
	if status.IsError(resp.StatusCode) {
		logger.Warn("server returned an error status",
			"status", resp.StatusCode,
			"class", status.ClassOf(resp.StatusCode).String(),
		)
	}

	if !status.HasBody(resp.StatusCode) {
		result.Expected = 0
		return result, nil
	}

	result.Output = c.outputPath(resp, rawURL)

	truncate, err := c.checkResume(result, logger)
	if err != nil {
		return result, err
	}
	if result.Skipped {
		return result, nil
	}

	sink, err := OpenSink(result.Output, truncate, c.opts.Stdout)
	if err != nil {
		return result, errors.Wrap(err, "opening output")
	}

	cw := &countingWriter{w: sink}
	err = c.readBody(r, resp, result.Expected, cw)
	result.Received = cw.n

	if cerr := sink.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "closing output")
	}
	if err != nil {
		return result, err
	}

	logger.Info("body saved", "output", result.Output, "bytes", result.Received)
	return result, nil
}

func (c *Client) connect(ctx context.Context, target uri.Target, logger *slog.Logger) (transport.Transport, error) {
	kind := transport.Plain
	if target.IsSecure() {
		kind = transport.Secure
	}

	topts := c.opts.Transport
	topts.Logger = logger

	t, err := c.open(kind, transport.Endpoint{Host: target.Host, Port: target.Port}, topts)
	if err != nil {
		return nil, errors.Wrap(err, "opening transport")
	}

	if c.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.ConnectTimeout)
		defer cancel()
	}

	if err := t.Connect(ctx); err != nil {
		t.Close()
		return nil, errors.Wrap(err, "connecting")
	}

	logger.Debug("connected", "kind", kind.String(), "address", target.Address())
	return t, nil
}

func (c *Client) outputPath(resp http.Response, rawURL string) string {
	if c.opts.Output != "" {
		return c.opts.Output
	}

	name := InferFilename(
		resp.Header(rule.HeaderContentDisposition),
		resp.Header(rule.HeaderContentType),
		rawURL,
	)
	return filepath.Join(c.opts.Dir, name)
}

// checkResume looks at an existing output file. A complete one marks the
// result skipped. truncate tells whether an existing file must be emptied.
// Without a known length nothing can be complete, so any file is replaced.
func (c *Client) checkResume(result *Result, logger *slog.Logger) (truncate bool, err error) {
	if result.Output == Stdout {
		return false, nil
	}
	if result.Expected < 0 {
		return true, nil
	}

	state, err := resume.Classify(result.Output, result.Expected)
	if err != nil {
		return false, errors.Wrap(err, "checking output")
	}
	result.Resume = state

	switch state {
	case resume.Complete:
		logger.Info("already downloaded, skipping body", "output", result.Output, "bytes", result.Expected)
		result.Skipped = true
		result.Received = result.Expected
	case resume.Partial:
		logger.Warn("partial file found, downloading again", "output", result.Output)
		return true, nil
	}

	return false, nil
}

// readBody picks the body reader from the framing of resp.
func (c *Client) readBody(r *stream.Reader, resp http.Response, length int64, sink io.Writer) error {
	var err error
	switch {
	case resp.IsChunked():
		err = r.ReadChunkedContent(sink)
	case length == 0:
		return nil
	case length > 0 && !isTextual(resp.MediaType()):
		_, err = r.ReadSpecifiedChunkedContent(length, sink)
	default:
		// Without a length the body ends with the stream.
		_, err = r.ReadContent(max(length, 0), sink)
	}

	return errors.Wrap(err, "reading body")
}

func isTextual(mediaType string) bool {
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	for _, suffix := range []string{"json", "xml", "javascript"} {
		if strings.HasSuffix(mediaType, suffix) {
			return true
		}
	}
	return false
}

func (c *Client) record(ctx context.Context, logger *slog.Logger, rawURL string, started time.Time, result *Result, err error) {
	outcome := result.outcome(err)
	if err != nil {
		logger.Error("transfer failed", "url", rawURL, "error", err)
	}

	if c.recorder == nil {
		return
	}

	entry := journal.Entry{
		ID:         result.ID,
		URL:        rawURL,
		Output:     result.Output,
		StatusCode: result.Response.StatusCode,
		Expected:   result.Expected,
		Received:   result.Received,
		Outcome:    outcome,
		Headers:    result.Response.Headers,
		StartedAt:  started,
		FinishedAt: c.clock.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	if err := c.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("recording transfer", "error", err)
	}
}
