package stream

import (
	"io"
	"math"
	"time"

	"stream-fetch/transport"

	"github.com/pkg/errors"
)

// Percent returns received/total as a percentage rounded to one decimal.
func Percent(received, total int64) float64 {
	if total <= 0 {
		return 100
	}
	return math.Round(float64(received)*1000/float64(total)) / 10
}

// ReadSpecifiedChunkedContent reads a body of known length in increments of
// BulkChunkSize, writing each increment to sink and reporting progress.
//
// Each receive is bounded by StallTimeout. Empty or timed out receives are
// retried MaxEmptyRetries times, RetryDelay apart. When the stream closes or
// stalls before length bytes, the shortfall is logged and the number of bytes
// actually delivered is returned without an error. A nil sink discards
// the body.
func (r *Reader) ReadSpecifiedChunkedContent(length int64, sink io.Writer) (int64, error) {
	if length <= 0 {
		body, err := r.ReadContent(0, sink)
		return int64(len(body)), err
	}
	if sink == nil {
		sink = io.Discard
	}

	if err := r.expect(AwaitingBody); err != nil {
		return 0, err
	}
	r.state = Done

	defer func() {
		if err := r.t.SetReadDeadline(time.Time{}); err != nil {
			r.logger.Debug("clearing read deadline", "error", err)
		}
	}()

	var (
		received int64
		ended    bool
	)
	for remaining := length; remaining > 0 && !ended; {
		want := int(min(remaining, int64(r.opts.BulkChunkSize)))

		// Carried over bytes come first.
		acc := r.ur.Next(min(want, r.ur.Buffered()))

		for retries := 0; len(acc) < want; {
			b, err := r.receive(want - len(acc))
			switch {
			case errors.Is(err, io.EOF):
				r.logger.Warn("stream closed before end of content")
				ended = true
			case err == nil && len(b) > 0:
				retries = 0
				acc = append(acc, b...)
				continue
			case err == nil, errors.Is(err, transport.ErrDeadlineExceeded):
				if retries++; retries <= r.opts.MaxEmptyRetries {
					r.logger.Debug("no data received, retrying", "attempt", retries)
					r.clock.Sleep(r.opts.RetryDelay)
					continue
				}
				r.logger.Warn("stream stalled, giving up", "retries", r.opts.MaxEmptyRetries)
				ended = true
			default:
				return received, errors.Wrap(err, "reading content")
			}
			break
		}

		if len(acc) == 0 {
			break
		}

		if _, err := sink.Write(acc); err != nil {
			return received, errors.Wrap(err, "writing to sink")
		}
		received += int64(len(acc))
		remaining -= int64(len(acc))

		r.reportProgress(received, length)
	}

	if received != length {
		r.logger.Warn("content length mismatch", "expected", length, "received", received)
	} else {
		r.logger.Info("download finished", "bytes", received)
	}

	return received, nil
}

func (r *Reader) receive(max int) ([]byte, error) {
	if err := r.t.SetReadDeadline(time.Now().Add(r.opts.StallTimeout)); err != nil {
		return nil, err
	}
	return r.t.ReceiveSome(max)
}

func (r *Reader) reportProgress(received, total int64) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(received, total)
	}

	done := received >= total
	r.progress.Do(func() {
		if !done {
			r.logger.Info("download progress", "percent", Percent(received, total), "received", received, "total", total)
		}
	})
}
