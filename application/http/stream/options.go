package stream

import "time"

type Options struct {
	// ReadSize is the size of each receive while framing lines.
	ReadSize int

	// FlushThreshold is how many bytes of chunked payload are accumulated
	// before they are written to the sink.
	FlushThreshold int

	// BulkChunkSize is the increment the bulk reader receives and writes.
	BulkChunkSize int

	// MaxEmptyRetries bounds consecutive empty or timed out receives
	// of the bulk reader before it gives up.
	MaxEmptyRetries int
	RetryDelay      time.Duration
	// StallTimeout bounds a single receive of the bulk reader.
	StallTimeout time.Duration

	// MaxHeadLength limits status line and headers together.
	// Zero means no limit.
	MaxHeadLength uint

	// MaxChunkLineLength limits a chunk size line, extensions included.
	MaxChunkLineLength uint

	// OnProgress is called by the bulk reader after each write to the sink.
	OnProgress func(received, total int64)
}

var DefaultOptions = Options{
	ReadSize:        4096,
	FlushThreshold:  8192,
	BulkChunkSize:   8192,
	MaxEmptyRetries: 5,
	RetryDelay:      100 * time.Millisecond,
	StallTimeout:    30 * time.Second,
	MaxHeadLength:   64 << 10,

	MaxChunkLineLength: 4096,
}

// setDefaults fills sizes and durations left zero.
// MaxEmptyRetries and MaxHeadLength are taken as given.
func (o *Options) setDefaults() {
	if o.ReadSize <= 0 {
		o.ReadSize = DefaultOptions.ReadSize
	}
	if o.FlushThreshold <= 0 {
		o.FlushThreshold = DefaultOptions.FlushThreshold
	}
	if o.BulkChunkSize <= 0 {
		o.BulkChunkSize = DefaultOptions.BulkChunkSize
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultOptions.RetryDelay
	}
	if o.StallTimeout <= 0 {
		o.StallTimeout = DefaultOptions.StallTimeout
	}
	if o.MaxChunkLineLength == 0 {
		o.MaxChunkLineLength = DefaultOptions.MaxChunkLineLength
	}
}
