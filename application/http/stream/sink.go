package stream

import "io"

// WriterFunc adapts a callback to [io.Writer].
// As with any writer, p must not be retained after the call.
type WriterFunc func(p []byte) error

var _ io.Writer = WriterFunc(nil)

func (f WriterFunc) Write(p []byte) (int, error) {
	if err := f(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
