package fetch

import (
	"io"
	"os"

	iolib "stream-fetch/lib/io"

	"github.com/pkg/errors"
)

// Stdout is the output name that writes the body to standard output.
const Stdout = "-"

// OpenSink opens the destination of a body. Files are opened for appending
// and created when missing. truncate empties an existing file first.
func OpenSink(path string, truncate bool, stdout io.Writer) (io.WriteCloser, error) {
	if path == Stdout {
		return iolib.NopWriteCloser(stdout), nil
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return f, nil
}

// countingWriter counts the bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
