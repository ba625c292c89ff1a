package iolib

import "io"

// WriteFull writes all of buf to w, looping over partial writes.
// A write that makes no progress without an error is reported as
// [io.ErrShortWrite].
func WriteFull(w io.Writer, buf []byte) (uint, error) {
	total := uint(0)
	for total < uint(len(buf)) {
		n, err := w.Write(buf[total:])
		total += uint(n)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NopWriteCloser returns a [io.WriteCloser] with a no-op Close method wrapping w.
func NopWriteCloser(w io.Writer) io.WriteCloser { return nopWriteCloser{w} }
