package iolib

import (
	"bytes"
	"errors"
	"io"
)

const defaultReadSize = 1024

// UntilReader frames a byte stream by delimiters. Bytes read past a
// delimiter are kept and handed out first by the next call, so nothing is
// lost or read twice regardless of how the source splits its reads.
type UntilReader struct {
	r io.Reader

	buf  *bytes.Buffer
	temp []byte
}

func NewUntilReader(r io.Reader) *UntilReader {
	return NewUntilReaderSize(r, defaultReadSize)
}

// NewUntilReaderSize sets the size of each read issued to r.
func NewUntilReaderSize(r io.Reader, size int) *UntilReader {
	if size <= 0 {
		size = defaultReadSize
	}
	return &UntilReader{r: r, buf: bytes.NewBuffer(nil), temp: make([]byte, size)}
}

func (ur *UntilReader) Read(p []byte) (n int, err error) {
	if ur.buf.Len() > 0 {
		n, err = ur.buf.Read(p)
		if err == io.EOF {
			err = nil
		}
		return n, err
	}

	return ur.r.Read(p)
}

// Buffered returns the number of bytes held but not yet consumed.
func (ur *UntilReader) Buffered() int { return ur.buf.Len() }

// Next consumes up to n held bytes without reading from the source.
func (ur *UntilReader) Next(n int) []byte {
	return bytes.Clone(ur.buf.Next(n))
}

// Fill issues a single read to the source and holds whatever arrived.
func (ur *UntilReader) Fill() (int, error) {
	n, err := ur.r.Read(ur.temp)
	ur.buf.Write(ur.temp[:n])
	return n, err
}

var (
	ErrZeroLenDelim  = errors.New("delim has zero length")
	ErrLimitExceeded = errors.New("delim not found within limit")
)

// ReadUntil returns bytes up to and including delim.
// If the source fails before delim, everything held is returned with the error.
func (ur *UntilReader) ReadUntil(delim []byte) ([]byte, error) {
	return ur.ReadUntilLimit(delim, 0)
}

// ReadUntilLimit is [UntilReader.ReadUntil] that gives up with
// [ErrLimitExceeded] once more than limit bytes are held without delim.
// Held bytes are kept in that case. Zero limit means no limit.
func (ur *UntilReader) ReadUntilLimit(delim []byte, limit uint) ([]byte, error) {
	if len(delim) == 0 {
		return nil, ErrZeroLenDelim
	}

	scanned := 0
	for {
		// Bytes before scanned were already searched. Step back so a delim
		// split across two reads is still found.
		from := max(0, scanned-len(delim)+1)
		if idx := bytes.Index(ur.buf.Bytes()[from:], delim); idx >= 0 {
			return ur.Next(from + idx + len(delim)), nil
		}
		scanned = ur.buf.Len()

		if limit > 0 && uint(scanned) > limit {
			return nil, ErrLimitExceeded
		}

		if _, err := ur.Fill(); err != nil {
			if idx := bytes.Index(ur.buf.Bytes(), delim); idx >= 0 {
				return ur.Next(idx + len(delim)), nil
			}
			return ur.Next(ur.buf.Len()), err
		}
	}
}
