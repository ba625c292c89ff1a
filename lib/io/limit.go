package iolib

import "io"

// LimitedReader reads at most N bytes from R and remembers whether R ran
// out first.
type LimitedReader struct {
	R io.Reader
	N uint // bytes still allowed

	short bool
}

func LimitReader(r io.Reader, n uint) *LimitedReader { return &LimitedReader{R: r, N: n} }

func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.N == 0 {
		return 0, io.EOF
	}

	p = p[:min(uint(len(p)), l.N)]
	n, err := l.R.Read(p)
	l.N -= uint(n)
	if err == io.EOF && l.N > 0 {
		l.short = true
	}
	return n, err
}

// Short reports whether R ended before the limit was reached.
func (l *LimitedReader) Short() bool { return l.short }
