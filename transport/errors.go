package transport

import (
	"github.com/pkg/errors"
)

var (
	// ErrConnect is matched by every failure to establish a stream:
	// resolution, dial and handshake.
	ErrConnect = errors.New("connection error")
	// ErrTransfer is matched by every failure to move bytes once connected.
	ErrTransfer = errors.New("transfer error")

	ErrDeadlineExceeded = errors.New("deadline exceeded")
	ErrConnClosed       = errors.New("connection is closed")
	ErrNotConnected     = errors.New("not connected")
)

// OpError describes a failed transport operation.
type OpError struct {
	Op   string // lookup, dial, handshake, write, read
	Kind error  // ErrConnect, ErrTransfer or ErrDeadlineExceeded
	Addr string
	Err  error
}

func (e *OpError) Error() string {
	s := e.Kind.Error() + ": " + e.Op
	if e.Addr != "" {
		s += " " + e.Addr
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ConnectError reports a failed attempt to establish a stream.
func ConnectError(op, addr string, err error) error {
	return &OpError{Op: op, Kind: ErrConnect, Addr: addr, Err: err}
}

func transferError(op string, err error) error {
	return &OpError{Op: op, Kind: ErrTransfer, Err: err}
}
