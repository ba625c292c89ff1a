// Package transporttest provides transports for testing code that reads
// from a [transport.Transport], and a suite that every variant must pass.
package transporttest

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"stream-fetch/transport"
)

// Step is a single outcome of [Scripted.ReceiveSome].
type Step struct {
	Data []byte
	Err  error
}

// Data returns steps delivering each fragment in its own receive.
func Data(fragments ...string) []Step {
	steps := make([]Step, 0, len(fragments))
	for _, f := range fragments {
		steps = append(steps, Step{Data: []byte(f)})
	}
	return steps
}

// Split returns steps delivering b in pieces of at most size bytes.
func Split(b []byte, size int) []Step {
	if size <= 0 {
		size = len(b)
	}
	steps := make([]Step, 0, len(b)/max(size, 1)+1)
	for len(b) > 0 {
		n := min(size, len(b))
		steps = append(steps, Step{Data: bytes.Clone(b[:n])})
		b = b[n:]
	}
	return steps
}

// Empty is a receive that returns no bytes and no error.
func Empty() Step { return Step{} }

// Deadline is a receive that times out.
func Deadline() Step {
	return Step{Err: &transport.OpError{Op: "read", Kind: transport.ErrDeadlineExceeded}}
}

// Scripted replays a fixed sequence of receive outcomes.
// Once the script runs out, the peer is reported as closed.
type Scripted struct {
	mu    sync.Mutex
	steps []Step
	buf   *bytes.Buffer

	sent      bytes.Buffer
	connected bool
	closed    bool
	deadlines []time.Time
	receives  int
}

var _ transport.Transport = (*Scripted)(nil)

func NewScripted(steps ...Step) *Scripted {
	return &Scripted{steps: steps, buf: bytes.NewBuffer(nil)}
}

func (s *Scripted) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return transport.ConnectError("dial", "scripted", transport.ErrConnClosed)
	}
	s.connected = true
	return nil
}

func (s *Scripted) SendAll(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &transport.OpError{Op: "write", Kind: transport.ErrTransfer, Err: transport.ErrConnClosed}
	}
	s.sent.Write(p)
	return nil
}

func (s *Scripted) ReceiveSome(max int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.receives++
	if s.closed {
		return nil, &transport.OpError{Op: "read", Kind: transport.ErrTransfer, Err: transport.ErrConnClosed}
	}

	if s.buf.Len() > 0 {
		// Leftover of a step larger than a former max.
		return bytes.Clone(s.buf.Next(max)), nil
	}

	if len(s.steps) == 0 {
		return nil, io.EOF
	}

	step := s.steps[0]
	s.steps = s.steps[1:]
	if step.Err != nil {
		return nil, step.Err
	}
	if len(step.Data) > max {
		s.buf.Write(step.Data[max:])
		return bytes.Clone(step.Data[:max]), nil
	}
	return bytes.Clone(step.Data), nil
}

func (s *Scripted) ReceiveAll() ([]byte, error) {
	var all []byte
	for {
		b, err := s.ReceiveSome(4096)
		all = append(all, b...)
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return all, err
		}
	}
}

func (s *Scripted) SetReadDeadline(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlines = append(s.deadlines, t)
	return nil
}

func (s *Scripted) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Sent returns everything passed to SendAll so far.
func (s *Scripted) Sent() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.sent.Bytes())
}

// Receives returns how many times ReceiveSome was called.
func (s *Scripted) Receives() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receives
}

// Deadlines returns every deadline set, in order.
func (s *Scripted) Deadlines() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.deadlines...)
}

func (s *Scripted) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Scripted) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
