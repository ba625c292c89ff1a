package transport

import (
	"bytes"
	"io"
	"net"
	"os"
	"sync"
	"time"

	iolib "stream-fetch/lib/io"

	"github.com/pkg/errors"
)

const receiveAllSize = 4096

// NetConn implements the data path of [Transport] on top of a [net.Conn].
// Variants embed it and attach the connection once it is established.
type NetConn struct {
	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

var ErrAlreadyConnected = errors.New("already connected")

// Attach hands conn over to c. On failure conn is closed.
func (c *NetConn) Attach(conn net.Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		conn.Close()
		return ErrConnClosed
	case c.conn != nil:
		conn.Close()
		return ErrAlreadyConnected
	}

	c.conn = conn
	return nil
}

// Conn returns the attached connection or nil.
func (c *NetConn) Conn() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func (c *NetConn) get(op string) (net.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, transferError(op, ErrConnClosed)
	}
	if c.conn == nil {
		return nil, transferError(op, ErrNotConnected)
	}
	return c.conn, nil
}

func (c *NetConn) SendAll(p []byte) error {
	conn, err := c.get("write")
	if err != nil {
		return err
	}

	if _, err := iolib.WriteFull(conn, p); err != nil {
		return transferError("write", err)
	}
	return nil
}

func (c *NetConn) ReceiveSome(max int) ([]byte, error) {
	if max <= 0 {
		return nil, transferError("read", errors.Errorf("invalid receive size %d", max))
	}

	conn, err := c.get("read")
	if err != nil {
		return nil, err
	}

	buf := make([]byte, max)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			// Errors are sticky on net.Conn, the next call sees it again.
			return buf[:n], nil
		}

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF):
			return nil, io.EOF
		case errors.Is(err, os.ErrDeadlineExceeded):
			return nil, &OpError{Op: "read", Kind: ErrDeadlineExceeded, Err: err}
		case errors.Is(err, net.ErrClosed):
			return nil, transferError("read", ErrConnClosed)
		default:
			return nil, transferError("read", err)
		}
	}
}

func (c *NetConn) ReceiveAll() ([]byte, error) {
	var buf bytes.Buffer
	for {
		b, err := c.ReceiveSome(receiveAllSize)
		buf.Write(b)
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return buf.Bytes(), err
		}
	}
}

func (c *NetConn) SetReadDeadline(t time.Time) error {
	conn, err := c.get("set deadline")
	if err != nil {
		return err
	}

	if err := conn.SetReadDeadline(t); err != nil {
		return transferError("set deadline", err)
	}
	return nil
}

func (c *NetConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.conn == nil {
		return nil
	}
	if err := c.conn.Close(); err != nil {
		return transferError("close", err)
	}
	return nil
}

type reader struct{ t Transport }

// NewReader adapts t to [io.Reader].
func NewReader(t Transport) io.Reader { return reader{t: t} }

func (r reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	b, err := r.t.ReceiveSome(len(p))
	return copy(p, b), err
}
