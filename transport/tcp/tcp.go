package tcp

import (
	"context"
	"net"

	"stream-fetch/application/util/domain"
	"stream-fetch/transport"

	"github.com/pkg/errors"
)

func init() {
	transport.Register(transport.Plain, func(ep transport.Endpoint, opts transport.Options) transport.Transport {
		return New(ep, opts)
	})
}

// Transport is a plain TCP stream.
type Transport struct {
	transport.NetConn

	ep   transport.Endpoint
	opts transport.Options
}

var _ transport.Transport = (*Transport)(nil)

func New(ep transport.Endpoint, opts transport.Options) *Transport {
	opts.SetDefaults()
	return &Transport{ep: ep, opts: opts}
}

func (t *Transport) Connect(ctx context.Context) error {
	conn, err := Dial(ctx, t.ep, t.opts)
	if err != nil {
		return err
	}

	if err := t.Attach(conn); err != nil {
		return transport.ConnectError("dial", t.ep.String(), err)
	}

	t.opts.Logger.Debug("connected", "remote", conn.RemoteAddr().String())
	return nil
}

// Dial resolves ep.Host and tries each address in turn until one accepts.
// Nagle's algorithm is disabled on the returned connection.
func Dial(ctx context.Context, ep transport.Endpoint, opts transport.Options) (net.Conn, error) {
	opts.SetDefaults()

	addrs, err := domain.Resolve(ctx, opts.Lookuper, ep.Host)
	if err != nil {
		return nil, transport.ConnectError("lookup", ep.Host, err)
	}

	dialer := net.Dialer{Timeout: opts.DialTimeout}

	var lastErr error
	for _, addr := range addrs {
		target := net.JoinHostPort(addr.String(), ep.Port)

		conn, err := dialer.DialContext(ctx, "tcp", target)
		if err != nil {
			opts.Logger.Debug("dial failed", "addr", target, "error", err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if tc, ok := conn.(*net.TCPConn); ok {
			if err := tc.SetNoDelay(true); err != nil {
				conn.Close()
				lastErr = errors.Wrap(err, "setting TCP_NODELAY")
				continue
			}
		}

		return conn, nil
	}

	return nil, transport.ConnectError("dial", ep.String(), lastErr)
}
