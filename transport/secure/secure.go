package secure

import (
	"context"
	"crypto/tls"

	"stream-fetch/transport"
	"stream-fetch/transport/tcp"
)

func init() {
	transport.Register(transport.Secure, func(ep transport.Endpoint, opts transport.Options) transport.Transport {
		return New(ep, opts)
	})
}

// Transport is a TLS stream over TCP.
// The endpoint host is sent as server name and verified against the
// peer certificate unless InsecureSkipVerify is set.
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

func (t *Transport) config() *tls.Config {
	return &tls.Config{
		ServerName:         t.ep.Host,
		InsecureSkipVerify: t.opts.InsecureSkipVerify,
		RootCAs:            t.opts.RootCAs,
		MinVersion:         tls.VersionTLS12,
	}
}

func (t *Transport) Connect(ctx context.Context) error {
	raw, err := tcp.Dial(ctx, t.ep, t.opts)
	if err != nil {
		return err
	}

	conn := tls.Client(raw, t.config())
	if err := conn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return transport.ConnectError("handshake", t.ep.String(), err)
	}

	if err := t.Attach(conn); err != nil {
		return transport.ConnectError("handshake", t.ep.String(), err)
	}

	state := conn.ConnectionState()
	t.opts.Logger.Debug("tls established",
		"remote", raw.RemoteAddr().String(),
		"version", tls.VersionName(state.Version),
		"cipher", tls.CipherSuiteName(state.CipherSuite),
	)
	return nil
}
