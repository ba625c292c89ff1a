package transport

import (
	"context"
	"crypto/x509"
	"log/slog"
	"net"
	"sync"
	"time"

	"stream-fetch/application/util/domain"

	"github.com/pkg/errors"
)

// Transport is a connected byte stream to a single remote endpoint.
type Transport interface {
	// Connect resolves the endpoint and establishes the stream.
	Connect(ctx context.Context) error
	// SendAll writes every byte of p or fails.
	SendAll(p []byte) error
	// ReceiveSome blocks until at least one byte is available and returns
	// at most max bytes. A clean close by the peer is reported as io.EOF.
	ReceiveSome(max int) ([]byte, error)
	// ReceiveAll reads until the peer closes the stream.
	ReceiveAll() ([]byte, error)
	// SetReadDeadline bounds subsequent receives.
	// Zero value clears the deadline.
	SetReadDeadline(t time.Time) error
	// Close releases the stream. Calling it more than once is allowed.
	Close() error
}

// Kind selects a transport variant.
type Kind uint8

const (
	Plain Kind = iota
	Secure
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Secure:
		return "secure"
	}
	return "unknown"
}

// Endpoint is the remote side of a transport.
type Endpoint struct {
	Host string
	Port string
}

func (e Endpoint) String() string { return net.JoinHostPort(e.Host, e.Port) }

type Options struct {
	// Lookuper resolves Endpoint.Host.
	// Defaults to the system resolver.
	Lookuper    domain.Lookuper
	DialTimeout time.Duration

	// Used by the secure variant only.
	InsecureSkipVerify bool
	RootCAs            *x509.CertPool

	Logger *slog.Logger
}

var DefaultOptions = Options{
	DialTimeout: 10 * time.Second,
}

func (o *Options) SetDefaults() {
	if o.Lookuper == nil {
		o.Lookuper = domain.NewResolverLookuper(net.DefaultResolver)
	}
	if o.DialTimeout == 0 {
		o.DialTimeout = DefaultOptions.DialTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// Constructor creates an unconnected transport.
type Constructor func(ep Endpoint, opts Options) Transport

var (
	registryMu sync.RWMutex
	registry   = make(map[Kind]Constructor)
)

// Register makes a variant available to [Open].
// Registering the same kind twice replaces the former constructor.
func Register(kind Kind, c Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = c
}

var ErrUnknownKind = errors.New("unknown transport kind")

// Open creates an unconnected transport of the given kind.
func Open(kind Kind, ep Endpoint, opts Options) (Transport, error) {
	registryMu.RLock()
	c, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrUnknownKind, kind.String())
	}

	opts.SetDefaults()
	return c(ep, opts), nil
}
