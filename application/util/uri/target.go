package uri

import (
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"

	DefaultPath = "/"
)

// DefaultPort returns the well-known port for scheme.
func DefaultPort(scheme string) string {
	if scheme == SchemeHTTPS {
		return "443"
	}
	return "80"
}

// Target is a parsed download URL. It is not modified after parsing.
type Target struct {
	Scheme string
	Host   string
	Port   string

	// Path is the request target: absolute path plus query, never empty.
	Path string
}

var (
	ErrEmptyURL          = errors.New("url is empty")
	ErrEmptyHost         = errors.New("host is empty")
	ErrUnsupportedScheme = errors.New("scheme is unsupported")
)

// ParseTarget splits rawURL into a [Target].
// A missing scheme means http, a missing path means "/" and
// a missing port is filled with [DefaultPort] of the scheme.
func ParseTarget(rawURL string) (Target, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Target{}, ErrEmptyURL
	}
	if containsCTL(rawURL) {
		return Target{}, errors.New("url should not contain CTL bytes")
	}

	scheme, rest, err := cutScheme(rawURL)
	if err != nil {
		return Target{}, errors.Wrap(err, "getting scheme")
	}

	authority, path := rest, ""
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		authority, path = rest[:idx], rest[idx:]
	}

	// Drop userinfo. Credentials are never sent.
	if idx := strings.LastIndexByte(authority, '@'); idx >= 0 {
		authority = authority[idx+1:]
	}

	host, port, err := getHostPort(authority)
	if err != nil {
		return Target{}, errors.Wrap(err, "parsing authority")
	}
	if port == "" {
		port = DefaultPort(scheme)
	}

	return Target{
		Scheme: scheme,
		Host:   host,
		Port:   port,
		Path:   requestTarget(path),
	}, nil
}

// IsSecure reports whether the target must be fetched over TLS.
func (t Target) IsSecure() bool { return t.Scheme == SchemeHTTPS }

// Address is host:port suitable for dialing.
func (t Target) Address() string { return net.JoinHostPort(t.Host, t.Port) }

// HostHeader is the value of the Host field. The port is left out when it is
// the default for the scheme.
func (t Target) HostHeader() string {
	host := t.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if t.Port == DefaultPort(t.Scheme) {
		return host
	}
	return host + ":" + t.Port
}

func (t Target) String() string {
	return t.Scheme + "://" + t.HostHeader() + t.Path
}

// cutScheme cuts the scheme and "//" off rawURL.
func cutScheme(rawURL string) (scheme, rest string, err error) {
	before, after, found := strings.Cut(rawURL, "://")
	if !found {
		return SchemeHTTP, rawURL, nil
	}

	scheme = strings.ToLower(before)
	switch scheme {
	case SchemeHTTP, SchemeHTTPS:
		return scheme, after, nil
	}

	return "", "", errors.Wrapf(ErrUnsupportedScheme, "%q", before)
}

func getHostPort(raw string) (host, port string, err error) {
	literal := strings.HasPrefix(raw, "[")
	if literal {
		// This is IP Literal.
		idx := strings.LastIndex(raw, "]")
		if idx < 0 {
			return "", "", errors.New("missing ']' in IP Literal")
		}

		host = raw[1:idx]
		raw = raw[idx+1:]
		if raw != "" && raw[0] != ':' {
			return "", "", errors.Errorf("unexpected %q after IP Literal", raw)
		}
		port = strings.TrimPrefix(raw, ":")
	} else {
		host = raw
		if idx := strings.LastIndexByte(raw, ':'); idx >= 0 {
			host, port = raw[:idx], raw[idx+1:]
		}
	}

	if host == "" {
		return "", "", ErrEmptyHost
	}
	if err := assertValidHost(host, literal); err != nil {
		return "", "", err
	}

	if port != "" {
		if err := assertValidPort(port); err != nil {
			return "", "", errors.Wrap(err, "port is not valid")
		}
	}

	return strings.ToLower(host), port, nil
}

func assertValidPort(s string) error {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return errors.Wrap(err, "failed to parse uint")
	}
	if n == 0 {
		return errors.New("port must not be zero")
	}
	if s[0] == '0' {
		return errors.New("port has leading zero")
	}
	return nil
}

// requestTarget builds origin-form from the raw path part: the fragment is
// cut, dot segments are removed and an empty path becomes "/".
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.1
func requestTarget(raw string) string {
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		raw = raw[:idx]
	}

	path, query, hasQuery := strings.Cut(raw, "?")
	path = removeDotSegments(path)
	if path == "" {
		path = DefaultPath
	}

	target := escape(path, encodePath)
	if hasQuery {
		target += "?" + escape(query, encodeQuery)
	}

	return target
}

func containsCTL(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b < ' ' || b == 0x7f {
			return true
		}
	}
	return false
}
