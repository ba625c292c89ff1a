package uri

import (
	"net/netip"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidHost = errors.New("host is not valid")

// assertValidHost accepts an IP literal or a name that can be resolved.
// Sub-delims, which the generic syntax allows in reg-name, never appear in
// a resolvable name and are rejected.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func assertValidHost(host string, literal bool) error {
	if len(host) > 255 {
		return errors.Wrapf(ErrInvalidHost, "length exceeds limit(255): %d", len(host))
	}

	if literal {
		addr, err := netip.ParseAddr(host)
		if err != nil || !addr.Is6() {
			return errors.Wrap(ErrInvalidHost, "expected IPv6 literal, but was malformed")
		}
		return nil
	}

	if !isValidRegName(host) {
		return errors.Wrapf(ErrInvalidHost, "%q is neither ipv4 addr nor valid reg-name", host)
	}
	return nil
}

func isValidRegName(s string) bool {
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if isUnreserved(c) {
			continue
		}
		if idx+2 < len(s) && isPercentEncoded(s[idx:idx+3]) {
			idx += 2
			continue
		}

		return false
	}

	return true
}

// removeDotSegments resolves "." and ".." segments of an absolute path.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.4
func removeDotSegments(path string) string {
	var out []string
	pop := func() {
		if len(out) > 0 {
			out = out[:len(out)-1]
		}
	}

	for len(path) > 0 {
		var found bool
		if path, found = strings.CutPrefix(path, "../"); found {
			continue
		}
		if path, found = strings.CutPrefix(path, "./"); found {
			continue
		}

		if path, found = strings.CutPrefix(path, "/./"); found {
			path = "/" + path
			continue
		} else if path == "/." {
			path = "/"
			continue
		}

		if path, found = strings.CutPrefix(path, "/../"); found {
			pop()
			path = "/" + path
			continue
		} else if path == "/.." {
			pop()
			path = "/"
			continue
		}

		if path == ".." || path == "." {
			break
		}

		// Move the first segment, with its leading "/", to the output.
		idx := strings.IndexByte(path[1:], '/') + 1
		if idx == 0 {
			idx = len(path)
		}
		out = append(out, path[:idx])
		path = path[idx:]
	}

	return strings.Join(out, "")
}
