package uri

import (
	"strings"

	"stream-fetch/application/util/rule"
)

type encodeMode uint

const (
	encodePath encodeMode = 1 + iota
	encodeQuery
)

func hex(c byte) (h [2]byte) {
	const hexSet = "0123456789ABCDEF"
	h[0] = hexSet[c>>4]
	h[1] = hexSet[c&0xF]
	return
}

// escape percent-encodes bytes that may not appear in the component.
// Existing percent-encoded triplets are kept so an already encoded URL is
// sent unchanged.
func escape(s string, mode encodeMode) string {
	b := new(strings.Builder)
	b.Grow(len(s))

	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		switch {
		case c == '%' && idx+2 < len(s) && isPercentEncoded(s[idx:idx+3]):
			b.WriteString(s[idx : idx+3])
			idx += 2
		case shouldEscape(c, mode):
			hex := hex(c)
			b.Write([]byte{'%', hex[0], hex[1]})
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

func shouldEscape(c byte, mode encodeMode) bool {
	if isUnreserved(c) || isSubDelim(c) {
		return false
	}

	switch c {
	case ':', '@', '/':
		// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.3
		return false
	case '?':
		// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.4
		return mode != encodeQuery
	}

	return true
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.2
func isSubDelim(c byte) bool {
	switch c {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.3
func isUnreserved(c byte) bool {
	if rule.IsAlpha(rune(c)) || rule.IsDigit(rune(c)) {
		return true
	}
	switch c {
	case '-', '.', '_', '~':
		return true
	}
	return false
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.1
func isPercentEncoded(s string) bool {
	if len(s) != 3 {
		return false
	}

	return s[0] == '%' && isHex(s[1]) && isHex(s[2])
}

func isHex(c byte) bool {
	return rule.IsDigit(rune(c)) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
