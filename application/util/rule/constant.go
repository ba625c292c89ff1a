package rule

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
	VT   byte = 0x0B
	FF   byte = 0x0C
)

var (
	OWS         = []byte{SP, HTAB}
	CRLF        = []byte{CR, LF}
	Whitespaces = []byte{SP, HTAB, VT, FF, CR}

	// HeadTerminator ends the header section of a message.
	HeadTerminator = []byte{CR, LF, CR, LF}
)

// Header names this client reads or writes.
const (
	HeaderContentLength      = "Content-Length"
	HeaderTransferEncoding   = "Transfer-Encoding"
	HeaderContentType        = "Content-Type"
	HeaderContentDisposition = "Content-Disposition"
	HeaderHost               = "Host"
	HeaderAccept             = "Accept"
	HeaderUserAgent          = "User-Agent"
	HeaderConnection         = "Connection"
)

func IsWhitespace(r rune) bool {
	for _, ws := range Whitespaces {
		if r == rune(ws) {
			return true
		}
	}
	return false
}

// IsLineSpace reports whitespace that may surround a field name or value,
// including the line terminator bytes.
func IsLineSpace(r rune) bool {
	return IsWhitespace(r) || r == rune(LF)
}

func IsAlpha(r rune) bool { return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') }
func IsDigit(r rune) bool { return '0' <= r && r <= '9' }
