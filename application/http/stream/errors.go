package stream

import "github.com/pkg/errors"

// ErrProtocol is matched by every error caused by a malformed response.
var ErrProtocol = errors.New("protocol error")

// ProtocolError is a violation of the HTTP/1.1 response grammar.
// The stream cannot be resynchronized after one.
type ProtocolError struct{ msg string }

func (e *ProtocolError) Error() string        { return e.msg }
func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

var (
	ErrMalformedChunk   error = &ProtocolError{"invalid or empty chunk size line"}
	ErrMissingChunkCRLF error = &ProtocolError{"expected CRLF after chunk data"}
	ErrTruncatedChunk   error = &ProtocolError{"stream closed inside chunk data"}
	ErrIncompleteHead   error = &ProtocolError{"stream closed before end of headers"}
	ErrHeadTooLarge     error = &ProtocolError{"response head exceeds limit"}
)

// ErrOutOfOrder is returned when a read step is called in the wrong state.
var ErrOutOfOrder = errors.New("read step called out of order")
