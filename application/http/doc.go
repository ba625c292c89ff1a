// Package http models HTTP/1.1 messages as a client sees them: a request to
// serialize and a response rebuilt from the status line and header block the
// stream reader frames off the wire.
//
// Header names are kept exactly as received and matched case-sensitively.
// Order of insertion is kept so that a request serializes deterministically.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
