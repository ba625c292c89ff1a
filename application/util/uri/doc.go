// Package uri turns the URL given to the downloader into the pieces needed to
// dial and address a request: scheme, host, port and request target.
//
// Only the http and https schemes are recognized. Parsing follows the
// generic syntax loosely; the request target is passed through with unsafe
// bytes percent-encoded.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986
//
// - https://datatracker.ietf.org/doc/html/rfc9112#section-3.2
package uri
