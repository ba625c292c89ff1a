// Package status classifies HTTP status codes.
package status

type Class int

const (
	Unknown Class = iota
	Informational
	Successful
	Redirection
	ClientError
	ServerError
)

func (c Class) String() string {
	switch c {
	case Informational:
		return "informational"
	case Successful:
		return "successful"
	case Redirection:
		return "redirection"
	case ClientError:
		return "client error"
	case ServerError:
		return "server error"
	}
	return "unknown"
}

// ClassOf returns the class given by the first digit of code.
func ClassOf(code int) Class {
	if code < 100 || code > 599 {
		return Unknown
	}
	return Class(code / 100)
}

// IsError reports whether code is a client or server error.
func IsError(code int) bool {
	c := ClassOf(code)
	return c == ClientError || c == ServerError
}

// HasBody reports whether a response to GET with code carries content.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3
func HasBody(code int) bool {
	switch {
	case ClassOf(code) == Informational:
		return false
	case code == 204, code == 304:
		return false
	}
	return true
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15
var reasons = map[int]string{
	100: "Continue",
	101: "Switching Protocols",

	200: "OK",
	201: "Created",
	202: "Accepted",
	203: "Non-Authoritative Information",
	204: "No Content",
	205: "Reset Content",
	206: "Partial Content",

	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	307: "Temporary Redirect",
	308: "Permanent Redirect",

	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	408: "Request Timeout",
	410: "Gone",
	411: "Length Required",
	413: "Content Too Large",
	414: "URI Too Long",
	415: "Unsupported Media Type",
	416: "Range Not Satisfiable",
	418: "I'm a teapot", // Unused. But I like the joke.
	429: "Too Many Requests",

	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// Reason returns the standard reason phrase of code, or "" when unknown.
func Reason(code int) string { return reasons[code] }
