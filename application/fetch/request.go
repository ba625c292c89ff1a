package fetch

import (
	"stream-fetch/application/http"
	"stream-fetch/application/util/rule"
	"stream-fetch/application/util/uri"
)

// NewGetRequest builds the request sent for target. The connection is
// always asked to close after the response.
func NewGetRequest(target uri.Target, userAgent string, extra http.Headers) http.Request {
	req := http.Request{
		Method:  "GET",
		Path:    target.Path,
		Version: http.Version11,
	}

	req.Headers.Set(rule.HeaderAccept, "*/*")
	req.Headers.Set(rule.HeaderHost, target.HostHeader())
	if userAgent != "" {
		req.Headers.Set(rule.HeaderUserAgent, userAgent)
	}
	req.Headers.Set(rule.HeaderConnection, "close")

	for _, f := range extra {
		req.Headers.Set(f.Name, f.Value)
	}

	return req
}
