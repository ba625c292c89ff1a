package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferFilename(t *testing.T) {
	testcases := []struct {
		desc               string
		contentDisposition string
		contentType        string
		url                string
		expected           string
	}{
		{
			desc:               "quoted disposition",
			contentDisposition: `attachment; filename="report 2024.pdf"`,
			url:                "http://example.com/download?id=3",
			expected:           "report 2024.pdf",
		},
		{
			desc:               "spaced and unquoted disposition",
			contentDisposition: `attachment; filename = data.csv`,
			expected:           "data.csv",
		},
		{
			desc:               "disposition with CRLF",
			contentDisposition: "attachment; filename=\"a.txt\r\n\"",
			expected:           "a.txt",
		},
		{
			desc:               "disposition with path",
			contentDisposition: `attachment; filename="../../etc/passwd"`,
			expected:           "passwd",
		},
		{
			desc:               "inline without filename",
			contentDisposition: "inline",
			url:                "https://example.com/files/archive.tar.gz",
			expected:           "archive.tar.gz",
		},
		{
			desc:     "url with query",
			url:      "https://example.com/files/image.png?size=large&v=2",
			expected: "image.png",
		},
		{
			desc:     "url with escaped char",
			url:      "http://example.com/my%20file.txt",
			expected: "my",
		},
		{
			desc:     "url with matrix param",
			url:      "http://example.com/a.txt;jsessionid=1",
			expected: "a.txt",
		},
		{
			desc:        "url with trailing slash",
			url:         "http://example.com/dir/",
			contentType: "text/html; charset=utf-8",
			expected:    "text.html",
		},
		{
			desc:        "url without path",
			url:         "http://example.com",
			contentType: "application/json",
			expected:    "application.json",
		},
		{
			desc:        "media type without subtype",
			url:         "http://example.com",
			contentType: "application",
			expected:    "application.bin",
		},
		{
			desc:     "nothing",
			url:      "http://example.com",
			expected: DefaultFilename,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, InferFilename(tc.contentDisposition, tc.contentType, tc.url))
		})
	}
}
