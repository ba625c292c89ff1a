package fetch

import (
	"path/filepath"
	"strings"

	"stream-fetch/application/util/rule"
)

const DefaultFilename = "download.bin"

// InferFilename picks a local file name for a response body. In order of
// preference it uses the filename parameter of Content-Disposition, the
// last path segment of the URL and the media type.
func InferFilename(contentDisposition, contentType, rawURL string) string {
	if name := dispositionFilename(contentDisposition); name != "" {
		return name
	}
	if name := urlFilename(rawURL); name != "" {
		return name
	}
	return mediaTypeFilename(contentType)
}

func clean(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == rune(rule.CR) || r == rune(rule.LF) {
			return -1
		}
		return r
	}, name)

	// Only the base name is honored.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

func dispositionFilename(v string) string {
	for _, param := range strings.Split(v, ";") {
		key, value, found := strings.Cut(param, "=")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "filename") {
			continue
		}
		return clean(rule.Unquote(strings.TrimSpace(value)))
	}
	return ""
}

func urlFilename(rawURL string) string {
	_, rest, found := strings.Cut(rawURL, "://")
	if !found {
		rest = rawURL
	}

	rest, _, _ = strings.Cut(rest, "#")
	rest, _, _ = strings.Cut(rest, "?")

	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return ""
	}

	segment := rest[strings.LastIndexByte(rest, '/')+1:]
	if idx := strings.IndexAny(segment, "&;#?% "); idx >= 0 {
		segment = segment[:idx]
	}
	return clean(segment)
}

func mediaTypeFilename(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return DefaultFilename
	}

	name, ext, found := strings.Cut(mediaType, "/")
	if !found || ext == "" {
		ext = "bin"
	}
	if name == "" {
		name = "download"
	}
	return clean(name + "." + ext)
}
