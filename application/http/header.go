package http

import (
	"bytes"
	"strings"

	"stream-fetch/application/util/rule"
)

type Field struct{ Name, Value string }

// ParseField splits a field line at its first colon and trims the name and
// the value of surrounding whitespace and line terminators.
// ok is false when the line has no colon.
func ParseField(line string) (f Field, ok bool) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return Field{}, false
	}

	return Field{
		Name:  strings.TrimFunc(name, rule.IsLineSpace),
		Value: strings.TrimFunc(value, rule.IsLineSpace),
	}, true
}

func (f Field) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(f.Name)
	buf.WriteString(": ")
	buf.WriteString(f.Value)
	return buf.Bytes()
}

// Headers is an ordered set of fields with unique names.
type Headers []Field

func (h Headers) index(name string) int {
	for idx, f := range h {
		if f.Name == name {
			return idx
		}
	}
	return -1
}

// Get returns the value of name, or "" when absent.
func (h Headers) Get(name string) string {
	value, _ := h.Lookup(name)
	return value
}

func (h Headers) Lookup(name string) (value string, ok bool) {
	if idx := h.index(name); idx >= 0 {
		return h[idx].Value, true
	}
	return "", false
}

// Set overwrites an existing field in place or appends a new one.
func (h *Headers) Set(name, value string) {
	if idx := h.index(name); idx >= 0 {
		(*h)[idx].Value = value
		return
	}
	*h = append(*h, Field{Name: name, Value: value})
}

func (h *Headers) Del(name string) {
	if idx := h.index(name); idx >= 0 {
		*h = append((*h)[:idx], (*h)[idx+1:]...)
	}
}

func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	return append(Headers(nil), h...)
}

// ParseHeaders parses a header block. Lines are split on LF and parsing
// stops at the first empty line (or a lone CR). A leading status line and
// lines without a colon are skipped. A repeated name keeps its last value.
func ParseHeaders(block string) Headers {
	headers := make(Headers, 0)

	for idx, line := range strings.Split(block, "\n") {
		if line == "" || line == "\r" {
			break
		}
		if idx == 0 && strings.HasPrefix(line, versionPrefix) {
			continue
		}

		if f, ok := ParseField(line); ok {
			headers.Set(f.Name, f.Value)
		}
	}

	return headers
}
