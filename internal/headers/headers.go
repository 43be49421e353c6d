package headers

import (
	"bytes"
	"strings"
)

const crlf = "\r\n"

// Headers keeps header names exactly as the client sent them.
type Headers map[string]string

func NewHeaders() Headers {
	return make(Headers)
}

// Parse consumes at most one header line from data. It returns the number of
// bytes consumed and done=true once the blank line ending the header section
// has been read. A line without a colon is consumed and dropped.
func (h Headers) Parse(data []byte) (n int, done bool, err error) {
	idx := bytes.Index(data, []byte(crlf))
	if idx == -1 {
		return 0, false, nil
	}
	if idx == 0 {
		return 2, true, nil
	}

	parts := bytes.SplitN(data[:idx], []byte(":"), 2)
	if len(parts) != 2 {
		return idx + 2, false, nil
	}

	key := string(parts[0])
	value := strings.TrimSpace(string(parts[1]))
	if _, ok := h[key]; !ok {
		h.Set(key, value)
	}
	return idx + 2, false, nil
}

func (h Headers) Set(key, value string) {
	h[key] = value
}

// Get looks a header up by its exact name.
func (h Headers) Get(key string) (string, bool) {
	v, ok := h[key]
	return v, ok
}
