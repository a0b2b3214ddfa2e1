package httpclient

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// DefaultEncoding is the charset diagnostics are written in.
const DefaultEncoding = "UTF-8"

// isDefaultEncoding reports whether label already names UTF-8.
func isDefaultEncoding(label string) bool {
	l := strings.ToLower(strings.TrimSpace(label))
	return l == "" || l == "utf-8" || l == "utf8"
}

// lookupEncoding resolves a charset label using WHATWG names first and IANA
// names second.
func lookupEncoding(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if enc, err := htmlindex.Get(label); err == nil {
		return enc, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", label)
	}
	return enc, nil
}

// toUTF8 converts body from the charset named by label to UTF-8.
func toUTF8(body []byte, label string) ([]byte, error) {
	if isDefaultEncoding(label) {
		return body, nil
	}
	enc, err := lookupEncoding(label)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", label, err)
	}
	return out, nil
}
