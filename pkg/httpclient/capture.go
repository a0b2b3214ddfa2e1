package httpclient

import (
	"strings"
	"time"
)

// Capture holds the artifacts of the most recent exchange. It is one
// generation deep: every call overwrites it.
type Capture struct {
	Method          string
	URL             string
	EffectiveURL    string
	StatusCode      int
	Request         string
	RequestHeaders  string
	ResponseHeaders string
	Response        string
	Elapsed         time.Duration
}

// splitResponse separates the raw transport output into the header block and
// the body using the header size the transport reported.
func splitResponse(raw []byte, headerSize int) (headers, body string) {
	if headerSize < 0 {
		headerSize = 0
	}
	if headerSize > len(raw) {
		headerSize = len(raw)
	}
	return string(raw[:headerSize]), string(raw[headerSize:])
}

// outgoingHeaders returns the trimmed request header block, or the target
// URL when the transport did not report one.
func outgoingHeaders(res Result, url string) string {
	headers := strings.TrimSpace(res.RequestHeaders)
	if headers == "" {
		return "url: " + url
	}
	return headers
}
