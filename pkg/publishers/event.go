package publishers

import "time"

// Event is the capture summary exported downstream after every call.
type Event struct {
	CaptureID       string    `json:"capture_id,omitempty"`
	Endpoint        string    `json:"endpoint"`
	Method          string    `json:"method"`
	URL             string    `json:"url"`
	StatusCode      int       `json:"status_code"`
	ElapsedMs       int64     `json:"elapsed_ms"`
	Outcome         string    `json:"outcome"`
	FaultCode       int       `json:"fault_code,omitempty"`
	Fault           string    `json:"fault,omitempty"`
	RequestHeaders  string    `json:"request_headers"`
	Request         string    `json:"request"`
	ResponseHeaders string    `json:"response_headers"`
	Response        string    `json:"response"`
	CapturedAt      time.Time `json:"captured_at"`
}

// attributes are the routing attributes attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{
		"endpoint": e.Endpoint,
		"method":   e.Method,
		"outcome":  e.Outcome,
	}
	for k, v := range attrs {
		if v == "" {
			delete(attrs, k)
		}
	}
	return attrs
}
