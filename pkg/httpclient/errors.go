package httpclient

import (
	"fmt"
	"net/http"
)

// TransportFault reports that no interpretable response was obtained.
type TransportFault struct {
	Code    ErrorCode
	Message string
	URL     string
	Err     error
}

func (e *TransportFault) Error() string {
	return fmt.Sprintf("transport error %d: %s", int(e.Code), e.Message)
}

func (e *TransportFault) Unwrap() error { return e.Err }

// IsTimeout reports whether the exchange hit the connect or total timeout.
func (e *TransportFault) IsTimeout() bool { return e.Code == CodeOperationTimedOut }

// HTTPFault reports a completed exchange whose status code is 400 or above.
type HTTPFault struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *HTTPFault) Error() string {
	return fmt.Sprintf("http error %d (%s): %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// IsClientError returns true for 4xx statuses.
func (e *HTTPFault) IsClientError() bool { return e.StatusCode >= 400 && e.StatusCode < 500 }

// IsServerError returns true for 5xx statuses.
func (e *HTTPFault) IsServerError() bool { return e.StatusCode >= 500 }

func newTransportFault(res Result, requestURL string) *TransportFault {
	code := res.Code
	text := res.Error
	if code == CodeOK {
		code = CodeGotNothing
	}
	if text == "" {
		text = code.String()
	}

	target := res.EffectiveURL
	if target == "" {
		target = requestURL
	}
	return &TransportFault{
		Code:    code,
		Message: target + " : " + text,
		URL:     target,
		Err:     res.Err,
	}
}
