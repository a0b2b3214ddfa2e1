package httpclient

import (
	"context"
	"strconv"
)

// Option identifies an engine setting understood by a Transport.
type Option int

const (
	OptURL Option = iota + 1
	OptPost
	OptCustomRequest
	OptHTTPHeader
	OptPostFields
	OptSSLVerifyPeer
	OptSSLVerifyHost
	OptConnectTimeout
	OptTimeout
	OptFailOnError
	OptFollowLocation
	OptMaxRedirects
	OptVerbose
	OptReturnTransfer
	OptHeader
	OptHeaderOut
	OptUserAgent
)

var optionNames = map[Option]string{
	OptURL:            "url",
	OptPost:           "post",
	OptCustomRequest:  "custom_request",
	OptHTTPHeader:     "http_header",
	OptPostFields:     "post_fields",
	OptSSLVerifyPeer:  "ssl_verify_peer",
	OptSSLVerifyHost:  "ssl_verify_host",
	OptConnectTimeout: "connect_timeout",
	OptTimeout:        "timeout",
	OptFailOnError:    "fail_on_error",
	OptFollowLocation: "follow_location",
	OptMaxRedirects:   "max_redirects",
	OptVerbose:        "verbose",
	OptReturnTransfer: "return_transfer",
	OptHeader:         "header",
	OptHeaderOut:      "header_out",
	OptUserAgent:      "user_agent",
}

func (o Option) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}
	return "option(" + strconv.Itoa(int(o)) + ")"
}

// Result is what a Transport reports after a single exchange.
type Result struct {
	// Raw holds the response header block followed by the body. Nil when no
	// response was obtained.
	Raw []byte
	// HeaderSize is the length of the header block at the start of Raw.
	HeaderSize   int
	StatusCode   int
	Code         ErrorCode
	Error        string
	Err          error
	EffectiveURL string
	// RequestHeaders is the outgoing request line and header block as sent.
	RequestHeaders string
}

// Transport performs network exchanges for a Client. Implementations hold
// engine state between calls: options set once stay in effect until changed.
type Transport interface {
	SetOptions(opts map[Option]any) error
	SetOption(opt Option, value any) error
	Perform(ctx context.Context) Result
	Close() error
}
