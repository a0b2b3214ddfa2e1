package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultMaxRedirects = 20
	formContentType     = "application/x-www-form-urlencoded"
)

var (
	errTooManyRedirects = errors.New("maximum redirects followed")
	errTransportClosed  = errors.New("transport is closed")
)

// RestyOption configures a RestyTransport.
type RestyOption func(*RestyTransport)

// WithDebugLogger routes resty's verbose output to l.
func WithDebugLogger(l resty.Logger) RestyOption {
	return func(t *RestyTransport) {
		t.debugLog = l
	}
}

// RestyTransport implements Transport on top of resty.Client. Settings
// persist across exchanges the way a reused engine handle does.
type RestyTransport struct {
	client    *resty.Client
	transport *http.Transport
	dialer    *net.Dialer
	debugLog  resty.Logger
	closed    bool

	url            string
	post           bool
	customRequest  string
	headers        []string
	body           string
	verifyPeer     bool
	verifyHost     bool
	failOnError    bool
	followLocation bool
	maxRedirects   int
	includeHeader  bool
	headerOut      bool
}

// NewRestyTransport creates a transport with its own connection pool.
func NewRestyTransport(opts ...RestyOption) *RestyTransport {
	t := &RestyTransport{
		dialer:        &net.Dialer{Timeout: DefaultConnectTimeout, KeepAlive: 30 * time.Second},
		verifyPeer:    true,
		verifyHost:    true,
		maxRedirects:  defaultMaxRedirects,
		includeHeader: true,
		headerOut:     true,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return t.dialer.DialContext(ctx, network, addr)
		},
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
	}
	t.client = newRestyBaseClient(t.transport, DefaultTimeout)
	t.client.SetRedirectPolicy(resty.RedirectPolicyFunc(t.checkRedirect))
	if t.debugLog != nil {
		t.client.SetLogger(t.debugLog)
	}
	return t
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(nil, timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(transport http.RoundTripper, timeout time.Duration) *resty.Client {
	c := resty.New()
	if transport != nil {
		c.SetTransport(transport)
	}
	c.SetTimeout(timeout)
	return c
}

func (t *RestyTransport) checkRedirect(_ *http.Request, via []*http.Request) error {
	if !t.followLocation {
		return http.ErrUseLastResponse
	}
	if len(via) >= t.maxRedirects {
		return errTooManyRedirects
	}
	return nil
}

// SetOptions applies opts in bulk and stops at the first invalid one.
func (t *RestyTransport) SetOptions(opts map[Option]any) error {
	for opt, value := range opts {
		if err := t.SetOption(opt, value); err != nil {
			return err
		}
	}
	return nil
}

// SetOption applies a single engine setting.
func (t *RestyTransport) SetOption(opt Option, value any) error {
	var err error
	switch opt {
	case OptURL:
		t.url, err = stringValue(value)
	case OptPost:
		t.post, err = boolValue(value)
	case OptCustomRequest:
		t.customRequest, err = stringValue(value)
	case OptHTTPHeader:
		t.headers, err = linesValue(value)
	case OptPostFields:
		t.body, err = stringValue(value)
	case OptSSLVerifyPeer:
		if t.verifyPeer, err = boolValue(value); err == nil {
			t.applyTLS()
		}
	case OptSSLVerifyHost:
		if t.verifyHost, err = boolValue(value); err == nil {
			t.applyTLS()
		}
	case OptConnectTimeout:
		var d time.Duration
		if d, err = durationValue(value); err == nil {
			t.dialer.Timeout = d
		}
	case OptTimeout:
		var d time.Duration
		if d, err = durationValue(value); err == nil {
			t.client.SetTimeout(d)
		}
	case OptFailOnError:
		t.failOnError, err = boolValue(value)
	case OptFollowLocation:
		t.followLocation, err = boolValue(value)
	case OptMaxRedirects:
		var n int
		if n, err = intValue(value); err == nil {
			if n < 0 {
				n = defaultMaxRedirects
			}
			t.maxRedirects = n
		}
	case OptVerbose:
		var v bool
		if v, err = boolValue(value); err == nil {
			t.client.SetDebug(v)
		}
	case OptReturnTransfer:
		var v bool
		if v, err = boolValue(value); err == nil && !v {
			err = errors.New("writing the body to an output stream is not supported")
		}
	case OptHeader:
		t.includeHeader, err = boolValue(value)
	case OptHeaderOut:
		t.headerOut, err = boolValue(value)
	case OptUserAgent:
		var ua string
		if ua, err = stringValue(value); err == nil {
			t.client.SetHeader("User-Agent", ua)
		}
	default:
		return fmt.Errorf("unknown option %s", opt)
	}
	if err != nil {
		return fmt.Errorf("option %s: %w", opt, err)
	}
	return nil
}

func (t *RestyTransport) applyTLS() {
	insecure := !t.verifyPeer || !t.verifyHost
	current := t.transport.TLSClientConfig
	if current != nil && current.InsecureSkipVerify == insecure {
		return
	}
	t.client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: insecure}) //nolint:gosec // opt-in for internal hosts
	t.transport.CloseIdleConnections()
}

func (t *RestyTransport) verb() string {
	switch {
	case t.customRequest != "":
		return t.customRequest
	case t.post:
		return http.MethodPost
	default:
		return http.MethodGet
	}
}

// Perform executes one exchange with the current settings.
func (t *RestyTransport) Perform(ctx context.Context) Result {
	if t.closed {
		return Result{Code: CodeSendError, Error: errTransportClosed.Error(), Err: errTransportClosed, EffectiveURL: t.url}
	}

	req := t.client.R().SetContext(ctx)
	for _, line := range t.headers {
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		req.Header.Add(name, strings.TrimSpace(value))
	}
	if t.body != "" {
		req.SetBody(t.body)
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", formContentType)
		}
	}

	resp, err := req.Execute(t.verb(), t.url)
	if err != nil {
		return Result{
			Code:         errorCodeFor(err),
			Error:        err.Error(),
			Err:          err,
			EffectiveURL: t.url,
		}
	}

	raw := resp.RawResponse
	res := Result{
		StatusCode:     resp.StatusCode(),
		EffectiveURL:   t.url,
		RequestHeaders: t.sentHeaders(resp),
	}
	if raw != nil && raw.Request != nil && raw.Request.URL != nil {
		res.EffectiveURL = raw.Request.URL.String()
	}

	if t.failOnError && res.StatusCode >= 400 {
		res.Code = CodeHTTPReturnedError
		res.Error = fmt.Sprintf("The requested URL returned error: %d", res.StatusCode)
		return res
	}

	var head []byte
	if t.includeHeader {
		head = responseHeaderBlock(raw)
	}
	body := resp.Body()
	res.Raw = make([]byte, 0, len(head)+len(body))
	res.Raw = append(res.Raw, head...)
	res.Raw = append(res.Raw, body...)
	res.HeaderSize = len(head)
	return res
}

// sentHeaders renders the request line and headers of the request that
// produced resp, following redirects to the final hop.
func (t *RestyTransport) sentHeaders(resp *resty.Response) string {
	if !t.headerOut || resp == nil {
		return ""
	}
	var req *http.Request
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		req = resp.RawResponse.Request
	} else if resp.Request != nil {
		req = resp.Request.RawRequest
	}
	if req == nil || req.URL == nil {
		return ""
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s HTTP/1.1\r\n", req.Method, req.URL.RequestURI())
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	fmt.Fprintf(&buf, "Host: %s\r\n", host)
	if req.ContentLength > 0 {
		fmt.Fprintf(&buf, "Content-Length: %d\r\n", req.ContentLength)
	}
	_ = req.Header.Write(&buf)
	buf.WriteString("\r\n")
	return buf.String()
}

func responseHeaderBlock(raw *http.Response) []byte {
	if raw == nil {
		return nil
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s\r\n", raw.Proto, raw.Status)
	_ = raw.Header.Write(&buf)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// Close releases pooled connections. Later exchanges fail.
func (t *RestyTransport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.transport.CloseIdleConnections()
	return nil
}
