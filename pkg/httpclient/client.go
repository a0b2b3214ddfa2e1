package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

const (
	// DefaultConnectTimeout bounds connection establishment.
	DefaultConnectTimeout = 60 * time.Second
	// DefaultTimeout bounds a whole exchange.
	DefaultTimeout = 30 * time.Second
)

// Config holds construction time settings of a Client.
type Config struct {
	Host                    string
	ConnectTimeout          time.Duration
	Timeout                 time.Duration
	FollowRedirects         bool
	MaxRedirects            int
	Verbose                 bool
	FailOnError             bool
	Encoding                string
	Channel                 string
	ResponseLoggingDisabled bool
	// Options are applied to the transport at construction and take
	// precedence over the settings above. Nil values are ignored.
	Options map[Option]any
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTransport sets the engine used for exchanges.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) {
		c.transport = t
	}
}

// WithLogger sets the diagnostic sink.
func WithLogger(log Logger) ClientOption {
	return func(c *Client) {
		c.diag.log = ensureLogger(log)
	}
}

// Client is a stateful request/response client bound to one base host.
//
// Headers added with AddHeader accumulate for the lifetime of the client and
// are sent with every request. The artifacts of the last exchange stay
// readable until the next call. A Client is not safe for concurrent use.
type Client struct {
	host                    string
	transport               Transport
	diag                    diagnostics
	encoding                string
	responseLoggingDisabled bool

	method  string
	headers []string
	last    Capture

	closeOnce sync.Once
	closeErr  error
}

// New builds a Client for cfg.Host. Without WithTransport a RestyTransport is
// created and owned by the client.
func New(cfg Config, opts ...ClientOption) (*Client, error) {
	c := &Client{
		host:                    cfg.Host,
		diag:                    diagnostics{log: noopLogger{}, channel: cfg.Channel},
		encoding:                cfg.Encoding,
		responseLoggingDisabled: cfg.ResponseLoggingDisabled,
	}
	if strings.TrimSpace(c.encoding) == "" {
		c.encoding = DefaultEncoding
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = NewRestyTransport()
	}

	if err := c.transport.SetOptions(transportDefaults(cfg)); err != nil {
		_ = c.transport.Close()
		return nil, fmt.Errorf("configure transport: %w", err)
	}
	return c, nil
}

func transportDefaults(cfg Config) map[Option]any {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opts := map[Option]any{
		OptConnectTimeout: connectTimeout,
		OptTimeout:        timeout,
		OptFailOnError:    cfg.FailOnError,
		OptFollowLocation: cfg.FollowRedirects,
		OptVerbose:        cfg.Verbose,
		OptReturnTransfer: true,
		OptHeader:         true,
		OptHeaderOut:      true,
	}
	if cfg.MaxRedirects > 0 {
		opts[OptMaxRedirects] = cfg.MaxRedirects
	}
	for k, v := range cfg.Options {
		if v == nil {
			continue
		}
		opts[k] = v
	}
	return opts
}

// AddHeader appends a raw "Name: value" line to the headers sent with every
// subsequent request.
func (c *Client) AddHeader(line string) *Client {
	c.headers = append(c.headers, line)
	return c
}

// ResetHeaders drops all accumulated header lines.
func (c *Client) ResetHeaders() *Client {
	c.headers = nil
	return c
}

// Headers returns a copy of the accumulated header lines.
func (c *Client) Headers() []string {
	out := make([]string, len(c.headers))
	copy(out, c.headers)
	return out
}

// SetURL points the transport at url. For https targets certificate and host
// verification are switched off: the client is meant for internal services
// with self-signed certificates.
func (c *Client) SetURL(url string) error {
	if err := c.transport.SetOption(OptURL, url); err != nil {
		return err
	}
	if strings.HasPrefix(url, "https") {
		if err := c.transport.SetOption(OptSSLVerifyHost, false); err != nil {
			return err
		}
		if err := c.transport.SetOption(OptSSLVerifyPeer, false); err != nil {
			return err
		}
	}
	return nil
}

// SetMethod selects the verb of the next request.
func (c *Client) SetMethod(method string) error {
	c.method = strings.ToLower(strings.TrimSpace(method))
	if err := c.transport.SetOption(OptPost, c.method == "post"); err != nil {
		return err
	}
	custom := ""
	if c.method != "get" && c.method != "post" {
		custom = strings.ToUpper(c.method)
	}
	return c.transport.SetOption(OptCustomRequest, custom)
}

// SetEncoding sets the charset responses are decoded from before they are
// logged. The returned body is never converted.
func (c *Client) SetEncoding(label string) *Client {
	c.encoding = label
	return c
}

// Encoding returns the diagnostic source charset.
func (c *Client) Encoding() string { return c.encoding }

// Host returns the base URL prefix.
func (c *Client) Host() string { return c.host }

// SetOpt passes an engine option through. OptHTTPHeader values (a string or a
// []string) are merged into the accumulated header lines instead.
func (c *Client) SetOpt(opt Option, value any) error {
	if opt == OptHTTPHeader {
		switch v := value.(type) {
		case string:
			c.headers = append(c.headers, v)
		case []string:
			c.headers = append(c.headers, v...)
		default:
			return fmt.Errorf("option %s: unsupported value type %T", opt, value)
		}
		return nil
	}
	return c.transport.SetOption(opt, value)
}

// Get requests path with data encoded into the query string and returns the
// response body.
func (c *Client) Get(ctx context.Context, path string, data Payload) (string, error) {
	if _, err := c.Exec(ctx, path, "get", data, true, BuildQuery); err != nil {
		return "", err
	}
	return c.Text(), nil
}

// Post sends data as a JSON body.
func (c *Client) Post(ctx context.Context, path string, data Payload) (*Client, error) {
	return c.Exec(ctx, path, "post", data, true, BuildJSON)
}

// Put sends data as a JSON body.
func (c *Client) Put(ctx context.Context, path string, data Payload) (*Client, error) {
	return c.Exec(ctx, path, "put", data, true, BuildJSON)
}

// Options sends an OPTIONS request; like GET, data goes to the query string.
func (c *Client) Options(ctx context.Context, path string, data Payload) (*Client, error) {
	return c.Exec(ctx, path, "options", data, true, BuildJSON)
}

// Exec runs one exchange against host+path.
//
// For GET and OPTIONS a non-empty data is appended to the URL as a query
// string when build is set. For other verbs data becomes the body: encoded
// per mode when build is set, otherwise its first value is sent verbatim.
//
// A *TransportFault is returned when no response was obtained or the
// transport reported an error; otherwise an *HTTPFault is returned for
// statuses of 400 and above. Captured artifacts are available either way.
func (c *Client) Exec(ctx context.Context, path, method string, data Payload, build bool, mode BuildMode) (*Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	url := c.host + path
	if err := c.SetURL(url); err != nil {
		return c, fmt.Errorf("set url: %w", err)
	}
	if err := c.SetMethod(method); err != nil {
		return c, fmt.Errorf("set method: %w", err)
	}

	c.last = Capture{Method: strings.ToUpper(c.method), URL: url}

	body, jsonBody, err := c.prepare(url, data, build, mode)
	if err != nil {
		return c, err
	}
	c.last.Request = body

	headers := c.Headers()
	if jsonBody && !hasHeader(headers, "Content-Type") {
		headers = append(headers, "Content-Type: application/json")
	}
	if err := c.transport.SetOption(OptHTTPHeader, headers); err != nil {
		return c, fmt.Errorf("set headers: %w", err)
	}

	start := time.Now()
	res := c.transport.Perform(ctx)
	elapsed := time.Since(start)

	c.last.Elapsed = elapsed
	c.last.StatusCode = res.StatusCode
	c.last.EffectiveURL = res.EffectiveURL
	c.last.ResponseHeaders, c.last.Response = splitResponse(res.Raw, res.HeaderSize)

	if res.Raw == nil {
		c.last.RequestHeaders = outgoingHeaders(res, c.last.URL)
		c.diag.transportError(c.last.RequestHeaders, res)
	} else {
		c.last.RequestHeaders = strings.TrimSpace(res.RequestHeaders)
		c.diag.request(c.last.RequestHeaders, body)
		if !c.responseLoggingDisabled {
			c.diag.response([]byte(c.last.Response), c.encoding, elapsed)
		}
	}

	return c, classify(res, c.last)
}

// prepare applies the URL or body for the pending request and returns the
// body that will be sent.
func (c *Client) prepare(url string, data Payload, build bool, mode BuildMode) (string, bool, error) {
	if c.method == "get" || c.method == "options" {
		if build && len(data) > 0 {
			c.last.URL = url + "?" + EncodeQuery(data)
			if err := c.transport.SetOption(OptURL, c.last.URL); err != nil {
				return "", false, fmt.Errorf("set url: %w", err)
			}
		}
		if err := c.transport.SetOption(OptPostFields, ""); err != nil {
			return "", false, fmt.Errorf("set body: %w", err)
		}
		return "", false, nil
	}

	var (
		body     string
		jsonBody bool
	)
	switch {
	case !build:
		if v, ok := data.First(); ok && v != nil {
			body = scalarString(v)
		}
	case mode == BuildJSON:
		encoded, err := EncodeJSON(data)
		if err != nil {
			return "", false, fmt.Errorf("encode json payload: %w", err)
		}
		body, jsonBody = encoded, true
	default:
		body = EncodeQuery(data)
	}

	if err := c.transport.SetOption(OptPostFields, body); err != nil {
		return "", false, fmt.Errorf("set body: %w", err)
	}
	return body, jsonBody, nil
}

// classify turns a transport result into the call outcome. Transport
// failures always win over the HTTP status.
func classify(res Result, last Capture) error {
	if res.Raw == nil || res.Code != CodeOK {
		return newTransportFault(res, last.URL)
	}
	if res.StatusCode >= 400 {
		url := res.EffectiveURL
		if url == "" {
			url = last.URL
		}
		return &HTTPFault{StatusCode: res.StatusCode, Body: last.Response, URL: url}
	}
	return nil
}

func hasHeader(lines []string, name string) bool {
	for _, line := range lines {
		key, _, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			return true
		}
	}
	return false
}

// Text returns the body of the last response.
func (c *Client) Text() string { return c.last.Response }

// JSON decodes the last response body. Invalid JSON yields an empty map.
// Arrays are keyed by index and a bare scalar is stored under "0".
func (c *Client) JSON() map[string]any {
	out := map[string]any{}
	var doc any
	if err := json.Unmarshal([]byte(c.last.Response), &doc); err != nil {
		return out
	}
	switch v := doc.(type) {
	case map[string]any:
		return v
	case []any:
		for i, item := range v {
			out[strconv.Itoa(i)] = item
		}
	case nil:
	default:
		out["0"] = v
	}
	return out
}

// JSONPath queries the last response body with a gjson path.
func (c *Client) JSONPath(path string) gjson.Result {
	return gjson.Get(c.last.Response, path)
}

// HTML parses the last response body as an HTML document.
func (c *Client) HTML() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(c.last.Response))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Result returns the artifacts of the last exchange.
func (c *Client) Result() Capture { return c.last }

// RequestHeaders returns the outgoing header block of the last request.
func (c *Client) RequestHeaders() string { return c.last.RequestHeaders }

// Close releases the transport. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.transport != nil {
			c.closeErr = c.transport.Close()
		}
	})
	return c.closeErr
}
