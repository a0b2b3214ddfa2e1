package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newRestyClient(t *testing.T, host string, cfg Config) *Client {
	t.Helper()
	cfg.Host = host
	c, err := New(cfg, WithTransport(NewRestyTransport()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRestyTransportGetAndCapture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.RawQuery != "id=7" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		if got := r.Header.Get("X-Trace"); got != "abc" {
			t.Errorf("X-Trace = %q", got)
		}
		w.Header().Set("X-Served-By", "test")
		_, _ = io.WriteString(w, `{"id":"7","name":"Ann"}`)
	}))
	defer srv.Close()

	c := newRestyClient(t, srv.URL, Config{})
	c.AddHeader("X-Trace: abc")

	body, err := c.Get(context.Background(), "/users", Params("id", "7"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if body != `{"id":"7","name":"Ann"}` {
		t.Fatalf("body = %q", body)
	}

	res := c.Result()
	if !strings.HasPrefix(res.ResponseHeaders, "HTTP/1.1 200 OK\r\n") || !strings.Contains(res.ResponseHeaders, "X-Served-By: test\r\n") {
		t.Fatalf("response headers = %q", res.ResponseHeaders)
	}
	if !strings.HasSuffix(res.ResponseHeaders, "\r\n\r\n") {
		t.Fatalf("header block should end with a blank line: %q", res.ResponseHeaders)
	}
	if !strings.HasPrefix(res.RequestHeaders, "GET /users?id=7 HTTP/1.1") || !strings.Contains(res.RequestHeaders, "X-Trace: abc") {
		t.Fatalf("request headers = %q", res.RequestHeaders)
	}
	if res.EffectiveURL != srv.URL+"/users?id=7" {
		t.Fatalf("effective url = %q", res.EffectiveURL)
	}
	if c.JSON()["name"] != "Ann" {
		t.Fatalf("json = %#v", c.JSON())
	}
}

func TestRestyTransportPostJSONAndCustomVerbs(t *testing.T) {
	type seen struct {
		method, contentType, body string
	}
	var got []seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = append(got, seen{r.Method, r.Header.Get("Content-Type"), string(b)})
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newRestyClient(t, srv.URL, Config{})
	ctx := context.Background()

	if _, err := c.Post(ctx, "/users", Params("name", "Ann")); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if _, err := c.Exec(ctx, "/users/1", "patch", Params("name", "Bo"), true, BuildQuery); err != nil {
		t.Fatalf("Exec patch: %v", err)
	}
	if _, err := c.Exec(ctx, "/users/1", "delete", nil, true, BuildQuery); err != nil {
		t.Fatalf("Exec delete: %v", err)
	}
	if _, err := c.Get(ctx, "/users", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if len(got) != 4 {
		t.Fatalf("expected 4 requests, got %d", len(got))
	}
	if got[0] != (seen{"POST", "application/json", `{"name":"Ann"}`}) {
		t.Fatalf("post = %+v", got[0])
	}
	if got[1] != (seen{"PATCH", "application/x-www-form-urlencoded", "name=Bo"}) {
		t.Fatalf("patch = %+v", got[1])
	}
	if got[2].method != "DELETE" || got[2].body != "" {
		t.Fatalf("delete = %+v", got[2])
	}
	if got[3].method != "GET" || got[3].body != "" {
		t.Fatalf("get after custom verbs = %+v", got[3])
	}
}

func TestRestyTransportHTTPFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "not found")
	}))
	defer srv.Close()

	c := newRestyClient(t, srv.URL, Config{})
	_, err := c.Get(context.Background(), "/missing", nil)
	var fault *HTTPFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected HTTPFault, got %v", err)
	}
	if fault.StatusCode != 404 || fault.Body != "not found" {
		t.Fatalf("fault = %+v", fault)
	}
}

func TestRestyTransportFailOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newRestyClient(t, srv.URL, Config{FailOnError: true})
	_, err := c.Get(context.Background(), "/", nil)
	var fault *TransportFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected TransportFault, got %v", err)
	}
	if fault.Code != CodeHTTPReturnedError || !strings.Contains(fault.Message, "500") {
		t.Fatalf("fault = %+v", fault)
	}
}

func TestRestyTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newRestyClient(t, srv.URL, Config{Timeout: 50 * time.Millisecond})
	_, err := c.Get(context.Background(), "/slow", nil)
	var fault *TransportFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected TransportFault, got %v", err)
	}
	if fault.Code != CodeOperationTimedOut {
		t.Fatalf("code = %d (%v)", fault.Code, fault.Err)
	}
	if !strings.Contains(fault.Message, srv.URL+"/slow") {
		t.Fatalf("message = %q", fault.Message)
	}
}

func TestRestyTransportConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c := newRestyClient(t, "http://"+addr, Config{})
	_, err = c.Get(context.Background(), "/", nil)
	var fault *TransportFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected TransportFault, got %v", err)
	}
	if fault.Code != CodeCouldntConnect {
		t.Fatalf("code = %d (%v)", fault.Code, fault.Err)
	}
	if c.RequestHeaders() != "url: http://"+addr+"/" {
		t.Fatalf("request headers fallback = %q", c.RequestHeaders())
	}
}

func TestRestyTransportRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "moved here")
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	stay := newRestyClient(t, srv.URL, Config{})
	if _, err := stay.Get(context.Background(), "/old", nil); err != nil {
		t.Fatalf("Get without follow: %v", err)
	}
	if stay.Result().StatusCode != http.StatusFound {
		t.Fatalf("status = %d", stay.Result().StatusCode)
	}

	follow := newRestyClient(t, srv.URL, Config{FollowRedirects: true, MaxRedirects: 3})
	body, err := follow.Get(context.Background(), "/old", nil)
	if err != nil {
		t.Fatalf("Get with follow: %v", err)
	}
	if body != "moved here" || follow.Result().EffectiveURL != srv.URL+"/new" {
		t.Fatalf("body=%q effective=%q", body, follow.Result().EffectiveURL)
	}

	_, err = follow.Get(context.Background(), "/loop", nil)
	var fault *TransportFault
	if !errors.As(err, &fault) || fault.Code != CodeTooManyRedirects {
		t.Fatalf("expected too many redirects, got %v", err)
	}
}

func TestRestyTransportAcceptsSelfSignedHTTPS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "secure")
	}))
	defer srv.Close()

	c := newRestyClient(t, srv.URL, Config{})
	body, err := c.Get(context.Background(), "/", nil)
	if err != nil {
		t.Fatalf("Get over self-signed https: %v", err)
	}
	if body != "secure" {
		t.Fatalf("body = %q", body)
	}
}

func TestRestyTransportVerificationCanBeRestored(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	tr := NewRestyTransport()
	defer tr.Close()
	if err := tr.SetOptions(map[Option]any{OptURL: srv.URL, OptSSLVerifyPeer: true, OptSSLVerifyHost: true}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	res := tr.Perform(context.Background())
	if res.Code != CodePeerFailedVerify {
		t.Fatalf("code = %d (%v)", res.Code, res.Err)
	}
	if res.Raw != nil {
		t.Fatalf("no bytes expected on failure")
	}
}

func TestRestyTransportOptionValidation(t *testing.T) {
	tr := NewRestyTransport()
	defer tr.Close()

	if err := tr.SetOption(OptTimeout, "soon"); err == nil {
		t.Fatalf("expected error for invalid timeout")
	}
	if err := tr.SetOption(OptReturnTransfer, false); err == nil {
		t.Fatalf("expected error for disabled return transfer")
	}
	if err := tr.SetOption(Option(999), 1); err == nil {
		t.Fatalf("expected error for unknown option")
	}
	if err := tr.SetOption(OptConnectTimeout, 2); err != nil || tr.dialer.Timeout != 2*time.Second {
		t.Fatalf("connect timeout = %v err=%v", tr.dialer.Timeout, err)
	}
}

func TestRestyTransportHeaderOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "body")
	}))
	defer srv.Close()

	tr := NewRestyTransport()
	defer tr.Close()
	if err := tr.SetOptions(map[Option]any{OptURL: srv.URL, OptHeader: false, OptHeaderOut: false}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	res := tr.Perform(context.Background())
	if res.Code != CodeOK || string(res.Raw) != "body" || res.HeaderSize != 0 {
		t.Fatalf("res = %+v", res)
	}
	if res.RequestHeaders != "" {
		t.Fatalf("request headers should not be reported: %q", res.RequestHeaders)
	}
}

func TestRestyTransportClosed(t *testing.T) {
	tr := NewRestyTransport()
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	res := tr.Perform(context.Background())
	if res.Code == CodeOK || res.Raw != nil {
		t.Fatalf("closed transport must not perform: %+v", res)
	}
}
