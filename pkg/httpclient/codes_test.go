package httpclient

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"
)

func TestErrorCodeFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeOK},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), CodeOperationTimedOut},
		{"canceled", &url.Error{Op: "Get", URL: "http://x", Err: context.Canceled}, CodeAbortedByCallback},
		{"dns", &url.Error{Op: "Get", URL: "http://x", Err: &net.DNSError{Err: "no such host", Name: "x"}}, CodeCouldntResolveHost},
		{"refused", &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, CodeCouldntConnect},
		{"reset", &net.OpError{Op: "read", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, CodeRecvError},
		{"write", &net.OpError{Op: "write", Err: errors.New("broken")}, CodeSendError},
		{"redirects", &url.Error{Op: "Get", URL: "http://x", Err: errTooManyRedirects}, CodeTooManyRedirects},
		{"unknown authority", &url.Error{Op: "Get", URL: "https://x", Err: x509.UnknownAuthorityError{}}, CodePeerFailedVerify},
		{"empty reply", &url.Error{Op: "Get", URL: "http://x", Err: io.EOF}, CodeGotNothing},
		{"parse", &url.Error{Op: "parse", URL: "::", Err: errors.New("missing protocol scheme")}, CodeURLMalformat},
		{"scheme", errors.New(`Get "ftp://x": unsupported protocol scheme "ftp"`), CodeUnsupportedProtocol},
		{"other", errors.New("mystery"), CodeRecvError},
	}
	for _, tc := range cases {
		if got := errorCodeFor(tc.err); got != tc.want {
			t.Fatalf("%s: errorCodeFor = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestErrorCodeString(t *testing.T) {
	if CodeOperationTimedOut.String() != "timeout was reached" {
		t.Fatalf("unexpected text %q", CodeOperationTimedOut.String())
	}
	if ErrorCode(999).String() != "error code 999" {
		t.Fatalf("unexpected fallback %q", ErrorCode(999).String())
	}
}
