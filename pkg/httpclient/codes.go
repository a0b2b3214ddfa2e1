package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"syscall"
)

// ErrorCode is a transport status. The numbering follows libcurl's CURLcode
// so codes stay comparable with logs produced by curl based clients.
type ErrorCode int

const (
	CodeOK                  ErrorCode = 0
	CodeUnsupportedProtocol ErrorCode = 1
	CodeURLMalformat        ErrorCode = 3
	CodeCouldntResolveHost  ErrorCode = 6
	CodeCouldntConnect      ErrorCode = 7
	CodeHTTPReturnedError   ErrorCode = 22
	CodeOperationTimedOut   ErrorCode = 28
	CodeSSLConnectError     ErrorCode = 35
	CodeAbortedByCallback   ErrorCode = 42
	CodeTooManyRedirects    ErrorCode = 47
	CodeGotNothing          ErrorCode = 52
	CodeSendError           ErrorCode = 55
	CodeRecvError           ErrorCode = 56
	CodePeerFailedVerify    ErrorCode = 60
)

var codeText = map[ErrorCode]string{
	CodeOK:                  "no error",
	CodeUnsupportedProtocol: "unsupported protocol",
	CodeURLMalformat:        "url malformed",
	CodeCouldntResolveHost:  "couldn't resolve host name",
	CodeCouldntConnect:      "couldn't connect to server",
	CodeHTTPReturnedError:   "http response code said error",
	CodeOperationTimedOut:   "timeout was reached",
	CodeSSLConnectError:     "ssl connect error",
	CodeAbortedByCallback:   "operation was aborted",
	CodeTooManyRedirects:    "number of redirects hit maximum amount",
	CodeGotNothing:          "server returned nothing",
	CodeSendError:           "failed sending data to the peer",
	CodeRecvError:           "failure when receiving data from the peer",
	CodePeerFailedVerify:    "ssl peer certificate or ssh remote key was not ok",
}

func (c ErrorCode) String() string {
	if s, ok := codeText[c]; ok {
		return s
	}
	return "error code " + strconv.Itoa(int(c))
}

// errorCodeFor maps an engine error onto an ErrorCode.
func errorCodeFor(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}

	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return CodeOperationTimedOut
	}
	if errors.Is(err, context.Canceled) {
		return CodeAbortedByCallback
	}
	if errors.Is(err, errTooManyRedirects) {
		return CodeTooManyRedirects
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CodeCouldntResolveHost
	}

	var (
		unknownAuthority x509.UnknownAuthorityError
		hostnameErr      x509.HostnameError
		invalidCert      x509.CertificateInvalidError
		verifyErr        *tls.CertificateVerificationError
	)
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidCert) || errors.As(err, &verifyErr) {
		return CodePeerFailedVerify
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return CodeSSLConnectError
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return CodeCouldntConnect
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return CodeRecvError
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial":
			return CodeCouldntConnect
		case "write":
			return CodeSendError
		default:
			return CodeRecvError
		}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return CodeGotNothing
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		return CodeURLMalformat
	}
	if strings.Contains(strings.ToLower(err.Error()), "unsupported protocol scheme") {
		return CodeUnsupportedProtocol
	}

	return CodeRecvError
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
