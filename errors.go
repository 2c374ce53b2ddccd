// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dohttp

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gogama/dohttp/request"
	"github.com/gogama/dohttp/transient"
)

// Error kinds. Every error returned by Client.Do after at least one
// attempt is an *Error whose Kind is one of these values, so callers
// can branch with errors.Is:
//
//	if errors.Is(err, dohttp.ErrHTTPStatus) {
//		...
//	}
var (
	// ErrHTTPStatus means the final response had a 4xx or 5xx status
	// code and the plan's RaiseOnError was set.
	ErrHTTPStatus = errors.New("dohttp: unsuccessful HTTP status")
	// ErrTLSValidation means the server certificate chain or host name
	// could not be verified.
	ErrTLSValidation = errors.New("dohttp: TLS validation failed")
	// ErrTimeout means the final attempt, or the whole plan, timed out.
	ErrTimeout = errors.New("dohttp: timeout")
	// ErrConnection means a connection to the server could not be
	// established or was dropped: refused, reset, unreachable or a name
	// resolution failure.
	ErrConnection = errors.New("dohttp: connection failed")
	// ErrTransport is any other failure to complete the request, for
	// example a malformed response or a cancelled context.
	ErrTransport = errors.New("dohttp: transport failure")
)

// An Error is a classified request failure.
type Error struct {
	// Kind is one of ErrHTTPStatus, ErrTLSValidation, ErrTimeout,
	// ErrConnection or ErrTransport.
	Kind error
	// Method and URL identify the request. Any password in URL is
	// redacted.
	Method string
	URL    string
	// StatusCode is the status of the final response, or zero if the
	// final attempt produced no response.
	StatusCode int
	// Body is the buffered body of the final response, if any.
	Body []byte
	// Attempts is the number of attempts made.
	Attempts int
	// Err is the underlying cause, typically a *url.Error. It is nil
	// for ErrHTTPStatus.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.StatusCode != 0 && e.Kind == ErrHTTPStatus {
		fmt.Fprintf(&b, " %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	fmt.Fprintf(&b, ": %s %s", e.Method, e.URL)
	if e.Attempts == 1 {
		b.WriteString(" (1 attempt)")
	} else {
		fmt.Fprintf(&b, " (%d attempts)", e.Attempts)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the kind and, if present, the underlying cause, so
// errors.Is and errors.As see both.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Timeout reports whether the error is a timeout.
func (e *Error) Timeout() bool {
	return e.Kind == ErrTimeout
}

// Outcome names the kind of err for use as a metric label or in a
// summary line. A nil error is "ok", an *Error is named after its Kind,
// and anything else (such as a validation error returned before any
// attempt) is "invalid".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var e *Error
	if !errors.As(err, &e) {
		return "invalid"
	}
	switch e.Kind {
	case ErrHTTPStatus:
		return "http_status"
	case ErrTLSValidation:
		return "tls_validation"
	case ErrTimeout:
		return "timeout"
	case ErrConnection:
		return "connection"
	default:
		return "transport"
	}
}

func newError(kind error, e *request.Execution, cause error) *Error {
	return &Error{
		Kind:       kind,
		Method:     method(e.Plan),
		URL:        e.Plan.URL.Redacted(),
		StatusCode: e.StatusCode(),
		Body:       e.Body,
		Attempts:   e.Attempt + 1,
		Err:        cause,
	}
}

// classify maps a transport-level error to its kind.
func classify(err error) error {
	if tlsFailure(err) {
		return ErrTLSValidation
	}
	if errors.Is(err, context.DeadlineExceeded) || transient.Categorize(err) == transient.Timeout {
		return ErrTimeout
	}
	if connFailure(err) {
		return ErrConnection
	}
	return ErrTransport
}

func tlsFailure(err error) bool {
	var (
		verifyErr  *tls.CertificateVerificationError
		unknownErr x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownErr) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr)
}

func connFailure(err error) bool {
	switch transient.Categorize(err) {
	case transient.ConnRefused, transient.ConnReset, transient.ConnAborted, transient.Unreachable, transient.DNS:
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func method(p *request.Plan) string {
	if p.Method == "" {
		return "GET"
	}
	return p.Method
}
