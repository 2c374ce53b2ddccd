// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

const nilCtxMsg = "dohttp/request: nil context"

// ErrInvalidTimeout is returned when a zero or negative per-attempt
// timeout is explicitly requested.
var ErrInvalidTimeout = errors.New("dohttp/request: timeout must be positive")

// Plan describes one logical HTTP request: what to send and how the
// client should treat the connection and the final status. A client may
// turn a single Plan into several attempts when it retries.
//
// The zero values of VerifyTLS, FollowRedirects and RaiseOnError are
// not their defaults, so build plans with NewPlan or Build.
//
// The plan context bounds the whole execution, retry waits included.
type Plan struct {
	// Method is the HTTP method. Empty means GET.
	Method string

	// URL is the target, query string included.
	URL *urlpkg.URL

	// Header is sent with every attempt. Attempts share it, so
	// handlers must clone before editing.
	Header http.Header

	// Body is replayed on every attempt. Empty means no body.
	Body []byte

	// Host overrides the Host header. Empty means URL.Host.
	Host string

	// Proxy is the proxy to send requests through. If nil, the proxy
	// is taken from the environment (HTTP_PROXY, HTTPS_PROXY and
	// NO_PROXY).
	Proxy *urlpkg.URL

	// VerifyTLS indicates whether the server certificate chain and host
	// name are verified. NewPlan sets it to true.
	VerifyTLS bool

	// FollowRedirects indicates whether redirect responses are followed.
	// If false, the redirect response itself is the attempt result.
	// NewPlan sets it to true.
	FollowRedirects bool

	// RaiseOnError indicates whether a final response with a 4xx or 5xx
	// status code is reported as an error. If false, such a response is
	// returned like any other. NewPlan sets it to true.
	RaiseOnError bool

	// Timeout is the timeout for each individual attempt. If zero, the
	// client's timeout policy decides. A negative value is invalid.
	Timeout time.Duration

	ctx context.Context
}

// NewPlan is NewPlanWithContext with the background context.
func NewPlan(method, url string, body interface{}) (*Plan, error) {
	return NewPlanWithContext(context.Background(), method, url, body)
}

// NewPlanWithContext parses url and returns a plan with the default
// connection settings. The body is buffered with BodyBytes, and a
// url.Values body also sets the form Content-Type. An empty method
// means GET.
func NewPlanWithContext(ctx context.Context, method, url string, body interface{}) (*Plan, error) {
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	return newPlan(ctx, method, u, body)
}

func newPlan(ctx context.Context, method string, u *urlpkg.URL, body interface{}) (*Plan, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("dohttp/request: invalid method %q", method)
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	p := &Plan{
		ctx:             ctx,
		Method:          method,
		URL:             u,
		Header:          make(http.Header),
		Body:            b,
		Host:            u.Host,
		VerifyTLS:       true,
		FollowRedirects: true,
		RaiseOnError:    true,
	}
	if _, ok := body.(urlpkg.Values); ok {
		p.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return p, nil
}

// Context returns the plan context, or the background context if none
// was set.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p bound to ctx. It panics if
// ctx is nil.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	q := *p
	q.ctx = ctx
	return &q
}

// AddParams merges query parameters into the plan URL. Existing
// parameters with the same key are kept; the new values are appended.
func (p *Plan) AddParams(params urlpkg.Values) {
	if len(params) == 0 {
		return
	}
	q := p.URL.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u := *p.URL
	u.RawQuery = q.Encode()
	p.URL = &u
}

// SetBasicAuth sets a Basic Authorization header. The credentials are
// only base64 encoded.
func (p *Plan) SetBasicAuth(username, password string) {
	p.Header.Set("Authorization", "Basic "+basicAuth(username, password))
}

// SetUserAgent overrides the User-Agent header sent with the request.
func (p *Plan) SetUserAgent(ua string) {
	p.Header.Set("User-Agent", ua)
}

// Validate reports whether the plan's settings can be executed. It is
// called by the client before the first attempt.
func (p *Plan) Validate() error {
	if p.URL == nil {
		return errors.New("dohttp/request: nil URL")
	}
	if p.Timeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, p.Timeout)
	}
	if !validMethod(p.Method) {
		return fmt.Errorf("dohttp/request: invalid method %q", p.Method)
	}
	return validHeader(p.Header)
}

// ToRequest returns the http.Request for one attempt of p, bound to
// ctx. URL and Header are shared with p. Each call gets a fresh body
// reader, and GetBody lets redirects replay it.
func (p *Plan) ToRequest(ctx context.Context) *http.Request {
	method := p.Method
	if method == "" {
		method = "GET"
	}
	r := &http.Request{
		Method:     method,
		URL:        p.URL,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     p.Header,
		Host:       p.Host,
	}
	if n := len(p.Body); n > 0 {
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(p.Body)), nil
		}
		r.Body, _ = r.GetBody()
		r.ContentLength = int64(n)
	}
	return r.WithContext(ctx)
}

func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// validMethod reports whether method is an RFC 7230 token. The empty
// string is accepted since it is interpreted as "GET".
func validMethod(method string) bool {
	return method == "" || httpguts.ValidHeaderFieldName(method)
}

func validHeader(h http.Header) error {
	for k, vs := range h {
		if !httpguts.ValidHeaderFieldName(k) {
			return fmt.Errorf("dohttp/request: invalid header field name %q", k)
		}
		for _, v := range vs {
			if !httpguts.ValidHeaderFieldValue(v) {
				return fmt.Errorf("dohttp/request: invalid header field value for %q", k)
			}
		}
	}
	return nil
}

// removeEmptyPort drops the trailing colon of a "host:" authority, as
// RFC 3986 section 6.2.3 allows.
func removeEmptyPort(host string) string {
	if strings.LastIndex(host, ":") > strings.LastIndex(host, "]") {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
