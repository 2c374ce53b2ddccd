// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	urlpkg "net/url"
	"time"
)

// Join resolves path against endpoint using the reference resolution
// rules of RFC 3986 section 5.2.
//
// If path is an absolute URL it replaces endpoint entirely. If path
// starts with a slash it replaces the path of endpoint but keeps its
// scheme, host and port. Otherwise path is resolved relative to the
// "directory" of endpoint, so an endpoint meant to act as a base path
// should end in a slash:
//
//	Join("https://api.example.com/v1/", "users")  // https://api.example.com/v1/users
//	Join("https://api.example.com/v1", "users")   // https://api.example.com/users
//	Join("https://api.example.com/v1/", "/users") // https://api.example.com/users
//
// An empty endpoint means path must itself be a usable URL.
func Join(endpoint, path string) (*urlpkg.URL, error) {
	ref, err := urlpkg.Parse(path)
	if err != nil {
		return nil, err
	}
	if endpoint == "" {
		return ref, nil
	}
	base, err := urlpkg.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(ref), nil
}

// An Options holds the per-call settings gathered from Option values
// before a Plan is built.
type Options struct {
	Method          string
	Endpoint        string
	Header          http.Header
	Params          urlpkg.Values
	Body            interface{}
	Username        string
	Password        string
	UserAgent       string
	Proxy           *urlpkg.URL
	VerifyTLS       bool
	FollowRedirects bool
	RaiseOnError    bool
	Timeout         time.Duration

	basicAuth bool
}

// An Option sets a per-call setting. Options which receive invalid
// input return an error, which is reported by Build before any request
// is attempted.
type Option func(o *Options) error

// Method overrides the client's default HTTP method.
func Method(method string) Option {
	return func(o *Options) error {
		o.Method = method
		return nil
	}
}

// Endpoint overrides the client's default endpoint.
func Endpoint(endpoint string) Option {
	return func(o *Options) error {
		o.Endpoint = endpoint
		return nil
	}
}

// Header adds a header field. It may be given more than once for the
// same key.
func Header(key, value string) Option {
	return func(o *Options) error {
		o.Header.Add(key, value)
		return nil
	}
}

// Headers adds every field of h.
func Headers(h http.Header) Option {
	return func(o *Options) error {
		for k, vs := range h {
			for _, v := range vs {
				o.Header.Add(k, v)
			}
		}
		return nil
	}
}

// UserAgent sets the User-Agent header, replacing any value given with
// Header or Headers.
func UserAgent(ua string) Option {
	return func(o *Options) error {
		o.UserAgent = ua
		return nil
	}
}

// Param adds a query parameter.
func Param(key, value string) Option {
	return func(o *Options) error {
		o.Params.Add(key, value)
		return nil
	}
}

// Params adds all of the given query parameters.
func Params(params urlpkg.Values) Option {
	return func(o *Options) error {
		for k, vs := range params {
			for _, v := range vs {
				o.Params.Add(k, v)
			}
		}
		return nil
	}
}

// Body sets the request body. See BodyBytes for the accepted types.
func Body(body interface{}) Option {
	return func(o *Options) error {
		o.Body = body
		return nil
	}
}

// BasicAuth sets HTTP Basic Authentication credentials.
func BasicAuth(username, password string) Option {
	return func(o *Options) error {
		o.Username, o.Password, o.basicAuth = username, password, true
		return nil
	}
}

// Proxy sends the request through the proxy at rawURL. An empty string
// restores the default of using the environment proxy settings.
func Proxy(rawURL string) Option {
	return func(o *Options) error {
		if rawURL == "" {
			o.Proxy = nil
			return nil
		}
		u, err := urlpkg.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("dohttp/request: invalid proxy: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("dohttp/request: invalid proxy %q: scheme and host required", u.Redacted())
		}
		o.Proxy = u
		return nil
	}
}

// VerifyTLS sets whether the server certificate is verified.
func VerifyTLS(verify bool) Option {
	return func(o *Options) error {
		o.VerifyTLS = verify
		return nil
	}
}

// AllowRedirects sets whether redirects are followed.
func AllowRedirects(allow bool) Option {
	return func(o *Options) error {
		o.FollowRedirects = allow
		return nil
	}
}

// RaiseOnError sets whether a final 4xx or 5xx response is reported as
// an error.
func RaiseOnError(raise bool) Option {
	return func(o *Options) error {
		o.RaiseOnError = raise
		return nil
	}
}

// Timeout sets the per-attempt timeout for this call only, overriding
// the client's timeout policy. A zero or negative d is rejected with
// ErrInvalidTimeout.
func Timeout(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidTimeout, d)
		}
		o.Timeout = d
		return nil
	}
}

// Build returns a new Plan from a default method and endpoint, a path
// resolved against the endpoint with Join, and per-call options.
func Build(ctx context.Context, method, endpoint, path string, opts ...Option) (*Plan, error) {
	o := Options{
		Method:          method,
		Endpoint:        endpoint,
		Header:          make(http.Header),
		Params:          make(urlpkg.Values),
		VerifyTLS:       true,
		FollowRedirects: true,
		RaiseOnError:    true,
	}
	for _, opt := range opts {
		if opt == nil {
			return nil, errors.New("dohttp/request: nil option")
		}
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	u, err := Join(o.Endpoint, path)
	if err != nil {
		return nil, err
	}
	p, err := newPlan(ctx, o.Method, u, o.Body)
	if err != nil {
		return nil, err
	}

	for k, vs := range o.Header {
		for _, v := range vs {
			p.Header.Add(k, v)
		}
	}
	if o.UserAgent != "" {
		p.SetUserAgent(o.UserAgent)
	}
	if o.basicAuth {
		p.SetBasicAuth(o.Username, o.Password)
	}
	p.AddParams(o.Params)
	p.Proxy = o.Proxy
	p.VerifyTLS = o.VerifyTLS
	p.FollowRedirects = o.FollowRedirects
	p.RaiseOnError = o.RaiseOnError
	p.Timeout = o.Timeout

	if err = p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
