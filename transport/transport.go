// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"

	"github.com/gogama/dohttp/request"
)

// DefaultMaxRedirects is the number of redirects Standard follows when
// its MaxRedirects field is zero.
const DefaultMaxRedirects = 10

// A Doer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type Doer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// Doer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// A Session sends the request attempts of one plan execution. Close
// releases the connections held by the session. Do must not be called
// after Close.
type Session interface {
	Doer
	Close()
}

// A Transport opens a Session for a request plan. Implementations must
// be safe for concurrent use by multiple goroutines.
type Transport interface {
	Open(p *request.Plan) (Session, error)
}

// Standard is a Transport built on net/http. Each session gets its own
// clone of Base, configured from the plan:
//
// • a non-nil Plan.Proxy replaces the proxy function; otherwise the
// base proxy function is kept, or http.ProxyFromEnvironment is used if
// the base has none;
//
// • Plan.VerifyTLS false disables certificate and host name checks;
//
// • Plan.FollowRedirects false returns the first redirect response as
// the attempt result, and true follows up to MaxRedirects redirects.
//
// Closing the session closes its idle connections.
type Standard struct {
	// Base is the transport cloned for each session. If nil, the
	// standard library's http.DefaultTransport is used.
	Base *http.Transport
	// MaxRedirects is the maximum number of redirects followed within
	// one attempt. Zero means DefaultMaxRedirects.
	MaxRedirects int
}

// Open returns a new session configured for p.
func (s *Standard) Open(p *request.Plan) (Session, error) {
	if p == nil {
		return nil, errors.New("dohttp/transport: nil plan")
	}
	base := s.Base
	if base == nil {
		dt, ok := http.DefaultTransport.(*http.Transport)
		if !ok {
			return nil, errors.New("dohttp/transport: http.DefaultTransport is not an *http.Transport")
		}
		base = dt
	}
	t := base.Clone()
	if p.Proxy != nil {
		t.Proxy = http.ProxyURL(p.Proxy)
	} else if t.Proxy == nil {
		t.Proxy = http.ProxyFromEnvironment
	}
	if !p.VerifyTLS {
		if t.TLSClientConfig == nil {
			t.TLSClientConfig = &tls.Config{}
		}
		t.TLSClientConfig.InsecureSkipVerify = true
	}
	max := s.MaxRedirects
	if max <= 0 {
		max = DefaultMaxRedirects
	}
	follow := p.FollowRedirects
	c := &http.Client{
		Transport: t,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if !follow {
				return http.ErrUseLastResponse
			}
			if len(via) > max {
				return fmt.Errorf("dohttp/transport: stopped after %d redirects", max)
			}
			return nil
		},
	}
	return &standardSession{client: c, transport: t}, nil
}

type standardSession struct {
	client    *http.Client
	transport *http.Transport
}

func (s *standardSession) Do(r *http.Request) (*http.Response, error) {
	return s.client.Do(r)
}

func (s *standardSession) Close() {
	s.transport.CloseIdleConnections()
}

// FromDoer returns a Transport whose sessions all send requests through
// d. Closing a session does nothing, since d outlives it.
func FromDoer(d Doer) Transport {
	if d == nil {
		panic("dohttp/transport: nil doer")
	}
	return doerTransport{d}
}

type doerTransport struct {
	doer Doer
}

func (t doerTransport) Open(_ *request.Plan) (Session, error) {
	return doerSession{t.doer}, nil
}

type doerSession struct {
	Doer
}

func (doerSession) Close() {}

// IdleCloser is implemented by transports and doers which can close
// idle connections kept across sessions.
type IdleCloser interface {
	CloseIdleConnections()
}

// CloseIdleConnections closes idle connections held by t across
// sessions, if it keeps any. Standard keeps none, since every session
// owns its own connection pool.
func CloseIdleConnections(t Transport) {
	switch x := t.(type) {
	case doerTransport:
		if ic, ok := x.doer.(IdleCloser); ok {
			ic.CloseIdleConnections()
		}
	case IdleCloser:
		x.CloseIdleConnections()
	}
}
