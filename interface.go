// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dohttp

import (
	"context"
	"net/url"

	"github.com/gogama/dohttp/request"
)

// Doer executes a request plan under some retry and timeout policy and
// returns the state after the last attempt. Implementations must honor
// the contract of Client.Do.
type Doer interface {
	Do(p *request.Plan) (*request.Execution, error)
}

// Requester builds a plan from a path and options and executes it, like
// Client.Request.
type Requester interface {
	Request(ctx context.Context, path string, opts ...request.Option) (*request.Execution, error)
}

// Getter issues a GET, like Client.Get.
type Getter interface {
	Get(url string) (*request.Execution, error)
}

// Header issues a HEAD, like Client.Head.
type Header interface {
	Head(url string) (*request.Execution, error)
}

// Poster issues a POST, like Client.Post. The body may be nil or any
// value accepted by request.BodyBytes.
type Poster interface {
	Post(url, contentType string, body interface{}) (*request.Execution, error)
}

// FormPoster issues a URL-encoded form POST, like Client.PostForm.
type FormPoster interface {
	PostForm(url string, data url.Values) (*request.Execution, error)
}

// IdleCloser releases keep-alive connections which are not in use. An
// implementation without such connections does nothing.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor bundles the single purpose interfaces a Client satisfies,
// except Requester which needs client level defaults a bare Doer does
// not have. Inflate turns any Doer into an Executor.
type Executor interface {
	Doer
	Getter
	Header
	Poster
	FormPoster
	IdleCloser
}

// Get executes a GET of url through d. Build a plan with
// request.NewPlan to set headers.
func Get(d Doer, url string) (*request.Execution, error) {
	return doSimple(d, "GET", url, "", nil)
}

// Head executes a HEAD of url through d.
func Head(d Doer, url string) (*request.Execution, error) {
	return doSimple(d, "HEAD", url, "", nil)
}

// Post executes a POST of body to url through d with the given
// Content-Type. The body may be nil or any value accepted by
// request.BodyBytes.
func Post(d Doer, url, contentType string, body interface{}) (*request.Execution, error) {
	b, err := request.BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return doSimple(d, "POST", url, contentType, b)
}

// PostForm executes a POST of the URL-encoded data to url through d.
func PostForm(d Doer, url string, data url.Values) (*request.Execution, error) {
	return Post(d, url, "application/x-www-form-urlencoded", data)
}

func doSimple(d Doer, method, url, contentType string, body []byte) (*request.Execution, error) {
	p, err := request.NewPlan(method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		p.Header.Set("Content-Type", contentType)
	}
	return d.Do(p)
}

// Inflate returns d as an Executor, wrapping it if it does not already
// implement the full interface. It panics if d is nil.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("dohttp: nil doer")
	}
	if x, ok := d.(Executor); ok {
		return x
	}
	return inflated{d}
}

type inflated struct {
	Doer
}

func (i inflated) Get(url string) (*request.Execution, error) {
	return Get(i.Doer, url)
}

func (i inflated) Head(url string) (*request.Execution, error) {
	return Head(i.Doer, url)
}

func (i inflated) Post(url, contentType string, body interface{}) (*request.Execution, error) {
	return Post(i.Doer, url, contentType, body)
}

func (i inflated) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(i.Doer, url, data)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.Doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
