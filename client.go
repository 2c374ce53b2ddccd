// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dohttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gogama/dohttp/request"
	"github.com/gogama/dohttp/retry"
	"github.com/gogama/dohttp/timeout"
	"github.com/gogama/dohttp/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	emptyHandlers    = HandlerGroup{}
	defaultTransport = &transport.Standard{}
)

// A Client is an HTTP request executor with retry support. Its zero
// value is a valid configuration.
//
// The zero value client uses a transport.Standard as the transport,
// timeout.DefaultPolicy as the timeout policy, retry.DefaultPolicy as
// the retry policy, no event handlers and no logging.
//
// Client holds no per-call state and is safe for concurrent use by
// multiple goroutines. Every plan execution opens its own transport
// session, and closes it when the execution ends.
//
// On top of sending HTTP requests, Client adds the following features:
//
// • Client resolves request paths against a default Endpoint and
// applies per-call options (see Request and package request);
//
// • Client reads and buffers the entire HTTP response body into a
// []byte (returned as the Execution.Body field);
//
// • Client retries failed request attempts using a customizable retry
// policy, waiting out the policy's backoff between attempts;
//
// • Client sets individual request attempt timeouts from the plan or,
// failing that, a customizable timeout policy;
//
// • Client classifies every failure into one of the kinds ErrHTTPStatus,
// ErrTLSValidation, ErrTimeout, ErrConnection and ErrTransport, and
// returns it as an *Error;
//
// • Client invokes user-provided handler functions at designated plug-in
// points within the attempt/retry loop, allowing new features to be
// mixed in from outside libraries; and
//
// • Client implements the dohttp.Executor interface.
type Client struct {
	// Method is the HTTP method used by Request when no request.Method
	// option is given. An empty string means GET.
	Method string
	// Endpoint is the base URL which Request, Get, Head, Post and
	// PostForm resolve their path argument against (see request.Join).
	// If empty, the path must be an absolute URL.
	Endpoint string
	// Transport opens the per-execution sessions used to send attempts.
	//
	// If Transport is nil, a transport.Standard with default settings is
	// used.
	Transport transport.Transport
	// RetryPolicy decides when to retry failed attempts and how long
	// to sleep after a failed attempt before retrying.
	//
	// If RetryPolicy is nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy specifies how to set timeouts on individual request
	// attempts whose plan has no Timeout of its own.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during execution of a request plan.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
	// Logger receives attempt details at debug level, retries at info
	// level, unsuccessful status failures at error level and other
	// failures at warn level. Credential bearing headers are redacted
	// (see RedactHeader).
	//
	// If Logger is nil, nothing is logged.
	Logger *zerolog.Logger
	// LogBodyLimit is the number of request and response body bytes
	// included in log lines. Zero means DefaultLogBodyLimit and a
	// negative value leaves bodies out.
	LogBodyLimit int
	// RateLimiter, if not nil, is waited on before every attempt,
	// including retries.
	RateLimiter *rate.Limiter
}

// Request builds a request plan from the client's default Method and
// Endpoint, the given path and per-call options, then executes it with
// Do. The ctx controls the whole execution, including retry waits.
//
// Invalid options, such as a zero request.Timeout, are reported before
// any attempt is made.
func (c *Client) Request(ctx context.Context, path string, opts ...request.Option) (*request.Execution, error) {
	p, err := request.Build(ctx, c.Method, c.Endpoint, path, opts...)
	if err != nil {
		return nil, err
	}
	return c.Do(p)
}

// Do executes an HTTP request plan and returns the results, following
// timeout and retry policy set on Client.
//
// The result returned is the result after the final HTTP request
// attempt made during the plan execution, as determined by the retry
// policy.
//
// If the plan is invalid (see request.Plan.Validate), Do returns a nil
// Execution and the validation error without making any attempt.
// Otherwise the returned Execution is never nil.
//
// An error is returned if, after doing any retries mandated by the
// retry policy, the final attempt resulted in an error, or if the final
// response has a 4xx or 5xx status code and the plan's RaiseOnError is
// set. Such an error is always an *Error, and is also stored in the
// Execution's Err field. For an ErrHTTPStatus error the Execution keeps
// the final Response and Body.
//
// If the returned error is nil, the returned Execution will contain
// both a non-nil Response and a non-nil Body (although Body may have
// zero length).
func (c *Client) Do(p *request.Plan) (*request.Execution, error) {
	if p == nil {
		return nil, errors.New("dohttp: nil plan")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	e := request.Execution{
		Plan: p,
		ID:   uuid.NewString(),
	}

	timeoutPolicy := timeout.PlanFirst(c.TimeoutPolicy)

	retryPolicy := c.RetryPolicy
	if retryPolicy == nil {
		retryPolicy = retry.DefaultPolicy
	}

	handlers := c.Handlers
	if handlers == nil {
		handlers = &emptyHandlers
	}

	handlers.run(BeforeExecutionStart, &e)
	p = e.Plan
	if p == nil {
		panic("dohttp: plan deleted from execution")
	}
	e.Start = time.Now()
	log := c.attemptLog(&e)
	log.start(&e)

	sess, err := c.transport().Open(p)
	if err != nil {
		e.Err = urlErrorWrap(p, err)
	} else {
		defer sess.Close()
		c.attemptLoop(p, &e, sess, handlers, timeoutPolicy, retryPolicy, log)
	}

	e.End = time.Now()
	classifyOutcome(&e)
	log.end(&e)
	handlers.run(AfterExecutionEnd, &e)
	return &e, e.Err
}

func (c *Client) attemptLoop(p *request.Plan, e *request.Execution, sess transport.Session,
	handlers *HandlerGroup, timeoutPolicy timeout.Policy, retryPolicy retry.Policy, log attemptLog) {
	for {
		if err := c.throttle(p); err != nil {
			e.Err = urlErrorWrap(p, err)
			if errors.Is(err, context.DeadlineExceeded) {
				handlers.run(AfterPlanTimeout, e)
			}
			return
		}
		sendAndReceive(p, e, sess, handlers, timeoutPolicy)
		if e.Timeout() {
			e.AttemptTimeouts++
			handlers.run(AfterAttemptTimeout, e)
		}
		handlers.run(AfterAttempt, e)
		log.attempt(e)
		planCtxErr := p.Context().Err()
		if planCtxErr == context.DeadlineExceeded {
			handlers.run(AfterPlanTimeout, e)
			return
		} else if planCtxErr != nil {
			e.Err = urlErrorWrap(p, planCtxErr)
			return
		} else if !retryPolicy.Decide(e) {
			return
		}
		e.Wait = retryPolicy.Wait(e)
		handlers.run(BeforeRetryWait, e)
		log.retry(e)
		timer := time.NewTimer(e.Wait)
		select {
		case <-timer.C:
		case <-p.Context().Done():
			timer.Stop()
			err := p.Context().Err()
			e.Err = urlErrorWrap(p, err)
			if err == context.DeadlineExceeded {
				handlers.run(AfterPlanTimeout, e)
			}
			return
		}
		e.Response = nil
		e.Err = nil
		e.Body = nil
		e.Attempt++
	}
}

func (c *Client) throttle(p *request.Plan) error {
	if c.RateLimiter == nil {
		return nil
	}
	ctx := p.Context()
	if err := c.RateLimiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if _, ok := ctx.Deadline(); ok {
			return fmt.Errorf("dohttp: rate limit wait exceeds plan deadline: %w", context.DeadlineExceeded)
		}
		return fmt.Errorf("dohttp: rate limit wait: %w", err)
	}
	return nil
}

func sendAndReceive(p *request.Plan, e *request.Execution, doer transport.Doer, handlers *HandlerGroup, timeoutPolicy timeout.Policy) {
	ctx, cancel := context.WithTimeout(p.Context(), timeoutPolicy.Timeout(e))
	defer cancel()
	e.Request = p.ToRequest(ctx)
	handlers.run(BeforeAttempt, e)
	var err error
	e.Response, err = doer.Do(e.Request)
	if err != nil {
		e.Err = urlErrorWrap(p, err)
	} else {
		readBody(p, e, handlers)
	}
}

func readBody(p *request.Plan, e *request.Execution, handlers *HandlerGroup) {
	body := e.Response.Body
	defer func() {
		if e.Response != nil && e.Response.Body != nil {
			body = e.Response.Body
		}
		_ = body.Close()
	}()
	handlers.run(BeforeReadBody, e)
	if e.Response == nil {
		panic("dohttp: attempt response was nilled")
	} else if e.Response.Body == nil {
		panic("dohttp: attempt response body was nilled")
	}
	var err error
	e.Body, err = io.ReadAll(e.Response.Body)
	if err != nil {
		e.Err = urlErrorWrap(p, err)
	}
}

// classifyOutcome replaces a final attempt error with a classified
// *Error, or raises one for an unsuccessful final status.
func classifyOutcome(e *request.Execution) {
	if e.Err != nil {
		e.Err = newError(classify(e.Err), e, e.Err)
		return
	}
	if e.Plan.RaiseOnError && e.StatusCode() >= 400 {
		e.Err = newError(ErrHTTPStatus, e, nil)
	}
}

// Get issues a GET to the specified URL, resolved against Endpoint,
// using the same policies followed by Do.
//
// To set custom headers or other options, use Request.
func (c *Client) Get(url string) (*request.Execution, error) {
	return c.Request(context.Background(), url, request.Method("GET"))
}

// Head issues a HEAD to the specified URL, resolved against Endpoint,
// using the same policies followed by Do.
//
// To set custom headers or other options, use Request.
func (c *Client) Head(url string) (*request.Execution, error) {
	return c.Request(context.Background(), url, request.Method("HEAD"))
}

// Post issues a POST to the specified URL, resolved against Endpoint,
// using the same policies followed by Do.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.BodyBytes.
//
// To set custom headers or other options, use Request.
func (c *Client) Post(url, contentType string, body interface{}) (*request.Execution, error) {
	return c.Request(context.Background(), url,
		request.Method("POST"),
		request.Header("Content-Type", contentType),
		request.Body(body))
}

// PostForm issues a POST to the specified URL, resolved against
// Endpoint, with data's keys and values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use Request.
func (c *Client) PostForm(url string, data url.Values) (*request.Execution, error) {
	return c.Request(context.Background(), url,
		request.Method("POST"),
		request.Body(data))
}

// CloseIdleConnections closes idle connections kept by the client's
// transport across executions. Sessions of a transport.Standard already
// release their connections when an execution ends, so for the default
// transport this does nothing.
func (c *Client) CloseIdleConnections() {
	transport.CloseIdleConnections(c.transport())
}

func (c *Client) transport() transport.Transport {
	if c.Transport == nil {
		return defaultTransport
	}

	return c.Transport
}

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.Redacted(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
