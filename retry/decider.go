// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"strings"
	"time"

	"github.com/gogama/dohttp/request"
	"github.com/gogama/dohttp/transient"
)

// Decider reports whether the execution should be retried after its
// latest attempt. Implementations must be safe for concurrent use.
type Decider interface {
	Decide(e *request.Execution) bool
}

// DeciderFunc adapts a function to Decider. DeciderFuncs compose with
// And and Or, so most policies are built from the constructors in this
// package rather than from a custom Decider.
type DeciderFunc func(e *request.Execution) bool

// DefaultTimes is the number of times DefaultPolicy will retry, giving
// a total attempt budget of DefaultTimes+1.
const DefaultTimes = 19

// DefaultStatusCodes are the HTTP response status codes retried by
// DefaultPolicy: 429 (Too Many Requests), 500 (Internal Server Error),
// 502 (Bad Gateway), 503 (Service Unavailable) and 504 (Gateway
// Timeout).
var DefaultStatusCodes = []int{429, 500, 502, 503, 504}

// DefaultMethods are the idempotent HTTP methods retried by
// DefaultPolicy. POST and PATCH are absent, so a non-idempotent request
// is never replayed by default.
var DefaultMethods = []string{"HEAD", "GET", "PUT", "DELETE", "OPTIONS", "TRACE", "PROPFIND"}

// DefaultDecider retries an idempotent request (see DefaultMethods)
// whose response status is in DefaultStatusCodes, up to DefaultTimes
// times. Transport errors are not retried; set
// Config.RetryTransientErrors to retry them.
var DefaultDecider = Times(DefaultTimes).
	And(Method(DefaultMethods...)).
	And(StatusCode(DefaultStatusCodes...))

// TransientErr retries when the attempt failed with an error that
// transient.Categorize does not put in transient.Not. It is always false
// when a response was received.
var TransientErr DeciderFunc = transientErr

// Decide calls f(e).
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And is true when both f and g are. g is skipped if f is false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or is true when f or g is. g is skipped if f is true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// Times allows n retries, that is n+1 attempts in total.
func Times(n int) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Attempt < n
	}
}

// Before allows retries while the execution is younger than d.
func Before(d time.Duration) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Duration() < d
	}
}

// Method allows retries of plans whose method is one of ms, ignoring
// case. An empty plan method counts as GET.
func Method(ms ...string) DeciderFunc {
	set := make(map[string]struct{}, len(ms))
	for _, m := range ms {
		set[strings.ToUpper(m)] = struct{}{}
	}
	return func(e *request.Execution) bool {
		_, ok := set[strings.ToUpper(planMethod(e))]
		return ok
	}
}

// StatusCode allows retries when the latest attempt got a response with
// one of the status codes ss.
func StatusCode(ss ...int) DeciderFunc {
	set := make(map[int]struct{}, len(ss))
	for _, s := range ss {
		set[s] = struct{}{}
	}
	return func(e *request.Execution) bool {
		if e.Response == nil {
			return false
		}
		_, ok := set[e.StatusCode()]
		return ok
	}
}

func transientErr(e *request.Execution) bool {
	return transient.Categorize(e.Err) != transient.Not
}

func planMethod(e *request.Execution) string {
	if e.Plan == nil || e.Plan.Method == "" {
		return "GET"
	}
	return e.Plan.Method
}
