// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/dohttp/request"
)

// Policy picks the timeout of each attempt from the execution state so
// far. Implementations must be safe for concurrent use.
type Policy interface {
	Timeout(e *request.Execution) time.Duration
}

// DefaultTimeout is the attempt timeout set by DefaultPolicy.
const DefaultTimeout = 30 * time.Second

// DefaultPolicy gives every attempt DefaultTimeout.
var DefaultPolicy Policy = Fixed(DefaultTimeout)

// Infinite never times an attempt out. The plan context still applies.
var Infinite Policy = fixed(1<<63 - 1)

const nonPositiveMsg = "dohttp/timeout: timeout must be positive"

// Fixed gives every attempt the timeout d. It panics if d is not
// positive.
func Fixed(d time.Duration) Policy {
	if d <= 0 {
		panic(nonPositiveMsg)
	}
	return fixed(d)
}

type fixed time.Duration

func (f fixed) Timeout(*request.Execution) time.Duration {
	return time.Duration(f)
}

// Adaptive uses usual as long as the previous attempt did not time out.
// After the k-th attempt timeout of an execution (k from one) it uses
// after[k-1], or the last element of after once k exceeds its length.
// This suits services with rare slow outliers: time out fast, but back
// off the timeout when slowness persists.
//
// For example
//
//	Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
//
// uses 200ms normally, 1s right after the first timeout and 10s after
// any later one. Adaptive panics if any timeout is not positive.
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	for _, d := range append([]time.Duration{usual}, after...) {
		if d <= 0 {
			panic(nonPositiveMsg)
		}
	}
	return adaptive{usual: usual, after: append([]time.Duration(nil), after...)}
}

type adaptive struct {
	usual time.Duration
	after []time.Duration
}

func (a adaptive) Timeout(e *request.Execution) time.Duration {
	if len(a.after) == 0 || e.AttemptTimeouts < 1 || !e.Timeout() {
		return a.usual
	}
	k := e.AttemptTimeouts
	if k > len(a.after) {
		k = len(a.after)
	}
	return a.after[k-1]
}

// PlanFirst lets a positive request.Plan.Timeout override p. Plans
// without a timeout of their own get p's timeout, or DefaultPolicy's if
// p is nil.
func PlanFirst(p Policy) Policy {
	if p == nil {
		p = DefaultPolicy
	}
	return planFirst{p}
}

type planFirst struct {
	next Policy
}

func (p planFirst) Timeout(e *request.Execution) time.Duration {
	if e.Plan != nil && e.Plan.Timeout > 0 {
		return e.Plan.Timeout
	}
	return p.next.Timeout(e)
}
