// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/dohttp/request"
)

// Policy is consulted after every attempt: Decide says whether to
// retry and Wait how long to back off first. Implementations must be
// safe for concurrent use. A Config is the usual Policy. NewPolicy
// combines any Decider with any Waiter.
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy is used by a Client with no RetryPolicy. It is
// DefaultConfig().
var DefaultPolicy Policy = DefaultConfig()

// Never makes exactly one attempt.
var Never Policy = policy{Times(0), NewFixedWaiter(0)}

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy returns a Policy which delegates to d and w. It panics if
// either is nil.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("dohttp/retry: nil decider")
	}
	if w == nil {
		panic("dohttp/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

func (p policy) Decide(e *request.Execution) bool {
	return p.decider.Decide(e)
}

func (p policy) Wait(e *request.Execution) time.Duration {
	return p.waiter.Wait(e)
}
