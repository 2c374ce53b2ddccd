// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides policies for retrying failed attempts during
// an HTTP request plan execution, and for deciding how long to wait
// before retrying.
//
// The simplest way to get a policy is to fill in a Config, which is a
// plain value describing the retry budget, the retryable status codes
// and methods, and the exponential backoff:
//
//	policy := retry.Config{
//		MaxTotalAttempts: 5,
//		StatusCodes:      []int{429, 503},
//		Methods:          []string{"GET", "PUT"},
//		BackoffFactor:    500 * time.Millisecond,
//		MaxBackoff:       10 * time.Second,
//		Jitter:           0.1,
//	}
//
// DefaultConfig returns the configuration used by DefaultPolicy: 20
// total attempts, status codes 429, 500, 502, 503 and 504, only
// idempotent methods, and a backoff factor of 10 seconds.
//
// Fully custom policies are assembled with NewPolicy from a Decider and
// a Waiter. Both have constructors for common cases:
//
//	decider := retry.Times(3).
//		And(retry.Method("GET")).
//		And(retry.StatusCode(500).Or(retry.TransientErr))
//	waiter := retry.NewExpWaiter(100*time.Millisecond, 2*time.Second, 0.1, time.Now())
//	policy := retry.NewPolicy(decider, waiter)
package retry
