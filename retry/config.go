// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gogama/dohttp/request"
	"github.com/gogama/dohttp/transient"
)

// A Config is a retry Policy described as a plain value.
//
// An attempt is retried when all of the following hold: the number of
// attempts made so far is less than MaxTotalAttempts; the plan method
// is one of Methods; and either the response status code is one of
// StatusCodes, or RetryTransientErrors is set and the attempt ended in
// a transient error.
//
// The wait before attempt n+1 (n counting from one) is
// BackoffFactor * 2**(n-1), plus a random extra of up to Jitter times
// that amount, capped at MaxBackoff. Successive waits never decrease.
//
// The zero Config never retries. Start from DefaultConfig to change
// only some settings.
type Config struct {
	// MaxTotalAttempts is the attempt budget, including the initial
	// attempt. Values below one mean one.
	MaxTotalAttempts int
	// StatusCodes lists the response status codes which are retried.
	StatusCodes []int
	// Methods lists the HTTP methods which are retried. Methods are
	// compared without regard to case.
	Methods []string
	// BackoffFactor is the wait after the first attempt.
	BackoffFactor time.Duration
	// MaxBackoff caps each wait. Zero means no cap.
	MaxBackoff time.Duration
	// Jitter is the maximum random extra wait, as a fraction of the
	// exponential wait. It must be within [0, 1].
	Jitter float64
	// RetryTransientErrors enables retrying attempts which ended in a
	// transient transport error such as a timeout or a refused
	// connection.
	RetryTransientErrors bool
	// RespectRetryAfter makes a valid Retry-After header on a retryable
	// response override the computed backoff. The header wait is still
	// capped at MaxBackoff.
	RespectRetryAfter bool
}

// DefaultConfig returns the Config used by DefaultPolicy: 20 total
// attempts, DefaultStatusCodes, DefaultMethods, a BackoffFactor of
// DefaultBackoffFactor, a MaxBackoff of DefaultMaxBackoff, and a Jitter
// of DefaultJitter.
func DefaultConfig() Config {
	return Config{
		MaxTotalAttempts: DefaultTimes + 1,
		StatusCodes:      append([]int(nil), DefaultStatusCodes...),
		Methods:          append([]string(nil), DefaultMethods...),
		BackoffFactor:    DefaultBackoffFactor,
		MaxBackoff:       DefaultMaxBackoff,
		Jitter:           DefaultJitter,
	}
}

// Validate reports whether c holds usable values.
func (c Config) Validate() error {
	var errs []error
	if c.MaxTotalAttempts < 1 {
		errs = append(errs, fmt.Errorf("max total attempts must be at least 1, got %d", c.MaxTotalAttempts))
	}
	if c.BackoffFactor < 0 {
		errs = append(errs, fmt.Errorf("backoff factor must not be negative, got %s", c.BackoffFactor))
	}
	if c.MaxBackoff < 0 {
		errs = append(errs, fmt.Errorf("max backoff must not be negative, got %s", c.MaxBackoff))
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		errs = append(errs, fmt.Errorf("jitter must be within [0, 1], got %g", c.Jitter))
	}
	for _, s := range c.StatusCodes {
		if s < 100 || s > 599 {
			errs = append(errs, fmt.Errorf("invalid status code %d", s))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("dohttp/retry: invalid config: %w", err)
	}
	return nil
}

// Decide returns true if the attempt just made should be retried.
func (c Config) Decide(e *request.Execution) bool {
	if e.Attempt+1 >= c.MaxTotalAttempts {
		return false
	}
	if !c.retryableMethod(planMethod(e)) {
		return false
	}
	if e.Err == nil {
		return c.retryableStatus(e.StatusCode())
	}
	return c.RetryTransientErrors && transient.Categorize(e.Err) != transient.Not
}

// Wait returns the backoff before the next attempt.
func (c Config) Wait(e *request.Execution) time.Duration {
	if c.RespectRetryAfter {
		if d, ok := retryAfter(e.Header(), time.Now()); ok {
			if c.MaxBackoff > 0 && d > c.MaxBackoff {
				return c.MaxBackoff
			}
			return d
		}
	}
	jitter := c.Jitter
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}
	return expBackoff(c.BackoffFactor, c.MaxBackoff, jitter*rand.Float64(), e.Attempt)
}

func (c Config) retryableStatus(s int) bool {
	if s == 0 {
		return false
	}
	for _, s2 := range c.StatusCodes {
		if s == s2 {
			return true
		}
	}
	return false
}

func (c Config) retryableMethod(m string) bool {
	for _, m2 := range c.Methods {
		if strings.EqualFold(m, m2) {
			return true
		}
	}
	return false
}

