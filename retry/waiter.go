// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gogama/dohttp/request"
)

// Waiter chooses the backoff before a retry. It is only asked after the
// Decider agreed to retry, and must be safe for concurrent use.
type Waiter interface {
	Wait(e *request.Execution) time.Duration
}

// WaiterFunc adapts an ordinary function to the Waiter interface.
type WaiterFunc func(e *request.Execution) time.Duration

// Wait returns f(e).
func (f WaiterFunc) Wait(e *request.Execution) time.Duration {
	return f(e)
}

const (
	// DefaultBackoffFactor is the base of the exponential backoff used
	// by DefaultWaiter and DefaultConfig.
	DefaultBackoffFactor = 10 * time.Second
	// DefaultMaxBackoff caps any single backoff wait computed by
	// DefaultWaiter and DefaultConfig.
	DefaultMaxBackoff = 120 * time.Second
	// DefaultJitter is the jitter fraction used by DefaultWaiter and
	// DefaultConfig.
	DefaultJitter = 0.1
)

// DefaultWaiter backs off exponentially from DefaultBackoffFactor to at
// most DefaultMaxBackoff with DefaultJitter spread.
var DefaultWaiter = NewExpWaiter(DefaultBackoffFactor, DefaultMaxBackoff, DefaultJitter, time.Now())

// NewFixedWaiter always waits d.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Execution) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter backs off exponentially. After the attempt numbered n
// (from zero) it waits
//
//	ceil := base * 2**n
//	wait := min(ceil + rand[0, spread*ceil), max)
//
// so waits never shrink from one retry to the next. It panics unless
// 0 < base <= max and spread is within [0, 1].
//
// jitter seeds the randomness: nil or a zero spread disables it, and
// otherwise it may be a seed (time.Time, int or int64), a rand.Source
// or a *rand.Rand.
func NewExpWaiter(base, max time.Duration, spread float64, jitter interface{}) Waiter {
	if base < 1 {
		panic("dohttp/retry: base must be positive")
	}
	if max < base {
		panic("dohttp/retry: max must be at least base")
	}
	if spread < 0 || spread > 1 {
		panic("dohttp/retry: spread must be within [0, 1]")
	}
	r := jitterToRand(jitter)
	if spread == 0 {
		r = nil
	}
	return &jitterExpWaiter{
		base:   base,
		max:    max,
		spread: spread,
		rand:   r,
	}
}

type jitterExpWaiter struct {
	base   time.Duration
	max    time.Duration
	spread float64
	rand   *rand.Rand
	lock   sync.Mutex
}

func (w *jitterExpWaiter) Wait(e *request.Execution) time.Duration {
	var f float64
	if w.rand != nil {
		w.lock.Lock()
		f = w.rand.Float64()
		w.lock.Unlock()
	}
	return expBackoff(w.base, w.max, w.spread*f, e.Attempt)
}

// expBackoff returns min(base*2**attempt*(1+frac), max). A zero or
// negative max means no cap.
func expBackoff(base, max time.Duration, frac float64, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	const maxDuration = time.Duration(1<<63 - 1)
	limit := max
	if limit <= 0 {
		limit = maxDuration
	}
	ceil := base
	for i := 0; i < attempt; i++ {
		if ceil > limit/2 {
			return limit
		}
		ceil *= 2
	}
	extra := time.Duration(float64(ceil) * frac)
	if extra < 0 || ceil > limit-extra {
		return limit
	}
	return ceil + extra
}

func jitterToRand(jitter interface{}) *rand.Rand {
	var s rand.Source
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("dohttp/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("dohttp/retry: invalid jitter type")
	}
	return rand.New(s)
}

// RetryAfter wraps a Waiter so that a Retry-After header on the most
// recent response, if present and valid, takes precedence over w.
// Both forms of the header are understood: a delay in seconds and an
// HTTP date. The header wait is capped at max unless max is zero.
func RetryAfter(w Waiter, max time.Duration) Waiter {
	if w == nil {
		panic("dohttp/retry: nil waiter")
	}
	return &retryAfterWaiter{next: w, max: max}
}

type retryAfterWaiter struct {
	next Waiter
	max  time.Duration
}

func (w *retryAfterWaiter) Wait(e *request.Execution) time.Duration {
	if d, ok := retryAfter(e.Header(), time.Now()); ok {
		if w.max > 0 && d > w.max {
			return w.max
		}
		return d
	}
	return w.next.Wait(e)
}

// retryAfter parses the Retry-After header in h relative to now.
func retryAfter(h http.Header, now time.Time) (time.Duration, bool) {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		if secs > int64(time.Duration(1<<63-1)/time.Second) {
			return time.Duration(1<<63 - 1), true
		}
		return time.Duration(secs) * time.Second, true
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return 0, false
	}
	d := t.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}
