// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/dohttp/request"
	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	get := &request.Plan{Method: "GET"}

	t.Run("decides like DefaultDecider", func(t *testing.T) {
		for attempt := 0; attempt <= DefaultTimes; attempt++ {
			status := DefaultStatusCodes[attempt%len(DefaultStatusCodes)]
			e := &request.Execution{Plan: get, Attempt: attempt, Response: &http.Response{StatusCode: status}}
			assert.Equal(t, DefaultDecider(e), DefaultPolicy.Decide(e), "attempt %d, status %d", attempt, status)
		}
	})
	t.Run("leaves transport errors alone", func(t *testing.T) {
		e := &request.Execution{Plan: get, Err: syscall.ECONNRESET}
		assert.False(t, DefaultPolicy.Decide(e))
	})
	t.Run("waits grow to the cap", func(t *testing.T) {
		var waits []time.Duration
		for attempt := 0; attempt < 6; attempt++ {
			waits = append(waits, DefaultPolicy.Wait(&request.Execution{Attempt: attempt}))
		}
		assert.IsNonDecreasing(t, waits)
		assert.GreaterOrEqual(t, waits[0], DefaultBackoffFactor)
		assert.Equal(t, DefaultMaxBackoff, waits[len(waits)-1])
	})
}

func TestNever(t *testing.T) {
	for _, e := range []*request.Execution{
		{},
		{Plan: &request.Plan{Method: "GET"}, Response: &http.Response{StatusCode: 503}},
		{Plan: &request.Plan{Method: "GET"}, Err: syscall.ETIMEDOUT},
	} {
		assert.False(t, Never.Decide(e))
		assert.Zero(t, Never.Wait(e))
	}
}

func TestNewPolicy(t *testing.T) {
	var decided, waited int
	d := DeciderFunc(func(e *request.Execution) bool {
		decided++
		return e.Attempt < 2
	})
	w := NewFixedWaiter(3 * time.Second)

	p := NewPolicy(d, WaiterFunc(func(e *request.Execution) time.Duration {
		waited++
		return w.Wait(e)
	}))

	assert.True(t, p.Decide(&request.Execution{Attempt: 1}))
	assert.False(t, p.Decide(&request.Execution{Attempt: 2}))
	assert.Equal(t, 3*time.Second, p.Wait(&request.Execution{}))
	assert.Equal(t, 2, decided)
	assert.Equal(t, 1, waited)

	assert.PanicsWithValue(t, "dohttp/retry: nil decider", func() { NewPolicy(nil, w) })
	assert.PanicsWithValue(t, "dohttp/retry: nil waiter", func() { NewPolicy(d, nil) })
}
