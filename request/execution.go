// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	"time"

	"github.com/gogama/dohttp/transient"
)

// Execution is the state of one run of a Plan. The client creates it,
// updates it as attempts are made and returns it to the caller.
//
// Policies and event handlers read the exported fields but should not
// write them, with two customary exceptions: rewriting Request before it
// is sent (to sign it, say) and replacing Body after it has been read
// (to decompress it). Handler specific state belongs in SetValue.
type Execution struct {
	// Plan is the plan being executed. Never nil once the execution
	// has started.
	Plan *Plan

	// ID identifies the execution in log lines. It is a random UUID
	// assigned before BeforeExecutionStart fires.
	ID string

	// Start is set when execution begins and End when it is over. End
	// stays zero while attempts are still being made.
	Start, End time.Time

	// Attempt counts retries: 0 during the first attempt, 1 during the
	// second, and so on. After the execution ends it numbers the last
	// attempt, so the total attempt count is Attempt+1.
	Attempt int

	// AttemptTimeouts counts attempts which ended because their own
	// timeout expired. A plan deadline does not count unless it
	// coincided with an attempt timeout.
	AttemptTimeouts int

	// Request is the request of the current or most recent attempt.
	Request *http.Request

	// Response is the response of the most recent attempt, or nil if
	// that attempt failed before a response arrived or is in flight.
	Response *http.Response

	// Err is the failure of the most recent attempt, nil if it
	// succeeded. During execution it is a *url.Error. After End is set
	// it is the *dohttp.Error also returned to the caller, or nil.
	Err error

	// Body is the buffered body of Response. When reading the body
	// failed part way, Body holds what was read and Err is set.
	Body []byte

	// Wait is the backoff the retry policy chose before the latest
	// retry. Zero until there has been a retry.
	Wait time.Duration

	values map[interface{}]interface{}
}

// StatusCode returns the status code of Response, or 0 if there is no
// response.
func (e *Execution) StatusCode() int {
	if e.Response != nil {
		return e.Response.StatusCode
	}
	return 0
}

// Header returns the headers of Response, or a nil header if there is
// no response. The nil header is safe to read.
func (e *Execution) Header() http.Header {
	if e.Response != nil {
		return e.Response.Header
	}
	return nil
}

// Duration is zero before the execution starts, grows while it runs
// and is fixed at End minus Start once it has ended.
func (e *Execution) Duration() time.Duration {
	switch {
	case !e.Started():
		return 0
	case !e.Ended():
		return time.Since(e.Start)
	default:
		return e.End.Sub(e.Start)
	}
}

// Started reports whether Start has been set.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended reports whether End has been set. An ended execution no longer
// changes.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout reports whether Err is a timeout, from either an attempt
// timeout or the plan deadline. It looks only at the current Err, so it
// can be false while AttemptTimeouts is positive.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// SetValue attaches a value to the execution under key, replacing any
// previous value. As with context.WithValue, key must be comparable and
// should be of an unexported type owned by the caller. SetValue panics
// if key is nil.
func (e *Execution) SetValue(key, value interface{}) {
	if key == nil {
		panic("dohttp/request: nil key")
	}
	if e.values == nil {
		e.values = make(map[interface{}]interface{})
	}
	e.values[key] = value
}

// Value returns the value stored under key by SetValue, or nil.
func (e *Execution) Value(key interface{}) interface{} {
	return e.values[key]
}
