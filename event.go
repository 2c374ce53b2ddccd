// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dohttp

// Event names a point in the life of a request execution at which the
// Client runs the installed Handler chain.
type Event int

const (
	// BeforeExecutionStart fires once, after the plan has passed
	// validation and before the first attempt. Only the Plan and ID
	// fields of the execution are populated. A handler may swap the Plan
	// for another non-nil plan.
	BeforeExecutionStart Event = iota
	// BeforeAttempt fires before every attempt with Request set to the
	// HTTP request about to be sent. Handlers may alter the request but
	// must copy URL and Header before changing them because both are
	// shared with the plan.
	BeforeAttempt
	// BeforeReadBody fires when an attempt produced a response, whatever
	// its status, before the body is buffered. It never fires for an
	// attempt which failed without a response.
	BeforeReadBody
	// AfterAttemptTimeout fires when an attempt failed because its
	// attempt timeout expired. Err holds the timeout error and
	// AttemptTimeouts has already been incremented.
	AfterAttemptTimeout
	// AfterAttempt fires at the end of every attempt, successful or not,
	// and before the retry policy is consulted. At least one of Response
	// and Err is set; both are set when reading the body failed.
	AfterAttempt
	// BeforeRetryWait fires when the retry policy chose to retry, before
	// the backoff. Wait holds the chosen backoff and handlers may change
	// it.
	BeforeRetryWait
	// AfterPlanTimeout fires when the plan context deadline expired,
	// either during an attempt or while waiting to retry. It always
	// follows the AfterAttempt of the same attempt. When the deadline hit
	// during a wait, the response and body of the previous attempt are
	// kept.
	AfterPlanTimeout
	// AfterExecutionEnd fires once when the execution is over, after
	// the final outcome has been classified. End is set and Err holds
	// the error returned to the caller, if any.
	AfterExecutionEnd

	eventSentinel
	numEvents = int(eventSentinel)
)

var eventNames = [numEvents]string{
	BeforeExecutionStart: "BeforeExecutionStart",
	BeforeAttempt:        "BeforeAttempt",
	BeforeReadBody:       "BeforeReadBody",
	AfterAttemptTimeout:  "AfterAttemptTimeout",
	AfterAttempt:         "AfterAttempt",
	BeforeRetryWait:      "BeforeRetryWait",
	AfterPlanTimeout:     "AfterPlanTimeout",
	AfterExecutionEnd:    "AfterExecutionEnd",
}

// Events lists every event in firing order.
func Events() []Event {
	evts := make([]Event, numEvents)
	for i := range evts {
		evts[i] = Event(i)
	}
	return evts
}

// Name returns the event's identifier, for example "AfterAttempt".
func (evt Event) Name() string {
	return eventNames[evt]
}

func (evt Event) String() string {
	return evt.Name()
}
