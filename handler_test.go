// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dohttp

import (
	"fmt"
	"testing"

	"github.com/gogama/dohttp/request"
	"github.com/stretchr/testify/assert"
)

func TestHandlerGroup(t *testing.T) {
	var log []string
	record := func(name string) Handler {
		return HandlerFunc(func(evt Event, e *request.Execution) {
			log = append(log, fmt.Sprintf("%s:%s:%s", name, evt, e.ID))
		})
	}

	t.Run("zero value runs nothing", func(t *testing.T) {
		var g HandlerGroup
		g.run(AfterExecutionEnd, &request.Execution{})
		assert.Empty(t, log)
	})
	t.Run("PushBack rejects", func(t *testing.T) {
		var g HandlerGroup
		assert.PanicsWithValue(t, "dohttp: nil handler", func() { g.PushBack(AfterAttempt, nil) })
		assert.Panics(t, func() { g.PushBack(eventSentinel, record("x")) })
	})
	t.Run("chains run in order per event", func(t *testing.T) {
		var g HandlerGroup
		g.PushBack(BeforeAttempt, record("metrics"))
		g.PushBack(BeforeAttempt, record("auth"))
		g.PushBack(BeforeRetryWait, record("auth"))

		testCases := []struct {
			evt  Event
			id   string
			want []string
		}{
			{BeforeAttempt, "a", []string{"metrics:BeforeAttempt:a", "auth:BeforeAttempt:a"}},
			{BeforeRetryWait, "b", []string{"auth:BeforeRetryWait:b"}},
			{AfterPlanTimeout, "c", nil},
		}
		for _, testCase := range testCases {
			log = nil
			g.run(testCase.evt, &request.Execution{ID: testCase.id})
			assert.Equal(t, testCase.want, log, testCase.evt.Name())
		}
	})
}

func TestHandlerFunc(t *testing.T) {
	var gotEvt Event
	var gotExec *request.Execution
	h := HandlerFunc(func(evt Event, e *request.Execution) {
		gotEvt, gotExec = evt, e
	})
	e := &request.Execution{}

	h.Handle(BeforeReadBody, e)

	assert.Equal(t, BeforeReadBody, gotEvt)
	assert.Same(t, e, gotExec)
}
