// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecutionResponseAccessors(t *testing.T) {
	var e Execution
	assert.Equal(t, 0, e.StatusCode())
	assert.Nil(t, e.Header())
	assert.Empty(t, e.Header().Get("Retry-After"))

	h := http.Header{"Retry-After": []string{"120"}}
	e.Response = &http.Response{StatusCode: http.StatusTooManyRequests, Header: h}
	assert.Equal(t, http.StatusTooManyRequests, e.StatusCode())
	assert.Equal(t, "120", e.Header().Get("Retry-After"))
}

func TestExecutionTiming(t *testing.T) {
	var e Execution
	assert.False(t, e.Started())
	assert.False(t, e.Ended())
	assert.Zero(t, e.Duration())

	e.Start = time.Now().Add(-time.Second)
	assert.True(t, e.Started())
	assert.False(t, e.Ended())
	running := e.Duration()
	assert.GreaterOrEqual(t, running, time.Second)
	assert.GreaterOrEqual(t, e.Duration(), running)

	e.End = e.Start.Add(1500 * time.Millisecond)
	assert.True(t, e.Ended())
	assert.Equal(t, 1500*time.Millisecond, e.Duration())
	time.Sleep(time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, e.Duration())
}

func TestExecutionTimeout(t *testing.T) {
	testCases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("connection reset"), false},
		{syscall.ETIMEDOUT, true},
		{context.DeadlineExceeded, true},
		{&url.Error{Op: "Get", URL: "http://x", Err: syscall.ETIMEDOUT}, true},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), true},
	}
	for _, testCase := range testCases {
		t.Run(fmt.Sprint(testCase.err), func(t *testing.T) {
			e := Execution{Err: testCase.err}
			assert.Equal(t, testCase.want, e.Timeout())
		})
	}
}

type keyA struct{}

type keyB struct{}

func TestExecutionValues(t *testing.T) {
	var e Execution
	assert.Nil(t, e.Value(keyA{}))

	e.SetValue(keyA{}, "a1")
	e.SetValue(keyB{}, 2)
	e.SetValue("plain", true)
	assert.Equal(t, "a1", e.Value(keyA{}))
	assert.Equal(t, 2, e.Value(keyB{}))
	assert.Equal(t, true, e.Value("plain"))

	e.SetValue(keyA{}, "a2")
	assert.Equal(t, "a2", e.Value(keyA{}))
	assert.Equal(t, 2, e.Value(keyB{}))

	assert.PanicsWithValue(t, "dohttp/request: nil key", func() { e.SetValue(nil, 1) })
}
