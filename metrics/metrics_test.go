// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogama/dohttp"
	"github.com/gogama/dohttp/retry"
	"github.com/gogama/dohttp/timeout"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/flaky":
			if atomic.AddInt32(&hits, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			return
		case "/slow":
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New("")
	handlers := &dohttp.HandlerGroup{}
	c.Install(handlers)
	config := retry.DefaultConfig()
	config.BackoffFactor = time.Millisecond
	cl := &dohttp.Client{
		Endpoint:    server.URL,
		RetryPolicy: config,
		Handlers:    handlers,
	}

	_, err := cl.Get("/flaky")
	require.NoError(t, err)
	_, err = cl.Get("/missing")
	require.ErrorIs(t, err, dohttp.ErrHTTPStatus)
	slow := *cl
	slow.TimeoutPolicy = timeout.Fixed(10 * time.Millisecond)
	_, err = slow.Get("/slow")
	require.ErrorIs(t, err, dohttp.ErrTimeout)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.attempts.WithLabelValues("GET", "503")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.attempts.WithLabelValues("GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.attempts.WithLabelValues("GET", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.attempts.WithLabelValues("GET", "0")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.retries.WithLabelValues("GET")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.timeouts.WithLabelValues("GET")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.executions.WithLabelValues("GET", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.executions.WithLabelValues("GET", "http_status")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.executions.WithLabelValues("GET", "timeout")))
	assert.Equal(t, 3, testutil.CollectAndCount(c, "dohttp_execution_duration_seconds"))
}

func TestCollectorRegister(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := New("myapp", 0.1, 1)

	require.NoError(t, reg.Register(c))
	c.executions.WithLabelValues("POST", "connection").Inc()

	n, err := testutil.GatherAndCount(reg, "myapp_executions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Error(t, reg.Register(New("myapp")), "duplicate registration must fail")
}
