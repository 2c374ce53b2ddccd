// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics exports Prometheus metrics about request plan
// executions. A Collector observes executions through the handler
// chains of a dohttp.HandlerGroup:
//
//	m := metrics.New("myapp")
//	prometheus.MustRegister(m)
//	handlers := &dohttp.HandlerGroup{}
//	m.Install(handlers)
//	client := &dohttp.Client{Handlers: handlers}
package metrics

import (
	"strconv"

	"github.com/gogama/dohttp"
	"github.com/gogama/dohttp/request"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultBuckets are the execution duration histogram buckets, in
// seconds, used when New is not given any.
var DefaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}

// A Collector counts attempts, retries, attempt timeouts and finished
// executions, and records execution durations. It implements
// prometheus.Collector and is safe for concurrent use.
type Collector struct {
	attempts   *prometheus.CounterVec
	retries    *prometheus.CounterVec
	timeouts   *prometheus.CounterVec
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New returns a Collector whose metric names start with namespace, or
// with "dohttp" if namespace is empty. The optional buckets replace
// DefaultBuckets.
func New(namespace string, buckets ...float64) *Collector {
	if namespace == "" {
		namespace = "dohttp"
	}
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}
	return &Collector{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Number of HTTP request attempts, by method and response status (0 if no response).",
		}, []string{"method", "status"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Number of retries scheduled after a failed attempt, by method.",
		}, []string{"method"}),
		timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempt_timeouts_total",
			Help:      "Number of attempts which timed out, by method.",
		}, []string{"method"}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Number of finished request plan executions, by method and outcome.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_duration_seconds",
			Help:      "Duration of request plan executions including retries, by method and outcome.",
			Buckets:   buckets,
		}, []string{"method", "outcome"}),
	}
}

// Install adds the collector's handlers to the end of the AfterAttempt,
// AfterAttemptTimeout, BeforeRetryWait and AfterExecutionEnd chains of
// g.
func (c *Collector) Install(g *dohttp.HandlerGroup) {
	g.PushBack(dohttp.AfterAttempt, dohttp.HandlerFunc(c.afterAttempt))
	g.PushBack(dohttp.AfterAttemptTimeout, dohttp.HandlerFunc(c.afterAttemptTimeout))
	g.PushBack(dohttp.BeforeRetryWait, dohttp.HandlerFunc(c.beforeRetryWait))
	g.PushBack(dohttp.AfterExecutionEnd, dohttp.HandlerFunc(c.afterExecutionEnd))
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.attempts.Describe(ch)
	c.retries.Describe(ch)
	c.timeouts.Describe(ch)
	c.executions.Describe(ch)
	c.duration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.attempts.Collect(ch)
	c.retries.Collect(ch)
	c.timeouts.Collect(ch)
	c.executions.Collect(ch)
	c.duration.Collect(ch)
}

func (c *Collector) afterAttempt(_ dohttp.Event, e *request.Execution) {
	c.attempts.WithLabelValues(method(e), strconv.Itoa(e.StatusCode())).Inc()
}

func (c *Collector) afterAttemptTimeout(_ dohttp.Event, e *request.Execution) {
	c.timeouts.WithLabelValues(method(e)).Inc()
}

func (c *Collector) beforeRetryWait(_ dohttp.Event, e *request.Execution) {
	c.retries.WithLabelValues(method(e)).Inc()
}

func (c *Collector) afterExecutionEnd(_ dohttp.Event, e *request.Execution) {
	m, outcome := method(e), dohttp.Outcome(e.Err)
	c.executions.WithLabelValues(m, outcome).Inc()
	c.duration.WithLabelValues(m, outcome).Observe(e.Duration().Seconds())
}

func method(e *request.Execution) string {
	if e.Plan == nil || e.Plan.Method == "" {
		return "GET"
	}
	return e.Plan.Method
}
