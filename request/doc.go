// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request holds the two values passed around during a DoHTTP
call: Plan, the immutable description of one logical request, and
Execution, the running state of that request across its attempts.

A Plan carries the method, URL, headers and a pre-buffered body, plus
the per-call knobs that govern how the client treats it: an attempt
Timeout, TLS verification, redirect following, an optional Proxy and
whether an unsuccessful status is raised as an error. Because the body
is buffered, every retry can replay it byte for byte.

Most callers build plans with Build, which joins a path onto an
endpoint following RFC 3986 and applies Option values:

	p, err := request.Build(ctx, "GET", "https://api.example.com/v1/", "orders",
		request.Param("status", "open"),
		request.Timeout(5*time.Second))

NewPlan and NewPlanWithContext take an absolute URL instead:

	p, err := request.NewPlanWithContext(ctx, "PUT", "https://api.example.com/v1/orders/7", body)

The plan context bounds the whole execution, retry waits included.
Each attempt additionally gets its own deadline from the plan Timeout
or, when that is zero, from the client's timeout policy. An attempt
which runs out of its own time may be retried; once the plan context
is done, nothing more is attempted.

An Execution is created by the client for every call. Handlers, retry
policies and timeout policies all receive the same *Execution, and the
client returns it once the last attempt is over. It records the
current attempt number, how many attempts timed out, the latest
request, response, body and error, and the wait chosen before the next
retry.
*/
package request
