// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package dohttp executes HTTP requests with retries, timeouts and
classified errors within a simple and familiar interface.

Create a Client to begin making requests.

	client := &dohttp.Client{}
	ex, err := client.Get("https://www.example.com")
	...
	ex, err := client.Post("https://www.example.com/upload",
		"application/json", &buf)
	...
	ex, err := client.PostForm("http://example.com/form",
		url.Values{"key": {"Value"}, "id": {"123"}})

Set a default Endpoint and Method, then describe each call with options
from package request:

	client := &dohttp.Client{
		Endpoint: "https://api.example.com/v1/",
	}
	ex, err := client.Request(ctx, "widgets",
		request.Method("POST"),
		request.Header("Accept", "application/json"),
		request.Body(payload),
		request.Timeout(5*time.Second))

Every failure after at least one attempt is an *Error whose Kind can be
tested with errors.Is:

	switch {
	case errors.Is(err, dohttp.ErrHTTPStatus):
		var de *dohttp.Error
		errors.As(err, &de)
		log.Printf("status %d: %s", de.StatusCode, de.Body)
	case errors.Is(err, dohttp.ErrTimeout):
		...
	}

For control over the client's retry decisions and timing, set a retry
configuration, or compose a policy from components in package retry:

	config := retry.DefaultConfig()
	config.MaxTotalAttempts = 5
	config.RetryTransientErrors = true
	client := &dohttp.Client{
		RetryPolicy: config,
	}

For control over the client's individual attempt timeouts, set a custom
timeout policy using package timeout. A plan's own Timeout always takes
precedence:

	client := &dohttp.Client{
		TimeoutPolicy: timeout.Fixed(10*time.Second),
	}

To control proxies, certificates and connection pooling, set a
transport from package transport:

	client := &dohttp.Client{
		Transport: &transport.Standard{Base: myTransport},
	}

To hook into the fine-grained details of the client's request execution
logic, install a handler into the appropriate handler chain:

	handlers := &dohttp.HandlerGroup{}
	handlers.PushBack(dohttp.BeforeAttempt, dohttp.HandlerFunc(
		func(_ dohttp.Event, e *request.Execution) {
			log.Printf("Attempt %d to %s", e.Attempt, e.Request.URL.String())
		})
	)
	client := &dohttp.Client{
		Handlers: handlers,
	}

Package dohttp provides basic interfaces for each method of the client
(Doer, Getter, Header, Poster, FormPoster, and IdleCloser); a combined
interface that composes all the basic methods (Executor); and utility
functions for working with a Doer (Inflate, Get, Head, Post, and
PostForm).
*/
package dohttp
