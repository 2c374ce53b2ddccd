// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transport provides the connection layer used by dohttp.Client
// to send individual HTTP request attempts.
//
// The client opens one Session per request plan execution and closes it
// when the execution ends, whatever the outcome. All attempts within
// the execution, including retries, go through the same session.
//
// Standard is the usual implementation. It clones a base http.Transport
// for every session and applies the plan's proxy, TLS verification and
// redirect settings to the clone, so settings never leak between
// concurrent executions:
//
//	c := &dohttp.Client{
//		Transport: &transport.Standard{MaxRedirects: 5},
//	}
//
// FromDoer adapts anything with an http.Client style Do method. The
// adapted doer keeps full control of its own connection settings, so
// the plan's proxy, TLS and redirect settings are not applied.
package transport
