// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dohttp

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gogama/dohttp/request"
	"github.com/rs/zerolog"
)

// DefaultLogBodyLimit is the number of request and response body bytes
// written to the debug log when Client.LogBodyLimit is zero.
const DefaultLogBodyLimit = 4 << 10

const redacted = "***"

var sensitiveHeaders = map[string]bool{
	"Authorization":       true,
	"Proxy-Authorization": true,
	"Cookie":              true,
	"Set-Cookie":          true,
}

var sensitiveFragments = []string{"token", "secret", "password", "key"}

// RedactHeader returns a copy of h in which the values of credential
// bearing fields are replaced with "***". Authorization,
// Proxy-Authorization, Cookie and Set-Cookie are always redacted, as is
// any field whose name contains token, secret, password or key.
func RedactHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vs := range h {
		if sensitiveHeader(k) {
			out[k] = []string{redacted}
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func sensitiveHeader(name string) bool {
	if sensitiveHeaders[http.CanonicalHeaderKey(name)] {
		return true
	}
	lower := strings.ToLower(name)
	for _, f := range sensitiveFragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

// attemptLog writes the per-execution log lines. The zero value, used
// when the client has no Logger, writes nothing.
type attemptLog struct {
	l     *zerolog.Logger
	limit int
}

func (c *Client) attemptLog(e *request.Execution) attemptLog {
	if c.Logger == nil {
		return attemptLog{}
	}
	l := c.Logger.With().
		Str("execution_id", e.ID).
		Str("method", method(e.Plan)).
		Str("url", e.Plan.URL.Redacted()).
		Logger()
	limit := c.LogBodyLimit
	if limit == 0 {
		limit = DefaultLogBodyLimit
	}
	return attemptLog{l: &l, limit: limit}
}

func (a attemptLog) start(e *request.Execution) {
	if a.l == nil {
		return
	}
	p := e.Plan
	evt := a.l.Debug().
		Dict("headers", headerDict(RedactHeader(p.Header))).
		Bool("verify_tls", p.VerifyTLS).
		Bool("follow_redirects", p.FollowRedirects).
		Bool("raise_on_error", p.RaiseOnError)
	if p.Proxy != nil {
		evt = evt.Str("proxy", p.Proxy.Redacted())
	}
	if p.Timeout > 0 {
		evt = evt.Dur("timeout", p.Timeout)
	}
	if body, ok := a.body(p.Body); ok {
		evt = evt.Str("body", body)
	}
	evt.Msg("executing request")
}

func (a attemptLog) attempt(e *request.Execution) {
	if a.l == nil {
		return
	}
	evt := a.l.Debug().Int("attempt", e.Attempt)
	if e.Response != nil {
		evt = evt.Int("status", e.StatusCode()).
			Dict("response_headers", headerDict(RedactHeader(e.Header())))
		if body, ok := a.body(e.Body); ok {
			evt = evt.Str("body", body)
		}
	}
	if e.Err != nil {
		evt = evt.AnErr("error", e.Err)
	}
	evt.Msg("attempt finished")
}

func (a attemptLog) retry(e *request.Execution) {
	if a.l == nil {
		return
	}
	evt := a.l.Info().
		Int("attempt", e.Attempt).
		Dur("wait", e.Wait)
	if e.Response != nil {
		evt = evt.Int("status", e.StatusCode())
	}
	if e.Err != nil {
		evt = evt.AnErr("error", e.Err)
	}
	evt.Msg("retrying request")
}

func (a attemptLog) end(e *request.Execution) {
	if a.l == nil {
		return
	}
	var de *Error
	switch {
	case e.Err == nil:
		a.l.Debug().
			Int("status", e.StatusCode()).
			Int("attempts", e.Attempt+1).
			Dur("duration", e.Duration()).
			Msg("request succeeded")
	case errors.As(e.Err, &de) && de.Kind == ErrHTTPStatus:
		evt := a.l.Error().
			Int("status", de.StatusCode).
			Int("attempts", de.Attempts)
		if body, ok := a.body(de.Body); ok {
			evt = evt.Str("body", body)
		}
		evt.Msg("request failed with unsuccessful status")
	default:
		a.l.Warn().
			Str("outcome", Outcome(e.Err)).
			Int("attempts", e.Attempt+1).
			AnErr("error", e.Err).
			Msg("request failed")
	}
}

func (a attemptLog) body(b []byte) (string, bool) {
	if len(b) == 0 || a.limit < 0 {
		return "", false
	}
	if len(b) <= a.limit {
		return string(b), true
	}
	return fmt.Sprintf("%s... (%d more bytes)", b[:a.limit], len(b)-a.limit), true
}

func headerDict(h http.Header) *zerolog.Event {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d := zerolog.Dict()
	for _, k := range keys {
		d = d.Str(k, strings.Join(h[k], ", "))
	}
	return d
}
