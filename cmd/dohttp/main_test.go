// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			b, _ := io.ReadAll(r.Body)
			user, pass, _ := r.BasicAuth()
			w.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(w, strings.Join([]string{
				r.Method,
				r.Header.Get("X-Thing"),
				r.URL.Query().Get("q"),
				r.UserAgent(),
				user + ":" + pass,
				string(b),
			}, "|"))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, "not here")
		default:
			_, _ = io.WriteString(w, "hello")
		}
	}))
	defer server.Close()

	bodyFile := filepath.Join(t.TempDir(), "body.txt")
	require.NoError(t, os.WriteFile(bodyFile, []byte("from file"), 0o600))

	testCases := []struct {
		name      string
		args      []string
		code      int
		stdout    string
		stderrHas []string
	}{
		{
			name:      "get",
			args:      []string{"--endpoint", server.URL, "/"},
			code:      exitOK,
			stdout:    "hello",
			stderrHas: []string{"200 OK", "1 attempt"},
		},
		{
			name: "request options",
			args: []string{
				"--endpoint", server.URL,
				"-X", "put",
				"-H", "X-Thing: thing",
				"-q", "q=query",
				"-A", "agent/1",
				"-u", "bob:pw",
				"-d", "payload",
				"/echo",
			},
			code:   exitOK,
			stdout: "PUT|thing|query|agent/1|bob:pw|payload",
		},
		{
			name:   "body from file",
			args:   []string{"-X", "POST", "-d", "@" + bodyFile, server.URL + "/echo"},
			code:   exitOK,
			stdout: "POST|||Go-http-client/1.1|:|from file",
		},
		{
			name:      "status error",
			args:      []string{server.URL + "/missing"},
			code:      exitFailure,
			stdout:    "not here",
			stderrHas: []string{"404 Not Found", "http_status"},
		},
		{
			name:      "status error not raised",
			args:      []string{"--no-raise", server.URL + "/missing"},
			code:      exitOK,
			stdout:    "not here",
			stderrHas: []string{"404 Not Found"},
		},
		{
			name:      "connection failure",
			args:      []string{"http://127.0.0.1:1/"},
			code:      exitFailure,
			stderrHas: []string{"no response", "connection"},
		},
		{
			name:      "verbose",
			args:      []string{"-v", server.URL},
			code:      exitOK,
			stdout:    "hello",
			stderrHas: []string{`"level":"debug"`, "executing request"},
		},
		{
			name: "missing path",
			args: []string{"--endpoint", server.URL},
			code: exitUsage,
		},
		{
			name: "unknown flag",
			args: []string{"--frobnicate", server.URL},
			code: exitUsage,
		},
		{
			name:      "bad header",
			args:      []string{"-H", "nocolon", server.URL},
			code:      exitUsage,
			stderrHas: []string{"invalid header"},
		},
		{
			name:      "bad config",
			args:      []string{"--log-level", "chatty", server.URL},
			code:      exitUsage,
			stderrHas: []string{"Log.Level"},
		},
		{
			name:      "bad timeout",
			args:      []string{"--timeout", "-1s", server.URL},
			code:      exitUsage,
			stderrHas: []string{"Timeout must be > 0"},
		},
		{
			name:      "missing config file",
			args:      []string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), server.URL},
			code:      exitUsage,
			stderrHas: []string{"failed to load"},
		},
		{
			name: "help",
			args: []string{"--help"},
			code: exitOK,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			code := run(context.Background(), testCase.args, &stdout, &stderr)

			assert.Equal(t, testCase.code, code, "stderr: %s", stderr.String())
			assert.Equal(t, testCase.stdout, stdout.String())
			for _, s := range testCase.stderrHas {
				assert.Contains(t, stderr.String(), s)
			}
		})
	}
}

func TestRunRetries(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "recovered")
	}))
	defer server.Close()
	t.Setenv("DOHTTP_RETRY_BACKOFF", "1ms")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{server.URL}, &stdout, &stderr)

	assert.Equal(t, exitOK, code, "stderr: %s", stderr.String())
	assert.Equal(t, "recovered", stdout.String())
	assert.Contains(t, stderr.String(), "2 attempts")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSizeOf(t *testing.T) {
	assert.NotEmpty(t, sizeOf(0))
	assert.NotEqual(t, sizeOf(1), sizeOf(1<<20))
}
