// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	notFound := &net.DNSError{Err: "no such host", Name: "orders.invalid", IsNotFound: true}
	misbehaving := &net.DNSError{Err: "server misbehaving", Name: "orders.internal", IsTemporary: true}

	testCases := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, Not},
		{"plain", errors.New("certificate has expired"), Not},
		{"empty chain", chain{}, Not},
		{"wrapped plain", chain{errors.New("bad gateway")}, Not},
		{"permission", syscall.EPERM, Not},
		{"cancelled", context.Canceled, Not},
		{"no such host", notFound, Not},
		{"temporary but not found", &net.DNSError{Err: "odd", IsTemporary: true, IsNotFound: true}, Not},

		{"errno timeout", syscall.ETIMEDOUT, Timeout},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"url error timeout", &url.Error{Op: "Get", URL: "u", Err: syscall.ETIMEDOUT}, Timeout},
		{"fmt wrapped deadline", fmt.Errorf("reading body: %w", context.DeadlineExceeded), Timeout},
		{"deeply wrapped", chain{chain{&url.Error{Err: deadline{}}}}, Timeout},
		{"timeout beats reset", deadline{cause: syscall.ECONNRESET}, Timeout},
		{"dns timeout", &net.DNSError{Err: "i/o timeout", IsTimeout: true}, Timeout},

		{"reset", syscall.ECONNRESET, ConnReset},
		{"wrapped reset", chain{syscall.ECONNRESET}, ConnReset},
		{"refused", syscall.ECONNREFUSED, ConnRefused},
		{"dial refused", &url.Error{Err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}}, ConnRefused},
		{"aborted", &net.OpError{Op: "read", Err: syscall.ECONNABORTED}, ConnAborted},
		{"network unreachable", &net.OpError{Op: "dial", Err: syscall.ENETUNREACH}, Unreachable},
		{"host unreachable", chain{syscall.EHOSTUNREACH}, Unreachable},

		{"temporary dns", &url.Error{Op: "Get", URL: "http://orders.internal", Err: misbehaving}, DNS},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, Categorize(testCase.err))
		})
	}
}

func TestCategoryString(t *testing.T) {
	for cat, name := range map[Category]string{
		Not:          "Not",
		Timeout:      "Timeout",
		ConnRefused:  "ConnRefused",
		ConnReset:    "ConnReset",
		ConnAborted:  "ConnAborted",
		Unreachable:  "Unreachable",
		DNS:          "DNS",
		DNS + 1:      "Category(?)",
		Category(-1): "Category(?)",
	} {
		assert.Equal(t, name, cat.String())
	}
}

// deadline reports a timeout and optionally wraps a cause.
type deadline struct {
	cause error
}

func (d deadline) Error() string { return fmt.Sprintf("deadline passed: %v", d.cause) }
func (d deadline) Timeout() bool { return true }
func (d deadline) Unwrap() error { return d.cause }

// chain wraps one error without adding meaning.
type chain struct {
	next error
}

func (c chain) Error() string { return fmt.Sprintf("chain(%v)", c.next) }
func (c chain) Unwrap() error { return c.next }
