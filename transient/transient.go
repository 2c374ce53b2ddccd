// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"net"
	"syscall"
)

// Category says whether, and why, an attempt failure is worth retrying.
// Not marks a failure a retry is unlikely to fix. Every other value
// names a condition which often clears on its own.
type Category int

const (
	// Not is the category of nil and of every permanent error.
	Not Category = iota
	// Timeout is any error in whose chain some error reports
	// Timeout() == true, such as an expired attempt deadline.
	Timeout
	// ConnRefused is ECONNREFUSED. Services refuse connections while
	// they start or restart.
	ConnRefused
	// ConnReset is ECONNRESET, typical of a peer or load balancer
	// dropping a connection mid response.
	ConnReset
	// ConnAborted is ECONNABORTED from the local network stack.
	ConnAborted
	// Unreachable is ENETUNREACH or EHOSTUNREACH.
	Unreachable
	// DNS is a lookup failure the resolver flagged as temporary. A
	// "no such host" answer is Not.
	DNS
)

var categoryNames = [...]string{
	Not:         "Not",
	Timeout:     "Timeout",
	ConnRefused: "ConnRefused",
	ConnReset:   "ConnReset",
	ConnAborted: "ConnAborted",
	Unreachable: "Unreachable",
	DNS:         "DNS",
}

func (cat Category) String() string {
	if cat < 0 || int(cat) >= len(categoryNames) {
		return "Category(?)"
	}
	return categoryNames[cat]
}

// Categorize walks the error chain of err and returns the first
// matching category, checking timeouts before system errors and system
// errors before DNS failures. Temporary() is not consulted.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET:
			return ConnReset
		case syscall.ECONNREFUSED:
			return ConnRefused
		case syscall.ECONNABORTED:
			return ConnAborted
		case syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return Unreachable
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsTemporary && !dnsErr.IsNotFound {
		return DNS
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
