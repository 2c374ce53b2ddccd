// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dohttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents(t *testing.T) {
	events := Events()
	require.Len(t, events, numEvents)
	for i, evt := range events {
		assert.Equal(t, Event(i), evt)
		assert.NotEmpty(t, evt.Name(), "event %d has no name", i)
	}

	names := make([]string, len(events))
	for i := range events {
		names[i] = events[i].String()
	}
	assert.Equal(t, []string{
		"BeforeExecutionStart",
		"BeforeAttempt",
		"BeforeReadBody",
		"AfterAttemptTimeout",
		"AfterAttempt",
		"BeforeRetryWait",
		"AfterPlanTimeout",
		"AfterExecutionEnd",
	}, names)
}
