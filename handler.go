// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dohttp

import (
	"github.com/gogama/dohttp/request"
)

// Handler is called by a Client when an Event occurs during an
// execution. Handlers run synchronously on the goroutine calling Do and
// may modify the execution.
type Handler interface {
	Handle(Event, *request.Execution)
}

// HandlerFunc lets a plain function serve as a Handler.
type HandlerFunc func(Event, *request.Execution)

// Handle calls f(evt, e).
func (f HandlerFunc) Handle(evt Event, e *request.Execution) {
	f(evt, e)
}

// HandlerGroup holds one Handler chain per Event. The zero value is an
// empty group ready to use. A group must not be modified while a Client
// using it is executing.
type HandlerGroup struct {
	chains [numEvents][]Handler
}

// PushBack appends h to the chain for evt. It panics if h is nil or evt
// is not one of the values returned by Events.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("dohttp: nil handler")
	}
	g.chains[evt] = append(g.chains[evt], h)
}

func (g *HandlerGroup) run(evt Event, e *request.Execution) {
	for _, h := range g.chains[evt] {
		h.Handle(evt, e)
	}
}
