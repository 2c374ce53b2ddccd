// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors from HTTP request execution as
// transient or non-transient. The retry package uses it to decide
// whether a failed attempt may be retried, and the executor uses it to
// tell timeouts and connection failures apart from other transport
// errors.
//
// Package transient depends only on the standard library, so it can be
// imported on its own without pulling in the rest of the module.
package transient
