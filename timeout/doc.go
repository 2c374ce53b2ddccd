// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for setting the timeout of each
// individual attempt made while executing an HTTP request plan. The
// default policy allows 30 seconds per attempt. A timeout set directly
// on a plan always takes precedence over the executor's policy.
package timeout
