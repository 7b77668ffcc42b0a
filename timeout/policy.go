// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/flowhttp/flowhttp/request"
)

// A Policy supplies the overall budget for a call into the client when
// the caller passes a non-positive timeout. The per-call timeout
// parameter, when positive, always wins over the policy.
//
// Implementations of Policy must be safe for concurrent use by
// multiple goroutines.
type Policy interface {
	// Timeout returns the budget to apply to a call executing the
	// given plan.
	Timeout(p *request.Plan) time.Duration
}

// DefaultPolicy is the default budget policy: a fixed 30 seconds per
// call.
var DefaultPolicy Policy = Fixed(30 * time.Second)

// NoLimit is a built-in policy whose budget never elapses.
var NoLimit Policy = Fixed(1<<63 - 1)

// Fixed constructs a policy that applies the same budget d to every
// call.
func Fixed(d time.Duration) Policy {
	return fixed(d)
}

type fixed time.Duration

func (f fixed) Timeout(_ *request.Plan) time.Duration {
	return time.Duration(f)
}
