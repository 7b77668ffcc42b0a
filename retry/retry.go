// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/flowhttp/flowhttp/transient"
)

// A State describes one failed send from the worker's perspective:
// which resend this would be (zero-based) and the error that ended the
// previous attempt.
type State struct {
	// Attempt is the zero-based index of the attempt that just failed.
	// Zero means the initial send failed and the first resend is under
	// consideration.
	Attempt int
	// Err is the error that ended the attempt.
	Err error
}

// A Decider decides whether the worker should resend a request after a
// failed attempt.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructor Times and the built-in decider
// PeerClosed, or implement your own. Use DeciderFunc to convert an
// ordinary function into a Decider and to compose deciders logically
// with DeciderFunc.And and DeciderFunc.Or.
type Decider interface {
	Decide(s State) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as resend deciders. It implements the Decider interface
// and provides the logical composition methods And and Or.
type DeciderFunc func(s State) bool

// Decide returns true if the request should be resent.
func (f DeciderFunc) Decide(s State) bool {
	return f(s)
}

// And composes two deciders into one which resends only if both
// sub-deciders agree. Short-circuit logic is used, so g is not
// evaluated if f returns false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(s State) bool {
		return f(s) && g(s)
	}
}

// Or composes two deciders into one which resends if either
// sub-decider agrees. Short-circuit logic is used, so g is not
// evaluated if f returns true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(s State) bool {
		return f(s) || g(s)
	}
}

// PeerClosed is a decider that resends only if the attempt failed
// because the peer closed the connection. This is the condition the
// send_retry option budgets for: the connection died after data was
// sent but before a response was read, typically because a keep-alive
// connection went stale.
var PeerClosed DeciderFunc = peerClosed

func peerClosed(s State) bool {
	return transient.Categorize(s.Err) == transient.Closed
}

// Times constructs a decider which permits up to n resends.
func Times(n int) DeciderFunc {
	return func(s State) bool {
		return s.Attempt < n
	}
}

// A Waiter specifies how long the worker pauses before a resend.
//
// Implementations of Waiter must be safe for concurrent use by
// multiple goroutines. The worker does not consult the Waiter when the
// Decider declined the resend.
type Waiter interface {
	Wait(s State) time.Duration
}

// DefaultWaiter is the default resend wait policy: resend immediately.
// A stale keep-alive connection says nothing about the health of the
// remote service, so there is nothing to back off from.
var DefaultWaiter Waiter = NewFixedWaiter(0)

// NewFixedWaiter constructs a Waiter that always returns the given
// duration.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ State) time.Duration {
	return time.Duration(w)
}

// A Policy combines a resend decision with a resend wait. Construct
// one with NewPolicy, or use Budget for the standard send_retry
// behavior.
type Policy interface {
	Decider
	Waiter
}

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a resend Policy.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("flowhttp/retry: nil decider")
	}
	if w == nil {
		panic("flowhttp/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

// Budget returns the resend policy implementing the send_retry option:
// up to n immediate resends, and only after a peer close.
func Budget(n int) Policy {
	return NewPolicy(Times(n).And(PeerClosed), DefaultWaiter)
}

func (p policy) Decide(s State) bool {
	return p.decider.Decide(s)
}

func (p policy) Wait(s State) time.Duration {
	return p.waiter.Wait(s)
}
