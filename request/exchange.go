// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/flowhttp/flowhttp/option"
)

// An Exchange represents the observable state of one request as it
// moves from spawn to terminal Result.
//
// When a request is made, an Exchange is created for it and updated as
// the exchange progresses: when the worker is spawned, when body parts
// are sent and acknowledged, and when a terminal outcome arrives.
// Event handlers receive the Exchange at each plug-in point. Handlers
// may stash arbitrary values with SetValue and read them back with
// Value, but should treat the exported fields as read-only: the
// exchange state is owned by the client's orchestration logic.
type Exchange struct {
	// Plan is the HTTP request plan being executed. It is never nil.
	Plan *Plan

	// ID identifies the exchange, for correlation in logs and event
	// handlers. It is assigned when the exchange is created and never
	// changes.
	ID uuid.UUID

	// Start is the time the exchange started, set just before the
	// worker is spawned.
	Start time.Time

	// End is the time the exchange resolved to a terminal outcome. It
	// contains the zero value while the exchange is in flight.
	End time.Time

	// Budget is the timeout governing the current call into the
	// client: the overall budget for an atomic request, or the
	// per-call budget for a streaming call.
	Budget time.Duration

	// Window is the current send-credit window of a partial upload.
	// Zero for atomic requests.
	Window option.Window

	// PartsSent counts accepted body-part and trailer messages sent to
	// the worker so far.
	PartsSent int

	// Acks counts worker acknowledgements consumed so far. Acks can
	// trail PartsSent by up to the configured window size.
	Acks int

	// Result is the terminal Result, once resolved, success or
	// error-kind. Nil while the exchange is in flight.
	Result *Result

	// Err is the error the exchange resolved with, if any. It is the
	// same value returned from the client entry point: an error-kind
	// Result reason (*Error) or a *BadOptionsError. Worker defects do
	// not appear here; they propagate as panics.
	Err error

	// data carries handler values. The flowhttp library never touches
	// it.
	data map[interface{}]interface{}
}

// StatusCode returns the status code of the terminal Result, or 0 if
// the exchange has not resolved to a success Result.
func (x *Exchange) StatusCode() int {
	if x.Result == nil {
		return 0
	}
	return x.Result.StatusCode
}

// Duration returns the duration of the exchange: zero before it
// starts, current elapsed time while in flight, and End minus Start
// once resolved.
func (x *Exchange) Duration() time.Duration {
	if !x.Started() {
		return 0
	} else if !x.Ended() {
		return time.Since(x.Start)
	}
	return x.End.Sub(x.Start)
}

// Started indicates whether the worker has been spawned.
func (x *Exchange) Started() bool {
	return x.Start != (time.Time{})
}

// Ended indicates whether the exchange has resolved to a terminal
// outcome.
func (x *Exchange) Ended() bool {
	return x.End != (time.Time{})
}

// TimedOut indicates whether the exchange resolved with a confirmed
// timeout.
func (x *Exchange) TimedOut() bool {
	return errors.Is(x.Err, ErrTimeout)
}

// SetValue associates an arbitrary value with the exchange. The key
// must be comparable and should not be of a built-in type, to avoid
// collisions between handlers.
func (x *Exchange) SetValue(key, value interface{}) {
	if key == nil {
		panic("flowhttp/request: nil key")
	}
	if x.data == nil {
		x.data = make(map[interface{}]interface{})
	}
	x.data[key] = value
}

// Value returns the value associated with key, or nil if none.
func (x *Exchange) Value(key interface{}) interface{} {
	return x.data[key]
}
